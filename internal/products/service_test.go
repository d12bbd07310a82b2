package product

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/pkg/db/dbtest"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), nil)
	require.NoError(t, err)
	return svc, conn
}

func TestCreateProduct(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.CreateUser(t, conn, "taro")

	out, err := svc.CreateProduct(context.Background(), user.ID, ProductInput{Name: "  醤油ラーメン ", Price: decimal.NewFromInt(850)})
	require.NoError(t, err)
	assert.Equal(t, "醤油ラーメン", out.Name)
	assert.False(t, out.IsVerified)
	require.NotNil(t, out.UserID)
	assert.Equal(t, user.ID, *out.UserID)
	assert.True(t, out.Price.Equal(decimal.NewFromInt(850)))
}

func TestCreateProductValidation(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.CreateUser(t, conn, "taro")

	_, err := svc.CreateProduct(context.Background(), user.ID, ProductInput{Name: " ", Price: decimal.NewFromInt(-1)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{"name": msgNameRequired, "price": msgPriceNegative}, typed.FieldErrors())

	var count int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateProductDuplicateName(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.CreateUser(t, conn, "taro")
	dbtest.CreateProduct(t, conn, "餃子", 400, user.ID)

	_, err := svc.CreateProduct(context.Background(), user.ID, ProductInput{Name: "餃子", Price: decimal.Zero})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, msgNameTaken, typed.FieldErrors()["name"])
}

func TestCreateProductMissingAuthor(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateProduct(context.Background(), 404, ProductInput{Name: "餃子", Price: decimal.Zero})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeUnauthorized, typed.Code())
	assert.Equal(t, msgUserNotFound, typed.Message())
}

func TestUpdateProduct(t *testing.T) {
	svc, conn := newTestService(t)
	owner := dbtest.CreateUser(t, conn, "taro")
	editor := dbtest.CreateUser(t, conn, "hanako")
	p := dbtest.CreateProduct(t, conn, "餃子", 400, owner.ID)

	out, err := svc.UpdateProduct(context.Background(), editor.ID, p.ID, ProductInput{Name: "焼き餃子", Price: decimal.NewFromInt(450)})
	require.NoError(t, err)
	assert.Equal(t, "焼き餃子", out.Name)
	require.NotNil(t, out.UpdatedBy)
	assert.Equal(t, editor.ID, *out.UpdatedBy)
	assert.Equal(t, owner.ID, *out.UserID)

	_, err = svc.UpdateProduct(context.Background(), editor.ID, p.ID+99, ProductInput{Name: "x", Price: decimal.Zero})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
	assert.Equal(t, MsgProductNotFound, typed.Message())
}

func TestListProductsIncludesReviewCounts(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.CreateUser(t, conn, "taro")
	first := dbtest.CreateProduct(t, conn, "餃子", 400, user.ID)
	dbtest.CreateProduct(t, conn, "炒飯", 700, user.ID)
	dbtest.CreateReview(t, conn, user.ID, first.ID, "おいしい")
	dbtest.CreateReview(t, conn, user.ID, first.ID, "また食べたい")

	params, err := pagination.Resolve("", "", DefaultListLimit)
	require.NoError(t, err)
	out, err := svc.ListProducts(context.Background(), params)
	require.NoError(t, err)

	require.Len(t, out.Products, 2)
	assert.Equal(t, "炒飯", out.Products[0].Name)
	assert.EqualValues(t, 0, out.Products[0].ReviewCount)
	assert.Equal(t, "餃子", out.Products[1].Name)
	assert.EqualValues(t, 2, out.Products[1].ReviewCount)
	assert.Equal(t, pagination.Meta{CurrentPage: 1, Limit: 50, TotalCount: 2, TotalPages: 1}, out.Pagination)
}

func TestSearchProducts(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.CreateUser(t, conn, "taro")
	dbtest.CreateProduct(t, conn, "Shoyu Ramen", 800, user.ID)
	dbtest.CreateProduct(t, conn, "Miso Ramen", 900, user.ID)
	dbtest.CreateProduct(t, conn, "Gyoza", 400, user.ID)
	dbtest.CreateProduct(t, conn, "100% Juice", 300, user.ID)

	items, err := svc.SearchProducts(context.Background(), "RAMEN")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Miso Ramen", items[0].Name)
	assert.Equal(t, "Shoyu Ramen", items[1].Name)

	items, err = svc.SearchProducts(context.Background(), "%")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "100% Juice", items[0].Name)

	items, err = svc.SearchProducts(context.Background(), "  ")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGetProductPage(t *testing.T) {
	svc, conn := newTestService(t)
	user := dbtest.CreateUser(t, conn, "taro")
	p := dbtest.CreateProduct(t, conn, "餃子", 400, user.ID)
	dbtest.CreateReview(t, conn, user.ID, p.ID, "old", "https://cdn.example.com/old.jpg")
	dbtest.CreateReview(t, conn, user.ID, p.ID, "new", "https://cdn.example.com/new.jpg")
	dbtest.CreateReview(t, conn, user.ID, p.ID, "no image")

	page, err := svc.GetProductPage(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Nil(t, page.Redirect)
	assert.True(t, page.NoIndex)
	assert.EqualValues(t, 3, page.ReviewCount)
	require.NotNil(t, page.LatestImageURL)
	assert.Equal(t, "https://cdn.example.com/new.jpg", *page.LatestImageURL)

	article := dbtest.CreateArticle(t, conn, user.ID, "Gyoza", "gyoza")
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", p.ID).Update("main_article_id", article.ID).Error)

	page, err = svc.GetProductPage(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, page.Redirect)
	assert.Equal(t, "/articles/gyoza", *page.Redirect)
	assert.Nil(t, page.Product)

	_, err = svc.GetProductPage(context.Background(), p.ID+1)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestLatestImagesPicksNewestPerProduct(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	user := dbtest.CreateUser(t, conn, "taro")
	gyoza := dbtest.CreateProduct(t, conn, "餃子", 400, user.ID)
	ramen := dbtest.CreateProduct(t, conn, "ラーメン", 800, user.ID)
	plain := dbtest.CreateProduct(t, conn, "白飯", 200, user.ID)

	for i := 0; i < 5; i++ {
		dbtest.CreateReview(t, conn, user.ID, gyoza.ID, "old", "https://cdn.example.com/gyoza-old.jpg")
	}
	dbtest.CreateReview(t, conn, user.ID, gyoza.ID, "new", "https://cdn.example.com/gyoza-new.jpg", "https://cdn.example.com/gyoza-2.jpg")
	dbtest.CreateReview(t, conn, user.ID, gyoza.ID, "no image")
	dbtest.CreateReview(t, conn, user.ID, ramen.ID, "only", "https://cdn.example.com/ramen.jpg")
	dbtest.CreateReview(t, conn, user.ID, plain.ID, "no image")

	images, err := repo.LatestImages(context.Background(), []int64{gyoza.ID, ramen.ID, plain.ID, 999})
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{
		gyoza.ID: "https://cdn.example.com/gyoza-new.jpg",
		ramen.ID: "https://cdn.example.com/ramen.jpg",
	}, images)

	empty, err := repo.LatestImages(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestFindOrCreateByNameKeepsExistingRow(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	owner := dbtest.CreateUser(t, conn, "taro")
	other := dbtest.CreateUser(t, conn, "jiro")
	existing := dbtest.CreateProduct(t, conn, "味噌ラーメン", 900, owner.ID)

	got, err := repo.FindOrCreateByName(ctx, "味噌ラーメン", other.ID)
	require.NoError(t, err)
	assert.Equal(t, existing.ID, got.ID)
	require.NotNil(t, got.UserID)
	assert.Equal(t, owner.ID, *got.UserID)

	created, err := repo.FindOrCreateByName(ctx, "塩ラーメン", other.ID)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.False(t, created.IsVerified)
	assert.True(t, created.Price.IsZero())

	var n int64
	require.NoError(t, conn.Model(&models.Product{}).Count(&n).Error)
	assert.EqualValues(t, 2, n)
}
