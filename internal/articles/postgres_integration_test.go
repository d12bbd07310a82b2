//go:build integration

package articles

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	productsvc "github.com/shokujin-wiki/shokujin-api/internal/products"
	"github.com/shokujin-wiki/shokujin-api/internal/reviews"
	"github.com/shokujin-wiki/shokujin-api/pkg/config"
	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/migrate"
)

// openPostgres uses SHOKUJIN_TEST_DB_DSN when set and otherwise starts a
// throwaway container. Migrations are applied from the embedded files.
func openPostgres(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("SHOKUJIN_TEST_DB_DSN")
	if dsn == "" {
		container, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("shokujin"),
			postgres.WithUsername("shokujin"),
			postgres.WithPassword("shokujin"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(60*time.Second)),
		)
		if err != nil {
			t.Skipf("postgres container unavailable: %v", err)
		}
		t.Cleanup(func() {
			if err := container.Terminate(ctx); err != nil {
				t.Logf("terminate container: %v", err)
			}
		})
		dsn, err = container.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
	}

	client, err := db.New(ctx, config.DBConfig{DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	sqlDB, err := client.DB().DB()
	require.NoError(t, err)
	require.NoError(t, migrate.RunEmbedded(ctx, sqlDB, "up"))
	return client
}

func TestPostgresArticleTransactions(t *testing.T) {
	client := openPostgres(t)
	conn := client.DB()
	ctx := context.Background()

	user := &models.User{AuthID: uuid.New()}
	require.NoError(t, conn.Create(user).Error)
	ramen := &models.Product{Name: "ramen-" + uuid.NewString(), UserID: &user.ID}
	require.NoError(t, conn.Create(ramen).Error)

	svc, err := NewService(ServiceParams{
		DB:       client,
		Repo:     NewRepository(conn),
		Products: productsvc.NewRepository(conn),
		Reviews:  reviews.NewRepository(conn),
	})
	require.NoError(t, err)

	slugBase := "pg-" + uuid.NewString()[:8]
	_, err = svc.CreateArticle(ctx, user.ID, ArticleInput{
		Title:             "Ramen",
		Slug:              slugBase,
		Content:           "body",
		MainProductID:     &ramen.ID,
		RelatedProductIDs: []int64{1 << 40},
	})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	var count int64
	require.NoError(t, conn.Model(&models.Article{}).Where("slug = ?", slugBase).Count(&count).Error)
	assert.Zero(t, count)

	_, err = svc.CreateArticle(ctx, user.ID, ArticleInput{Title: "Ramen", Slug: slugBase, Content: "body", MainProductID: &ramen.ID})
	require.NoError(t, err)

	_, err = svc.CreateArticle(ctx, user.ID, ArticleInput{Title: "Ramen", Slug: slugBase, Content: "body"})
	typed = pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())
	assert.Equal(t, msgSlugTaken, typed.FieldErrors()["slug"])
}
