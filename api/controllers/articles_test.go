package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shokujin-wiki/shokujin-api/internal/articles"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

type stubArticleService struct {
	input       articles.ArticleInput
	currentSlug string
	params      pagination.Params
	err         error
}

func (s *stubArticleService) CreateArticle(ctx context.Context, userID int64, input articles.ArticleInput) (*articles.ArticleDTO, error) {
	s.input = input
	if s.err != nil {
		return nil, s.err
	}
	return &articles.ArticleDTO{ID: 1, Title: input.Title, Slug: "curry", UserID: userID}, nil
}

func (s *stubArticleService) UpdateArticle(ctx context.Context, userID int64, currentSlug string, input articles.ArticleInput) (*articles.ArticleDTO, error) {
	s.currentSlug = currentSlug
	s.input = input
	return &articles.ArticleDTO{ID: 1, Title: input.Title, Slug: input.Slug}, nil
}

func (s *stubArticleService) ListArticles(ctx context.Context, params pagination.Params) (*articles.ListResult, error) {
	s.params = params
	return &articles.ListResult{Articles: []articles.ListItem{}, Pagination: params.Meta(0)}, nil
}

func (s *stubArticleService) GetArticle(ctx context.Context, slug string) (*articles.Detail, error) {
	if slug != "curry" {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgArticleNotFound)
	}
	return &articles.Detail{Article: articles.ArticleDTO{Slug: slug}, RelatedProducts: []articles.RelatedProduct{}}, nil
}

func (s *stubArticleService) GetEditForm(ctx context.Context, slug string) (*articles.EditForm, error) {
	return &articles.EditForm{Article: articles.ArticleDTO{Slug: slug}, RelatedProductIDs: []int64{2, 3}}, nil
}

func TestCreateArticleDecodesProducts(t *testing.T) {
	svc := &stubArticleService{}
	body := `{"title":"カレー","content":"本文","mainProductId":1,"relatedProductIds":[2,3]}`
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/articles", strings.NewReader(body)), 5)
	resp := httptest.NewRecorder()

	CreateArticle(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.input.MainProductID == nil || *svc.input.MainProductID != 1 || len(svc.input.RelatedProductIDs) != 2 {
		t.Fatalf("unexpected input %+v", svc.input)
	}
}

func TestCreateArticleSlugConflictKeepsFieldDetails(t *testing.T) {
	svc := &stubArticleService{err: pkgerrors.Field(pkgerrors.CodeConflict, "slug", "このURLパスはすでに使用されています")}
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/articles", strings.NewReader(`{"title":"t","content":"c","slug":"curry"}`)), 5)
	resp := httptest.NewRecorder()

	CreateArticle(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	details, _ := decodeError(t, resp).Details.(map[string]any)
	if details["slug"] != "このURLパスはすでに使用されています" {
		t.Fatalf("unexpected details %#v", details)
	}
}

func TestUpdateArticleUsesPathSlug(t *testing.T) {
	svc := &stubArticleService{}
	req := withUser(httptest.NewRequest(http.MethodPut, "/api/articles/curry", strings.NewReader(`{"title":"t","content":"c","slug":"curry-2"}`)), 5)
	req = withURLParams(req, map[string]string{"slug": "curry"})
	resp := httptest.NewRecorder()

	UpdateArticle(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.currentSlug != "curry" || svc.input.Slug != "curry-2" {
		t.Fatalf("unexpected update %q %+v", svc.currentSlug, svc.input)
	}
}

func TestGetArticle(t *testing.T) {
	svc := &stubArticleService{}

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/articles/curry", nil), map[string]string{"slug": "curry"})
	resp := httptest.NewRecorder()
	GetArticle(svc, testLogger()).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	req = withURLParams(httptest.NewRequest(http.MethodGet, "/api/articles/ramen", nil), map[string]string{"slug": "ramen"})
	resp = httptest.NewRecorder()
	GetArticle(svc, testLogger()).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestGetArticleEditFormRequiresLogin(t *testing.T) {
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/articles/curry/edit", nil), map[string]string{"slug": "curry"})
	resp := httptest.NewRecorder()

	GetArticleEditForm(&stubArticleService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestListArticlesDefaultLimit(t *testing.T) {
	svc := &stubArticleService{}
	resp := httptest.NewRecorder()

	ListArticles(svc, pagination.NewResolver(500), testLogger()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/articles", nil))

	if resp.Code != http.StatusOK || svc.params.Limit != articles.DefaultListLimit {
		t.Fatalf("unexpected %d %+v", resp.Code, svc.params)
	}
}
