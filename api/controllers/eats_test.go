package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shokujin-wiki/shokujin-api/internal/eats"
	"github.com/shokujin-wiki/shokujin-api/internal/media"
	"github.com/shokujin-wiki/shokujin-api/internal/options"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

type stubEatService struct {
	input     eats.CreateInput
	imageBody []byte
	called    bool
}

func (s *stubEatService) CreateEat(ctx context.Context, userID int64, input eats.CreateInput) (*eats.EatDTO, error) {
	s.called = true
	s.input = input
	if input.Image != nil && input.Image.Body != nil {
		body, err := io.ReadAll(input.Image.Body)
		if err != nil {
			return nil, err
		}
		s.imageBody = body
	}
	return &eats.EatDTO{ID: 1, Comment: input.Comment}, nil
}

func (s *stubEatService) ListEats(ctx context.Context, params pagination.Params) (*eats.ListResult, error) {
	return &eats.ListResult{Eats: []eats.EatDTO{}, Pagination: params.Meta(0)}, nil
}

func (s *stubEatService) GetEat(ctx context.Context, eatID int64) (*eats.EatDTO, error) {
	return &eats.EatDTO{ID: eatID}, nil
}

type multipartField struct {
	name, value string
}

func multipartRequest(t *testing.T, target string, fields []multipartField, image []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range fields {
		require.NoError(t, mw.WriteField(f.name, f.value))
	}
	if image != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="curry.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(image)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestCreateEatReadsMultipartForm(t *testing.T) {
	svc := &stubEatService{}
	image := []byte("\x89PNG\r\n\x1a\nfake")
	req := multipartRequest(t, "/api/eats", []multipartField{
		{"comment", "辛口で最高"},
		{"productId", "12"},
		{"option", "大盛り"},
		{"option", "チーズ"},
	}, image)
	req = withUser(req, 5)
	resp := httptest.NewRecorder()

	CreateEat(svc, 0, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	require.NotNil(t, svc.input.ProductID)
	assert.Equal(t, int64(12), *svc.input.ProductID)
	assert.Equal(t, "辛口で最高", svc.input.Comment)
	assert.Equal(t, []string{"大盛り", "チーズ"}, svc.input.Options)
	require.NotNil(t, svc.input.Image)
	assert.Equal(t, "curry.png", svc.input.Image.Name)
	assert.Equal(t, "image/png", svc.input.Image.ContentType)
	assert.Equal(t, image, svc.imageBody)
}

func TestCreateEatWithoutImage(t *testing.T) {
	svc := &stubEatService{}
	req := multipartRequest(t, "/api/eats", []multipartField{{"comment", "普通"}, {"productName", "新メニュー"}}, nil)
	req = withUser(req, 5)
	resp := httptest.NewRecorder()

	CreateEat(svc, 0, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Nil(t, svc.input.Image)
	assert.Nil(t, svc.input.ProductID)
	assert.Equal(t, "新メニュー", svc.input.ProductName)
}

func TestCreateEatRejectsBadProductID(t *testing.T) {
	svc := &stubEatService{}
	req := multipartRequest(t, "/api/eats", []multipartField{{"comment", "普通"}, {"productId", "x"}}, nil)
	req = withUser(req, 5)
	resp := httptest.NewRecorder()

	CreateEat(svc, 0, testLogger()).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, msgEatProductUnset, decodeError(t, resp).Message)
	assert.False(t, svc.called)
}

func TestCreateEatRejectsNonMultipart(t *testing.T) {
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/eats", bytes.NewBufferString(`{"comment":"x"}`)), 5)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()

	CreateEat(&stubEatService{}, 0, testLogger()).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestGetEatBadID(t *testing.T) {
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/api/eats/x", nil), map[string]string{"eatId": "x"})
	resp := httptest.NewRecorder()

	GetEat(&stubEatService{}, testLogger()).ServeHTTP(resp, req)

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, msgEatNotFound, decodeError(t, resp).Message)
}

type stubOptionService struct{ q string }

func (s *stubOptionService) SearchOptions(ctx context.Context, q string) ([]options.OptionDTO, error) {
	s.q = q
	return []options.OptionDTO{{ID: 1, Name: "大盛り"}}, nil
}

func TestSearchOptions(t *testing.T) {
	svc := &stubOptionService{}
	req := httptest.NewRequest(http.MethodGet, "/api/options?q=%E5%A4%A7", nil)
	resp := httptest.NewRecorder()

	SearchOptions(svc, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "大", svc.q)
	var items []options.OptionDTO
	decodeData(t, resp, &items)
	assert.Len(t, items, 1)
}

type stubMediaService struct {
	file    media.UploadFile
	presign media.PresignRequest
}

func (s *stubMediaService) PresignUpload(ctx context.Context, req media.PresignRequest) (*media.PresignResponse, error) {
	s.presign = req
	return &media.PresignResponse{URL: "https://bucket", Fields: map[string]string{"key": "uploads/x/a.png"}, Key: "uploads/x/a.png"}, nil
}

func (s *stubMediaService) Upload(ctx context.Context, userID int64, file media.UploadFile) (*media.UploadResult, error) {
	s.file = file
	return &media.UploadResult{Key: "user_uploads/5/1_a.png", PublicURL: "https://cdn/user_uploads/5/1_a.png"}, nil
}

func TestMediaPresign(t *testing.T) {
	svc := &stubMediaService{}
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/media/presign", bytes.NewBufferString(`{"fileName":"a.png","contentType":"image/png"}`)), 5)
	resp := httptest.NewRecorder()

	MediaPresign(svc, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "image/png", svc.presign.ContentType)
	var out media.PresignResponse
	decodeData(t, resp, &out)
	assert.Equal(t, "uploads/x/a.png", out.Fields["key"])
}

func TestMediaUploadRejectsOversizedBody(t *testing.T) {
	svc := &stubMediaService{}
	image := bytes.Repeat([]byte{0x89}, 3<<20)
	req := withUser(multipartRequest(t, "/api/media/upload", nil, image), 5)
	resp := httptest.NewRecorder()

	MediaUpload(svc, 1<<20, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	apiErr := decodeError(t, resp)
	details, ok := apiErr.Details.(map[string]any)
	require.True(t, ok, "expected field details, got %#v", apiErr.Details)
	assert.Equal(t, media.UploadTooLargeMessage(1<<20), details["image"])
}

func TestMediaUploadMissingImageReachesService(t *testing.T) {
	svc := &stubMediaService{}
	req := withUser(multipartRequest(t, "/api/media/upload", []multipartField{{"note", "x"}}, nil), 5)
	resp := httptest.NewRecorder()

	MediaUpload(svc, 0, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Nil(t, svc.file.Body)
	assert.Zero(t, svc.file.Size)
}
