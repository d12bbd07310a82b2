package media

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/storage/s3"
)

// DefaultUploadMaxSize caps server side uploads when no limit is configured.
const DefaultUploadMaxSize int64 = 50 << 20

const (
	msgPresignFailed   = "アップロード用URLの作成に失敗しました"
	msgUploadFailed    = "画像のアップロードに失敗しました"
	msgFileNameMissing = "ファイル名を指定してください"
	msgNotImage        = "画像ファイルを選択してください"
	msgImageMissing    = "画像を選択してください"
)

// PresignRequest is the body of POST /api/media/presign.
type PresignRequest struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

// PresignResponse is handed to the browser, which posts the file straight
// to URL with Fields.
type PresignResponse struct {
	URL       string            `json:"url"`
	Fields    map[string]string `json:"fields"`
	Key       string            `json:"key"`
	PublicURL string            `json:"publicUrl"`
}

// UploadFile is an image received by the API itself.
type UploadFile struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadResult describes a stored image.
type UploadResult struct {
	Key       string `json:"key"`
	PublicURL string `json:"publicUrl"`
}

// Service issues upload grants and stores server side uploads.
type Service interface {
	PresignUpload(ctx context.Context, req PresignRequest) (*PresignResponse, error)
	Upload(ctx context.Context, userID int64, file UploadFile) (*UploadResult, error)
}

type objectStore interface {
	PresignPost(ctx context.Context, key string, opts s3.PostOptions) (*s3.PresignedPost, error)
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	PublicURL(key string) string
}

// ServiceParams bundles the media service dependencies and limits.
type ServiceParams struct {
	Store          objectStore
	PresignExpiry  time.Duration
	PresignMaxSize int64
	UploadMaxSize  int64
}

type service struct {
	store          objectStore
	presignExpiry  time.Duration
	presignMaxSize int64
	uploadMaxSize  int64
	now            func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.PresignExpiry <= 0 {
		params.PresignExpiry = time.Hour
	}
	if params.PresignMaxSize <= 0 {
		params.PresignMaxSize = 20 << 20
	}
	if params.UploadMaxSize <= 0 {
		params.UploadMaxSize = DefaultUploadMaxSize
	}
	return &service{
		store:          params.Store,
		presignExpiry:  params.PresignExpiry,
		presignMaxSize: params.PresignMaxSize,
		uploadMaxSize:  params.UploadMaxSize,
		now:            time.Now,
	}, nil
}

// UploadTooLargeMessage is the validation message for oversized server uploads.
func UploadTooLargeMessage(maxSize int64) string {
	return fmt.Sprintf("画像は%dMB以下でアップロードしてください", maxSize>>20)
}

func (s *service) PresignUpload(ctx context.Context, req PresignRequest) (*PresignResponse, error) {
	fields := map[string]string{}
	if strings.TrimSpace(req.FileName) == "" {
		fields["fileName"] = msgFileNameMissing
	}
	if !isImageType(req.ContentType) {
		fields["contentType"] = msgNotImage
	}
	if len(fields) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgPresignFailed).WithDetails(fields)
	}

	key := fmt.Sprintf("uploads/%s/%s", uuid.NewString(), sanitizeFileName(req.FileName))
	post, err := s.store.PresignPost(ctx, key, s3.PostOptions{
		ContentTypePrefix: imagePrefix,
		MaxBytes:          s.presignMaxSize,
		Expiry:            s.presignExpiry,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgPresignFailed)
	}

	return &PresignResponse{
		URL:       post.URL,
		Fields:    post.Fields,
		Key:       key,
		PublicURL: s.store.PublicURL(key),
	}, nil
}

// Upload checks size and content, then stores the file under
// user_uploads/<userID>/<unix millis>_<name>.
func (s *service) Upload(ctx context.Context, userID int64, file UploadFile) (*UploadResult, error) {
	if file.Body == nil || file.Size <= 0 {
		return nil, pkgerrors.Field(pkgerrors.CodeValidation, "image", msgImageMissing)
	}
	if file.Size > s.uploadMaxSize {
		return nil, pkgerrors.Field(pkgerrors.CodeValidation, "image", UploadTooLargeMessage(s.uploadMaxSize))
	}
	if !isImageType(file.ContentType) {
		return nil, pkgerrors.Field(pkgerrors.CodeValidation, "image", msgNotImage)
	}

	detected, body, err := sniffImage(file.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgUploadFailed)
	}
	if !strings.HasPrefix(detected, imagePrefix) {
		return nil, pkgerrors.Field(pkgerrors.CodeValidation, "image", msgNotImage)
	}

	key := fmt.Sprintf("user_uploads/%d/%d_%s", userID, s.now().UnixMilli(), sanitizeFileName(file.Name))
	contentType, _ := normalizeMimeType(file.ContentType)
	if err := s.store.Put(ctx, key, body, file.Size, contentType); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, msgUploadFailed)
	}
	return &UploadResult{Key: key, PublicURL: s.store.PublicURL(key)}, nil
}
