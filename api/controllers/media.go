package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/shokujin-wiki/shokujin-api/api/responses"
	"github.com/shokujin-wiki/shokujin-api/api/validators"
	"github.com/shokujin-wiki/shokujin-api/internal/media"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
)

const (
	multipartMemory   = 8 << 20
	multipartOverhead = 1 << 20

	imageField     = "image"
	msgInvalidForm = "リクエストの形式が正しくありません"
)

// MediaPresign returns a presigned POST policy for a direct browser upload.
func MediaPresign(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		if _, ok := currentUserID(w, r, logg); !ok {
			return
		}

		var body media.PresignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.PresignUpload(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

// MediaUpload stores the multipart "image" field through the API.
func MediaUpload(svc media.Service, maxSize int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		if err := parseMultipart(w, r, maxSize); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, closeFile, err := formImage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if file == nil {
			file = &media.UploadFile{}
		}
		defer closeFile()

		result, err := svc.Upload(r.Context(), userID, *file)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// parseMultipart caps the body at maxSize plus form overhead. A body over the
// cap is reported with the upload size message.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxSize int64) error {
	if maxSize <= 0 {
		maxSize = media.DefaultUploadMaxSize
	}
	limit := maxSize + multipartOverhead
	tooLarge := pkgerrors.Field(pkgerrors.CodeValidation, imageField, media.UploadTooLargeMessage(maxSize))
	if r.ContentLength > limit {
		return tooLarge
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return tooLarge
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidForm)
	}
	return nil
}

// formImage opens the "image" part. It returns a nil file when the field is
// absent; the returned close func is always safe to call.
func formImage(r *http.Request) (*media.UploadFile, func(), error) {
	noop := func() {}
	f, header, err := r.FormFile(imageField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidForm)
	}
	return uploadFileFrom(f, header), func() { _ = f.Close() }, nil
}

func uploadFileFrom(f multipart.File, header *multipart.FileHeader) *media.UploadFile {
	return &media.UploadFile{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
}
