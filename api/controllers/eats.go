package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shokujin-wiki/shokujin-api/api/responses"
	"github.com/shokujin-wiki/shokujin-api/api/validators"
	"github.com/shokujin-wiki/shokujin-api/internal/eats"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/logger"
	"github.com/shokujin-wiki/shokujin-api/pkg/pagination"
)

const (
	msgEatNotFound     = "投稿が見つかりません"
	msgEatProductUnset = "指定された商品が存在しません"
)

// CreateEat accepts the multipart eat form: comment, productId or
// productName, repeated option and an optional image.
func CreateEat(svc eats.Service, maxSize int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUserID(w, r, logg)
		if !ok {
			return
		}

		if err := parseMultipart(w, r, maxSize); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer r.MultipartForm.RemoveAll()

		input, err := eatInputFromForm(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		image, closeImage, err := formImage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeImage()
		input.Image = image

		eat, err := svc.CreateEat(r.Context(), userID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, eat)
	}
}

func eatInputFromForm(r *http.Request) (eats.CreateInput, error) {
	input := eats.CreateInput{
		Comment:     r.FormValue("comment"),
		ProductName: r.FormValue("productName"),
	}

	if raw := strings.TrimSpace(r.FormValue("productId")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id < 1 {
			return input, pkgerrors.Field(pkgerrors.CodeNotFound, "productId", msgEatProductUnset)
		}
		input.ProductID = &id
	}

	if r.MultipartForm != nil {
		input.Options = append(input.Options, r.MultipartForm.Value["option"]...)
	}
	return input, nil
}

func ListEats(svc eats.Service, resolver pagination.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := validators.ParsePage(r, resolver, eats.DefaultListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListEats(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func GetEat(svc eats.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		eatID, err := validators.ParseIDParam(r, "eatId", msgEatNotFound)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eat, err := svc.GetEat(r.Context(), eatID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, eat)
	}
}
