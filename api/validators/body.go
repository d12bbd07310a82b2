package validators

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
)

const (
	msgInvalidBody = "リクエストの形式が正しくありません"
	msgEmptyBody   = "リクエスト本文が空です"
	msgInvalidForm = "入力内容に誤りがあります"
)

// validate reports field errors under their json names.
var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// DecodeJSONBody decodes exactly one JSON object into dest, rejecting
// unknown fields and trailing data, then runs the validate tags of dest.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return pkgerrors.New(pkgerrors.CodeValidation, msgEmptyBody)
		}
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidBody)
	}
	if decoder.More() {
		return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidBody)
	}

	if err := validate.Struct(dest); err != nil {
		return fieldErrors(err)
	}
	return nil
}

func fieldErrors(err error) *pkgerrors.Error {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidForm)
	}
	details := make(map[string]string, len(errs))
	for _, fe := range errs {
		if _, seen := details[fe.Field()]; !seen {
			details[fe.Field()] = fieldMessage(fe)
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msgInvalidForm).WithDetails(details)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "必須項目です"
	case "email":
		return "メールアドレスの形式が正しくありません"
	case "min", "gte":
		return fmt.Sprintf("%s以上で入力してください", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("%s以下で入力してください", fe.Param())
	default:
		return "値が正しくありません"
	}
}
