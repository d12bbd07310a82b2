package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation   Code = "VALIDATION_ERROR"
	CodeUnauthorized Code = "UNAUTHORIZED"
	CodeForbidden    Code = "FORBIDDEN"
	CodeNotFound     Code = "NOT_FOUND"
	CodeConflict     Code = "CONFLICT"
	CodeIdempotency  Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit    Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal     Code = "INTERNAL_ERROR"
	CodeDependency   Code = "DEPENDENCY_ERROR"
)

// MessageUnknown is the catch-all message shown when nothing more specific applies.
const MessageUnknown = "不明なエラーが発生しました"

// Metadata is how a code renders over HTTP. PublicMessage replaces the
// message of errors whose text must not reach the client.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:   {http.StatusBadRequest, false, "入力内容に誤りがあります", true},
	CodeUnauthorized: {http.StatusUnauthorized, false, "ログインしてください", false},
	CodeForbidden:    {http.StatusForbidden, false, "アクセスが拒否されました", false},
	CodeNotFound:     {http.StatusNotFound, false, "見つかりません", false},
	CodeConflict:     {http.StatusConflict, false, "すでに登録されています", true},
	CodeIdempotency:  {http.StatusConflict, false, "同じIdempotency-Keyのリクエストが処理済みです", true},
	CodeRateLimit:    {http.StatusTooManyRequests, true, "しばらく時間をおいてから再度お試しください", false},
	CodeInternal:     {http.StatusInternalServerError, true, MessageUnknown, false},
	CodeDependency:   {http.StatusServiceUnavailable, true, "一時的に処理できません。しばらくしてから再度お試しください", true},
}

// MetadataFor falls back to the internal error entry for unknown codes.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

// Field builds an error whose details carry a single field level message.
// The message doubles as the top level message.
func Field(code Code, field, message string) *Error {
	return New(code, message).WithDetails(map[string]string{field: message})
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// FieldErrors returns the details as a field map when they were set as one.
func (e *Error) FieldErrors() map[string]string {
	if e == nil {
		return nil
	}
	if fields, ok := e.details.(map[string]string); ok {
		return fields
	}
	return nil
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
