// Package types holds the JSON envelopes shared by the API and its tests.
package types

// SuccessEnvelope wraps every 2xx body as {"data": ...}. Tests decode it
// with a concrete T.
type SuccessEnvelope[T any] struct {
	Data T `json:"data"`
}

// APIError is the body of every non 2xx response. Details carries the
// field to message map for validation and conflict errors.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
