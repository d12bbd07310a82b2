package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginVerify(t *testing.T) {
	tests := []struct {
		name    string
		enabled bool
		token   string
		path    string
		header  string
		want    int
	}{
		{"disabled", false, "s3cret", "/api/products", "", http.StatusOK},
		{"no token configured", true, "", "/api/products", "", http.StatusOK},
		{"missing header", true, "s3cret", "/api/products", "", http.StatusForbidden},
		{"wrong header", true, "s3cret", "/api/products", "nope", http.StatusForbidden},
		{"matching header", true, "s3cret", "/api/products", "s3cret", http.StatusOK},
		{"health exempt", true, "s3cret", "/health/ready", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := OriginVerify(tt.enabled, tt.token, nil)(okHandler())
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("x-origin-verify", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d got %d", tt.want, rec.Code)
			}
		})
	}
}
