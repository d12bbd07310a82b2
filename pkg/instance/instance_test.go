package instance

import (
	"testing"

	"github.com/shokujin-wiki/shokujin-api/pkg/env"
)

func TestGetIDPrefersEnv(t *testing.T) {
	t.Setenv(env.Prefix+IDEnv, "api-7")
	if got := GetID(); got != "api-7" {
		t.Fatalf("expected api-7, got %q", got)
	}
}

func TestGetIDFallsBack(t *testing.T) {
	t.Setenv(env.Prefix+IDEnv, "")
	t.Setenv(IDEnv, "")
	if GetID() == "" {
		t.Fatalf("expected a non-empty fallback id")
	}
}
