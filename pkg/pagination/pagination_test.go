package pagination

import (
	"testing"

	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
)

func TestResolveWindow(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		def         int
		wantPage    int
		wantSkip    int
		wantTake    int
	}{
		{name: "first page", page: "1", limit: "10", def: 10, wantPage: 1, wantSkip: 0, wantTake: 10},
		{name: "third page", page: "3", limit: "20", def: 10, wantPage: 3, wantSkip: 40, wantTake: 20},
		{name: "defaults", page: "", limit: "", def: 50, wantPage: 1, wantSkip: 0, wantTake: 50},
		{name: "blank is absent", page: "  ", limit: " ", def: 20, wantPage: 1, wantSkip: 0, wantTake: 20},
		{name: "max limit", page: "2", limit: "500", def: 10, wantPage: 2, wantSkip: 500, wantTake: 500},
		{name: "zero default", page: "2", limit: "", def: 0, wantPage: 2, wantSkip: DefaultLimit, wantTake: DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.page, tt.limit, tt.def)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.CurrentPage != tt.wantPage || got.Skip != tt.wantSkip || got.Take != tt.wantTake || got.Limit != tt.wantTake {
				t.Fatalf("got %+v", got)
			}
		})
	}
}

func TestResolveRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		page, limit string
		field       string
	}{
		{name: "page zero", page: "0", field: "page"},
		{name: "page negative", page: "-2", field: "page"},
		{name: "page text", page: "abc", field: "page"},
		{name: "page float", page: "1.5", field: "page"},
		{name: "limit zero", limit: "0", field: "limit"},
		{name: "limit above max", limit: "501", field: "limit"},
		{name: "limit text", limit: "ten", field: "limit"},
		{name: "page past offset range", page: "9223372036854775807", limit: "500", field: "page"},
		{name: "page overflows int", page: "99999999999999999999", field: "page"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.page, tt.limit, 10)
			typed := pkgerrors.As(err)
			if typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := typed.FieldErrors()[tt.field]; !ok {
				t.Fatalf("expected field error on %s, got %v", tt.field, typed.FieldErrors())
			}
		})
	}
}

func TestResolverCustomMax(t *testing.T) {
	r := NewResolver(100)
	if _, err := r.Resolve("1", "101", 10); err == nil {
		t.Fatal("expected limit above custom max to fail")
	}
	got, err := r.Resolve("1", "", 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Take != 100 {
		t.Fatalf("default limit should be capped at max, got %d", got.Take)
	}
	if NewResolver(0).MaxLimit != MaxLimit {
		t.Fatal("expected fallback max limit")
	}
}

func TestMeta(t *testing.T) {
	p := Params{CurrentPage: 2, Limit: 20}
	meta := p.Meta(41)
	if meta.TotalPages != 3 || meta.TotalCount != 41 || meta.CurrentPage != 2 {
		t.Fatalf("unexpected meta %+v", meta)
	}
	if (Params{CurrentPage: 1, Limit: 10}).Meta(0).TotalPages != 0 {
		t.Fatal("expected no pages for empty result")
	}
}
