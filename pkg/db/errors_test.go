package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		hint string
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "pgx any", err: &pgconn.PgError{Code: "23505", ConstraintName: "products_name_key"}, want: true},
		{name: "pgx hint match", err: &pgconn.PgError{Code: "23505", ConstraintName: "articles_slug_key"}, hint: "slug", want: true},
		{name: "pgx hint mismatch", err: &pgconn.PgError{Code: "23505", ConstraintName: "articles_pkey"}, hint: "slug", want: false},
		{name: "pgx other code", err: &pgconn.PgError{Code: "23503"}, want: false},
		{name: "pq wrapped", err: fmt.Errorf("insert: %w", &pq.Error{Code: "23505", Constraint: "users_auth_id_key"}), hint: "auth_id", want: true},
		{name: "sqlite", err: errors.New("UNIQUE constraint failed: articles.slug"), hint: "slug", want: true},
		{name: "sqlite other column", err: errors.New("UNIQUE constraint failed: products.name"), hint: "slug", want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUniqueViolation(tt.err, tt.hint); got != tt.want {
				t.Fatalf("IsUniqueViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsForeignKeyViolation(t *testing.T) {
	if !IsForeignKeyViolation(&pgconn.PgError{Code: "23503", ConstraintName: "article_products_product_id_fkey"}, "") {
		t.Fatal("expected pgx fk violation")
	}
	if !IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed"), "") {
		t.Fatal("expected sqlite fk violation")
	}
	if IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}, "") {
		t.Fatal("unique violation is not an fk violation")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(fmt.Errorf("lookup: %w", gorm.ErrRecordNotFound)) {
		t.Fatal("expected wrapped record not found")
	}
	if IsNotFound(errors.New("other")) {
		t.Fatal("unexpected not found")
	}
}
