package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shokujin-wiki/shokujin-api/internal/users"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
)

type stubUserService struct {
	name    string
	reset   bool
	userErr error
}

func (s *stubUserService) SyncUser(ctx context.Context, authID uuid.UUID) (*models.User, error) {
	return &models.User{ID: 1, AuthID: authID}, nil
}

func (s *stubUserService) GetCurrentUser(ctx context.Context, userID int64) (*users.UserDTO, error) {
	if s.userErr != nil {
		return nil, s.userErr
	}
	return &users.UserDTO{ID: userID}, nil
}

func (s *stubUserService) UpdateUserName(ctx context.Context, userID int64, name string) (*users.UserDTO, error) {
	s.name = name
	return &users.UserDTO{ID: userID, Name: &name}, nil
}

func (s *stubUserService) ResetUserName(ctx context.Context, userID int64) (*users.UserDTO, error) {
	s.reset = true
	return &users.UserDTO{ID: userID}, nil
}

func (s *stubUserService) CheckActive(ctx context.Context, userID int64, authID uuid.UUID) error {
	return s.userErr
}

func TestGetMeRequiresLogin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	resp := httptest.NewRecorder()

	GetMe(&stubUserService{}, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGetMeMissingUser(t *testing.T) {
	svc := &stubUserService{userErr: pkgerrors.New(pkgerrors.CodeNotFound, "ユーザーが見つかりません")}
	req := withUser(httptest.NewRequest(http.MethodGet, "/api/me", nil), 3)
	resp := httptest.NewRecorder()

	GetMe(svc, testLogger()).ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if got := decodeError(t, resp).Message; got != "ユーザーが見つかりません" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestUpdateAndResetMyName(t *testing.T) {
	svc := &stubUserService{}

	req := withUser(httptest.NewRequest(http.MethodPatch, "/api/me/name", strings.NewReader(`{"name":"食いしん坊"}`)), 3)
	resp := httptest.NewRecorder()
	UpdateMyName(svc, testLogger()).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || svc.name != "食いしん坊" {
		t.Fatalf("update failed: %d %q", resp.Code, svc.name)
	}

	req = withUser(httptest.NewRequest(http.MethodDelete, "/api/me/name", nil), 3)
	resp = httptest.NewRecorder()
	ResetMyName(svc, testLogger()).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK || !svc.reset {
		t.Fatalf("reset failed: %d", resp.Code)
	}
}
