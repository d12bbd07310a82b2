package users

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
)

const (
	MaxNameLength = 50

	msgNameRequired  = "名前を入力してください"
	msgNameTooLong   = "名前は50文字以内で入力してください"
	msgUpdateFailed  = "名前の更新に失敗しました"
	msgResetFailed   = "名前のリセットに失敗しました"
	msgUserNotFound  = "ユーザーが見つかりません"
	msgSyncFailed    = "ユーザー情報の同期に失敗しました"
	msgProfileFailed = "ユーザー情報の取得に失敗しました"
)

// Service manages the application profile of signed in users.
type Service interface {
	SyncUser(ctx context.Context, authID uuid.UUID) (*models.User, error)
	GetCurrentUser(ctx context.Context, userID int64) (*UserDTO, error)
	UpdateUserName(ctx context.Context, userID int64, name string) (*UserDTO, error)
	ResetUserName(ctx context.Context, userID int64) (*UserDTO, error)
	CheckActive(ctx context.Context, userID int64, authID uuid.UUID) error
}

type userRepository interface {
	Upsert(ctx context.Context, authID uuid.UUID) (*models.User, error)
	FindProfile(ctx context.Context, id int64) (*Profile, error)
	UpdateName(ctx context.Context, id int64, name *string) error
	HasUser(ctx context.Context, id int64, authID uuid.UUID) (bool, error)
}

type service struct {
	repo userRepository
}

// NewService builds the users service on top of repo.
func NewService(repo userRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	return &service{repo: repo}, nil
}

// SyncUser makes sure a users row exists for authID. It is called on every
// sign in so profiles are created lazily.
func (s *service) SyncUser(ctx context.Context, authID uuid.UUID) (*models.User, error) {
	if authID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "ログインしてください")
	}
	user, err := s.repo.Upsert(ctx, authID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgSyncFailed)
	}
	return user, nil
}

func (s *service) GetCurrentUser(ctx context.Context, userID int64) (*UserDTO, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgProfileFailed)
	}
	return fromProfile(profile), nil
}

// CheckActive fails with Unauthorized when the users row behind a token is
// gone, so a deleted account cannot keep writing with a live session.
func (s *service) CheckActive(ctx context.Context, userID int64, authID uuid.UUID) error {
	ok, err := s.repo.HasUser(ctx, userID, authID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgProfileFailed)
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, msgUserNotFound)
	}
	return nil
}

func (s *service) UpdateUserName(ctx context.Context, userID int64, name string) (*UserDTO, error) {
	trimmed, err := ValidateName(name)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateName(ctx, userID, &trimmed); err != nil {
		return nil, mapWriteError(err, msgUpdateFailed)
	}
	return s.GetCurrentUser(ctx, userID)
}

func (s *service) ResetUserName(ctx context.Context, userID int64) (*UserDTO, error) {
	if err := s.repo.UpdateName(ctx, userID, nil); err != nil {
		return nil, mapWriteError(err, msgResetFailed)
	}
	return s.GetCurrentUser(ctx, userID)
}

// ValidateName trims name and checks it is 1..50 characters long.
func ValidateName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", pkgerrors.Field(pkgerrors.CodeValidation, "name", msgNameRequired)
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLength {
		return "", pkgerrors.Field(pkgerrors.CodeValidation, "name", msgNameTooLong)
	}
	return trimmed, nil
}

func mapWriteError(err error, message string) error {
	if db.IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, msgUserNotFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}
