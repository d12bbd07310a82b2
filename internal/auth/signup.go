package auth

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"github.com/shokujin-wiki/shokujin-api/internal/users"
	"github.com/shokujin-wiki/shokujin-api/pkg/db"
	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
	pkgerrors "github.com/shokujin-wiki/shokujin-api/pkg/errors"
	"github.com/shokujin-wiki/shokujin-api/pkg/security"
)

// Signup creates the identity and its users row in one transaction and then
// signs the new account in.
func (s *service) Signup(ctx context.Context, req SignupRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if err := validateSignup(email, req); err != nil {
		return nil, err
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var user *models.User
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		identities := NewIdentityRepository(tx)
		userRepo := users.NewRepository(tx)

		if _, err := identities.FindByEmail(ctx, email); err == nil {
			return pkgerrors.Field(pkgerrors.CodeConflict, "email", msgEmailTaken)
		} else if !db.IsNotFound(err) {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check identity email")
		}

		identity, err := identities.Create(ctx, email, passwordHash)
		if err != nil {
			if db.IsUniqueViolation(err, "email") {
				return pkgerrors.Field(pkgerrors.CodeConflict, "email", msgEmailTaken)
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgSignupFailed)
		}

		user, err = userRepo.Upsert(ctx, identity.AuthID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msgSignupFailed)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.issue(ctx, s.now(), user)
}

var emailValidator = validator.New()

func validateSignup(email string, req SignupRequest) error {
	fields := map[string]string{}
	if err := emailValidator.Var(email, "required,email"); err != nil {
		fields["email"] = msgEmailInvalid
	}
	if utf8.RuneCountInString(req.Password) < MinPasswordLength {
		fields["password"] = msgPasswordTooShort
	}
	if req.Password != req.ConfirmPassword {
		fields["confirmPassword"] = msgPasswordMismatch
	}
	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "入力内容に誤りがあります").WithDetails(fields)
}
