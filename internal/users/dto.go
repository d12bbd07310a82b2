package users

import (
	"github.com/google/uuid"

	"github.com/shokujin-wiki/shokujin-api/pkg/db/models"
)

// UserDTO is the transport shape of the signed in user.
type UserDTO struct {
	ID     int64     `json:"id"`
	AuthID uuid.UUID `json:"authId"`
	Name   *string   `json:"name"`
	Email  *string   `json:"email,omitempty"`
}

// UpdateNameRequest is the body of PATCH /api/me/name.
type UpdateNameRequest struct {
	Name string `json:"name"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{ID: u.ID, AuthID: u.AuthID, Name: u.Name}
}

func fromProfile(p *Profile) *UserDTO {
	if p == nil {
		return nil
	}
	dto := FromModel(&p.User)
	dto.Email = p.Email
	return dto
}
