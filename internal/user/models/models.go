package models

import (
	"time"

	id "tradepost/pkg/domain"
)

// User is the stored account record. PasswordHash never crosses the service
// boundary; DTO conversion strips it.
type User struct {
	ID           id.UserID
	Name         string
	Email        string
	PasswordHash string
	Role         id.Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal converts the stored record into the immutable per-request
// identity.
func (u *User) Principal() id.Principal {
	return id.Principal{
		ID:    u.ID,
		Email: u.Email,
		Role:  u.Role,
	}
}

// UserDTO is the wire representation of a user. No password material.
type UserDTO struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// DTO converts the stored record to its wire shape.
func (u *User) DTO() UserDTO {
	return UserDTO{
		ID:    u.ID.String(),
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role.String(),
	}
}
