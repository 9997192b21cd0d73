package domain

import "time"

type User struct {
	ID              string
	Username        string
	Email           string
	PasswordHash    string // argon2 encoded
	Role            Role
	Bio             string
	IsActive        bool
	IsEmailVerified bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PublicProfile is the user shape safe to return from the API. No hashes,
// no internal IDs.
type PublicProfile struct {
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	Bio             string    `json:"bio"`
	IsActive        bool      `json:"is_active"`
	IsEmailVerified bool      `json:"is_email_verified"`
	CreatedAt       time.Time `json:"created_at"`
}

// Profile returns the API-safe view of the user.
func (u User) Profile() PublicProfile {
	return PublicProfile{
		Username:        u.Username,
		Email:           u.Email,
		Role:            u.Role,
		Bio:             u.Bio,
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		CreatedAt:       u.CreatedAt,
	}
}
