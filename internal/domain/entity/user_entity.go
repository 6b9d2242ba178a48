package entity

import (
	"time"
)

// User is the aggregate root for the account domain.
// Password holds a bcrypt hash; it is never round-tripped to clients.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	Password     string
	Avatar       string
	AvatarID     string
	CoverImage   string
	CoverImageID string
	RefreshToken RefreshToken
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Sanitized returns a copy without the password hash and refresh token.
func (u *User) Sanitized() *User {
	if u == nil {
		return nil
	}
	cp := *u
	cp.Password = ""
	cp.RefreshToken = ""
	return &cp
}
