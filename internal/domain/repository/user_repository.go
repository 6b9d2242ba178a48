package repository

import (
	"context"
	"errors"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
)

var (
	ErrNotFound = errors.New("user not found")
	// ErrDuplicate is returned when username or email is already taken.
	ErrDuplicate = errors.New("user already exists")
	// ErrRefreshTokenMismatch is returned by SwapRefreshToken when the stored
	// token is no longer the expected one.
	ErrRefreshTokenMismatch = errors.New("stored refresh token does not match")
)

// UserRepository is the credential store. Every mutation touches a single row
// and only the named columns.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	// GetProfileByID loads the user without password and refresh token.
	GetProfileByID(ctx context.Context, id string) (*entity.User, error)
	// FindByUsernameOrEmail matches username OR email; empty arguments never match.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error)

	// SetRefreshToken overwrites the stored token; the zero token clears it.
	SetRefreshToken(ctx context.Context, id string, token entity.RefreshToken) error
	// SwapRefreshToken replaces current with next only if current is still stored.
	SwapRefreshToken(ctx context.Context, id string, current, next entity.RefreshToken) error

	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateDetails(ctx context.Context, id, fullName, email string) error
	UpdateAvatar(ctx context.Context, id, url, publicID string) error
}
