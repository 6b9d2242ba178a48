package application

import (
	"context"
	"errors"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	repo "github.com/oksasatya/vplayer-account/internal/domain/repository"
	"github.com/oksasatya/vplayer-account/pkg/apperror"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
)

// TokenVerifier resolves an access token to a live user. The store lookup is
// what stops a deleted account from acting on a still-unexpired token.
type TokenVerifier struct {
	Repo repo.UserRepository
	JWT  *helpers.JWTManager
}

func NewTokenVerifier(r repo.UserRepository, jwt *helpers.JWTManager) *TokenVerifier {
	return &TokenVerifier{Repo: r, JWT: jwt}
}

// Verify returns the user without password and refresh token.
func (v *TokenVerifier) Verify(ctx context.Context, raw string) (*entity.User, error) {
	if raw == "" {
		return nil, apperror.Unauthorized("unauthorized request")
	}
	claims, err := v.JWT.ParseAccessToken(raw)
	if err != nil {
		return nil, apperror.Unauthorized("invalid access token")
	}
	u, err := v.Repo.GetProfileByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid access token")
		}
		return nil, apperror.Internal("error while verifying access token", err)
	}
	return u, nil
}
