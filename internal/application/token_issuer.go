package application

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	repo "github.com/oksasatya/vplayer-account/internal/domain/repository"
	"github.com/oksasatya/vplayer-account/pkg/apperror"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
)

const (
	msgTokenGeneration = "error while generating tokens"
	msgTokenUsed       = "refresh token is expired or used"
)

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// TokenIssuer mints access/refresh pairs and records the refresh token as the
// user's only valid one. Each call performs at most one store mutation, after
// both tokens have been signed.
type TokenIssuer struct {
	Repo   repo.UserRepository
	JWT    *helpers.JWTManager
	Logger *logrus.Logger
}

func NewTokenIssuer(r repo.UserRepository, jwt *helpers.JWTManager, logger *logrus.Logger) *TokenIssuer {
	return &TokenIssuer{Repo: r, JWT: jwt, Logger: logger}
}

// IssueTokenPair signs a new pair for userID and overwrites the stored refresh token.
func (i *TokenIssuer) IssueTokenPair(ctx context.Context, userID string) (TokenPair, error) {
	if _, err := i.Repo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return TokenPair{}, apperror.NotFound("user not found")
		}
		return TokenPair{}, apperror.Internal(msgTokenGeneration, err)
	}
	pair, err := i.sign(userID)
	if err != nil {
		return TokenPair{}, err
	}
	if err := i.Repo.SetRefreshToken(ctx, userID, entity.RefreshToken(pair.RefreshToken)); err != nil {
		return TokenPair{}, apperror.Internal(msgTokenGeneration, err)
	}
	return pair, nil
}

// RotateTokenPair signs a new pair and stores it only if presented is still the
// stored refresh token. Losing a concurrent rotation yields Unauthorized.
func (i *TokenIssuer) RotateTokenPair(ctx context.Context, userID string, presented entity.RefreshToken) (TokenPair, error) {
	pair, err := i.sign(userID)
	if err != nil {
		return TokenPair{}, err
	}
	err = i.Repo.SwapRefreshToken(ctx, userID, presented, entity.RefreshToken(pair.RefreshToken))
	switch {
	case err == nil:
		return pair, nil
	case errors.Is(err, repo.ErrRefreshTokenMismatch), errors.Is(err, repo.ErrNotFound):
		if i.Logger != nil {
			i.Logger.WithField("user_id", userID).Warn("refresh rotation rejected: stored token changed")
		}
		return TokenPair{}, apperror.Unauthorized(msgTokenUsed)
	default:
		return TokenPair{}, apperror.Internal(msgTokenGeneration, err)
	}
}

func (i *TokenIssuer) sign(userID string) (TokenPair, error) {
	access, aexp, err := i.JWT.GenerateAccessToken(userID)
	if err != nil {
		i.logSignErr(err, userID, "generate access token failed")
		return TokenPair{}, apperror.Internal(msgTokenGeneration, err)
	}
	refresh, rexp, err := i.JWT.GenerateRefreshToken(userID)
	if err != nil {
		i.logSignErr(err, userID, "generate refresh token failed")
		return TokenPair{}, apperror.Internal(msgTokenGeneration, err)
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (i *TokenIssuer) logSignErr(err error, userID, msg string) {
	if i.Logger != nil {
		i.Logger.WithError(err).WithField("user_id", userID).Error(msg)
	}
}
