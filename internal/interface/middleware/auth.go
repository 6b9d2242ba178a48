package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
	"github.com/oksasatya/vplayer-account/pkg/response"
)

const (
	CtxUserIDKey      = "userID"
	CtxCurrentUserKey = "currentUser"
)

type Verifier interface {
	Verify(ctx context.Context, raw string) (*entity.User, error)
}

// Auth resolves the access token (cookie first, then Authorization: Bearer)
// to a user and stores it in the Gin context.
func Auth(v Verifier, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := v.Verify(c.Request.Context(), accessToken(c))
		if err != nil {
			response.Fail(c, logger, err)
			return
		}
		c.Set(CtxCurrentUserKey, u)
		c.Set(CtxUserIDKey, u.ID)
		c.Next()
	}
}

// CurrentUser returns the user set by Auth.
func CurrentUser(c *gin.Context) (*entity.User, bool) {
	v, ok := c.Get(CtxCurrentUserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*entity.User)
	return u, ok && u != nil
}

func accessToken(c *gin.Context) string {
	if tok, err := c.Cookie(helpers.AccessTokenCookie); err == nil && tok != "" {
		return tok
	}
	h := c.GetHeader("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
