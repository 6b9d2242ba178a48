package modules

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	handlers "github.com/oksasatya/vplayer-account/internal/interface/http"
	"github.com/oksasatya/vplayer-account/internal/interface/middleware"
)

// UserModule mounts the account routes under /users.
// Public: register, login, refresh-token. Everything else requires an access token.
type UserModule struct {
	Handler        *handlers.UserHandler
	Verifier       middleware.Verifier
	Logger         *logrus.Logger
	UploadDir      string
	MaxUploadBytes int64
}

func NewUserModule(h *handlers.UserHandler, v middleware.Verifier, logger *logrus.Logger, uploadDir string, maxUploadBytes int64) *UserModule {
	return &UserModule{Handler: h, Verifier: v, Logger: logger, UploadDir: uploadDir, MaxUploadBytes: maxUploadBytes}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")

	users.POST("/register",
		middleware.TempUploads(m.UploadDir, m.MaxUploadBytes, handlers.AvatarField, handlers.CoverField),
		m.Handler.Register)
	users.POST("/login", m.Handler.Login)
	users.POST("/refresh-token", m.Handler.Refresh)

	auth := users.Group("/")
	auth.Use(middleware.Auth(m.Verifier, m.Logger))
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/change-password", m.Handler.ChangePassword)
		auth.GET("/current-user", m.Handler.CurrentUser)
		auth.PATCH("/update-details", m.Handler.UpdateDetails)
		auth.PATCH("/update-avatar",
			middleware.TempUploads(m.UploadDir, m.MaxUploadBytes, handlers.AvatarField),
			m.Handler.UpdateAvatar)
		auth.GET("/search", m.Handler.Search)
	}
}
