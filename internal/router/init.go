package router

import (
	appuser "github.com/oksasatya/vplayer-account/internal/application"
	"github.com/oksasatya/vplayer-account/internal/container"
	handlers "github.com/oksasatya/vplayer-account/internal/interface/http"
	"github.com/oksasatya/vplayer-account/internal/router/modules"
	"github.com/oksasatya/vplayer-account/pkg/validation"
)

type UserModuleDeps struct {
	Service  *appuser.Service
	Verifier *appuser.TokenVerifier
	Handler  *handlers.UserHandler
}

func buildUserDeps(c *container.Container) UserModuleDeps {
	cfg := c.Config
	issuer := appuser.NewTokenIssuer(c.Users, c.JWT, c.Logger)

	service := appuser.NewService(c.Users, issuer, c.Media, c.Logger)
	service.Directory = c.UserDirectory()
	service.Publisher = c.JobPublisher()
	service.AppName = cfg.AppName
	service.RevokeSessionsOnPasswordChange = cfg.RevokeSessionsOnPasswordChange

	handler := handlers.NewUserHandler(service, c.Logger, cfg.CookieDomain, cfg.CookieSecure)

	return UserModuleDeps{
		Service:  service,
		Verifier: appuser.NewTokenVerifier(c.Users, c.JWT),
		Handler:  handler,
	}
}

// InitModules wires all modules from c into the registry. Call once at startup.
func InitModules(r *Registry, c *container.Container) {
	validation.Init()

	deps := buildUserDeps(c)
	r.Add(modules.NewUserModule(deps.Handler, deps.Verifier, c.Logger, c.Config.UploadTempDir, c.Config.MaxUploadBytes))

	health := modules.NewHealthModule(c.Config.Env != "production")
	if c.PGPool != nil {
		health.DB = c.PGPool
	}
	r.Add(health)
}
