package modules

import (
	"context"
	"expvar"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/vplayer-account/pkg/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthModule struct {
	DB         Pinger
	ExposeVars bool
}

func NewHealthModule(exposeVars bool) *HealthModule { return &HealthModule{ExposeVars: exposeVars} }

func (m *HealthModule) Register(rg *gin.RouterGroup) {
	rg.GET("/health", m.health)
	if m.ExposeVars {
		rg.GET("/debug/vars", gin.WrapH(expvar.Handler()))
	}
}

func (m *HealthModule) health(c *gin.Context) {
	if m.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := m.DB.Ping(ctx); err != nil {
			response.Error[any](c, http.StatusServiceUnavailable, "database unavailable", nil)
			return
		}
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"}, "healthy", nil)
}
