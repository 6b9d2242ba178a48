// Package container is the composition root shared by cmd/ and the router.
// It is built once in main and passed explicitly; nothing here is global.
package container

import (
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/vplayer-account/config"
	"github.com/oksasatya/vplayer-account/internal/application"
	repo "github.com/oksasatya/vplayer-account/internal/domain/repository"
	"github.com/oksasatya/vplayer-account/internal/infrastructure/search"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
)

type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	JWT    *helpers.JWTManager

	// PGPool is nil when STORE_DRIVER=memory.
	PGPool *pgxpool.Pool
	Users  repo.UserRepository
	Media  application.MediaStorage

	// Optional side channels; nil disables them.
	ES        *elasticsearch.Client
	RabbitPub *helpers.RabbitPublisher
}

func New(cfg *config.Config, logger *logrus.Logger, users repo.UserRepository, media application.MediaStorage) *Container {
	return &Container{
		Config: cfg,
		Logger: logger,
		JWT:    helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL),
		Users:  users,
		Media:  media,
	}
}

// UserDirectory returns the Elasticsearch-backed directory, or nil when ES is not configured.
func (c *Container) UserDirectory() application.UserDirectory {
	if c.ES == nil || c.Config.ESUsersIndex == "" {
		return nil
	}
	return search.NewUserIndex(c.ES, c.Config.ESUsersIndex)
}

// JobPublisher returns the RabbitMQ publisher, or nil when it is not connected.
func (c *Container) JobPublisher() application.JobPublisher {
	if c.RabbitPub == nil {
		return nil
	}
	return c.RabbitPub
}

// Close releases connections owned by the container.
func (c *Container) Close() {
	c.RabbitPub.Close()
	if c.PGPool != nil {
		c.PGPool.Close()
	}
}
