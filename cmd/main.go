package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/oksasatya/vplayer-account/config"
	"github.com/oksasatya/vplayer-account/internal/application"
	"github.com/oksasatya/vplayer-account/internal/container"
	"github.com/oksasatya/vplayer-account/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/vplayer-account/internal/infrastructure/postgres"
	"github.com/oksasatya/vplayer-account/internal/infrastructure/search"
	"github.com/oksasatya/vplayer-account/internal/interface/middleware"
	"github.com/oksasatya/vplayer-account/internal/router"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
)

const mediaRoute = "/media"

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)

	ctx := context.Background()

	c, cleanup, err := buildContainer(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("startup failed")
	}
	defer cleanup()

	// Gin engine and global middleware
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware(), middleware.RealIP())
	if cfg.HTTPLogEnabled {
		r.Use(middleware.AccessLog(logger))
	}
	corsCfg := cors.Config{
		AllowOrigins:     cfg.CORSOrigins(),
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	r.Use(cors.New(corsCfg))
	if cfg.GCSBucket == "" {
		r.Static(mediaRoute, cfg.MediaDir)
	}

	reg := router.NewRegistry(r)
	router.InitModules(reg, c)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		logger.Infof("server starting on :%s (store=%s)", cfg.Port, cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Errorf("server forced to shutdown: %v", err)
		return
	}
	logger.Info("server exited properly")
}

// buildContainer connects the store and the optional side channels. The
// returned cleanup closes everything that was opened.
func buildContainer(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*container.Container, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	media, closeMedia, err := buildMedia(ctx, cfg)
	if err != nil {
		return nil, cleanup, err
	}
	closers = append(closers, closeMedia)

	var c *container.Container
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("STORE_DRIVER=memory: accounts are lost on restart")
		c = container.New(cfg, logger, memory.NewUserRepository(), media)
	default:
		if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("migration failed: %w", err)
		}
		pool, err := pginfra.NewPool(ctx, cfg)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		c = container.New(cfg, logger, pginfra.NewUserRepository(pool), media)
		c.PGPool = pool
	}
	closers = append(closers, c.Close)

	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		es, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			logger.WithError(err).Warn("elasticsearch disabled")
		} else {
			c.ES = es
			if err := search.NewUserIndex(es, cfg.ESUsersIndex).EnsureIndex(ctx); err != nil {
				logger.WithError(err).Warn("ensure users index failed")
			}
		}
	}

	if cfg.RabbitMQURL != "" {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			logger.WithError(err).Warn("rabbitmq disabled; notification emails will not be queued")
		} else {
			c.RabbitPub = pub
		}
	}

	return c, cleanup, nil
}

func buildMedia(ctx context.Context, cfg *config.Config) (application.MediaStorage, func(), error) {
	if cfg.GCSBucket == "" {
		return &helpers.DiskMedia{Dir: cfg.MediaDir, BaseURL: cfg.PublicBaseURL + mediaRoute}, func() {}, nil
	}
	gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
	if err != nil {
		return nil, func() {}, fmt.Errorf("failed to init GCS client: %w", err)
	}
	return helpers.NewGCSMedia(gcsClient, cfg.GCSBucket, cfg.GCSObjectPrefix), func() { _ = gcsClient.Close() }, nil
}

func runMigrations(dsn string, migrationsDir string, logger *logrus.Logger) error {
	// Open sql DB via pgx stdlib
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
