package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/oksasatya/vplayer-account/config"
	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	repo "github.com/oksasatya/vplayer-account/internal/domain/repository"
	pginfra "github.com/oksasatya/vplayer-account/internal/infrastructure/postgres"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	username := envOr("SEED_USERNAME", "demo")
	email := envOr("SEED_EMAIL", "demo@example.com")
	password := envOr("SEED_PASSWORD", "password123")

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	users := pginfra.NewUserRepository(pool)
	u := &entity.User{
		ID:       uuid.NewString(),
		Username: username,
		Email:    email,
		FullName: "Demo User",
		Password: hash,
		Avatar:   envOr("SEED_AVATAR_URL", "https://www.gravatar.com/avatar/?d=mp"),
	}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			fmt.Printf("seed user already exists: username=%s email=%s\n", username, email)
			return
		}
		log.Fatalf("failed to seed user: %v", err)
	}
	fmt.Printf("seeded user: id=%s username=%s email=%s password=%s\n", u.ID, username, email, password)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
