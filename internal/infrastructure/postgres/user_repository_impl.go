package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	"github.com/oksasatya/vplayer-account/internal/domain/repository"
)

const uniqueViolation = "23505"

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, full_name, password_hash, avatar_url, avatar_id,
		cover_image_url, cover_image_id, COALESCE(refresh_token, ''), created_at, updated_at`

const profileColumns = `id, username, email, full_name, avatar_url, avatar_id,
		cover_image_url, cover_image_id, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (id, username, email, full_name, password_hash, avatar_url, avatar_id, cover_image_url, cover_image_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, u.ID, u.Username, u.Email, u.FullName, u.Password, u.Avatar, u.AvatarID, u.CoverImage, u.CoverImageID)

	if err := row.Scan(&u.CreatedAt, &u.UpdatedAt); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepository) GetProfileByID(ctx context.Context, id string) (*entity.User, error) {
	u := &entity.User{}
	row := r.db.QueryRow(ctx, `SELECT `+profileColumns+` FROM users WHERE id = $1`, id)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Avatar, &u.AvatarID,
		&u.CoverImage, &u.CoverImageID, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapReadErr(err)
	}
	return u, nil
}

func (r *UserRepository) FindByUsernameOrEmail(ctx context.Context, username, email string) (*entity.User, error) {
	if username == "" && email == "" {
		return nil, repository.ErrNotFound
	}
	return r.scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE ($1 <> '' AND username = $1) OR ($2 <> '' AND email = $2)
		ORDER BY created_at
		LIMIT 1
	`, username, email))
}

func (r *UserRepository) SetRefreshToken(ctx context.Context, id string, token entity.RefreshToken) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = now()
		WHERE id = $1
	`, id, token.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SwapRefreshToken(ctx context.Context, id string, current, next entity.RefreshToken) error {
	if current.IsZero() {
		return repository.ErrRefreshTokenMismatch
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET refresh_token = NULLIF($3, ''), updated_at = now()
		WHERE id = $1 AND refresh_token = $2
	`, id, current.String(), next.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrRefreshTokenMismatch
	}
	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (r *UserRepository) UpdateDetails(ctx context.Context, id, fullName, email string) error {
	return r.execOne(ctx, `UPDATE users SET full_name = $2, email = $3, updated_at = now() WHERE id = $1`, id, fullName, email)
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, id, url, publicID string) error {
	return r.execOne(ctx, `UPDATE users SET avatar_url = $2, avatar_id = $3, updated_at = now() WHERE id = $1`, id, url, publicID)
}

func (r *UserRepository) execOne(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Exec(ctx, sql, args...)
	if err != nil {
		return mapWriteErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*entity.User, error) {
	u := &entity.User{}
	var refresh string
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FullName, &u.Password, &u.Avatar, &u.AvatarID,
		&u.CoverImage, &u.CoverImageID, &refresh, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, mapReadErr(err)
	}
	u.RefreshToken = entity.RefreshToken(refresh)
	return u, nil
}

func mapReadErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	return fmt.Errorf("db error: %w", err)
}

func mapWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return fmt.Errorf("db error: %w", err)
}

var _ repository.UserRepository = (*UserRepository)(nil)
