// Package memory is an in-process credential store for local development
// (STORE_DRIVER=memory) and tests. Each method holds the lock for its whole
// read-modify-write, matching the single-row atomicity of the Postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	"github.com/oksasatya/vplayer-account/internal/domain/repository"
)

type UserRepository struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[string]*entity.User)}
}

func (r *UserRepository) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *UserRepository) GetProfileByID(ctx context.Context, id string) (*entity.User, error) {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Sanitized(), nil
}

func (r *UserRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *entity.User
	for _, u := range r.users {
		if (username != "" && u.Username == username) || (email != "" && u.Email == email) {
			if found == nil || u.CreatedAt.Before(found.CreatedAt) {
				found = u
			}
		}
	}
	if found == nil {
		return nil, repository.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

func (r *UserRepository) SetRefreshToken(_ context.Context, id string, token entity.RefreshToken) error {
	return r.mutate(id, func(u *entity.User) error {
		u.RefreshToken = token
		return nil
	})
}

func (r *UserRepository) SwapRefreshToken(_ context.Context, id string, current, next entity.RefreshToken) error {
	return r.mutate(id, func(u *entity.User) error {
		if !u.RefreshToken.Matches(current.String()) {
			return repository.ErrRefreshTokenMismatch
		}
		u.RefreshToken = next
		return nil
	})
}

func (r *UserRepository) UpdatePassword(_ context.Context, id, passwordHash string) error {
	return r.mutate(id, func(u *entity.User) error {
		u.Password = passwordHash
		return nil
	})
}

func (r *UserRepository) UpdateDetails(_ context.Context, id, fullName, email string) error {
	return r.mutate(id, func(u *entity.User) error {
		for otherID, other := range r.users {
			if otherID != id && other.Email == email {
				return repository.ErrDuplicate
			}
		}
		u.FullName = fullName
		u.Email = email
		return nil
	})
}

func (r *UserRepository) UpdateAvatar(_ context.Context, id, url, publicID string) error {
	return r.mutate(id, func(u *entity.User) error {
		u.Avatar = url
		u.AvatarID = publicID
		return nil
	})
}

// mutate applies fn under the write lock; fn sees the stored record.
func (r *UserRepository) mutate(id string, fn func(u *entity.User) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if err := fn(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
