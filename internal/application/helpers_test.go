package application

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	"github.com/oksasatya/vplayer-account/internal/infrastructure/memory"
	"github.com/oksasatya/vplayer-account/internal/infrastructure/search"
	"github.com/oksasatya/vplayer-account/pkg/apperror"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
)

// fakeMedia mimics the remote store: Upload consumes the local file.
type fakeMedia struct {
	mu        sync.Mutex
	objects   map[string]string
	destroyed []string
	failNext  bool
}

func newFakeMedia() *fakeMedia { return &fakeMedia{objects: map[string]string{}} }

func (f *fakeMedia) Upload(_ context.Context, localPath string) (*helpers.MediaObject, error) {
	defer func() { _ = os.Remove(localPath) }()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return nil, errors.New("remote store unavailable")
	}
	if _, err := os.Stat(localPath); err != nil {
		return nil, err
	}
	id := uuid.NewString()
	f.objects[id] = localPath
	return &helpers.MediaObject{URL: "https://media.test/" + id, PublicID: id}, nil
}

func (f *fakeMedia) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, publicID)
	f.destroyed = append(f.destroyed, publicID)
	return nil
}

func (f *fakeMedia) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeDirectory struct {
	mu      sync.Mutex
	indexed map[string]*entity.User
	err     error
}

func (d *fakeDirectory) Index(_ context.Context, u *entity.User) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	if d.indexed == nil {
		d.indexed = map[string]*entity.User{}
	}
	d.indexed[u.ID] = u
	return nil
}

func (d *fakeDirectory) Search(_ context.Context, q string, size int) ([]search.UserDocument, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	out := []search.UserDocument{}
	for _, u := range d.indexed {
		if u.Username == q && len(out) < size {
			out = append(out, search.DocumentFrom(u))
		}
	}
	return out, nil
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.jobs = append(p.jobs, body)
	return nil
}

type fixture struct {
	svc      *Service
	repo     *memory.UserRepository
	media    *fakeMedia
	jwt      *helpers.JWTManager
	verifier *TokenVerifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	r := memory.NewUserRepository()
	jwt := helpers.NewJWTManager("access-secret", "refresh-secret", time.Hour, 240*time.Hour)
	logger := helpers.NewNopLogger()
	media := newFakeMedia()
	svc := NewService(r, NewTokenIssuer(r, jwt, logger), media, logger)
	svc.AppName = "vplayer"
	return &fixture{svc: svc, repo: r, media: media, jwt: jwt, verifier: NewTokenVerifier(r, jwt)}
}

// tempFile writes a throwaway upload into t.TempDir().
func tempFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("image-bytes"), 0o600))
	return p
}

func (f *fixture) registerAlice(t *testing.T) *entity.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		FullName:   "Alice A",
		Email:      "a@x.io",
		Username:   "Alice",
		Password:   "pw1",
		AvatarPath: tempFile(t, "avatar.png"),
	})
	require.NoError(t, err)
	return u
}

func requireKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperror.KindOf(err), "error: %v", err)
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
