package application

import (
	"context"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	"github.com/oksasatya/vplayer-account/internal/infrastructure/search"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
)

// MediaStorage is the remote image store. Upload consumes the local file:
// it is removed whether or not the upload succeeds.
type MediaStorage interface {
	Upload(ctx context.Context, localPath string) (*helpers.MediaObject, error)
	Destroy(ctx context.Context, publicID string) error
}

// UserDirectory is the searchable projection of users. Optional.
type UserDirectory interface {
	Index(ctx context.Context, u *entity.User) error
	Search(ctx context.Context, q string, size int) ([]search.UserDocument, error)
}

// JobPublisher enqueues notification jobs. Optional.
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}
