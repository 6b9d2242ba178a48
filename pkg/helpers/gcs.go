package helpers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// MediaObject identifies an uploaded file: URL is what clients see, PublicID is
// what Destroy needs.
type MediaObject struct {
	URL      string
	PublicID string
}

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSMedia stores user images in a bucket.
type GCSMedia struct {
	client *storage.Client
	bucket string
	prefix string
}

func NewGCSMedia(client *storage.Client, bucket, prefix string) *GCSMedia {
	return &GCSMedia{client: client, bucket: bucket, prefix: prefix}
}

// Upload copies localPath into the bucket. The local file is removed whether or
// not the upload succeeds.
func (g *GCSMedia) Upload(ctx context.Context, localPath string) (*MediaObject, error) {
	defer removeQuietly(localPath)
	if localPath == "" {
		return nil, errors.New("empty upload path")
	}
	f, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	contentType, ext := sniff(localPath)
	objectPath := ObjectName(g.prefix, ext)
	url, err := UploadObject(ctx, g.client, g.bucket, objectPath, contentType, f)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", objectPath, err)
	}
	return &MediaObject{URL: url, PublicID: objectPath}, nil
}

// Destroy deletes an object; a missing object is not an error.
func (g *GCSMedia) Destroy(ctx context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	err := g.client.Bucket(g.bucket).Object(publicID).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	return err
}

// UploadObject uploads bytes from r into bucket/objectPath with the provided contentType
func UploadObject(ctx context.Context, client *storage.Client, bucket, objectPath, contentType string, r io.Reader) (string, error) {
	wc := client.Bucket(bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0 // disable chunking for small files
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return PublicURL(bucket, objectPath), nil
}

// PublicURL builds a public URL for an object (assuming public read access or signed URLs)
func PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, objectPath)
}

// ObjectName returns a collision-free object path under prefix.
func ObjectName(prefix, ext string) string {
	name := uuid.NewString() + strings.ToLower(ext)
	if prefix == "" {
		return name
	}
	return path.Join(prefix, name)
}

// DiskMedia keeps uploads in a local directory served under BaseURL. Used when
// no bucket is configured.
type DiskMedia struct {
	Dir     string
	BaseURL string
}

func (d *DiskMedia) Upload(_ context.Context, localPath string) (*MediaObject, error) {
	defer removeQuietly(localPath)
	if localPath == "" {
		return nil, errors.New("empty upload path")
	}
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return nil, err
	}
	_, ext := sniff(localPath)
	name := ObjectName("", ext)

	src, err := os.Open(localPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()
	dst, err := os.Create(filepath.Join(d.Dir, name))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		removeQuietly(dst.Name())
		return nil, err
	}
	if err := dst.Close(); err != nil {
		removeQuietly(dst.Name())
		return nil, err
	}
	return &MediaObject{URL: strings.TrimRight(d.BaseURL, "/") + "/" + name, PublicID: name}, nil
}

func (d *DiskMedia) Destroy(_ context.Context, publicID string) error {
	if publicID == "" {
		return nil
	}
	err := os.Remove(filepath.Join(d.Dir, filepath.Base(publicID)))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func sniff(localPath string) (contentType, ext string) {
	mt, err := mimetype.DetectFile(localPath)
	if err != nil {
		return "application/octet-stream", filepath.Ext(localPath)
	}
	ext = mt.Extension()
	if ext == "" {
		ext = filepath.Ext(localPath)
	}
	return mt.String(), ext
}

func removeQuietly(p string) {
	if p == "" {
		return
	}
	_ = os.Remove(p)
}
