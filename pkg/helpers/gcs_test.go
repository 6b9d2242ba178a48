package helpers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG
var pngPixel = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestObjectName(t *testing.T) {
	a := ObjectName("users", ".PNG")
	b := ObjectName("users", ".PNG")
	assert.True(t, strings.HasPrefix(a, "users/"))
	assert.True(t, strings.HasSuffix(a, ".png"))
	assert.NotEqual(t, a, b)
	assert.False(t, strings.Contains(ObjectName("", ".jpg"), "/"))
}

func TestPublicURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/b/users/x.png", PublicURL("b", "users/x.png"))
}

func TestDiskMedia_UploadRemovesLocalFile(t *testing.T) {
	tmp := t.TempDir()
	local := filepath.Join(tmp, "upload.bin")
	require.NoError(t, os.WriteFile(local, pngPixel, 0o600))

	media := &DiskMedia{Dir: filepath.Join(tmp, "media"), BaseURL: "http://localhost:8080/media/"}
	obj, err := media.Upload(context.Background(), local)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(obj.PublicID, ".png"))
	assert.Equal(t, "http://localhost:8080/media/"+obj.PublicID, obj.URL)
	assert.NoFileExists(t, local)
	assert.FileExists(t, filepath.Join(media.Dir, obj.PublicID))

	require.NoError(t, media.Destroy(context.Background(), obj.PublicID))
	assert.NoFileExists(t, filepath.Join(media.Dir, obj.PublicID))
	// destroying twice is fine
	require.NoError(t, media.Destroy(context.Background(), obj.PublicID))
}

func TestDiskMedia_UploadMissingFile(t *testing.T) {
	media := &DiskMedia{Dir: t.TempDir()}
	_, err := media.Upload(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
	_, err = media.Upload(context.Background(), "")
	assert.Error(t, err)
}

func TestDiskMedia_FailedCopyLeavesNoPartialFile(t *testing.T) {
	tmp := t.TempDir()
	// reading a directory fails inside the copy, after the destination exists
	src := filepath.Join(tmp, "not-a-file")
	require.NoError(t, os.Mkdir(src, 0o755))

	media := &DiskMedia{Dir: filepath.Join(tmp, "media")}
	_, err := media.Upload(context.Background(), src)
	require.Error(t, err)

	entries, err := os.ReadDir(media.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
