package middleware

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/oksasatya/vplayer-account/pkg/response"
)

const ctxUploadsKey = "uploads"

// TempUploads stores the first file of each named multipart field under dir
// and removes every stored file once the handler chain returns. Handlers get
// the paths through UploadedFile. Requests that are not multipart pass through.
func TempUploads(dir string, maxBytes int64, fields ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes > 0 {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		form, err := c.MultipartForm()
		if err != nil {
			if errors.Is(err, http.ErrNotMultipart) {
				c.Next()
				return
			}
			response.Error[any](c, http.StatusBadRequest, "invalid multipart form", nil)
			return
		}

		saved := make(map[string]string, len(fields))
		defer func() {
			for _, p := range saved {
				_ = os.Remove(p)
			}
			_ = form.RemoveAll()
		}()

		if err := os.MkdirAll(dir, 0o750); err != nil {
			response.Error[any](c, http.StatusInternalServerError, "upload storage unavailable", nil)
			return
		}
		for _, field := range fields {
			files := form.File[field]
			if len(files) == 0 {
				continue
			}
			fh := files[0]
			dst := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(fh.Filename)))
			if err := c.SaveUploadedFile(fh, dst); err != nil {
				response.Error[any](c, http.StatusInternalServerError, "could not store upload", nil)
				return
			}
			saved[field] = dst
		}

		c.Set(ctxUploadsKey, saved)
		c.Next()
	}
}

// UploadedFile returns the temp path stored for field, or "".
func UploadedFile(c *gin.Context, field string) string {
	v, ok := c.Get(ctxUploadsKey)
	if !ok {
		return ""
	}
	m, _ := v.(map[string]string)
	return m[field]
}
