package middleware

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/vplayer-account/internal/domain/entity"
	"github.com/oksasatya/vplayer-account/pkg/apperror"
	"github.com/oksasatya/vplayer-account/pkg/helpers"
)

func init() { gin.SetMode(gin.TestMode) }

type stubVerifier map[string]*entity.User

func (s stubVerifier) Verify(_ context.Context, raw string) (*entity.User, error) {
	if u, ok := s[raw]; ok {
		return u, nil
	}
	return nil, apperror.Unauthorized("invalid access token")
}

func authRouter() *gin.Engine {
	r := gin.New()
	v := stubVerifier{"good": {ID: "u1", Username: "alice"}}
	r.GET("/me", Auth(v, helpers.NewNopLogger()), func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, u.Username+":"+c.GetString(CtxUserIDKey))
	})
	return r
}

func TestAuth(t *testing.T) {
	r := authRouter()
	cases := []struct {
		name   string
		setup  func(*http.Request)
		status int
	}{
		{"cookie", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: "good"})
		}, http.StatusOK},
		{"bearer", func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"cookie wins over header", func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: helpers.AccessTokenCookie, Value: "good"})
			req.Header.Set("Authorization", "Bearer bad")
		}, http.StatusOK},
		{"missing", func(*http.Request) {}, http.StatusUnauthorized},
		{"bad token", func(req *http.Request) { req.Header.Set("Authorization", "Bearer bad") }, http.StatusUnauthorized},
		{"wrong scheme", func(req *http.Request) { req.Header.Set("Authorization", "Basic good") }, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			tc.setup(req)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, "alice:u1", w.Body.String())
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("request_id")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
}

func TestRealIP(t *testing.T) {
	r := gin.New()
	r.Use(RealIP())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString("real_ip")) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "203.0.113.7", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("CF-Connecting-IP", "198.51.100.2")
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "198.51.100.2", w.Body.String())
}

func TestAccessLog(t *testing.T) {
	logger, hook := test.NewNullLogger()
	r := gin.New()
	r.Use(RequestIDMiddleware(), AccessLog(logger))
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/9?token=secret", nil))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "/items/:id", entry.Data["path"])
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.NotEmpty(t, entry.Data["request_id"])
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, name := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte("content-of-" + field))
		require.NoError(t, err)
	}
	require.NoError(t, mw.WriteField("username", "alice"))
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestTempUploads_StoresThenCleansUp(t *testing.T) {
	dir := t.TempDir()
	var avatar, cover, other string
	r := gin.New()
	r.POST("/", TempUploads(dir, 1<<20, "avatar", "cover"), func(c *gin.Context) {
		avatar = UploadedFile(c, "avatar")
		cover = UploadedFile(c, "cover")
		other = UploadedFile(c, "missing")
		b, err := os.ReadFile(avatar)
		require.NoError(t, err)
		c.String(http.StatusOK, string(b)+"|"+c.PostForm("username"))
	})

	body, ct := multipartBody(t, map[string]string{"avatar": "Me.PNG"})
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "content-of-avatar|alice", w.Body.String())
	assert.Contains(t, avatar, ".png")
	assert.Empty(t, cover)
	assert.Empty(t, other)
	_, err := os.Stat(avatar)
	assert.True(t, os.IsNotExist(err))
}

func TestTempUploads_NotMultipartPassesThrough(t *testing.T) {
	r := gin.New()
	r.POST("/", TempUploads(t.TempDir(), 1<<20, "avatar"), func(c *gin.Context) {
		c.String(http.StatusOK, "path=%s", UploadedFile(c, "avatar"))
	})

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(`{"a":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "path=", w.Body.String())
}

func TestTempUploads_TooLarge(t *testing.T) {
	r := gin.New()
	r.POST("/", TempUploads(t.TempDir(), 64, "avatar"), func(c *gin.Context) { c.Status(http.StatusOK) })

	body, ct := multipartBody(t, map[string]string{"avatar": "a.png"})
	req := httptest.NewRequest(http.MethodPost, "/", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
