package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cookiesByName(w *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, ck := range w.Result().Cookies() {
		out[ck.Name] = ck
	}
	return out
}

func TestCookieManager_SetPair(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NewCookie("", true).SetPair(c, "a-tok", time.Now().Add(time.Hour), "r-tok", time.Now().Add(24*time.Hour))

	cks := cookiesByName(w)
	require.Contains(t, cks, AccessTokenCookie)
	require.Contains(t, cks, RefreshTokenCookie)
	for _, ck := range cks {
		assert.True(t, ck.HttpOnly, ck.Name)
		assert.True(t, ck.Secure, ck.Name)
	}
	assert.Equal(t, "a-tok", cks[AccessTokenCookie].Value)
	assert.Equal(t, "r-tok", cks[RefreshTokenCookie].Value)
	assert.Greater(t, cks[RefreshTokenCookie].MaxAge, cks[AccessTokenCookie].MaxAge)
}

func TestCookieManager_Clear(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NewCookie("", true).Clear(c)

	cks := cookiesByName(w)
	require.Len(t, cks, 2)
	for _, ck := range cks {
		assert.Empty(t, ck.Value)
		assert.Less(t, ck.MaxAge, 0)
	}
}
