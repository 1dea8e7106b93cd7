package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStateRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("idgate_session", cookie.NewStore([]byte("test-session-secret"))))
	r.GET("/start", func(c *gin.Context) {
		if err := SaveOAuthState(c, c.Query("state")); err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Status(http.StatusNoContent)
	})
	r.GET("/callback", func(c *gin.Context) {
		if err := ConsumeOAuthState(c, c.Query("state")); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})
	return r
}

func requestWithCookies(r http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestOAuthState(t *testing.T) {
	r := newStateRouter()

	start := requestWithCookies(r, "/start?state=abc123", nil)
	require.Equal(t, http.StatusNoContent, start.Code)
	cookies := start.Result().Cookies()
	require.NotEmpty(t, cookies)

	t.Run("mismatch", func(t *testing.T) {
		w := requestWithCookies(r, "/callback?state=other", cookies)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("match", func(t *testing.T) {
		w := requestWithCookies(r, "/callback?state=abc123", cookies)
		assert.Equal(t, http.StatusNoContent, w.Code)

		// The state is cleared once checked
		replay := requestWithCookies(r, "/callback?state=abc123", w.Result().Cookies())
		assert.Equal(t, http.StatusBadRequest, replay.Code)
	})

	t.Run("no session", func(t *testing.T) {
		w := requestWithCookies(r, "/callback?state=abc123", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
