package identity

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupSessionManager(t *testing.T) *SessionManager {
	t.Helper()

	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sm, err := NewSessionManager(db, 24*time.Hour, false)
	require.NoError(t, err)
	return sm
}

func TestNewSessionManager(t *testing.T) {
	sm := setupSessionManager(t)

	require.NotNil(t, sm)
	require.NotNil(t, sm.SessionManager)

	assert.Equal(t, "session", sm.Cookie.Name)
	assert.True(t, sm.Cookie.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, sm.Cookie.SameSite)
	assert.Equal(t, 24*time.Hour, sm.Lifetime)
	assert.Equal(t, 12*time.Hour, sm.IdleTimeout)
}

func TestGuestIDStableWithinSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sm := setupSessionManager(t)

	var seen []string
	router := gin.New()
	router.Use(sm.LoadSave())
	router.GET("/whoami", func(c *gin.Context) {
		seen = append(seen, sm.GuestID(c.Request))
		c.Status(http.StatusNoContent)
	})

	// First visit assigns an id and sets the cookie.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(rec, req)

	require.Len(t, seen, 1)
	assert.NotEmpty(t, seen[0])

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies, "first response should set the session cookie")

	// Second visit with the cookie sees the same id.
	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for _, c := range cookies {
		req2.AddCookie(c)
	}
	router.ServeHTTP(rec2, req2)

	require.Len(t, seen, 2)
	assert.Equal(t, seen[0], seen[1])

	// A cookie-less visit gets a fresh identity.
	rec3 := httptest.NewRecorder()
	req3 := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	router.ServeHTTP(rec3, req3)

	require.Len(t, seen, 3)
	assert.NotEqual(t, seen[0], seen[2])
}
