// Package identity tracks the browser behind each request. The library is
// single-user and has no accounts; a session cookie with a generated guest id
// is enough to attribute audit events and keep CSRF state.
package identity

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
)

// SessionKeyGuestID is the session key holding the stable guest identifier.
const SessionKeyGuestID = "guest_id"

// SessionManager wraps scs.SessionManager with guest identity helpers.
type SessionManager struct {
	*scs.SessionManager
}

// NewSessionManager creates a session manager persisted in SQLite.
func NewSessionManager(sqlDB *sql.DB, lifetime time.Duration, secureCookies bool) (*SessionManager, error) {
	_, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		expiry REAL NOT NULL
	);
	CREATE INDEX IF NOT EXISTS sessions_expiry_idx ON sessions(expiry);`)
	if err != nil {
		return nil, err
	}

	sm := scs.New()
	sm.Store = sqlite3store.New(sqlDB)

	sm.Lifetime = lifetime
	sm.IdleTimeout = lifetime / 2

	sm.Cookie.Name = "session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.Secure = secureCookies
	sm.Cookie.SameSite = http.SameSiteStrictMode
	sm.Cookie.Path = "/"

	return &SessionManager{SessionManager: sm}, nil
}

// GuestID returns the stable identifier for the requesting browser, assigning
// one on first contact. Must run inside the LoadSave middleware.
func (sm *SessionManager) GuestID(r *http.Request) string {
	if id := sm.GetString(r.Context(), SessionKeyGuestID); id != "" {
		return id
	}
	id := uuid.New().String()
	sm.Put(r.Context(), SessionKeyGuestID, id)
	return id
}
