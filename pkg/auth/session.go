package auth

import (
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
)

const (
	sessionName = "moop_session"

	sessionKeyUsername = "username"
	sessionKeyAdmin    = "admin"
)

// SessionManager owns the cookie session store used by browser callers.
type SessionManager struct {
	store *sessions.CookieStore
}

// NewSessionManager creates a session manager keyed with the configured
// session secret.
func NewSessionManager(secret string) (*SessionManager, error) {
	if secret == "" {
		return nil, fmt.Errorf("session secret not configured")
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return &SessionManager{store: store}, nil
}

// Establish records a logged-in account on the response's session cookie.
func (m *SessionManager) Establish(w http.ResponseWriter, r *http.Request, username string, admin bool) error {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		// A stale or tampered cookie decodes with an error but still yields
		// a usable new session; overwrite it.
		session, _ = m.store.New(r, sessionName)
	}
	session.Values[sessionKeyUsername] = username
	session.Values[sessionKeyAdmin] = admin
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Clear drops the session cookie.
func (m *SessionManager) Clear(w http.ResponseWriter, r *http.Request) error {
	session, err := m.store.Get(r, sessionName)
	if err != nil {
		return nil
	}
	session.Options.MaxAge = -1
	return session.Save(r, w)
}

// Identity extracts the logged-in account from the request's session cookie.
// Returns ok=false for missing, anonymous, or invalid sessions.
func (m *SessionManager) Identity(r *http.Request) (username string, admin bool, ok bool) {
	session, err := m.store.Get(r, sessionName)
	if err != nil || session.IsNew {
		return "", false, false
	}
	username, ok = session.Values[sessionKeyUsername].(string)
	if !ok || username == "" {
		return "", false, false
	}
	admin, _ = session.Values[sessionKeyAdmin].(bool)
	return username, admin, true
}
