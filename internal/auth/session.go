// Package auth keeps the logged-in user in a signed session cookie and
// guards routes that need a session or a permission.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/securecookie"

	"github.com/techbench/gradebook/internal/models"
)

const sessionCookieName = "session"

// Session is the cookie payload. Times are unix seconds.
type Session struct {
	UserID    uint        `json:"uid"`
	UserName  string      `json:"name"`
	Role      models.Role `json:"role"`
	ProjectID uint        `json:"pid,omitempty"`
	IssuedAt  int64       `json:"iat"`
	SeenAt    int64       `json:"seen"`
}

// Identity returns the user part of the session.
func (s *Session) Identity() *models.Identity {
	if s == nil {
		return nil
	}
	return &models.Identity{ID: s.UserID, UserName: s.UserName, Role: s.Role}
}

var errExpired = errors.New("session expired")

// Manager encodes and validates session cookies. A session expires MaxAge
// after login or Idle after the last request, whichever comes first.
type Manager struct {
	codec  *securecookie.SecureCookie
	MaxAge time.Duration
	Idle   time.Duration
	Secure bool
	Now    func() time.Time

	// Verifier, when set, is asked on every guarded request whether the
	// session's user may still use the application.
	Verifier UserVerifier
}

func NewManager(secret string, maxAge, idle time.Duration) *Manager {
	codec := securecookie.New([]byte(secret), nil)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(maxAge / time.Second))
	return &Manager{codec: codec, MaxAge: maxAge, Idle: idle, Now: time.Now}
}

// Create starts a session for a freshly authenticated user.
func (m *Manager) Create(w http.ResponseWriter, id *models.Identity) (*Session, error) {
	now := m.Now().Unix()
	s := &Session{UserID: id.ID, UserName: id.UserName, Role: id.Role, IssuedAt: now, SeenAt: now}
	return s, m.Save(w, s)
}

// Save writes s back to the client.
func (m *Manager) Save(w http.ResponseWriter, s *Session) error {
	value, err := m.codec.Encode(sessionCookieName, s)
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
		Expires:  m.expiry(s),
	})
	return nil
}

// Clear deletes the session cookie.
func (m *Manager) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Parse decodes and validates the session cookie of r.
func (m *Manager) Parse(r *http.Request) (*Session, error) {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, err
	}
	var s Session
	if err := m.codec.Decode(sessionCookieName, c.Value, &s); err != nil {
		return nil, err
	}
	if s.UserID == 0 || !m.Now().Before(m.expiry(&s)) {
		return nil, errExpired
	}
	return &s, nil
}

func (m *Manager) expiry(s *Session) time.Time {
	abs := time.Unix(s.IssuedAt, 0).Add(m.MaxAge)
	idle := time.Unix(s.SeenAt, 0).Add(m.Idle)
	if idle.Before(abs) {
		return idle
	}
	return abs
}
