package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/techbench/gradebook/internal/gate"
	"github.com/techbench/gradebook/internal/httpx"
)

type ctxKey string

const sessionCtxKey = ctxKey("session")

// UserVerifier reports whether a user may still use the application.
type UserVerifier func(ctx context.Context, uid uint) bool

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, s)
}

func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionCtxKey).(*Session)
	return s, ok && s != nil
}

// Middleware attaches a valid session to the request context and slides its
// idle window forward by re-issuing the cookie.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Parse(r)
		if err == nil {
			s.SeenAt = m.Now().Unix()
			if err := m.Save(w, s); err == nil {
				r = r.WithContext(WithSession(r.Context(), s))
			}
		} else if !errors.Is(err, http.ErrNoCookie) {
			m.Clear(w)
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Manager) unauthorized(w http.ResponseWriter, r *http.Request) {
	if httpx.WantsJSON(r) {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// RequireAuth redirects to /login (HTML) or answers 401 (JSON) without a
// session. Sessions of disabled users are cleared.
func (m *Manager) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := SessionFromContext(r.Context())
		if !ok {
			m.unauthorized(w, r)
			return
		}
		if m.Verifier != nil && !m.Verifier(r.Context(), s.UserID) {
			m.Clear(w)
			m.unauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission answers 403 unless the session user holds
// resourceType:action. It must run after RequireAuth.
func RequirePermission(g *gate.Gate, action gate.Action, resourceType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, _ := SessionFromContext(r.Context())
			var uid uint
			if s != nil {
				uid = s.UserID
			}
			if err := g.Authorize(r.Context(), uid, action, resourceType); err != nil {
				if httpx.WantsJSON(r) {
					httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
					return
				}
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetProject records the current project in the request's session and
// re-issues the cookie.
func (m *Manager) SetProject(w http.ResponseWriter, r *http.Request, projectID uint) error {
	s, ok := SessionFromContext(r.Context())
	if !ok {
		return errExpired
	}
	s.ProjectID = projectID
	return m.Save(w, s)
}
