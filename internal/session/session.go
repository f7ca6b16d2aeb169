// Package session binds a browser to a username.
//
// The browser holds an opaque token in the ft_session cookie; the token maps
// to a row in SQLite so logins survive restarts. Middleware restores the
// session into the request context on every request.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/amandhiraj/financetracker/internal/storage"
)

const CookieName = "ft_session"

var ErrNotFound = errors.New("no active session")

// Session is the current identity of one browser.
type Session struct {
	Token     string
	Username  string
	ExpiresAt time.Time
}

// Store persists sessions.
type Store interface {
	CreateSession(ctx context.Context, s storage.Session) error
	GetSession(ctx context.Context, token string) (storage.Session, error)
	DeleteSession(ctx context.Context, token string) error
}

type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewManager(store Store, ttl time.Duration, secure bool) *Manager {
	return &Manager{store: store, ttl: ttl, secure: secure, now: time.Now}
}

// Login creates a persisted session for username and sets the cookie.
func (m *Manager) Login(ctx context.Context, w http.ResponseWriter, username string) (Session, error) {
	if username == "" {
		return Session{}, fmt.Errorf("login: empty username")
	}
	now := m.now()
	s := storage.Session{
		Token:     uuid.NewString(),
		Username:  username,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.store.CreateSession(ctx, s); err != nil {
		return Session{}, fmt.Errorf("login: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.Token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return Session{Token: s.Token, Username: s.Username, ExpiresAt: s.ExpiresAt}, nil
}

// Logout deletes the session behind the request cookie, if any, and expires
// the cookie.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	m.clearCookie(w)
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil
	}
	if err := m.store.DeleteSession(ctx, c.Value); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// Load restores the session named by the request cookie. It returns
// ErrNotFound when there is no cookie, no row, or the row has expired.
func (m *Manager) Load(ctx context.Context, r *http.Request) (Session, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return Session{}, ErrNotFound
	}
	s, err := m.store.GetSession(ctx, c.Value)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	if s.Expired(m.now()) {
		if err := m.store.DeleteSession(ctx, s.Token); err != nil {
			slog.WarnContext(ctx, "Failed to delete expired session", "error", err)
		}
		return Session{}, ErrNotFound
	}
	return Session{Token: s.Token, Username: s.Username, ExpiresAt: s.ExpiresAt}, nil
}

func (m *Manager) clearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

type ctxKey struct{}

// WithSession stores s in ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session placed by Middleware.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// Middleware restores the session, if any, into the request context.
// Requests without a valid session pass through unauthenticated; stale
// cookies are cleared.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Load(r.Context(), r)
		switch {
		case err == nil:
			r = r.WithContext(WithSession(r.Context(), s))
		case errors.Is(err, ErrNotFound):
			if _, cerr := r.Cookie(CookieName); cerr == nil {
				m.clearCookie(w)
			}
		default:
			slog.ErrorContext(r.Context(), "Failed to restore session", "error", err)
		}
		next.ServeHTTP(w, r)
	})
}
