// Package session binds the end-user's browser session to an in-flight
// interaction. Start places the interaction nonce against a random session id
// held in a cookie; Finish requires the stored nonce to match, so only the
// browser that started the flow can finish it.
package session

import (
	"context"
	"net/http"
	"time"

	"grantor/pkg/platform/nonce"
)

// Store keeps session-id -> nonce bindings with a bounded lifetime.
type Store interface {
	Set(ctx context.Context, sid, nonceVal string, ttl time.Duration) error
	Get(ctx context.Context, sid string) (string, error)
	Delete(ctx context.Context, sid string) error
}

// Manager issues the session cookie and fronts the binding store.
type Manager struct {
	store      Store
	cookieName string
	ttl        time.Duration
}

// NewManager constructs a session manager.
func NewManager(store Store, cookieName string, ttl time.Duration) *Manager {
	return &Manager{store: store, cookieName: cookieName, ttl: ttl}
}

// Bind stores the interaction nonce against a fresh session id and sets the
// cookie on the response. SameSite=None because the finish request arrives
// via a cross-site redirect from the consent provider.
func (m *Manager) Bind(ctx context.Context, w http.ResponseWriter, nonceVal string) error {
	sid := nonce.New()
	if err := m.store.Set(ctx, sid, nonceVal, m.ttl); err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	return nil
}

// Nonce returns the nonce bound to the request's session, or "" when the
// request carries no valid session.
func (m *Manager) Nonce(ctx context.Context, r *http.Request) string {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return ""
	}
	bound, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		return ""
	}
	return bound
}

// Clear removes the binding and expires the cookie. Called once Finish has
// consumed the session so a replayed finish URL starts from nothing.
func (m *Manager) Clear(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(m.cookieName)
	if err == nil && cookie.Value != "" {
		_ = m.store.Delete(ctx, cookie.Value)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     m.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}
