package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"grantor/pkg/platform/sentinel"
)

const testCookie = "grantor_session"

func newTestManager() *Manager {
	return NewManager(NewInMemoryStore(), testCookie, time.Minute)
}

// bindAndExtract runs Bind against a recorder and returns the cookie it set.
func bindAndExtract(t *testing.T, m *Manager, nonceVal string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, m.Bind(context.Background(), rec, nonceVal))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func TestBind(t *testing.T) {
	m := newTestManager()
	cookie := bindAndExtract(t, m, "interact-nonce")

	assert.Equal(t, testCookie, cookie.Name)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
	assert.Equal(t, "/", cookie.Path)
	assert.Equal(t, 60, cookie.MaxAge)
}

func TestNonce(t *testing.T) {
	m := newTestManager()
	cookie := bindAndExtract(t, m, "interact-nonce")

	t.Run("round trip", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/interact/x/finish", nil)
		req.AddCookie(cookie)
		assert.Equal(t, "interact-nonce", m.Nonce(context.Background(), req))
	})

	t.Run("no cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/interact/x/finish", nil)
		assert.Empty(t, m.Nonce(context.Background(), req))
	})

	t.Run("unknown session id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/interact/x/finish", nil)
		req.AddCookie(&http.Cookie{Name: testCookie, Value: "no-such-session"})
		assert.Empty(t, m.Nonce(context.Background(), req))
	})
}

func TestClear(t *testing.T) {
	m := newTestManager()
	cookie := bindAndExtract(t, m, "interact-nonce")

	req := httptest.NewRequest(http.MethodGet, "/interact/x/finish", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	m.Clear(context.Background(), rec, req)

	cleared := rec.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Empty(t, cleared[0].Value)
	assert.Negative(t, cleared[0].MaxAge)

	// Binding is gone: the same cookie no longer resolves.
	again := httptest.NewRequest(http.MethodGet, "/interact/x/finish", nil)
	again.AddCookie(cookie)
	assert.Empty(t, m.Nonce(context.Background(), again))
}

func TestInMemoryStoreExpiry(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sid", "nonce", 10*time.Millisecond))

	got, err := store.Get(ctx, "sid")
	require.NoError(t, err)
	assert.Equal(t, "nonce", got)

	time.Sleep(20 * time.Millisecond)
	_, err = store.Get(ctx, "sid")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryStoreDelete(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "sid", "nonce", time.Minute))
	require.NoError(t, store.Delete(ctx, "sid"))
	_, err := store.Get(ctx, "sid")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	// Deleting an absent session is not an error.
	assert.NoError(t, store.Delete(ctx, "never-existed"))
}
