package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bookstore/sessions"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChain(store *sessions.Store, next http.HandlerFunc) http.Handler {
	return WithSession(store)(next)
}

func TestWithSessionInjectsSession(t *testing.T) {
	store := sessions.NewStore(time.Minute, time.Second)

	var got *sessions.Session
	handler := newChain(store, func(w http.ResponseWriter, r *http.Request) {
		got = SessionFrom(r.Context())
	})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/books", nil))

	require.NotNil(t, got)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, got.Token, cookies[0].Value)
}

func TestLoginRequiredRedirectsAnonymous(t *testing.T) {
	store := sessions.NewStore(time.Minute, time.Second)

	called := false
	handler := newChain(store, LoginRequired(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/checkout", nil))

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/auth/login?next=%2Fcheckout", w.Header().Get("Location"))
}

func TestLoginRequiredPassesAuthenticated(t *testing.T) {
	store := sessions.NewStore(time.Minute, time.Second)
	sess := store.New()
	sess.SignIn(uuid.New(), "Jane Reader", false)

	called := false
	handler := newChain(store, LoginRequired(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodGet, "/checkout", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.Token})
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.True(t, called)
}

func TestAdminRequiredRejectsNonAdmin(t *testing.T) {
	store := sessions.NewStore(time.Minute, time.Second)
	sess := store.New()
	sess.SignIn(uuid.New(), "Jane Reader", false)

	called := false
	handler := newChain(store, AdminRequired(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/admin/books", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.Token})
	handler.ServeHTTP(w, r)

	assert.False(t, called)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestAdminRequiredPassesAdmin(t *testing.T) {
	store := sessions.NewStore(time.Minute, time.Second)
	sess := store.New()
	sess.SignIn(uuid.New(), "Store Administrator", true)

	called := false
	handler := newChain(store, AdminRequired(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	r := httptest.NewRequest(http.MethodGet, "/admin/books", nil)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.Token})
	handler.ServeHTTP(httptest.NewRecorder(), r)

	assert.True(t, called)
}
