// Package sessions keeps per-browser state (signed-in user, cart, flash
// messages) server side, keyed by an opaque token held in a cookie. Entries
// live in a TTL map instead of Redis and expire seven days after the last
// request that touched them.
package sessions

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medatechnology/goutil/encryption"
	"github.com/medatechnology/goutil/medattlmap"
)

const (
	CookieName = "bookstore_session"

	// Controls token length/complexity
	tokenLengthMultiplier = 3

	DefaultTTL    = 7 * 24 * time.Hour
	DefaultTicker = time.Minute

	// Browser-side cookie lifetime when the user checks "remember me".
	RememberDuration = 30 * 24 * time.Hour
)

// Flash is a one-shot message rendered by the next page view.
type Flash struct {
	Level   string // success, info, warning, danger
	Message string
}

type Session struct {
	Token    string
	UserID   uuid.UUID
	IsAdmin  bool
	FullName string

	mu      sync.Mutex
	cart    map[uuid.UUID]int
	flashes []Flash
}

// Authenticated reports whether a user is signed in on this session.
func (s *Session) Authenticated() bool {
	return s.UserID != uuid.Nil
}

// SignIn binds the session to a user.
func (s *Session) SignIn(userID uuid.UUID, fullName string, isAdmin bool) {
	s.UserID = userID
	s.FullName = fullName
	s.IsAdmin = isAdmin
}

func (s *Session) AddFlash(level, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes = append(s.flashes, Flash{Level: level, Message: message})
}

// Flashes drains and returns the pending flash messages.
func (s *Session) Flashes() []Flash {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.flashes
	s.flashes = nil
	return out
}

// AddToCart increments the quantity for a book, creating the line at 1.
// The book id is not checked for existence here; dangling ids are dropped
// when the cart is resolved against the catalog.
func (s *Session) AddToCart(bookID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart[bookID]++
}

// RemoveFromCart deletes the line for a book. Removing an absent line is a
// no-op.
func (s *Session) RemoveFromCart(bookID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cart, bookID)
}

// CartSnapshot returns a copy of the cart's (book id, quantity) pairs.
func (s *Session) CartSnapshot() map[uuid.UUID]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make(map[uuid.UUID]int, len(s.cart))
	for id, qty := range s.cart {
		snap[id] = qty
	}
	return snap
}

// CartCount returns the total number of items across all cart lines.
func (s *Session) CartCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, qty := range s.cart {
		n += qty
	}
	return n
}

func (s *Session) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = make(map[uuid.UUID]int)
}

// Store holds live sessions in a TTL map keyed by token.
type Store struct {
	sessions *medattlmap.TTLMap
	ttl      time.Duration
}

func NewStore(ttl, ticker time.Duration) *Store {
	return &Store{
		sessions: medattlmap.NewTTLMap(ttl, ticker),
		ttl:      ttl,
	}
}

// New creates an empty session under a fresh random token.
func (st *Store) New() *Session {
	sess := &Session{
		Token: encryption.NewRandomTokenIterate(tokenLengthMultiplier),
		cart:  make(map[uuid.UUID]int),
	}
	st.sessions.Put(sess.Token, 0, sess)
	return sess
}

// Get looks a session up by token and slides its expiry forward.
func (st *Store) Get(token string) (*Session, bool) {
	val, ok := st.sessions.Get(token)
	if !ok {
		return nil, false
	}
	sess := val.(*Session)
	// Re-put to restart the TTL; expiry is sliding, not absolute.
	st.sessions.Put(token, 0, sess)
	return sess, true
}

// Destroy removes a session, e.g. on logout.
func (st *Store) Destroy(token string) {
	st.sessions.Delete(token)
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	return st.sessions.Len()
}

// FromRequest resolves the session named by the request's cookie, if any.
func (st *Store) FromRequest(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return nil, false
	}
	return st.Get(cookie.Value)
}

// Ensure returns the request's session, creating one (and setting its
// cookie) when the request carries none or a stale token.
func (st *Store) Ensure(w http.ResponseWriter, r *http.Request) *Session {
	if sess, ok := st.FromRequest(r); ok {
		return sess
	}
	sess := st.New()
	st.SetCookie(w, sess, false)
	return sess
}

// SetCookie writes the session cookie. Without remember the cookie lives
// for the browser session only; the server-side entry expires on its own
// sliding TTL either way.
func (st *Store) SetCookie(w http.ResponseWriter, sess *Session, remember bool) {
	cookie := &http.Cookie{
		Name:     CookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if remember {
		cookie.Expires = time.Now().Add(RememberDuration)
	}
	http.SetCookie(w, cookie)
}

// ClearCookie expires the session cookie on the client.
func (st *Store) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
