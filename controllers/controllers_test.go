package controllers

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bookstore/middleware"
	"bookstore/models"
	"bookstore/sessions"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 1, totalPages(0, 12))
	assert.Equal(t, 1, totalPages(1, 12))
	assert.Equal(t, 1, totalPages(12, 12))
	assert.Equal(t, 2, totalPages(13, 12))
	assert.Equal(t, 3, totalPages(25, 10))
}

func TestParsePage(t *testing.T) {
	for query, want := range map[string]int{
		"":          1,
		"?page=1":   1,
		"?page=7":   7,
		"?page=0":   1,
		"?page=-3":  1,
		"?page=abc": 1,
	} {
		r := httptest.NewRequest("GET", "/books"+query, nil)
		assert.Equal(t, want, parsePage(r), query)
	}
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, averageRating(nil))

	reviews := []reviewWithUser{
		{Review: models.Review{Rating: 3}},
		{Review: models.Review{Rating: 5}},
	}
	assert.Equal(t, 4.0, averageRating(reviews))

	reviews = append(reviews, reviewWithUser{Review: models.Review{Rating: 5}})
	assert.InDelta(t, 4.33, averageRating(reviews), 0.01)
}

func TestOrderItemSubtotal(t *testing.T) {
	line := orderItemLine{
		OrderItem: models.OrderItem{Quantity: 3, PriceAtPurchase: 12.99},
	}
	assert.InDelta(t, 38.97, line.Subtotal(), 0.001)
}

func TestInsufficientStockErrorMessage(t *testing.T) {
	err := insufficientStockError{BookTitle: "Dune"}
	assert.Contains(t, err.Error(), "Dune")
}

// signedInHandler wires a handler behind the session middleware with an
// already signed-in session, the shape every guarded route sees at runtime.
func signedInHandler(h http.HandlerFunc, isAdmin bool) (http.Handler, *sessions.Session) {
	store := sessions.NewStore(time.Minute, time.Second)
	sess := store.New()
	sess.SignIn(uuid.New(), "Store Administrator", isAdmin)
	return middleware.WithSession(store)(h), sess
}

func TestToggleAdminRefusesSelf(t *testing.T) {
	// db stays nil: the guard must answer before any query runs.
	handler, sess := signedInHandler(ToggleAdmin, true)

	target := sess.UserID.String()
	r := httptest.NewRequest(http.MethodPost, "/admin/users/"+target+"/admin", nil)
	r.SetPathValue("id", target)
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.Token})

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/admin/users", w.Header().Get("Location"))

	flashes := sess.Flashes()
	require.Len(t, flashes, 1)
	assert.Equal(t, "warning", flashes[0].Level)
	assert.Equal(t, "You cannot change your own admin status.", flashes[0].Message)
}

func postForm(t *testing.T, handler http.Handler, sess *sessions.Session, path string, form url.Values) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.Token})
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	return w
}

func TestContactCountsCharactersNotBytes(t *testing.T) {
	handler, sess := signedInHandler(Contact, false)

	// Two CJK characters occupy six bytes but are still too short a name.
	w := postForm(t, handler, sess, "/contact", url.Values{
		"name":    {"李婷"},
		"email":   {"reader@example.com"},
		"subject": {"Shipping question"},
		"message": {"Where is my parcel, please advise."},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Name must be between 3 and 120 characters.")

	// Twelve bytes of message, but only four characters.
	w = postForm(t, handler, sess, "/contact", url.Values{
		"name":    {"李婷婷"},
		"email":   {"reader@example.com"},
		"subject": {"訂單在哪裡呢"},
		"message": {"還沒收到"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Message must be between 10 and 2000 characters.")

	// Fully multibyte but within every character budget.
	w = postForm(t, handler, sess, "/contact", url.Values{
		"name":    {"李婷婷"},
		"email":   {"reader@example.com"},
		"subject": {"訂單在哪裡呢"},
		"message": {"我的訂單已經兩週還沒有收到"},
	})
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}
