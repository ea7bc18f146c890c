package controllers

import (
	"log"
	"net/http"
	"strings"

	"bookstore/utils"

	"github.com/google/uuid"
)

func ViewCart(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	lines, total, err := resolveCart(sess.CartSnapshot())
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "resolving cart"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "cart", "Shopping Cart", map[string]any{
		"Lines": lines,
		"Total": total,
	})
}

// AddToCart increments the cart line for a book. The id is only checked
// syntactically; a stale id is dropped when the cart is next resolved.
func AddToCart(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	bookID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, sess)
		return
	}

	sess.AddToCart(bookID)
	sess.AddFlash("success", "Added to cart!")

	target := r.Referer()
	if target == "" || !strings.HasPrefix(target, "/") && !sameHost(r, target) {
		target = "/books"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	bookID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, sess)
		return
	}

	sess.RemoveFromCart(bookID)
	redirectWithFlash(w, r, sess, "/cart", "info", "Item removed from cart.")
}

// sameHost reports whether an absolute referer points back at this server,
// guarding the post-add redirect against offsite targets.
func sameHost(r *http.Request, target string) bool {
	return strings.HasPrefix(target, "http://"+r.Host+"/") ||
		strings.HasPrefix(target, "https://"+r.Host+"/")
}
