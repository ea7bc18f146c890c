package controllers

import (
	"errors"
	"net/http"
	"sort"
	"strconv"

	"bookstore/middleware"
	"bookstore/models"
	"bookstore/sessions"
	"bookstore/views"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

var (
	db    *sqlx.DB
	store *sessions.Store
	QB    = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	bookColumns = []string{
		"id", "title", "author", "isbn", "description", "price", "stock",
		"category_id", "cover_image", "publisher", "publication_year",
		"pages", "language", "created_at", "updated_at",
	}
	userColumns = []string{
		"id", "username", "email", "password_hash", "full_name", "phone",
		"address", "city", "postal_code", "is_admin", "created_at", "updated_at",
	}
	orderColumns = []string{
		"id", "user_id", "total_price", "status", "shipping_address",
		"shipping_city", "shipping_postal", "created_at", "updated_at",
	}
)

const (
	booksPerPage = 12
	adminPerPage = 10
)

func SetDB(database *sqlx.DB) {
	db = database
}

func SetSessionStore(s *sessions.Store) {
	store = s
}

// currentSession returns the session the middleware placed in the context.
func currentSession(r *http.Request) *sessions.Session {
	return middleware.SessionFrom(r.Context())
}

// render fills the layout chrome from the session and writes the page.
func render(w http.ResponseWriter, sess *sessions.Session, status int, name, title string, data any) {
	p := views.Page{
		Title: title,
		Data:  data,
	}
	if sess != nil {
		p.LoggedIn = sess.Authenticated()
		p.IsAdmin = sess.IsAdmin
		p.UserName = sess.FullName
		p.CartCount = sess.CartCount()
		p.Flashes = sess.Flashes()
	}
	views.Render(w, status, name, p)
}

// notFound renders the generic not-found page.
func notFound(w http.ResponseWriter, sess *sessions.Session) {
	render(w, sess, http.StatusNotFound, "not_found", "Not Found", nil)
}

// redirectWithFlash queues a flash for the next page view and redirects.
func redirectWithFlash(w http.ResponseWriter, r *http.Request, sess *sessions.Session, target, level, message string) {
	sess.AddFlash(level, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// isUniqueViolation reports whether err is a Postgres unique-constraint
// error, the race backstop behind the explicit duplicate checks.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// parsePage reads a 1-based page number from the query string.
func parsePage(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// totalPages returns the page count for a result set; a count of zero still
// yields one (empty) page.
func totalPages(count, perPage int) int {
	pages := (count + perPage - 1) / perPage
	if pages < 1 {
		pages = 1
	}
	return pages
}

// CartLine is a cart entry resolved against the catalog.
type CartLine struct {
	Book     models.Book
	Quantity int
	Subtotal float64
}

// resolveCart resolves a cart snapshot against the books table: entries
// whose book no longer exists are silently dropped, and line and grand
// totals are computed from current prices.
func resolveCart(cart map[uuid.UUID]int) ([]CartLine, float64, error) {
	if len(cart) == 0 {
		return nil, 0, nil
	}

	ids := make([]uuid.UUID, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}

	query, args, err := QB.Select(bookColumns...).From("books").Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return nil, 0, err
	}

	var books []models.Book
	if err := db.Select(&books, query, args...); err != nil {
		return nil, 0, err
	}

	var lines []CartLine
	var total float64
	for _, book := range books {
		qty := cart[book.ID]
		subtotal := book.Price * float64(qty)
		lines = append(lines, CartLine{Book: book, Quantity: qty, Subtotal: subtotal})
		total += subtotal
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Book.Title < lines[j].Book.Title })
	return lines, total, nil
}
