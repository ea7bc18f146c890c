package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"bookstore/models"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// insufficientStockError aborts a checkout and names the book that was
// short; no partial order is ever written.
type insufficientStockError struct {
	BookTitle string
}

func (e insufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.BookTitle)
}

var errEmptyOrder = errors.New("no purchasable items in cart")

func ShowCheckout(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	lines, total, err := resolveCart(sess.CartSnapshot())
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "resolving cart"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if len(lines) == 0 {
		redirectWithFlash(w, r, sess, "/books", "warning", "Your cart is empty.")
		return
	}

	user, err := getUserByID(sess.UserID)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching user for checkout"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "checkout", "Checkout", map[string]any{
		"Lines": lines,
		"Total": total,
		"User":  user,
	})
}

func Checkout(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	cart := sess.CartSnapshot()
	if len(cart) == 0 {
		redirectWithFlash(w, r, sess, "/books", "warning", "Your cart is empty.")
		return
	}

	orderID, err := placeOrder(sess.UserID, cart)
	if err != nil {
		var short insufficientStockError
		switch {
		case errors.As(err, &short):
			redirectWithFlash(w, r, sess, "/cart", "danger",
				fmt.Sprintf("Insufficient stock for %s.", short.BookTitle))
		case errors.Is(err, errEmptyOrder):
			redirectWithFlash(w, r, sess, "/books", "warning", "Your cart is empty.")
		default:
			log.Println(utils.ErrorWithTrace(err, "placing order"))
			redirectWithFlash(w, r, sess, "/cart", "danger",
				"An error occurred while placing your order. Please try again.")
		}
		return
	}

	sess.ClearCart()
	redirectWithFlash(w, r, sess, "/order/"+orderID.String(), "success", "Order placed successfully!")
}

// placeOrder converts a cart snapshot into an order plus order items inside
// one transaction. Books are resolved once, inside the transaction, so the
// order total always equals the sum of the line subtotals. Stock is taken
// with a compare-and-decrement update; a line whose book cannot cover its
// quantity fails the whole order and reports that book. Dangling cart ids
// are dropped, matching cart view semantics.
func placeOrder(userID uuid.UUID, cart map[uuid.UUID]int) (uuid.UUID, error) {
	user, err := getUserByID(userID)
	if err != nil {
		return uuid.Nil, utils.ErrorWithTrace(err, "resolving buyer")
	}

	tx, err := db.Beginx()
	if err != nil {
		return uuid.Nil, utils.ErrorWithTrace(err, "opening transaction")
	}
	defer tx.Rollback()

	ids := make([]uuid.UUID, 0, len(cart))
	for id := range cart {
		ids = append(ids, id)
	}
	query, args, err := QB.Select("id", "title", "price").From("books").
		Where(squirrel.Eq{"id": ids}).ToSql()
	if err != nil {
		return uuid.Nil, err
	}
	var books []struct {
		ID    uuid.UUID `db:"id"`
		Title string    `db:"title"`
		Price float64   `db:"price"`
	}
	if err := tx.Select(&books, query, args...); err != nil {
		return uuid.Nil, utils.ErrorWithTrace(err, "resolving cart books")
	}
	if len(books) == 0 {
		return uuid.Nil, errEmptyOrder
	}
	// Stable line order keeps the decrement order deterministic.
	sort.Slice(books, func(i, j int) bool { return books[i].Title < books[j].Title })

	var total float64
	for _, book := range books {
		total += book.Price * float64(cart[book.ID])
	}

	order := models.Order{
		ID:              uuid.New(),
		UserID:          userID,
		TotalPrice:      total,
		Status:          models.OrderPending,
		ShippingAddress: user.Address,
		ShippingCity:    user.City,
		ShippingPostal:  user.PostalCode,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	query, args, err = QB.Insert("orders").
		Columns(orderColumns...).
		Values(order.ID, order.UserID, order.TotalPrice, order.Status,
			order.ShippingAddress, order.ShippingCity, order.ShippingPostal,
			order.CreatedAt, order.UpdatedAt).
		ToSql()
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := tx.Exec(query, args...); err != nil {
		return uuid.Nil, utils.ErrorWithTrace(err, "inserting order")
	}

	for _, book := range books {
		qty := cart[book.ID]

		// Compare-and-decrement closes the concurrent-checkout window:
		// zero rows affected means the stock cannot cover this line.
		query, args, err = QB.Update("books").
			Set("stock", squirrel.Expr("stock - ?", qty)).
			Set("updated_at", time.Now()).
			Where(squirrel.Eq{"id": book.ID}).
			Where(squirrel.GtOrEq{"stock": qty}).
			ToSql()
		if err != nil {
			return uuid.Nil, err
		}
		result, err := tx.Exec(query, args...)
		if err != nil {
			return uuid.Nil, utils.ErrorWithTrace(err, "decrementing stock")
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return uuid.Nil, utils.ErrorWithTrace(err, "reading decrement result")
		}
		if affected == 0 {
			return uuid.Nil, insufficientStockError{BookTitle: book.Title}
		}

		query, args, err = QB.Insert("order_items").
			Columns("id", "order_id", "book_id", "quantity", "price_at_purchase").
			Values(uuid.New(), order.ID, book.ID, qty, book.Price).
			ToSql()
		if err != nil {
			return uuid.Nil, err
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return uuid.Nil, utils.ErrorWithTrace(err, "inserting order item")
		}
	}

	if err := tx.Commit(); err != nil {
		return uuid.Nil, utils.ErrorWithTrace(err, "committing order")
	}
	return order.ID, nil
}

func Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	query, args, err := QB.Select(orderColumns...).From("orders").
		Where(squirrel.Eq{"user_id": sess.UserID}).
		OrderBy("created_at DESC").ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building orders query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var orders []models.Order
	if err := db.Select(&orders, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching orders"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "dashboard", "My Orders", map[string]any{
		"Orders": orders,
	})
}

// orderItemLine joins an order item with its book's title for display.
type orderItemLine struct {
	models.OrderItem
	BookTitle string `db:"book_title"`
}

func (l orderItemLine) Subtotal() float64 {
	return l.PriceAtPurchase * float64(l.Quantity)
}

func OrderDetail(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, sess)
		return
	}

	query, args, err := QB.Select(orderColumns...).From("orders").
		Where(squirrel.Eq{"id": orderID}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building order query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var order models.Order
	if err := db.Get(&order, query, args...); err != nil {
		notFound(w, sess)
		return
	}

	if order.UserID != sess.UserID && !sess.IsAdmin {
		redirectWithFlash(w, r, sess, "/dashboard", "danger", "You do not have permission to view this order.")
		return
	}

	query, args, err = QB.Select(
		"order_items.id", "order_items.order_id", "order_items.book_id",
		"order_items.quantity", "order_items.price_at_purchase",
		"books.title AS book_title").
		From("order_items").
		Join("books ON books.id = order_items.book_id").
		Where(squirrel.Eq{"order_items.order_id": orderID}).
		OrderBy("books.title").
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building order items query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var items []orderItemLine
	if err := db.Select(&items, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching order items"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "order_detail", "Order Details", map[string]any{
		"Order": order,
		"Items": items,
	})
}
