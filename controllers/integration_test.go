//go:build integration
// +build integration

package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"bookstore/middleware"
	"bookstore/models"
	"bookstore/sessions"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a throwaway PostgreSQL container, runs the migrations
// and seeds the sample catalog.
func setupTestDB(t *testing.T) *sqlx.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:alpine",
		postgres.WithDatabase("bookstore_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("Failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	conn, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	mig, err := migrate.New("file://../database/migrations", connStr)
	require.NoError(t, err)
	if err := mig.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	SetDB(conn)
	require.NoError(t, SeedSampleData())
	return conn
}

func bookByTitle(t *testing.T, title string) models.Book {
	query, args, err := QB.Select(bookColumns...).From("books").
		Where(squirrel.Eq{"title": title}).ToSql()
	require.NoError(t, err)
	var book models.Book
	require.NoError(t, db.Get(&book, query, args...))
	return book
}

func bookStock(t *testing.T, id uuid.UUID) int {
	query, args, err := QB.Select("stock").From("books").Where(squirrel.Eq{"id": id}).ToSql()
	require.NoError(t, err)
	var stock int
	require.NoError(t, db.Get(&stock, query, args...))
	return stock
}

func createUser(t *testing.T, username, email string) models.User {
	hash, err := utils.HashPassword("secret123")
	require.NoError(t, err)
	now := time.Now()
	user := models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     "Test Reader",
		Address:      "1 Test Lane",
		City:         "Testville",
		PostalCode:   "12345",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	query, args, err := QB.Insert("users").
		Columns(userColumns...).
		Values(user.ID, user.Username, user.Email, user.PasswordHash,
			user.FullName, user.Phone, user.Address, user.City,
			user.PostalCode, user.IsAdmin, user.CreatedAt, user.UpdatedAt).
		ToSql()
	require.NoError(t, err)
	_, err = db.Exec(query, args...)
	require.NoError(t, err)
	return user
}

func TestStorefrontIntegration(t *testing.T) {
	setupTestDB(t)

	t.Run("seeding is idempotent", func(t *testing.T) {
		require.NoError(t, SeedSampleData())

		var books, categories int
		require.NoError(t, db.Get(&books, "SELECT COUNT(*) FROM books"))
		require.NoError(t, db.Get(&categories, "SELECT COUNT(*) FROM categories"))
		assert.Equal(t, 8, books)
		assert.Equal(t, 5, categories)

		var admin models.User
		require.NoError(t, db.Get(&admin,
			"SELECT * FROM users WHERE email = $1", "admin@bookstore.com"))
		assert.True(t, admin.IsAdmin)
		assert.NoError(t, utils.CheckPassword(admin.PasswordHash, "admin123"))
	})

	t.Run("resolving a cart drops dangling ids", func(t *testing.T) {
		dune := bookByTitle(t, "Dune")

		lines, total, err := resolveCart(map[uuid.UUID]int{
			dune.ID:    2,
			uuid.New(): 1, // deleted since it was added
		})
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Equal(t, 2, lines[0].Quantity)
		assert.InDelta(t, 2*dune.Price, total, 0.001)
	})

	t.Run("placing an order decrements stock and snapshots prices", func(t *testing.T) {
		user := createUser(t, "buyer1", "buyer1@example.com")
		gatsby := bookByTitle(t, "The Great Gatsby")
		dune := bookByTitle(t, "Dune")

		orderID, err := placeOrder(user.ID, map[uuid.UUID]int{
			gatsby.ID: 2,
			dune.ID:   1,
		})
		require.NoError(t, err)

		var order models.Order
		require.NoError(t, db.Get(&order, "SELECT * FROM orders WHERE id = $1", orderID))
		assert.Equal(t, models.OrderPending, order.Status)
		assert.InDelta(t, 2*gatsby.Price+dune.Price, order.TotalPrice, 0.001)
		assert.Equal(t, user.Address, order.ShippingAddress)
		assert.Equal(t, user.City, order.ShippingCity)

		assert.Equal(t, gatsby.Stock-2, bookStock(t, gatsby.ID))
		assert.Equal(t, dune.Stock-1, bookStock(t, dune.ID))

		var items []models.OrderItem
		require.NoError(t, db.Select(&items,
			"SELECT * FROM order_items WHERE order_id = $1", orderID))
		require.Len(t, items, 2)
		byBook := map[uuid.UUID]models.OrderItem{}
		for _, item := range items {
			byBook[item.BookID] = item
		}
		assert.Equal(t, 2, byBook[gatsby.ID].Quantity)
		assert.InDelta(t, gatsby.Price, byBook[gatsby.ID].PriceAtPurchase, 0.001)
		assert.InDelta(t, dune.Price, byBook[dune.ID].PriceAtPurchase, 0.001)
	})

	t.Run("insufficient stock aborts the whole order", func(t *testing.T) {
		user := createUser(t, "buyer2", "buyer2@example.com")
		pragmatic := bookByTitle(t, "The Pragmatic Programmer")
		dune := bookByTitle(t, "Dune")

		var ordersBefore int
		require.NoError(t, db.Get(&ordersBefore, "SELECT COUNT(*) FROM orders"))

		_, err := placeOrder(user.ID, map[uuid.UUID]int{
			dune.ID:      1,
			pragmatic.ID: pragmatic.Stock + 1,
		})

		var short insufficientStockError
		require.ErrorAs(t, err, &short)
		assert.Equal(t, "The Pragmatic Programmer", short.BookTitle)

		// Nothing was written, including the line that did have stock.
		var ordersAfter int
		require.NoError(t, db.Get(&ordersAfter, "SELECT COUNT(*) FROM orders"))
		assert.Equal(t, ordersBefore, ordersAfter)
		assert.Equal(t, pragmatic.Stock, bookStock(t, pragmatic.ID))
		assert.Equal(t, dune.Stock, bookStock(t, dune.ID))
	})

	t.Run("a cart of only dangling ids places no order", func(t *testing.T) {
		user := createUser(t, "buyer3", "buyer3@example.com")

		_, err := placeOrder(user.ID, map[uuid.UUID]int{uuid.New(): 1})
		assert.ErrorIs(t, err, errEmptyOrder)
	})

	t.Run("a user may review a book once", func(t *testing.T) {
		user := createUser(t, "reviewer", "reviewer@example.com")
		dune := bookByTitle(t, "Dune")

		insert := func() error {
			query, args, err := QB.Insert("reviews").
				Columns("id", "user_id", "book_id", "rating", "title", "content", "created_at").
				Values(uuid.New(), user.ID, dune.ID, 5, "A masterpiece",
					"Read it twice already, still finding new layers.", time.Now()).
				ToSql()
			require.NoError(t, err)
			_, err = db.Exec(query, args...)
			return err
		}

		require.NoError(t, insert())
		err := insert()
		require.Error(t, err)
		assert.True(t, isUniqueViolation(err))

		var count int
		require.NoError(t, db.Get(&count,
			"SELECT COUNT(*) FROM reviews WHERE user_id = $1 AND book_id = $2",
			user.ID, dune.ID))
		assert.Equal(t, 1, count)
	})

	t.Run("duplicate email is a unique violation", func(t *testing.T) {
		hash, err := utils.HashPassword("whatever1")
		require.NoError(t, err)
		query, args, err := QB.Insert("users").
			Columns(userColumns...).
			Values(uuid.New(), "imposter", "admin@bookstore.com", hash,
				"Imposter", "", "", "", "", false, time.Now(), time.Now()).
			ToSql()
		require.NoError(t, err)
		_, err = db.Exec(query, args...)
		require.Error(t, err)
		assert.True(t, isUniqueViolation(err))
	})

	t.Run("stock can never go negative", func(t *testing.T) {
		dune := bookByTitle(t, "Dune")
		_, err := db.Exec("UPDATE books SET stock = -1 WHERE id = $1", dune.ID)
		assert.Error(t, err)
	})

	t.Run("a category with books resists deletion", func(t *testing.T) {
		var fiction models.Category
		require.NoError(t, db.Get(&fiction,
			"SELECT * FROM categories WHERE name = $1", "Fiction"))

		_, err := db.Exec("DELETE FROM categories WHERE id = $1", fiction.ID)
		assert.Error(t, err)
	})

	t.Run("the admin handler refuses to delete an owning category", func(t *testing.T) {
		handler, sess := signedInHandler(DeleteCategory, true)

		var fiction models.Category
		require.NoError(t, db.Get(&fiction,
			"SELECT * FROM categories WHERE name = $1", "Fiction"))

		r := httptest.NewRequest(http.MethodPost,
			"/admin/categories/"+fiction.ID.String()+"/delete", nil)
		r.SetPathValue("id", fiction.ID.String())
		r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.Token})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/admin/categories", w.Header().Get("Location"))

		flashes := sess.Flashes()
		require.Len(t, flashes, 1)
		assert.Equal(t, "warning", flashes[0].Level)
		assert.Equal(t, "Cannot delete category with existing books.", flashes[0].Message)

		var remaining int
		require.NoError(t, db.Get(&remaining,
			"SELECT COUNT(*) FROM categories WHERE id = $1", fiction.ID))
		assert.Equal(t, 1, remaining)
	})

	t.Run("the admin handler deletes a category with no books", func(t *testing.T) {
		handler, sess := signedInHandler(DeleteCategory, true)

		poetryID := uuid.New()
		_, err := db.Exec(
			"INSERT INTO categories (id, name, description, created_at) VALUES ($1, $2, $3, $4)",
			poetryID, "Poetry", "Verse and collections", time.Now())
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodPost,
			"/admin/categories/"+poetryID.String()+"/delete", nil)
		r.SetPathValue("id", poetryID.String())
		r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.Token})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/admin/categories", w.Header().Get("Location"))

		flashes := sess.Flashes()
		require.Len(t, flashes, 1)
		assert.Equal(t, "success", flashes[0].Level)

		var remaining int
		require.NoError(t, db.Get(&remaining,
			"SELECT COUNT(*) FROM categories WHERE id = $1", poetryID))
		assert.Equal(t, 0, remaining)
	})

	t.Run("review title length counts characters not bytes", func(t *testing.T) {
		user := createUser(t, "runes", "runes@example.com")
		gatsby := bookByTitle(t, "The Great Gatsby")

		store := sessions.NewStore(time.Minute, time.Second)
		sess := store.New()
		sess.SignIn(user.ID, user.FullName, false)
		handler := middleware.WithSession(store)(http.HandlerFunc(AddReview))

		// Four characters across twelve bytes, still under the minimum.
		form := url.Values{
			"rating":  {"5"},
			"title":   {"好書推薦"},
			"content": {"A classic that holds up on every reread."},
		}
		r := httptest.NewRequest(http.MethodPost,
			"/book/"+gatsby.ID.String()+"/review", strings.NewReader(form.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		r.SetPathValue("id", gatsby.ID.String())
		r.AddCookie(&http.Cookie{Name: sessions.CookieName, Value: sess.Token})
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		flashes := sess.Flashes()
		require.Len(t, flashes, 1)
		assert.Equal(t, "Title must be between 5 and 200 characters.", flashes[0].Message)

		var count int
		require.NoError(t, db.Get(&count,
			"SELECT COUNT(*) FROM reviews WHERE user_id = $1", user.ID))
		assert.Equal(t, 0, count)
	})

	t.Run("deleting a book cascades to its reviews", func(t *testing.T) {
		neuromancer := bookByTitle(t, "Neuromancer")
		user := createUser(t, "cascade", "cascade@example.com")

		query, args, err := QB.Insert("reviews").
			Columns("id", "user_id", "book_id", "rating", "title", "content", "created_at").
			Values(uuid.New(), user.ID, neuromancer.ID, 4, "Dense but great",
				"The prose takes a while, stay with it.", time.Now()).
			ToSql()
		require.NoError(t, err)
		_, err = db.Exec(query, args...)
		require.NoError(t, err)

		_, err = db.Exec("DELETE FROM books WHERE id = $1", neuromancer.ID)
		require.NoError(t, err)

		var count int
		require.NoError(t, db.Get(&count,
			"SELECT COUNT(*) FROM reviews WHERE book_id = $1", neuromancer.ID))
		assert.Equal(t, 0, count)
	})
}
