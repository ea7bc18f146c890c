package controllers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"bookstore/models"
	"bookstore/sessions"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

func AdminDashboard(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	counts := map[string]int{}
	for _, table := range []string{"users", "books", "orders"} {
		query, args, err := QB.Select("COUNT(*)").From(table).ToSql()
		if err != nil {
			log.Println(utils.ErrorWithTrace(err, "building count query"))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		var n int
		if err := db.Get(&n, query, args...); err != nil {
			log.Println(utils.ErrorWithTrace(err, "counting "+table))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		counts[table] = n
	}

	query, args, err := QB.Select("COALESCE(SUM(total_price), 0)").From("orders").ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building revenue query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var revenue float64
	if err := db.Get(&revenue, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "summing revenue"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	recent, _, err := ordersWithUsers(10, 0)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching recent orders"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	query, args, err = QB.Select(bookColumns...).From("books").
		Where(squirrel.Lt{"stock": 5}).OrderBy("stock").ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building low stock query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var lowStock []models.Book
	if err := db.Select(&lowStock, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching low stock books"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "admin_dashboard", "Admin Dashboard", map[string]any{
		"TotalUsers":    counts["users"],
		"TotalBooks":    counts["books"],
		"TotalOrders":   counts["orders"],
		"TotalRevenue":  revenue,
		"RecentOrders":  recent,
		"LowStockBooks": lowStock,
	})
}

// bookWithCategory joins a book with its category's name for the admin list.
type bookWithCategory struct {
	models.Book
	CategoryName string `db:"category_name"`
}

func ManageBooks(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	page := parsePage(r)

	query, args, err := QB.Select("COUNT(*)").From("books").ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book count query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var total int
	if err := db.Get(&total, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "counting books"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	cols := make([]string, 0, len(bookColumns)+1)
	for _, c := range bookColumns {
		cols = append(cols, "books."+c)
	}
	cols = append(cols, "categories.name AS category_name")

	query, args, err = QB.Select(cols...).From("books").
		Join("categories ON categories.id = books.category_id").
		OrderBy("books.created_at DESC").
		Limit(adminPerPage).
		Offset(uint64((page - 1) * adminPerPage)).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book list query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var books []bookWithCategory
	if err := db.Select(&books, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching books"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "admin_books", "Manage Books", map[string]any{
		"Books":      books,
		"Page":       page,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
		"TotalPages": totalPages(total, adminPerPage),
	})
}

func ShowAddBook(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	categories, err := allCategories()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching categories"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "admin_book_form", "Add Book", map[string]any{
		"Editing":    false,
		"Book":       models.Book{Language: "English"},
		"Categories": categories,
		"Errors":     map[string]string{},
	})
}

func AddBook(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	categories, err := allCategories()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching categories"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	book, formErrors := parseBookForm(r, models.Book{Language: "English"})
	if len(formErrors) > 0 {
		render(w, sess, http.StatusUnprocessableEntity, "admin_book_form", "Add Book", map[string]any{
			"Editing":    false,
			"Book":       book,
			"Categories": categories,
			"Errors":     formErrors,
		})
		return
	}

	book.ID = uuid.New()
	book.CreatedAt = time.Now()
	book.UpdatedAt = time.Now()

	if path, ok := saveCover(r); ok && path != "" {
		book.CoverImage = path
	}

	query, args, err := QB.Insert("books").
		Columns(bookColumns...).
		Values(book.ID, book.Title, book.Author, book.ISBN, book.Description,
			book.Price, book.Stock, book.CategoryID, book.CoverImage,
			book.Publisher, book.PublicationYear, book.Pages, book.Language,
			book.CreatedAt, book.UpdatedAt).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book insert"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := db.Exec(query, args...); err != nil {
		if isUniqueViolation(err) {
			formErrors["isbn"] = "A book with this ISBN already exists."
			render(w, sess, http.StatusUnprocessableEntity, "admin_book_form", "Add Book", map[string]any{
				"Editing":    false,
				"Book":       book,
				"Categories": categories,
				"Errors":     formErrors,
			})
			return
		}
		log.Println(utils.ErrorWithTrace(err, "inserting book"))
		redirectWithFlash(w, r, sess, "/admin/books", "danger", "An error occurred while adding the book. Please try again.")
		return
	}

	redirectWithFlash(w, r, sess, "/admin/books", "success", "Book added successfully!")
}

func ShowEditBook(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	book, ok := getBook(w, sess, r.PathValue("id"))
	if !ok {
		return
	}

	categories, err := allCategories()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching categories"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "admin_book_form", "Edit Book", map[string]any{
		"Editing":    true,
		"Book":       book,
		"Categories": categories,
		"Errors":     map[string]string{},
	})
}

func EditBook(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	book, ok := getBook(w, sess, r.PathValue("id"))
	if !ok {
		return
	}

	categories, err := allCategories()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching categories"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	updated, formErrors := parseBookForm(r, book)
	if len(formErrors) > 0 {
		render(w, sess, http.StatusUnprocessableEntity, "admin_book_form", "Edit Book", map[string]any{
			"Editing":    true,
			"Book":       updated,
			"Categories": categories,
			"Errors":     formErrors,
		})
		return
	}

	if path, ok := saveCover(r); ok && path != "" {
		if book.CoverImage != "" {
			if err := utils.DeleteImageFile(book.CoverImage); err != nil {
				log.Println(utils.ErrorWithTrace(err, "deleting old cover"))
			}
		}
		updated.CoverImage = path
	}

	query, args, err := QB.Update("books").
		Set("title", updated.Title).
		Set("author", updated.Author).
		Set("isbn", updated.ISBN).
		Set("description", updated.Description).
		Set("price", updated.Price).
		Set("stock", updated.Stock).
		Set("category_id", updated.CategoryID).
		Set("cover_image", updated.CoverImage).
		Set("publisher", updated.Publisher).
		Set("publication_year", updated.PublicationYear).
		Set("pages", updated.Pages).
		Set("language", updated.Language).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": book.ID}).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book update"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := db.Exec(query, args...); err != nil {
		if isUniqueViolation(err) {
			formErrors["isbn"] = "A book with this ISBN already exists."
			render(w, sess, http.StatusUnprocessableEntity, "admin_book_form", "Edit Book", map[string]any{
				"Editing":    true,
				"Book":       updated,
				"Categories": categories,
				"Errors":     formErrors,
			})
			return
		}
		log.Println(utils.ErrorWithTrace(err, "updating book"))
		redirectWithFlash(w, r, sess, "/admin/books", "danger", "An error occurred while updating the book. Please try again.")
		return
	}

	redirectWithFlash(w, r, sess, "/admin/books", "success", "Book updated successfully!")
}

func DeleteBook(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	book, ok := getBook(w, sess, r.PathValue("id"))
	if !ok {
		return
	}

	// Reviews and order items go with the book; the schema cascades match
	// the application policy here.
	query, args, err := QB.Delete("books").Where(squirrel.Eq{"id": book.ID}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book delete"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if _, err := db.Exec(query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "deleting book"))
		redirectWithFlash(w, r, sess, "/admin/books", "danger", "An error occurred while deleting the book. Please try again.")
		return
	}

	if book.CoverImage != "" {
		if err := utils.DeleteImageFile(book.CoverImage); err != nil {
			log.Println(utils.ErrorWithTrace(err, "deleting cover"))
		}
	}

	redirectWithFlash(w, r, sess, "/admin/books", "success", "Book deleted successfully!")
}

// categoryWithCount joins a category with how many books it owns.
type categoryWithCount struct {
	models.Category
	BookCount int `db:"book_count"`
}

func ManageCategories(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	query, args, err := QB.Select(
		"categories.id", "categories.name", "categories.description", "categories.created_at",
		"COUNT(books.id) AS book_count").
		From("categories").
		LeftJoin("books ON books.category_id = categories.id").
		GroupBy("categories.id", "categories.name", "categories.description", "categories.created_at").
		OrderBy("categories.name").
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building category list query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var categories []categoryWithCount
	if err := db.Select(&categories, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching categories"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "admin_categories", "Manage Categories", map[string]any{
		"Categories": categories,
	})
}

func AddCategory(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, sess, "/admin/categories", "danger", "Invalid form data.")
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	description := strings.TrimSpace(r.FormValue("description"))
	if name == "" {
		redirectWithFlash(w, r, sess, "/admin/categories", "danger", "Category name is required.")
		return
	}

	query, args, err := QB.Select("id").From("categories").Where(squirrel.Eq{"name": name}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building category check"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var existing uuid.UUID
	if err := db.Get(&existing, query, args...); err == nil {
		redirectWithFlash(w, r, sess, "/admin/categories", "warning", "Category already exists.")
		return
	}

	query, args, err = QB.Insert("categories").
		Columns("id", "name", "description", "created_at").
		Values(uuid.New(), name, description, time.Now()).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building category insert"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if _, err := db.Exec(query, args...); err != nil {
		if isUniqueViolation(err) {
			redirectWithFlash(w, r, sess, "/admin/categories", "warning", "Category already exists.")
			return
		}
		log.Println(utils.ErrorWithTrace(err, "inserting category"))
		redirectWithFlash(w, r, sess, "/admin/categories", "danger", "An error occurred while adding the category. Please try again.")
		return
	}

	redirectWithFlash(w, r, sess, "/admin/categories", "success", "Category added successfully!")
}

func DeleteCategory(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	categoryID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, sess)
		return
	}

	// Deletion policy checked explicitly rather than left to the FK.
	query, args, err := QB.Select("COUNT(*)").From("books").
		Where(squirrel.Eq{"category_id": categoryID}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building category book count"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var owned int
	if err := db.Get(&owned, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "counting category books"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if owned > 0 {
		redirectWithFlash(w, r, sess, "/admin/categories", "warning", "Cannot delete category with existing books.")
		return
	}

	query, args, err = QB.Delete("categories").Where(squirrel.Eq{"id": categoryID}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building category delete"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if _, err := db.Exec(query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "deleting category"))
		redirectWithFlash(w, r, sess, "/admin/categories", "danger", "An error occurred while deleting the category. Please try again.")
		return
	}

	redirectWithFlash(w, r, sess, "/admin/categories", "success", "Category deleted successfully!")
}

func ManageOrders(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	page := parsePage(r)

	orders, total, err := ordersWithUsers(adminPerPage, (page-1)*adminPerPage)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching orders"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "admin_orders", "Manage Orders", map[string]any{
		"Orders": orders,
		"Statuses": []string{
			models.OrderPending, models.OrderProcessing, models.OrderShipped,
			models.OrderDelivered, models.OrderCancelled,
		},
		"Page":       page,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
		"TotalPages": totalPages(total, adminPerPage),
	})
}

func UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, sess)
		return
	}

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, sess, "/admin/orders", "danger", "Invalid form data.")
		return
	}

	status := r.FormValue("status")
	if !models.ValidOrderStatus(status) {
		redirectWithFlash(w, r, sess, "/admin/orders", "danger", "Invalid status.")
		return
	}

	query, args, err := QB.Update("orders").
		Set("status", status).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": orderID}).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building status update"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "updating order status"))
		redirectWithFlash(w, r, sess, "/admin/orders", "danger", "An error occurred while updating the order status. Please try again.")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		notFound(w, sess)
		return
	}

	redirectWithFlash(w, r, sess, "/admin/orders", "success", "Order status updated to "+status+".")
}

func ManageUsers(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	page := parsePage(r)

	query, args, err := QB.Select("COUNT(*)").From("users").ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building user count query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var total int
	if err := db.Get(&total, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "counting users"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	query, args, err = QB.Select(userColumns...).From("users").
		OrderBy("created_at").
		Limit(adminPerPage).
		Offset(uint64((page - 1) * adminPerPage)).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building user list query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var users []models.User
	if err := db.Select(&users, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching users"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "admin_users", "Manage Users", map[string]any{
		"Users":      users,
		"Page":       page,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
		"TotalPages": totalPages(total, adminPerPage),
	})
}

func ToggleAdmin(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	userID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, sess)
		return
	}

	// Self-demotion guard.
	if userID == sess.UserID {
		redirectWithFlash(w, r, sess, "/admin/users", "warning", "You cannot change your own admin status.")
		return
	}

	query, args, err := QB.Update("users").
		Set("is_admin", squirrel.Expr("NOT is_admin")).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": userID}).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building admin toggle"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	result, err := db.Exec(query, args...)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "toggling admin flag"))
		redirectWithFlash(w, r, sess, "/admin/users", "danger", "An error occurred while updating user status. Please try again.")
		return
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		notFound(w, sess)
		return
	}

	redirectWithFlash(w, r, sess, "/admin/users", "success", "User admin status updated.")
}

// orderWithUser joins an order with its owner's username.
type orderWithUser struct {
	models.Order
	Username string `db:"username"`
}

func ordersWithUsers(limit, offset int) ([]orderWithUser, int, error) {
	query, args, err := QB.Select("COUNT(*)").From("orders").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := db.Get(&total, query, args...); err != nil {
		return nil, 0, err
	}

	cols := make([]string, 0, len(orderColumns)+1)
	for _, c := range orderColumns {
		cols = append(cols, "orders."+c)
	}
	cols = append(cols, "users.username")

	query, args, err = QB.Select(cols...).From("orders").
		Join("users ON users.id = orders.user_id").
		OrderBy("orders.created_at DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	var orders []orderWithUser
	if err := db.Select(&orders, query, args...); err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// getBook fetches a book by path id, rendering not-found on a bad or
// unknown id.
func getBook(w http.ResponseWriter, sess *sessions.Session, rawID string) (models.Book, bool) {
	bookID, err := uuid.Parse(rawID)
	if err != nil {
		notFound(w, sess)
		return models.Book{}, false
	}

	query, args, err := QB.Select(bookColumns...).From("books").
		Where(squirrel.Eq{"id": bookID}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return models.Book{}, false
	}

	var book models.Book
	if err := db.Get(&book, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			notFound(w, sess)
			return models.Book{}, false
		}
		log.Println(utils.ErrorWithTrace(err, "fetching book"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return models.Book{}, false
	}
	return book, true
}

// parseBookForm validates the multipart book form over the existing values.
func parseBookForm(r *http.Request, existing models.Book) (models.Book, map[string]string) {
	book := existing
	formErrors := map[string]string{}

	if err := r.ParseMultipartForm(10 << 20); err != nil {
		formErrors["title"] = "Invalid form data."
		return book, formErrors
	}

	book.Title = strings.TrimSpace(r.FormValue("title"))
	book.Author = strings.TrimSpace(r.FormValue("author"))
	book.ISBN = strings.TrimSpace(r.FormValue("isbn"))
	book.Description = strings.TrimSpace(r.FormValue("description"))
	book.Publisher = strings.TrimSpace(r.FormValue("publisher"))
	book.Language = strings.TrimSpace(r.FormValue("language"))

	if book.Title == "" {
		formErrors["title"] = "Title is required."
	}
	if book.Author == "" {
		formErrors["author"] = "Author is required."
	}
	if book.ISBN == "" {
		formErrors["isbn"] = "ISBN is required."
	}

	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		formErrors["price"] = "Price must be a non-negative number."
	} else {
		book.Price = price
	}

	stock, err := strconv.Atoi(r.FormValue("stock"))
	if err != nil || stock < 0 {
		formErrors["stock"] = "Stock must be a non-negative whole number."
	} else {
		book.Stock = stock
	}

	categoryID, err := uuid.Parse(r.FormValue("category_id"))
	if err != nil {
		formErrors["category_id"] = "Please choose a category."
	} else {
		book.CategoryID = categoryID
	}

	if v := r.FormValue("publication_year"); v != "" {
		if year, err := strconv.Atoi(v); err == nil {
			book.PublicationYear = year
		}
	}
	if v := r.FormValue("pages"); v != "" {
		if pages, err := strconv.Atoi(v); err == nil {
			book.Pages = pages
		}
	}

	return book, formErrors
}

// saveCover stores an uploaded cover image, when present. The bool result
// reports whether the request carried a file at all.
func saveCover(r *http.Request) (string, bool) {
	file, handler, err := r.FormFile("cover")
	if err != nil {
		return "", false
	}
	defer file.Close()

	path, err := utils.SaveImageFile(file, "books", handler.Filename)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "saving cover image"))
		return "", false
	}
	return path, true
}
