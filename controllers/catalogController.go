package controllers

import (
	"log"
	"net/http"

	"bookstore/models"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

func Home(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	query, args, err := QB.Select(bookColumns...).From("books").
		OrderBy("created_at DESC").Limit(8).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building featured books query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var featured []models.Book
	if err := db.Select(&featured, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching featured books"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	categories, err := allCategories()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching categories"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "home", "Home", map[string]any{
		"FeaturedBooks": featured,
		"Categories":    categories,
	})
}

func ListBooks(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	page := parsePage(r)
	search := r.URL.Query().Get("search")
	categoryParam := r.URL.Query().Get("category")

	base := QB.Select(bookColumns...).From("books")
	count := QB.Select("COUNT(*)").From("books")

	if categoryParam != "" {
		if categoryID, err := uuid.Parse(categoryParam); err == nil {
			base = base.Where(squirrel.Eq{"category_id": categoryID})
			count = count.Where(squirrel.Eq{"category_id": categoryID})
		}
	}
	if search != "" {
		pattern := "%" + search + "%"
		filter := squirrel.Or{
			squirrel.ILike{"title": pattern},
			squirrel.ILike{"author": pattern},
		}
		base = base.Where(filter)
		count = count.Where(filter)
	}

	query, args, err := count.ToSql()
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

	query, args, err = base.OrderBy("created_at DESC").
		Limit(booksPerPage).
		Offset(uint64((page - 1) * booksPerPage)).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book list query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// An out-of-range page selects past the end and comes back empty.
	var books []models.Book
	if err := db.Select(&books, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching books"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	categories, err := allCategories()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching categories"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "books", "Books", map[string]any{
		"Books":      books,
		"Categories": categories,
		"Search":     search,
		"CategoryID": categoryParam,
		"Page":       page,
		"PrevPage":   page - 1,
		"NextPage":   page + 1,
		"TotalPages": totalPages(total, booksPerPage),
	})
}

// reviewWithUser joins a review with its author's username for display.
type reviewWithUser struct {
	models.Review
	Username string `db:"username"`
}

func BookDetail(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	bookID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, sess)
		return
	}

	query, args, err := QB.Select(bookColumns...).From("books").Where(squirrel.Eq{"id": bookID}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var book models.Book
	if err := db.Get(&book, query, args...); err != nil {
		notFound(w, sess)
		return
	}

	query, args, err = QB.Select(
		"reviews.id", "reviews.user_id", "reviews.book_id", "reviews.rating",
		"reviews.title", "reviews.content", "reviews.created_at", "reviews.updated_at",
		"users.username").
		From("reviews").
		Join("users ON users.id = reviews.user_id").
		Where(squirrel.Eq{"reviews.book_id": bookID}).
		OrderBy("reviews.created_at DESC").
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building reviews query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var reviews []reviewWithUser
	if err := db.Select(&reviews, query, args...); err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching reviews"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "book_detail", book.Title, map[string]any{
		"Book":      book,
		"Reviews":   reviews,
		"AvgRating": averageRating(reviews),
	})
}

// averageRating returns the arithmetic mean of the ratings, 0 when there are
// none.
func averageRating(reviews []reviewWithUser) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
	}
	return float64(sum) / float64(len(reviews))
}

func allCategories() ([]models.Category, error) {
	query, args, err := QB.Select("id", "name", "description", "created_at").
		From("categories").OrderBy("name").ToSql()
	if err != nil {
		return nil, err
	}
	var categories []models.Category
	if err := db.Select(&categories, query, args...); err != nil {
		return nil, err
	}
	return categories, nil
}
