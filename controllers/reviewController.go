package controllers

import (
	"log"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"bookstore/models"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

func AddReview(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	bookID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		notFound(w, sess)
		return
	}

	query, args, err := QB.Select("id").From("books").Where(squirrel.Eq{"id": bookID}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building book query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var exists uuid.UUID
	if err := db.Get(&exists, query, args...); err != nil {
		notFound(w, sess)
		return
	}

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, sess, "/book/"+bookID.String(), "danger", "Invalid form data.")
		return
	}

	rating, err := strconv.Atoi(r.FormValue("rating"))
	title := r.FormValue("title")
	content := r.FormValue("content")
	// Lengths are counted in characters, not bytes.
	titleLen := utf8.RuneCountInString(title)
	contentLen := utf8.RuneCountInString(content)
	switch {
	case err != nil || rating < 1 || rating > 5:
		redirectWithFlash(w, r, sess, "/book/"+bookID.String(), "danger", "Rating must be between 1 and 5.")
		return
	case titleLen < 5 || titleLen > 200:
		redirectWithFlash(w, r, sess, "/book/"+bookID.String(), "danger", "Title must be between 5 and 200 characters.")
		return
	case contentLen < 10 || contentLen > 1000:
		redirectWithFlash(w, r, sess, "/book/"+bookID.String(), "danger", "Review must be between 10 and 1000 characters.")
		return
	}

	// One review per (user, book); the unique constraint backs this up.
	query, args, err = QB.Select("id").From("reviews").
		Where(squirrel.Eq{"user_id": sess.UserID, "book_id": bookID}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building duplicate review query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	var existing uuid.UUID
	if err := db.Get(&existing, query, args...); err == nil {
		redirectWithFlash(w, r, sess, "/book/"+bookID.String(), "warning", "You have already reviewed this book.")
		return
	}

	review := models.Review{
		ID:        uuid.New(),
		UserID:    sess.UserID,
		BookID:    bookID,
		Rating:    rating,
		Title:     title,
		Content:   content,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query, args, err = QB.Insert("reviews").
		Columns("id", "user_id", "book_id", "rating", "title", "content", "created_at", "updated_at").
		Values(review.ID, review.UserID, review.BookID, review.Rating, review.Title, review.Content, review.CreatedAt, review.UpdatedAt).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building review insert"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := db.Exec(query, args...); err != nil {
		if isUniqueViolation(err) {
			redirectWithFlash(w, r, sess, "/book/"+bookID.String(), "warning", "You have already reviewed this book.")
			return
		}
		log.Println(utils.ErrorWithTrace(err, "inserting review"))
		redirectWithFlash(w, r, sess, "/book/"+bookID.String(), "danger", "An error occurred while posting your review. Please try again.")
		return
	}

	redirectWithFlash(w, r, sess, "/book/"+bookID.String(), "success", "Your review has been posted successfully!")
}
