package controllers

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"bookstore/models"
	"bookstore/utils"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// registerForm carries submitted values and per-field errors back to the
// registration template.
type registerForm struct {
	Username string
	Email    string
	FullName string
	Errors   map[string]string
}

func ShowRegister(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess.Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	render(w, sess, http.StatusOK, "register", "Register", registerForm{Errors: map[string]string{}})
}

func Register(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess.Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, sess, "/auth/register", "danger", "Invalid form data.")
		return
	}

	form := registerForm{
		Username: strings.TrimSpace(r.FormValue("username")),
		Email:    strings.TrimSpace(r.FormValue("email")),
		FullName: strings.TrimSpace(r.FormValue("full_name")),
		Errors:   map[string]string{},
	}
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	if n := utf8.RuneCountInString(form.Username); n < 3 || n > 20 {
		form.Errors["username"] = "Username must be between 3 and 20 characters."
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		form.Errors["email"] = "Invalid email address."
	}
	if n := utf8.RuneCountInString(form.FullName); n < 3 || n > 120 {
		form.Errors["full_name"] = "Full name must be between 3 and 120 characters."
	}
	if utf8.RuneCountInString(password) < 6 {
		form.Errors["password"] = "Password must be at least 6 characters."
	}
	if password != confirm {
		form.Errors["confirm_password"] = "Passwords must match."
	}

	if len(form.Errors) == 0 {
		if taken, err := columnTaken("username", form.Username, uuid.Nil); err != nil {
			log.Println(utils.ErrorWithTrace(err, "checking username"))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		} else if taken {
			form.Errors["username"] = "Username already exists. Please choose a different one."
		}
		if taken, err := columnTaken("email", form.Email, uuid.Nil); err != nil {
			log.Println(utils.ErrorWithTrace(err, "checking email"))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		} else if taken {
			form.Errors["email"] = "Email already registered. Please use a different one."
		}
	}

	if len(form.Errors) > 0 {
		render(w, sess, http.StatusUnprocessableEntity, "register", "Register", form)
		return
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "hashing password"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	user := models.User{
		ID:           uuid.New(),
		Username:     form.Username,
		Email:        form.Email,
		PasswordHash: hashed,
		FullName:     form.FullName,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	query, args, err := QB.Insert("users").
		Columns("id", "username", "email", "password_hash", "full_name", "created_at", "updated_at").
		Values(user.ID, user.Username, user.Email, user.PasswordHash, user.FullName, user.CreatedAt, user.UpdatedAt).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building user insert"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := db.Exec(query, args...); err != nil {
		// Race backstop: two registrations can pass the select check at once.
		if isUniqueViolation(err) {
			form.Errors["username"] = "Username or email already registered."
			render(w, sess, http.StatusUnprocessableEntity, "register", "Register", form)
			return
		}
		log.Println(utils.ErrorWithTrace(err, "inserting user"))
		redirectWithFlash(w, r, sess, "/auth/register", "danger", "An error occurred during registration. Please try again.")
		return
	}

	redirectWithFlash(w, r, sess, "/auth/login", "success", "Registration successful! You can now log in.")
}

func ShowLogin(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess.Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	render(w, sess, http.StatusOK, "login", "Login", map[string]any{
		"Email": "",
		"Next":  r.URL.Query().Get("next"),
	})
}

func Login(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	if sess.Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, sess, "/auth/login", "danger", "Invalid form data.")
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	remember := r.FormValue("remember_me") != ""

	query, args, err := QB.Select(userColumns...).From("users").
		Where(squirrel.Eq{"email": email}).ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building login query"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var user models.User
	if err := db.Get(&user, query, args...); err != nil {
		redirectWithFlash(w, r, sess, "/auth/login", "danger", "Invalid email or password. Please try again.")
		return
	}
	if err := utils.CheckPassword(user.PasswordHash, password); err != nil {
		redirectWithFlash(w, r, sess, "/auth/login", "danger", "Invalid email or password. Please try again.")
		return
	}

	sess.SignIn(user.ID, user.FullName, user.IsAdmin)
	store.SetCookie(w, sess, remember)
	sess.AddFlash("success", "Welcome back, "+user.FullName+"!")

	next := r.URL.Query().Get("next")
	if next == "" || !strings.HasPrefix(next, "/") {
		next = "/dashboard"
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

func Logout(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	store.Destroy(sess.Token)

	fresh := store.New()
	store.SetCookie(w, fresh, false)
	fresh.AddFlash("info", "You have been logged out successfully.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func Profile(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	user, err := getUserByID(sess.UserID)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching profile"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "profile", "My Profile", map[string]any{
		"User": user,
	})
}

// profileForm carries submitted values and per-field errors back to the
// profile edit template.
type profileForm struct {
	FullName   string
	Email      string
	Phone      string
	Address    string
	City       string
	PostalCode string
	Errors     map[string]string
}

func ShowEditProfile(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	user, err := getUserByID(sess.UserID)
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "fetching profile"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	render(w, sess, http.StatusOK, "edit_profile", "Edit Profile", profileForm{
		FullName:   user.FullName,
		Email:      user.Email,
		Phone:      user.Phone,
		Address:    user.Address,
		City:       user.City,
		PostalCode: user.PostalCode,
		Errors:     map[string]string{},
	})
}

func EditProfile(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, sess, "/auth/profile/edit", "danger", "Invalid form data.")
		return
	}

	form := profileForm{
		FullName:   strings.TrimSpace(r.FormValue("full_name")),
		Email:      strings.TrimSpace(r.FormValue("email")),
		Phone:      strings.TrimSpace(r.FormValue("phone")),
		Address:    strings.TrimSpace(r.FormValue("address")),
		City:       strings.TrimSpace(r.FormValue("city")),
		PostalCode: strings.TrimSpace(r.FormValue("postal_code")),
		Errors:     map[string]string{},
	}

	if n := utf8.RuneCountInString(form.FullName); n < 3 || n > 120 {
		form.Errors["full_name"] = "Full name must be between 3 and 120 characters."
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		form.Errors["email"] = "Invalid email address."
	}
	if utf8.RuneCountInString(form.Phone) > 20 {
		form.Errors["phone"] = "Phone number must be less than 20 characters."
	}
	if utf8.RuneCountInString(form.Address) > 255 {
		form.Errors["address"] = "Address must be less than 255 characters."
	}
	if utf8.RuneCountInString(form.City) > 100 {
		form.Errors["city"] = "City name must be less than 100 characters."
	}
	if utf8.RuneCountInString(form.PostalCode) > 20 {
		form.Errors["postal_code"] = "Postal code must be less than 20 characters."
	}

	if len(form.Errors) == 0 {
		if taken, err := columnTaken("email", form.Email, sess.UserID); err != nil {
			log.Println(utils.ErrorWithTrace(err, "checking email"))
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		} else if taken {
			form.Errors["email"] = "Email already in use. Please use a different one."
		}
	}

	if len(form.Errors) > 0 {
		render(w, sess, http.StatusUnprocessableEntity, "edit_profile", "Edit Profile", form)
		return
	}

	query, args, err := QB.Update("users").
		Set("full_name", form.FullName).
		Set("email", form.Email).
		Set("phone", form.Phone).
		Set("address", form.Address).
		Set("city", form.City).
		Set("postal_code", form.PostalCode).
		Set("updated_at", time.Now()).
		Where(squirrel.Eq{"id": sess.UserID}).
		ToSql()
	if err != nil {
		log.Println(utils.ErrorWithTrace(err, "building profile update"))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if _, err := db.Exec(query, args...); err != nil {
		if isUniqueViolation(err) {
			form.Errors["email"] = "Email already in use. Please use a different one."
			render(w, sess, http.StatusUnprocessableEntity, "edit_profile", "Edit Profile", form)
			return
		}
		log.Println(utils.ErrorWithTrace(err, "updating profile"))
		redirectWithFlash(w, r, sess, "/auth/profile/edit", "danger", "An error occurred while updating your profile. Please try again.")
		return
	}

	sess.FullName = form.FullName
	redirectWithFlash(w, r, sess, "/auth/profile", "success", "Profile updated successfully!")
}

// columnTaken reports whether another user (excluding exclude, when not nil)
// already holds the given value in the named users column.
func columnTaken(column, value string, exclude uuid.UUID) (bool, error) {
	builder := QB.Select("id").From("users").Where(squirrel.Eq{column: value})
	if exclude != uuid.Nil {
		builder = builder.Where(squirrel.NotEq{"id": exclude})
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return false, err
	}
	var id uuid.UUID
	if err := db.Get(&id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func getUserByID(id uuid.UUID) (models.User, error) {
	var user models.User
	query, args, err := QB.Select(userColumns...).From("users").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return user, err
	}
	err = db.Get(&user, query, args...)
	return user, err
}
