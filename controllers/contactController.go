package controllers

import (
	"net/http"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// contactForm carries submitted values and per-field errors back to the
// contact template.
type contactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
	Errors  map[string]string
}

func ShowContact(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)
	render(w, sess, http.StatusOK, "contact", "Contact Us", contactForm{Errors: map[string]string{}})
}

// Contact validates the message and acknowledges it. Nothing is delivered
// anywhere; the original behaved the same way.
func Contact(w http.ResponseWriter, r *http.Request) {
	sess := currentSession(r)

	if err := r.ParseForm(); err != nil {
		redirectWithFlash(w, r, sess, "/contact", "danger", "Invalid form data.")
		return
	}

	form := contactForm{
		Name:    strings.TrimSpace(r.FormValue("name")),
		Email:   strings.TrimSpace(r.FormValue("email")),
		Subject: strings.TrimSpace(r.FormValue("subject")),
		Message: strings.TrimSpace(r.FormValue("message")),
		Errors:  map[string]string{},
	}

	if n := utf8.RuneCountInString(form.Name); n < 3 || n > 120 {
		form.Errors["name"] = "Name must be between 3 and 120 characters."
	}
	if _, err := mail.ParseAddress(form.Email); err != nil {
		form.Errors["email"] = "Invalid email address."
	}
	if n := utf8.RuneCountInString(form.Subject); n < 5 || n > 200 {
		form.Errors["subject"] = "Subject must be between 5 and 200 characters."
	}
	if n := utf8.RuneCountInString(form.Message); n < 10 || n > 2000 {
		form.Errors["message"] = "Message must be between 10 and 2000 characters."
	}

	if len(form.Errors) > 0 {
		render(w, sess, http.StatusUnprocessableEntity, "contact", "Contact Us", form)
		return
	}

	redirectWithFlash(w, r, sess, "/", "success", "Thank you for your message. We will get back to you soon!")
}
