package controllers

import (
	"log"
	"time"

	"bookstore/models"
	"bookstore/utils"

	"github.com/google/uuid"
)

// SeedSampleData populates an empty database with a starter catalog and an
// administrator account. It is a no-op when any book already exists.
func SeedSampleData() error {
	query, args, err := QB.Select("COUNT(*)").From("books").ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "building seed check")
	}
	var existing int
	if err := db.Get(&existing, query, args...); err != nil {
		return utils.ErrorWithTrace(err, "checking for existing books")
	}
	if existing > 0 {
		return nil
	}

	now := time.Now()

	hash, err := utils.HashPassword("admin123")
	if err != nil {
		return utils.ErrorWithTrace(err, "hashing admin password")
	}
	admin := models.User{
		ID:           uuid.New(),
		Username:     "admin",
		Email:        "admin@bookstore.com",
		PasswordHash: hash,
		FullName:     "Store Administrator",
		IsAdmin:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	query, args, err = QB.Insert("users").
		Columns(userColumns...).
		Values(admin.ID, admin.Username, admin.Email, admin.PasswordHash,
			admin.FullName, admin.Phone, admin.Address, admin.City,
			admin.PostalCode, admin.IsAdmin, admin.CreatedAt, admin.UpdatedAt).
		ToSql()
	if err != nil {
		return utils.ErrorWithTrace(err, "building admin insert")
	}
	if _, err := db.Exec(query, args...); err != nil {
		return utils.ErrorWithTrace(err, "inserting admin user")
	}

	categories := []models.Category{
		{ID: uuid.New(), Name: "Fiction", Description: "Novels and literary fiction", CreatedAt: now},
		{ID: uuid.New(), Name: "Science Fiction", Description: "Speculative and futuristic stories", CreatedAt: now},
		{ID: uuid.New(), Name: "Mystery", Description: "Crime, detective and thriller stories", CreatedAt: now},
		{ID: uuid.New(), Name: "Biography", Description: "Lives of notable people", CreatedAt: now},
		{ID: uuid.New(), Name: "Technology", Description: "Programming and computing", CreatedAt: now},
	}
	for _, c := range categories {
		query, args, err = QB.Insert("categories").
			Columns("id", "name", "description", "created_at").
			Values(c.ID, c.Name, c.Description, c.CreatedAt).
			ToSql()
		if err != nil {
			return utils.ErrorWithTrace(err, "building category insert")
		}
		if _, err := db.Exec(query, args...); err != nil {
			return utils.ErrorWithTrace(err, "inserting category "+c.Name)
		}
	}

	byName := map[string]uuid.UUID{}
	for _, c := range categories {
		byName[c.Name] = c.ID
	}

	books := []models.Book{
		{
			Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", ISBN: "9780743273565",
			Description: "A portrait of the Jazz Age and the American dream.",
			Price:       12.99, Stock: 25, CategoryID: byName["Fiction"],
			Publisher: "Scribner", PublicationYear: 1925, Pages: 180, Language: "English",
		},
		{
			Title: "To Kill a Mockingbird", Author: "Harper Lee", ISBN: "9780061120084",
			Description: "A story of racial injustice in the Depression-era South.",
			Price:       14.99, Stock: 18, CategoryID: byName["Fiction"],
			Publisher: "Harper Perennial", PublicationYear: 1960, Pages: 324, Language: "English",
		},
		{
			Title: "Dune", Author: "Frank Herbert", ISBN: "9780441172719",
			Description: "Politics, religion and ecology on the desert planet Arrakis.",
			Price:       16.99, Stock: 30, CategoryID: byName["Science Fiction"],
			Publisher: "Ace", PublicationYear: 1965, Pages: 688, Language: "English",
		},
		{
			Title: "Neuromancer", Author: "William Gibson", ISBN: "9780441569595",
			Description: "The novel that defined cyberpunk.",
			Price:       13.99, Stock: 12, CategoryID: byName["Science Fiction"],
			Publisher: "Ace", PublicationYear: 1984, Pages: 271, Language: "English",
		},
		{
			Title: "The Girl with the Dragon Tattoo", Author: "Stieg Larsson", ISBN: "9780307454546",
			Description: "A journalist and a hacker unravel a decades-old disappearance.",
			Price:       15.99, Stock: 20, CategoryID: byName["Mystery"],
			Publisher: "Vintage Crime", PublicationYear: 2005, Pages: 672, Language: "English",
		},
		{
			Title: "Gone Girl", Author: "Gillian Flynn", ISBN: "9780307588371",
			Description: "A marriage gone very, very wrong.",
			Price:       14.49, Stock: 15, CategoryID: byName["Mystery"],
			Publisher: "Crown", PublicationYear: 2012, Pages: 419, Language: "English",
		},
		{
			Title: "Steve Jobs", Author: "Walter Isaacson", ISBN: "9781451648539",
			Description: "The authorized biography of Apple's co-founder.",
			Price:       19.99, Stock: 10, CategoryID: byName["Biography"],
			Publisher: "Simon & Schuster", PublicationYear: 2011, Pages: 656, Language: "English",
		},
		{
			Title: "The Pragmatic Programmer", Author: "David Thomas, Andrew Hunt", ISBN: "9780135957059",
			Description: "Your journey to mastery, 20th anniversary edition.",
			Price:       39.99, Stock: 8, CategoryID: byName["Technology"],
			Publisher: "Addison-Wesley", PublicationYear: 2019, Pages: 352, Language: "English",
		},
	}
	for _, b := range books {
		b.ID = uuid.New()
		b.CreatedAt = now
		b.UpdatedAt = now
		query, args, err = QB.Insert("books").
			Columns(bookColumns...).
			Values(b.ID, b.Title, b.Author, b.ISBN, b.Description, b.Price,
				b.Stock, b.CategoryID, b.CoverImage, b.Publisher,
				b.PublicationYear, b.Pages, b.Language, b.CreatedAt, b.UpdatedAt).
			ToSql()
		if err != nil {
			return utils.ErrorWithTrace(err, "building book insert")
		}
		if _, err := db.Exec(query, args...); err != nil {
			return utils.ErrorWithTrace(err, "inserting book "+b.Title)
		}
	}

	log.Printf("seeded %d categories, %d books and the admin account", len(categories), len(books))
	return nil
}
