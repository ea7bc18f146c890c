package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	FullName     string    `json:"full_name" db:"full_name"`
	Phone        string    `json:"phone,omitempty" db:"phone"`
	Address      string    `json:"address,omitempty" db:"address"`
	City         string    `json:"city,omitempty" db:"city"`
	PostalCode   string    `json:"postal_code,omitempty" db:"postal_code"`
	IsAdmin      bool      `json:"is_admin" db:"is_admin"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type Book struct {
	ID              uuid.UUID `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Author          string    `json:"author" db:"author"`
	ISBN            string    `json:"isbn" db:"isbn"`
	Description     string    `json:"description,omitempty" db:"description"`
	Price           float64   `json:"price" db:"price"`
	Stock           int       `json:"stock" db:"stock"`
	CategoryID      uuid.UUID `json:"category_id" db:"category_id"`
	CoverImage      string    `json:"cover_image,omitempty" db:"cover_image"`
	Publisher       string    `json:"publisher,omitempty" db:"publisher"`
	PublicationYear int       `json:"publication_year,omitempty" db:"publication_year"`
	Pages           int       `json:"pages,omitempty" db:"pages"`
	Language        string    `json:"language,omitempty" db:"language"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// Order status values. An order's status only ever moves among these five.
const (
	OrderPending    = "Pending"
	OrderProcessing = "Processing"
	OrderShipped    = "Shipped"
	OrderDelivered  = "Delivered"
	OrderCancelled  = "Cancelled"
)

// ValidOrderStatus reports whether s is one of the five order statuses.
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type Order struct {
	ID              uuid.UUID `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	TotalPrice      float64   `json:"total_price" db:"total_price"`
	Status          string    `json:"status" db:"status"`
	ShippingAddress string    `json:"shipping_address,omitempty" db:"shipping_address"`
	ShippingCity    string    `json:"shipping_city,omitempty" db:"shipping_city"`
	ShippingPostal  string    `json:"shipping_postal,omitempty" db:"shipping_postal"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

type OrderItem struct {
	ID              uuid.UUID `json:"id" db:"id"`
	OrderID         uuid.UUID `json:"order_id" db:"order_id"`
	BookID          uuid.UUID `json:"book_id" db:"book_id"`
	Quantity        int       `json:"quantity" db:"quantity"`
	PriceAtPurchase float64   `json:"price_at_purchase" db:"price_at_purchase"`
}

type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	BookID    uuid.UUID `json:"book_id" db:"book_id"`
	Rating    int       `json:"rating" db:"rating"`
	Title     string    `json:"title" db:"title"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
