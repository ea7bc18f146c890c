package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"bookstore/controllers"
	"bookstore/middleware"
	"bookstore/sessions"
	"bookstore/utils"

	"github.com/go-michi/michi"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/handlers"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on the environment")
	}

	connStr := os.Getenv("DATABASE_CONNECTION_STR")
	if connStr == "" {
		log.Fatal("DATABASE_CONNECTION_STR not set")
	}
	migRoot := os.Getenv("MIGRATIONS_ROOT")
	if migRoot == "" {
		migRoot = "database/migrations"
	}
	addr := os.Getenv("ADDR")
	if addr == "" {
		addr = ":8000"
	}

	// Connect to the database
	db, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
	defer db.Close()

	// Set global db variable in controllers
	controllers.SetDB(db)

	// Server-side session store
	store := sessions.NewStore(sessions.DefaultTTL, sessions.DefaultTicker)
	controllers.SetSessionStore(store)

	// Handle migrations
	mig, err := migrate.New("file://"+migRoot, connStr)
	if err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
	if err := mig.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			log.Fatal(utils.ErrorWithTrace(err, err.Error()))
		}
		log.Printf("migrations: %s", err.Error())
	}

	if err := controllers.SeedSampleData(); err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}

	// Initialize the router and define routes
	r := michi.NewRouter()
	r.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir("./static"))))
	r.Handle("/uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir("./uploads"))))

	r.HandleFunc("GET /{$}", controllers.Home)
	r.HandleFunc("GET /books", controllers.ListBooks)
	r.HandleFunc("GET /book/{id}", controllers.BookDetail)
	r.HandleFunc("POST /book/{id}/review", middleware.LoginRequired(controllers.AddReview))
	r.HandleFunc("GET /contact", controllers.ShowContact)
	r.HandleFunc("POST /contact", controllers.Contact)

	r.Route("/auth", func(sub *michi.Router) {
		sub.HandleFunc("GET register", controllers.ShowRegister)
		sub.HandleFunc("POST register", controllers.Register)
		sub.HandleFunc("GET login", controllers.ShowLogin)
		sub.HandleFunc("POST login", controllers.Login)
		sub.HandleFunc("GET logout", middleware.LoginRequired(controllers.Logout))
		sub.HandleFunc("GET profile", middleware.LoginRequired(controllers.Profile))
		sub.HandleFunc("GET profile/edit", middleware.LoginRequired(controllers.ShowEditProfile))
		sub.HandleFunc("POST profile/edit", middleware.LoginRequired(controllers.EditProfile))
	})

	r.HandleFunc("GET /cart", controllers.ViewCart)
	r.HandleFunc("GET /cart/add/{id}", controllers.AddToCart)
	r.HandleFunc("POST /cart/add/{id}", controllers.AddToCart)
	r.HandleFunc("POST /cart/remove/{id}", controllers.RemoveFromCart)
	r.HandleFunc("GET /checkout", middleware.LoginRequired(controllers.ShowCheckout))
	r.HandleFunc("POST /checkout", middleware.LoginRequired(controllers.Checkout))
	r.HandleFunc("GET /dashboard", middleware.LoginRequired(controllers.Dashboard))
	r.HandleFunc("GET /order/{id}", middleware.LoginRequired(controllers.OrderDetail))

	r.Route("/admin", func(sub *michi.Router) {
		sub.HandleFunc("GET /{$}", middleware.AdminRequired(controllers.AdminDashboard))
		sub.HandleFunc("GET books", middleware.AdminRequired(controllers.ManageBooks))
		sub.HandleFunc("GET books/add", middleware.AdminRequired(controllers.ShowAddBook))
		sub.HandleFunc("POST books/add", middleware.AdminRequired(controllers.AddBook))
		sub.HandleFunc("GET books/{id}/edit", middleware.AdminRequired(controllers.ShowEditBook))
		sub.HandleFunc("POST books/{id}/edit", middleware.AdminRequired(controllers.EditBook))
		sub.HandleFunc("POST books/{id}/delete", middleware.AdminRequired(controllers.DeleteBook))
		sub.HandleFunc("GET categories", middleware.AdminRequired(controllers.ManageCategories))
		sub.HandleFunc("POST categories/add", middleware.AdminRequired(controllers.AddCategory))
		sub.HandleFunc("POST categories/{id}/delete", middleware.AdminRequired(controllers.DeleteCategory))
		sub.HandleFunc("GET orders", middleware.AdminRequired(controllers.ManageOrders))
		sub.HandleFunc("POST orders/{id}/status", middleware.AdminRequired(controllers.UpdateOrderStatus))
		sub.HandleFunc("GET users", middleware.AdminRequired(controllers.ManageUsers))
		sub.HandleFunc("POST users/{id}/admin", middleware.AdminRequired(controllers.ToggleAdmin))
	})

	handler := middleware.WithSession(store)(r)
	handler = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(handler)
	handler = handlers.LoggingHandler(os.Stdout, handler)

	fmt.Printf("Server running on %s 🚀\n", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(utils.ErrorWithTrace(err, err.Error()))
	}
}
