package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanket-rajput/agritraceDep/internal/handlers"
	appMiddleware "github.com/sanket-rajput/agritraceDep/internal/middleware"
	"github.com/sanket-rajput/agritraceDep/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional: it only accelerates re-delivered payment callbacks
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	}

	// Payment settlement wiring
	gateway := services.NewRazorpayService()
	if !gateway.Configured() {
		log.Println("Warning: Razorpay credentials not set, checkout will be unavailable")
	}
	orderStore := services.NewOrderStore(db)
	reconciler := services.NewReconciliationService(orderStore, gateway, cache, os.Getenv("RAZORPAY_KEY_SECRET"))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Static file serving (browser checkout script)
	e.Static("/static", "web/static")
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Initialize handlers
	paymentHandler := handlers.NewPaymentHandler(gateway, reconciler)
	orderHandler := handlers.NewOrderHandler(orderStore, reconciler)
	listingHandler := handlers.NewListingHandler(db)
	reportHandler := handlers.NewWasteReportHandler(db)

	// Protected API routes
	api := e.Group("/api")
	api.Use(appMiddleware.RequireAuth(authClient))

	// Payment settlement: the confirm endpoint is the only path that creates orders
	api.POST("/payments/orders", paymentHandler.CreatePaymentOrder)
	api.POST("/payments/confirm", paymentHandler.ConfirmPayment)

	// Orders
	api.GET("/orders", orderHandler.ListOrders)
	api.GET("/orders/duplicates", orderHandler.ListDuplicateOrders)
	api.POST("/orders/:id/complete", orderHandler.CompleteOrder)
	api.POST("/orders/:id/cancel", orderHandler.CancelOrder)

	// Marketplace
	api.GET("/listings", listingHandler.ListListings)
	api.POST("/listings", listingHandler.CreateListing)

	// Waste reporting
	api.GET("/reports", reportHandler.ListReports)
	api.POST("/reports", reportHandler.CreateReport)
	api.POST("/reports/:id/status", reportHandler.UpdateReportStatus)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
