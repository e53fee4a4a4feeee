package main

import (
	"log"
	"net/http"

	"shuttle_desk/internal/config"
	"shuttle_desk/internal/logger"
	"shuttle_desk/internal/middleware"
	"shuttle_desk/internal/routes"
)

func main() {
	// Initialize structured logging to file
	logger.Setup()

	// Connect to the database
	config.InitDB()

	// Seed the bootstrap admin account if configured
	config.SeedAdmin()

	// Setup Gin router (recovery + request logging registered inside)
	r := routes.SetupRouter()

	// Wrap with CORS
	handler := middleware.EnableCORS(r)

	addr := "0.0.0.0:" + config.GetEnv("PORT", "8080")
	log.Printf("🚌 Shuttle desk running at %s", addr)
	log.Fatal(http.ListenAndServe(addr, handler))
}
