package main

import (
	"fmt"
	"os"

	"invoiceflow-backend/config"
	"invoiceflow-backend/models"
	"invoiceflow-backend/routes"
	"invoiceflow-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found")
	}
	config.SetupLogger()

	db := config.ConnectDB()
	if err := db.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Invoice{},
		&models.InvoiceItem{},
	); err != nil {
		log.Fatal().Err(err).Msg("Migration failed")
	}

	overdue := services.NewOverdueService(db)
	overdue.StartScheduler()

	r := routes.SetupRouter(db, services.NewPDFRenderer(), services.NewSMTPMailerFromEnv())
	printRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("port", port).Msg("Starting server")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("Server exited")
	}
}

func printRoutes(r *gin.Engine) {
	for _, route := range r.Routes() {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
