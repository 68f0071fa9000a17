package config

import (
	"os"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ConnectDB opens the Postgres connection from the DB_URL environment
// variable. The handle is returned to the caller and passed down explicitly;
// nothing else in the application reaches for a package-level connection.
func ConnectDB() *gorm.DB {
	dsn := os.Getenv("DB_URL")
	if dsn == "" {
		log.Fatal().Msg("DB_URL is not set. This application requires a Postgres DSN in DB_URL.")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect database")
	}

	return db
}
