package db

import (
	"github.com/Shruti10934/talksy-backend/config"
	"github.com/Shruti10934/talksy-backend/internal/models"
	"github.com/Shruti10934/talksy-backend/pkg/log"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Init connects to Postgres and migrates the schema. The returned handle is
// the single shared connection pool; it is passed down explicitly rather
// than held as package state.
func Init(cfg config.Config) *gorm.DB {
	if cfg.DatabaseURL == "" {
		log.Logger.Fatal().Msg("Init: DATABASE_URL is not set")
	}
	conn, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("Init: failed to connect to DB")
	}
	if err := conn.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		log.Logger.Fatal().Err(err).Msg("Init: failed to enable uuid-ossp")
	}

	if err := Migrate(conn); err != nil {
		log.Logger.Fatal().Err(err).Msg("Init: schema migration failed")
	}
	log.Logger.Info().Str("host", cfg.DBHost).Str("db", cfg.DBName).Msg("Connected & migrated DB")
	return conn
}

// Migrate runs the schema migrations. Split out so tests can reuse it
// against an in-memory database.
func Migrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&models.User{},
		&models.Chat{},
		&models.Message{},
		&models.FriendRequest{},
	)
}
