// Command migrate applies the schema to the configured database and exits,
// for running migrations without bringing the server up.
package main

import (
	"github.com/Shruti10934/talksy-backend/config"
	"github.com/Shruti10934/talksy-backend/internal/db"
	"github.com/Shruti10934/talksy-backend/pkg/log"
)

func main() {
	cfg := config.LoadConfig()
	log.InitLogger()

	conn := db.Init(cfg)
	if err := db.Migrate(conn); err != nil {
		log.Logger.Fatal().Err(err).Msg("database migration failed")
	}
	log.Logger.Info().Msg("database migration successful")
}
