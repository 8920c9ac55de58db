package main

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/Shruti10934/talksy-backend/config"
	"github.com/Shruti10934/talksy-backend/internal/db"
	"github.com/Shruti10934/talksy-backend/internal/models"
	"github.com/Shruti10934/talksy-backend/pkg/log"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var firstNames = []string{"Aarav", "Diya", "Kabir", "Meera", "Rohan", "Sana", "Vivaan", "Zara", "Ishaan", "Tara"}
var lastNames = []string{"Sharma", "Verma", "Patel", "Khan", "Singh", "Gupta", "Joshi", "Mehta", "Reddy", "Iyer"}

func main() {
	log.InitLogger()
	cfg := config.LoadConfig()
	conn := db.Init(cfg)

	n := 10
	if arg := os.Getenv("SEED_USERS"); arg != "" {
		parsed, err := strconv.Atoi(arg)
		if err != nil || parsed < 1 {
			log.Logger.Fatal().Str("value", arg).Msg("SEED_USERS must be a positive integer")
		}
		n = parsed
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Logger.Fatal().Err(err).Msg("failed to hash seed password")
	}

	for i := 0; i < n; i++ {
		name := firstNames[rand.Intn(len(firstNames))] + " " + lastNames[rand.Intn(len(lastNames))]
		user := &models.User{
			ID:           uuid.New(),
			Name:         name,
			Username:     fmt.Sprintf("user%04d", rand.Intn(10000)),
			Bio:          "Hey there! I am using Talksy.",
			PasswordHash: string(hash),
			Avatar: models.Avatar{
				PublicID: uuid.NewString(),
				URL:      fmt.Sprintf("https://i.pravatar.cc/150?u=%d", rand.Intn(100000)),
			},
		}
		if err := conn.Create(user).Error; err != nil {
			log.Logger.Error().Err(err).Str("username", user.Username).Msg("failed to create user")
			continue
		}
	}
	log.Logger.Info().Int("count", n).Msg("Users created")
}
