package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string // "development", "staging", "production"

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Security/JWT
	JWTSecret      string
	AdminSecretKey string
	UserTokenTTL   time.Duration
	AdminTokenTTL  time.Duration

	// Cookies
	CookieSecure bool

	// External Services
	AssetHostURL string
	AssetHostKey string

	// CORS
	FrontendOrigin string
}

func LoadConfig() Config {
	_ = godotenv.Load()

	dbHost := getEnv("DB_HOST", "localhost")
	dbPort := getEnv("DB_PORT", "5432")
	dbUser := getEnv("DB_USER", "postgres")
	dbPassword := getEnv("DB_PASSWORD", "postgres")
	dbName := getEnv("DB_NAME", "talksy")
	dbURL := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		dbHost,
		dbUser,
		dbPassword,
		dbName,
		dbPort,
	)

	// Parse token TTLs with fallbacks
	userTTL := mustParseDuration(getEnv("USER_TOKEN_TTL", "360h")) // 15 days
	adminTTL := mustParseDuration(getEnv("ADMIN_TOKEN_TTL", "15m"))

	env := getEnv("ENVIRONMENT", "production")

	return Config{
		Port:        getEnv("PORT", "3000"),
		Environment: env,

		DatabaseURL: dbURL,
		DBHost:      dbHost,
		DBPort:      dbPort,
		DBUser:      dbUser,
		DBPassword:  dbPassword,
		DBName:      dbName,

		JWTSecret:      getEnv("JWT_SECRET_KEY", "secret"),
		AdminSecretKey: getEnv("ADMIN_SECRET_KEY", "dajkfhaskgkfsaklfew"),
		UserTokenTTL:   userTTL,
		AdminTokenTTL:  adminTTL,

		CookieSecure: env == "production",

		AssetHostURL: getEnv("ASSET_HOST_URL", "http://localhost:5001"),
		AssetHostKey: getEnv("ASSET_HOST_KEY", ""),

		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func mustParseDuration(str string) time.Duration {
	d, err := time.ParseDuration(str)
	if err != nil {
		log.Printf("Invalid duration '%s', defaulting to 1h", str)
		return time.Hour
	}
	return d
}
