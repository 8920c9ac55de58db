package main

import (
	"errors"
	"net/http"

	"github.com/Shruti10934/talksy-backend/config"
	"github.com/Shruti10934/talksy-backend/internal/auth"
	"github.com/Shruti10934/talksy-backend/internal/db"
	"github.com/Shruti10934/talksy-backend/internal/handlers"
	"github.com/Shruti10934/talksy-backend/internal/middlewares"
	"github.com/Shruti10934/talksy-backend/internal/realtime"
	"github.com/Shruti10934/talksy-backend/internal/repository"
	"github.com/Shruti10934/talksy-backend/pkg/assets"
	"github.com/Shruti10934/talksy-backend/pkg/log"

	"github.com/google/uuid"
	muxHandlers "github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mvrilo/go-redoc"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load config and init systems
	cfg := config.LoadConfig()
	log.InitLogger()

	// API Docs
	doc := &redoc.Redoc{
		Title:       "Talksy API",
		Description: "Chat backend: users, chats, friend requests & realtime events",
		SpecFile:    "./cmd/server/docs/swagger.json",
		SpecPath:    "/swagger/doc.json",
		DocsPath:    "/docs",
	}

	// DB init
	conn := db.Init(cfg)

	// Router & CORS
	r := mux.NewRouter()
	cors := muxHandlers.CORS(
		muxHandlers.AllowedOrigins([]string{cfg.FrontendOrigin}),
		muxHandlers.AllowedMethods([]string{
			http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
		}),
		muxHandlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		muxHandlers.AllowCredentials(),
	)

	// Realtime core: registry, presence, router, persistence bridge
	registry := realtime.NewRegistry()
	presence := realtime.NewPresence()
	router := realtime.NewRouter(registry)
	bridge := realtime.NewBridge(repository.NewMessageRepository(conn))

	// External asset host
	assetClient := assets.NewClient(cfg.AssetHostURL, cfg.AssetHostKey)

	// Middlewares
	secret := []byte(cfg.JWTSecret)
	userAuth := middlewares.RequireUserAuth(secret)
	adminAuth := middlewares.RequireAdminAuth(secret)
	r.Use(middlewares.PrometheusMetricsMiddleware)

	// Health, metrics & docs
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("OK"))
	}).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc(doc.SpecPath, func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, doc.SpecFile)
	}).Methods("GET")
	r.Handle(doc.DocsPath, doc.Handler()).Methods("GET")

	// REST surface
	userHandler := handlers.NewUserHandler(conn, cfg, router, assetClient)
	userHandler.RegisterRoutes(r, userAuth)
	chatHandler := handlers.NewChatHandler(conn, cfg, router, assetClient)
	chatHandler.RegisterRoutes(r, userAuth)
	adminHandler := handlers.NewAdminHandler(conn, cfg)
	adminHandler.RegisterRoutes(r, adminAuth)

	// Realtime endpoint: the session cookie is verified before the upgrade
	users := repository.NewUserRepository(conn)
	whoAmI := func(req *http.Request) (uuid.UUID, string, error) {
		cookie, err := req.Cookie(auth.UserCookieName)
		if err != nil || cookie.Value == "" {
			return uuid.Nil, "", errors.New("missing session cookie")
		}
		userID, err := auth.ParseUserToken(cookie.Value, secret)
		if err != nil {
			return uuid.Nil, "", err
		}
		user, err := users.FindByID(userID)
		if err != nil {
			return uuid.Nil, "", errors.New("unknown user")
		}
		return user.ID, user.Name, nil
	}
	r.Handle("/ws", realtime.Handler(registry, presence, router, bridge, whoAmI))

	addr := ":" + cfg.Port
	log.Logger.Info().Str("addr", addr).Str("env", cfg.Environment).Msg("server listening")
	if err := http.ListenAndServe(addr, cors(r)); err != nil {
		log.Logger.Fatal().Err(err).Msg("server stopped")
	}
}
