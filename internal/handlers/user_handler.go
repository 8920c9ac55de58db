package handlers

import (
	"io"
	"net/http"

	"github.com/Shruti10934/talksy-backend/config"
	"github.com/Shruti10934/talksy-backend/internal/auth"
	"github.com/Shruti10934/talksy-backend/internal/middlewares"
	"github.com/Shruti10934/talksy-backend/internal/models"
	"github.com/Shruti10934/talksy-backend/internal/realtime"
	"github.com/Shruti10934/talksy-backend/internal/repository"
	"github.com/Shruti10934/talksy-backend/pkg/assets"
	"github.com/Shruti10934/talksy-backend/pkg/log"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const maxUploadBytes = 10 << 20 // per request

type UserHandler struct {
	users    *repository.UserRepository
	chats    *repository.ChatRepository
	requests *repository.RequestRepository
	router   *realtime.Router
	assets   *assets.Client
	cfg      config.Config
}

func NewUserHandler(db *gorm.DB, cfg config.Config, router *realtime.Router, assetClient *assets.Client) *UserHandler {
	return &UserHandler{
		users:    repository.NewUserRepository(db),
		chats:    repository.NewChatRepository(db),
		requests: repository.NewRequestRepository(db),
		router:   router,
		assets:   assetClient,
		cfg:      cfg,
	}
}

func (h *UserHandler) RegisterRoutes(r *mux.Router, userAuth func(http.Handler) http.Handler) {
	s := r.PathPrefix("/api/v1/user").Subrouter()
	s.HandleFunc("/new", h.Signup).Methods("POST")
	s.HandleFunc("/login", h.Login).Methods("POST")

	// authorized routes
	s.Handle("/me", userAuth(http.HandlerFunc(h.Me))).Methods("GET")
	s.Handle("/logout", userAuth(http.HandlerFunc(h.Logout))).Methods("GET")
	s.Handle("/search", userAuth(http.HandlerFunc(h.Search))).Methods("GET")
	s.Handle("/send-request", userAuth(http.HandlerFunc(h.SendFriendRequest))).Methods("PUT")
	s.Handle("/accept-request", userAuth(http.HandlerFunc(h.AcceptFriendRequest))).Methods("PUT")
	s.Handle("/notifications", userAuth(http.HandlerFunc(h.Notifications))).Methods("GET")
	s.Handle("/friends", userAuth(http.HandlerFunc(h.Friends))).Methods("GET")
}

// sendToken issues the session cookie and echoes the user back.
func (h *UserHandler) sendToken(w http.ResponseWriter, user *models.User, status int, message string) {
	token, err := auth.GenerateUserToken(user.ID, []byte(h.cfg.JWTSecret), h.cfg.UserTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.UserCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(h.cfg.UserTokenTTL.Seconds()),
	})
	writeJSON(w, status, map[string]interface{}{
		"success": true,
		"message": message,
		"user":    user,
	})
}

// Signup registers a new user. The avatar arrives as a multipart file and is
// pushed to the asset host before the row is created.
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	name := r.FormValue("name")
	username := r.FormValue("username")
	password := r.FormValue("password")
	bio := r.FormValue("bio")
	if name == "" || username == "" || password == "" || bio == "" {
		writeError(w, http.StatusBadRequest, "name, username, bio and password are required")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please Upload Avatar")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read avatar")
		return
	}

	uploaded, err := h.assets.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		log.Logger.Error().Err(err).Msg("avatar upload failed")
		writeError(w, http.StatusInternalServerError, "failed to upload avatar")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Username:     username,
		Bio:          bio,
		PasswordHash: string(hash),
		Avatar:       models.Avatar{PublicID: uploaded.PublicID, URL: uploaded.URL},
	}
	if err := h.users.Create(user); err != nil {
		writeError(w, http.StatusConflict, "username already in use")
		return
	}
	h.sendToken(w, user, http.StatusCreated, "User created successfully")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.users.FindByUsername(req.Username)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not Found")
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid Password")
		return
	}
	h.sendToken(w, user, http.StatusOK, "Welcome "+user.Username)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())
	user, err := h.users.FindByID(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "user": user})
}

func (h *UserHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.UserCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "User logout successfully"})
}

type userPreview struct {
	ID     uuid.UUID `json:"_id"`
	Name   string    `json:"name"`
	Avatar string    `json:"avatar"`
}

// Search lists users matching the name query who do not already share a
// direct chat with the caller.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())
	name := r.URL.Query().Get("name")

	myChats, err := h.chats.FindDirectByMember(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	exclude := []uuid.UUID{userID}
	for _, chat := range myChats {
		exclude = append(exclude, chat.MemberIDs()...)
	}

	found, err := h.users.SearchExcluding(name, exclude)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	users := make([]userPreview, 0, len(found))
	for _, u := range found {
		users = append(users, userPreview{ID: u.ID, Name: u.Name, Avatar: u.Avatar.URL})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "users": users})
}

type sendRequestBody struct {
	UserID uuid.UUID `json:"userId"`
}

func (h *UserHandler) SendFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	var req sendRequestBody
	if err := decodeJSON(r, &req); err != nil || req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "Please enter user ID")
		return
	}

	if _, err := h.requests.FindBetween(userID, req.UserID); err == nil {
		writeError(w, http.StatusBadRequest, "Request is already sent")
		return
	}

	fr := &models.FriendRequest{
		ID:         uuid.New(),
		SenderID:   userID,
		ReceiverID: req.UserID,
	}
	if err := h.requests.Create(fr); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.router.Broadcast([]uuid.UUID{req.UserID}, realtime.NewRequest, nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Friend Request Sent"})
}

type acceptRequestBody struct {
	RequestID uuid.UUID `json:"requestId"`
	Accept    *bool     `json:"accept"`
}

// AcceptFriendRequest resolves a pending request. Acceptance creates the
// direct chat; either way the request row is removed.
func (h *UserHandler) AcceptFriendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	var req acceptRequestBody
	if err := decodeJSON(r, &req); err != nil || req.RequestID == uuid.Nil || req.Accept == nil {
		writeError(w, http.StatusBadRequest, "requestId and accept are required")
		return
	}

	fr, err := h.requests.FindByID(req.RequestID)
	if err != nil {
		writeError(w, http.StatusNotFound, "No request found")
		return
	}
	if fr.ReceiverID != userID {
		writeError(w, http.StatusUnauthorized, "You are not authorized to accept this request")
		return
	}

	if !*req.Accept {
		if err := h.requests.Delete(fr.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Friend Request rejected"})
		return
	}

	chat := &models.Chat{
		ID:      uuid.New(),
		Name:    fr.Sender.Name + "-" + fr.Receiver.Name,
		Members: []models.User{fr.Sender, fr.Receiver},
	}
	if err := h.chats.Create(chat); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.requests.Delete(fr.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	members := []uuid.UUID{fr.SenderID, fr.ReceiverID}
	h.router.Broadcast(members, realtime.RefetchChats, nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"message":  "Friend Request Accepted",
		"senderId": fr.SenderID,
	})
}

func (h *UserHandler) Notifications(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	requests, err := h.requests.FindByReceiver(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	allRequests := make([]map[string]interface{}, 0, len(requests))
	for _, fr := range requests {
		allRequests = append(allRequests, map[string]interface{}{
			"_id": fr.ID,
			"sender": userPreview{
				ID:     fr.Sender.ID,
				Name:   fr.Sender.Name,
				Avatar: fr.Sender.Avatar.URL,
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "allRequests": allRequests})
}

// Friends lists the caller's direct-chat partners. With ?chatId= it filters
// out friends already in that chat, for the add-member picker.
func (h *UserHandler) Friends(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	chats, err := h.chats.FindDirectByMember(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	friends := make([]userPreview, 0, len(chats))
	for _, chat := range chats {
		for _, m := range chat.Members {
			if m.ID != userID {
				friends = append(friends, userPreview{ID: m.ID, Name: m.Name, Avatar: m.Avatar.URL})
				break
			}
		}
	}

	if chatIDStr := r.URL.Query().Get("chatId"); chatIDStr != "" {
		chatID, err := uuid.Parse(chatIDStr)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid chatId")
			return
		}
		chat, err := h.chats.FindByIDWithMembers(chatID)
		if err != nil {
			writeError(w, http.StatusNotFound, "chat not found")
			return
		}
		available := make([]userPreview, 0, len(friends))
		for _, f := range friends {
			if !chat.HasMember(f.ID) {
				available = append(available, f)
			}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "friends": available})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "friends": friends})
}
