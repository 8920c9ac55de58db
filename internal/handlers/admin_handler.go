package handlers

import (
	"net/http"
	"time"

	"github.com/Shruti10934/talksy-backend/config"
	"github.com/Shruti10934/talksy-backend/internal/auth"
	"github.com/Shruti10934/talksy-backend/internal/repository"

	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

type AdminHandler struct {
	users    *repository.UserRepository
	chats    *repository.ChatRepository
	messages *repository.MessageRepository
	cfg      config.Config
}

func NewAdminHandler(db *gorm.DB, cfg config.Config) *AdminHandler {
	return &AdminHandler{
		users:    repository.NewUserRepository(db),
		chats:    repository.NewChatRepository(db),
		messages: repository.NewMessageRepository(db),
		cfg:      cfg,
	}
}

func (h *AdminHandler) RegisterRoutes(r *mux.Router, adminAuth func(http.Handler) http.Handler) {
	s := r.PathPrefix("/api/v1/admin").Subrouter()
	s.HandleFunc("/verify", h.Login).Methods("POST")

	// authorized routes
	s.Handle("/logout", adminAuth(http.HandlerFunc(h.Logout))).Methods("GET")
	s.Handle("/", adminAuth(http.HandlerFunc(h.AdminData))).Methods("GET")
	s.Handle("/users", adminAuth(http.HandlerFunc(h.AllUsers))).Methods("GET")
	s.Handle("/chats", adminAuth(http.HandlerFunc(h.AllChats))).Methods("GET")
	s.Handle("/messages", adminAuth(http.HandlerFunc(h.AllMessages))).Methods("GET")
	s.Handle("/stats", adminAuth(http.HandlerFunc(h.DashboardStats))).Methods("GET")
}

type adminLoginBody struct {
	SecretKey string `json:"secretKey"`
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req adminLoginBody
	if err := decodeJSON(r, &req); err != nil || req.SecretKey == "" {
		writeError(w, http.StatusBadRequest, "Please enter Secret Key")
		return
	}
	if req.SecretKey != h.cfg.AdminSecretKey {
		writeError(w, http.StatusUnauthorized, "Invalid Admin Key")
		return
	}

	token, err := auth.GenerateAdminToken([]byte(h.cfg.JWTSecret), h.cfg.AdminTokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AdminCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   int(h.cfg.AdminTokenTTL.Seconds()),
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Authenticated Successfully"})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.AdminCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteNoneMode,
		MaxAge:   -1,
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "message": "Admin logged out Successfully"})
}

func (h *AdminHandler) AdminData(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"admin": true})
}

func (h *AdminHandler) AllUsers(w http.ResponseWriter, _ *http.Request) {
	users, err := h.users.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	transformed := make([]map[string]interface{}, 0, len(users))
	for _, u := range users {
		groups, err := h.chats.CountForMember(u.ID, true)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		friends, err := h.chats.CountForMember(u.ID, false)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		transformed = append(transformed, map[string]interface{}{
			"_id":      u.ID,
			"name":     u.Name,
			"username": u.Username,
			"avatar":   u.Avatar.URL,
			"friends":  friends,
			"groups":   groups,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "users": transformed})
}

func (h *AdminHandler) AllChats(w http.ResponseWriter, _ *http.Request) {
	chats, err := h.chats.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	transformed := make([]map[string]interface{}, 0, len(chats))
	for _, chat := range chats {
		totalMessages, err := h.messages.CountByChat(chat.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		avatars := make([]string, 0, 3)
		members := make([]map[string]interface{}, 0, len(chat.Members))
		for i, m := range chat.Members {
			if i < 3 {
				avatars = append(avatars, m.Avatar.URL)
			}
			members = append(members, map[string]interface{}{
				"_id":    m.ID,
				"name":   m.Name,
				"avatar": m.Avatar.URL,
			})
		}

		creatorName := "none"
		creatorAvatar := ""
		if chat.CreatorID != nil {
			if creator, err := h.users.FindByID(*chat.CreatorID); err == nil {
				creatorName = creator.Name
				creatorAvatar = creator.Avatar.URL
			}
		}

		transformed = append(transformed, map[string]interface{}{
			"_id":           chat.ID,
			"name":          chat.Name,
			"groupChat":     chat.GroupChat,
			"avatar":        avatars,
			"members":       members,
			"creator":       map[string]interface{}{"name": creatorName, "avatar": creatorAvatar},
			"totalMembers":  len(chat.Members),
			"totalMessages": totalMessages,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "chats": transformed})
}

func (h *AdminHandler) AllMessages(w http.ResponseWriter, _ *http.Request) {
	messages, err := h.messages.All()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	transformed := make([]map[string]interface{}, 0, len(messages))
	for _, m := range messages {
		groupChat := false
		if chat, err := h.chats.FindByID(m.ChatID); err == nil {
			groupChat = chat.GroupChat
		}
		transformed = append(transformed, map[string]interface{}{
			"_id":         m.ID,
			"content":     m.Content,
			"createdAt":   m.CreatedAt,
			"attachments": m.Attachments,
			"chat":        m.ChatID,
			"groupChat":   groupChat,
			"sender": map[string]interface{}{
				"_id":    m.Sender.ID,
				"name":   m.Sender.Name,
				"avatar": m.Sender.Avatar.URL,
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "messages": transformed})
}

// DashboardStats aggregates totals plus a messages-per-day chart covering
// the last seven days, oldest bucket first.
func (h *AdminHandler) DashboardStats(w http.ResponseWriter, _ *http.Request) {
	groupsCount, err := h.chats.CountGroups()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	usersCount, err := h.users.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	messagesCount, err := h.messages.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	totalChatsCount, err := h.chats.Count()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	now := time.Now()
	last7days := now.AddDate(0, 0, -7)
	createdAt, err := h.messages.CreatedSince(last7days)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	chart := make([]int, 7)
	for _, t := range createdAt {
		index := int(now.Sub(t).Hours() / 24)
		if index >= 0 && index < 7 {
			chart[6-index]++
		}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"stats": map[string]interface{}{
			"groupsCount":     groupsCount,
			"usersCount":      usersCount,
			"messagesCount":   messagesCount,
			"totalChatsCount": totalChatsCount,
			"messagesChart":   chart,
		},
	})
}
