package handlers

import (
	"context"
	"io"
	"math"
	"math/rand"
	"net/http"

	"github.com/Shruti10934/talksy-backend/config"
	"github.com/Shruti10934/talksy-backend/internal/middlewares"
	"github.com/Shruti10934/talksy-backend/internal/models"
	"github.com/Shruti10934/talksy-backend/internal/realtime"
	"github.com/Shruti10934/talksy-backend/internal/repository"
	"github.com/Shruti10934/talksy-backend/pkg/assets"
	"github.com/Shruti10934/talksy-backend/pkg/log"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"gorm.io/gorm"
)

const (
	messagesPerPage = 20
	maxGroupMembers = 100
	minGroupMembers = 3
	maxAttachments  = 5
)

type ChatHandler struct {
	users    *repository.UserRepository
	chats    *repository.ChatRepository
	messages *repository.MessageRepository
	router   *realtime.Router
	assets   *assets.Client
	cfg      config.Config
}

func NewChatHandler(db *gorm.DB, cfg config.Config, router *realtime.Router, assetClient *assets.Client) *ChatHandler {
	return &ChatHandler{
		users:    repository.NewUserRepository(db),
		chats:    repository.NewChatRepository(db),
		messages: repository.NewMessageRepository(db),
		router:   router,
		assets:   assetClient,
		cfg:      cfg,
	}
}

func (h *ChatHandler) RegisterRoutes(r *mux.Router, userAuth func(http.Handler) http.Handler) {
	s := r.PathPrefix("/api/v1/chat").Subrouter()
	s.Use(userAuth)

	s.HandleFunc("/new", h.NewGroupChat).Methods("POST")
	s.HandleFunc("/my", h.MyChats).Methods("GET")
	s.HandleFunc("/my/groups", h.MyGroups).Methods("GET")
	s.HandleFunc("/add-members", h.AddMembers).Methods("PUT")
	s.HandleFunc("/remove-member", h.RemoveMember).Methods("PUT")
	s.HandleFunc("/leave/{id}", h.LeaveGroup).Methods("DELETE")
	s.HandleFunc("/message", h.SendAttachments).Methods("POST")
	s.HandleFunc("/message/{id}", h.Messages).Methods("GET")
	s.HandleFunc("/{id}", h.ChatDetails).Methods("GET")
	s.HandleFunc("/{id}", h.RenameGroup).Methods("PUT")
	s.HandleFunc("/{id}", h.DeleteChat).Methods("DELETE")
}

func chatIDFromPath(r *http.Request) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)["id"])
}

type newGroupBody struct {
	Name    string      `json:"name"`
	Members []uuid.UUID `json:"members"`
}

func (h *ChatHandler) NewGroupChat(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	var req newGroupBody
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Please enter group name")
		return
	}
	if len(req.Members) < 2 {
		writeError(w, http.StatusBadRequest, "Group chat must have atleast 3 members")
		return
	}
	if len(req.Members) > maxGroupMembers-1 {
		writeError(w, http.StatusBadRequest, "Group members limit reached")
		return
	}

	allIDs := append(append([]uuid.UUID{}, req.Members...), userID)
	members, err := h.users.FindByIDs(allIDs)
	if err != nil || len(members) != len(allIDs) {
		writeError(w, http.StatusBadRequest, "invalid members")
		return
	}

	chat := &models.Chat{
		ID:        uuid.New(),
		Name:      req.Name,
		GroupChat: true,
		CreatorID: &userID,
		Members:   members,
	}
	if err := h.chats.Create(chat); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.router.Broadcast(allIDs, realtime.Alert, "Welcome to "+req.Name+" group")
	h.router.Broadcast(req.Members, realtime.RefetchChats, nil)

	writeJSON(w, http.StatusCreated, map[string]interface{}{"status": "success", "message": "Group created"})
}

type chatPreview struct {
	ID        uuid.UUID   `json:"_id"`
	GroupChat bool        `json:"groupChat"`
	Avatar    []string    `json:"avatar"`
	Name      string      `json:"name"`
	Members   []uuid.UUID `json:"members"`
}

// MyChats lists every chat of the caller, shaped for the sidebar: direct
// chats borrow the other member's name and avatar.
func (h *ChatHandler) MyChats(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	chats, err := h.chats.FindByMember(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	transformed := make([]chatPreview, 0, len(chats))
	for _, chat := range chats {
		p := chatPreview{ID: chat.ID, GroupChat: chat.GroupChat, Name: chat.Name}
		for _, m := range chat.Members {
			if m.ID != userID {
				p.Members = append(p.Members, m.ID)
			}
		}
		if chat.GroupChat {
			for i, m := range chat.Members {
				if i == 3 {
					break
				}
				p.Avatar = append(p.Avatar, m.Avatar.URL)
			}
		} else {
			for _, m := range chat.Members {
				if m.ID != userID {
					p.Name = m.Name
					p.Avatar = []string{m.Avatar.URL}
					break
				}
			}
		}
		transformed = append(transformed, p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "chats": transformed})
}

func (h *ChatHandler) MyGroups(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	chats, err := h.chats.FindGroupsCreatedBy(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	groups := make([]chatPreview, 0, len(chats))
	for _, chat := range chats {
		p := chatPreview{ID: chat.ID, GroupChat: chat.GroupChat, Name: chat.Name}
		for i, m := range chat.Members {
			if i == 3 {
				break
			}
			p.Avatar = append(p.Avatar, m.Avatar.URL)
		}
		groups = append(groups, p)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "groups": groups})
}

type addMembersBody struct {
	ChatID  uuid.UUID   `json:"chatId"`
	Members []uuid.UUID `json:"members"`
}

func (h *ChatHandler) AddMembers(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	var req addMembersBody
	if err := decodeJSON(r, &req); err != nil || req.ChatID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "Please enter chatId")
		return
	}
	if len(req.Members) < 1 {
		writeError(w, http.StatusBadRequest, "Please provide member")
		return
	}

	chat, err := h.chats.FindByIDWithMembers(req.ChatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if !chat.GroupChat {
		writeError(w, http.StatusBadRequest, "This is not a group chat")
		return
	}
	if chat.CreatorID == nil || *chat.CreatorID != userID {
		writeError(w, http.StatusForbidden, "You are not allowed to add members")
		return
	}

	newMembers, err := h.users.FindByIDs(req.Members)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	unique := make([]models.User, 0, len(newMembers))
	names := ""
	for _, u := range newMembers {
		if chat.HasMember(u.ID) {
			continue
		}
		unique = append(unique, u)
		if names != "" {
			names += ","
		}
		names += u.Name
	}
	if len(chat.Members)+len(unique) > maxGroupMembers {
		writeError(w, http.StatusBadRequest, "Group members limit reached")
		return
	}
	if err := h.chats.AddMembers(chat, unique); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	memberIDs := chat.MemberIDs()
	h.router.Broadcast(memberIDs, realtime.Alert, names+" has been added in the group")
	h.router.Broadcast(memberIDs, realtime.RefetchChats, nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "message": "Members added successfully"})
}

type removeMemberBody struct {
	ChatID uuid.UUID `json:"chatId"`
	UserID uuid.UUID `json:"userId"`
}

func (h *ChatHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	var req removeMemberBody
	if err := decodeJSON(r, &req); err != nil || req.ChatID == uuid.Nil || req.UserID == uuid.Nil {
		writeError(w, http.StatusBadRequest, "chatId and userId are required")
		return
	}

	chat, err := h.chats.FindByIDWithMembers(req.ChatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if !chat.GroupChat {
		writeError(w, http.StatusBadRequest, "This is not a group chat")
		return
	}
	userToRemove, err := h.users.FindByID(req.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	if chat.CreatorID == nil || *chat.CreatorID != userID {
		writeError(w, http.StatusForbidden, "You are not allowed to delete members")
		return
	}
	if len(chat.Members) <= minGroupMembers {
		writeError(w, http.StatusBadRequest, "Group must have atleast 3 members")
		return
	}

	allMemberIDs := chat.MemberIDs()
	remaining := make([]models.User, 0, len(chat.Members))
	for _, m := range chat.Members {
		if m.ID != req.UserID {
			remaining = append(remaining, m)
		}
	}
	if err := h.chats.ReplaceMembers(chat, remaining); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	chat.Members = remaining

	h.router.Broadcast(chat.MemberIDs(), realtime.Alert, map[string]interface{}{
		"message": userToRemove.Name + " has been removed from the group",
		"chatId":  chat.ID,
	})
	h.router.Broadcast(allMemberIDs, realtime.RefetchChats, nil)

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "message": "Member removed successfully"})
}

func (h *ChatHandler) LeaveGroup(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a valid chatId")
		return
	}
	chat, err := h.chats.FindByIDWithMembers(chatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if !chat.GroupChat {
		writeError(w, http.StatusBadRequest, "This is not a group chat")
		return
	}

	remaining := make([]models.User, 0, len(chat.Members))
	for _, m := range chat.Members {
		if m.ID != userID {
			remaining = append(remaining, m)
		}
	}
	if len(remaining) < minGroupMembers {
		writeError(w, http.StatusBadRequest, "Group must have atleast 3 members")
		return
	}

	if chat.CreatorID != nil && *chat.CreatorID == userID {
		next := remaining[rand.Intn(len(remaining))].ID
		chat.CreatorID = &next
	}
	if err := h.chats.ReplaceMembers(chat, remaining); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	chat.Members = remaining
	if err := h.chats.Save(chat); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	user, err := h.users.FindByID(userID)
	if err == nil {
		h.router.Broadcast(chat.MemberIDs(), realtime.Alert, map[string]interface{}{
			"message": user.Name + " has left the group",
			"chatId":  chat.ID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "message": "Group Leaved successfully"})
}

// SendAttachments stores a file-bearing message: files go to the asset host,
// the message row is written, and both realtime message events fire.
func (h *ChatHandler) SendAttachments(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	chatID, err := uuid.Parse(r.FormValue("chatId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please provide chatId")
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) < 1 {
		writeError(w, http.StatusBadRequest, "Please send attachments")
		return
	}
	if len(fileHeaders) > maxAttachments {
		writeError(w, http.StatusBadRequest, "Files must be between 1-5")
		return
	}

	chat, err := h.chats.FindByIDWithMembers(chatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	user, err := h.users.FindByID(userID)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	attachments := make([]models.Attachment, 0, len(fileHeaders))
	for _, fh := range fileHeaders {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read attachment")
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "failed to read attachment")
			return
		}
		uploaded, err := h.assets.Upload(r.Context(), fh.Filename, fh.Header.Get("Content-Type"), data)
		if err != nil {
			log.Logger.Error().Err(err).Msg("attachment upload failed")
			writeError(w, http.StatusInternalServerError, "failed to upload attachments")
			return
		}
		attachments = append(attachments, models.Attachment{PublicID: uploaded.PublicID, URL: uploaded.URL})
	}

	message := &models.Message{
		ID:          uuid.New(),
		Content:     "",
		Attachments: attachments,
		SenderID:    userID,
		ChatID:      chatID,
	}
	if err := h.messages.Create(message); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	memberIDs := chat.MemberIDs()
	h.router.Broadcast(memberIDs, realtime.NewMessage, map[string]interface{}{
		"chatId": chatID,
		"message": map[string]interface{}{
			"_id":         message.ID,
			"content":     "",
			"attachments": attachments,
			"sender":      realtime.SenderInfo{ID: user.ID.String(), Name: user.Name},
			"chatId":      chatID,
			"createdAt":   message.CreatedAt,
		},
	})
	h.router.Broadcast(memberIDs, realtime.NewMessageAlert, realtime.AlertPayload{ChatID: chatID.String()})

	writeJSON(w, http.StatusOK, map[string]interface{}{"status": true, "message": message})
}

func (h *ChatHandler) ChatDetails(w http.ResponseWriter, r *http.Request) {
	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a valid chatId")
		return
	}
	chat, err := h.chats.FindByIDWithMembers(chatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "chat not found")
		return
	}

	if r.URL.Query().Get("populate") == "true" {
		members := make([]userPreview, 0, len(chat.Members))
		for _, m := range chat.Members {
			members = append(members, userPreview{ID: m.ID, Name: m.Name, Avatar: m.Avatar.URL})
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": true,
			"chat": map[string]interface{}{
				"_id":       chat.ID,
				"name":      chat.Name,
				"groupChat": chat.GroupChat,
				"creator":   chat.CreatorID,
				"members":   members,
			},
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": true,
		"chat": map[string]interface{}{
			"_id":       chat.ID,
			"name":      chat.Name,
			"groupChat": chat.GroupChat,
			"creator":   chat.CreatorID,
			"members":   chat.MemberIDs(),
		},
	})
}

type renameBody struct {
	Name string `json:"name"`
}

func (h *ChatHandler) RenameGroup(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a valid chatId")
		return
	}
	var req renameBody
	if err := decodeJSON(r, &req); err != nil || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Please enter new group name")
		return
	}

	chat, err := h.chats.FindByIDWithMembers(chatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if !chat.GroupChat {
		writeError(w, http.StatusBadRequest, "This is not a group chat")
		return
	}
	if chat.CreatorID == nil || *chat.CreatorID != userID {
		writeError(w, http.StatusForbidden, "You are not allowed to rename the group")
		return
	}

	chat.Name = req.Name
	if err := h.chats.Save(chat); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.router.Broadcast(chat.MemberIDs(), realtime.RefetchChats, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": true, "message": "chat name updated successfully"})
}

// DeleteChat removes the chat, its messages and any remote attachments.
// Remote deletion is best-effort; the rows go regardless.
func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a valid chatId")
		return
	}
	chat, err := h.chats.FindByIDWithMembers(chatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if chat.GroupChat && (chat.CreatorID == nil || *chat.CreatorID != userID) {
		writeError(w, http.StatusForbidden, "You are not allowed to delete the group")
		return
	}
	if !chat.GroupChat && !chat.HasMember(userID) {
		writeError(w, http.StatusForbidden, "You are not allowed to delete the group")
		return
	}

	messages, err := h.messages.FindByChat(chatID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	var publicIDs []string
	for _, m := range messages {
		for _, a := range m.Attachments {
			publicIDs = append(publicIDs, a.PublicID)
		}
	}

	memberIDs := chat.MemberIDs()
	if err := h.messages.DeleteByChat(chatID); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if err := h.chats.Delete(chat); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	if len(publicIDs) > 0 {
		go func() {
			if err := h.assets.Delete(context.Background(), publicIDs); err != nil {
				log.Logger.Error().Err(err).Int("count", len(publicIDs)).Msg("attachment cleanup failed")
			}
		}()
	}

	h.router.Broadcast(memberIDs, realtime.RefetchChats, nil)
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": true, "message": "group deleted successfully"})
}

func (h *ChatHandler) Messages(w http.ResponseWriter, r *http.Request) {
	userID := middlewares.GetUserID(r.Context())

	chatID, err := chatIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please enter a valid chatId")
		return
	}
	chat, err := h.chats.FindByIDWithMembers(chatID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Chat not found")
		return
	}
	if !chat.HasMember(userID) {
		writeError(w, http.StatusForbidden, "You are not allowed to access this chat")
		return
	}

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := parsePositiveInt(p); err == nil {
			page = n
		}
	}

	messages, total, err := h.messages.FindByChatPage(chatID, page, messagesPerPage)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	totalPages := int(math.Ceil(float64(total) / float64(messagesPerPage)))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     true,
		"messages":   messages,
		"totalPages": totalPages,
	})
}
