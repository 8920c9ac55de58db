package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Shruti10934/talksy-backend/internal/auth"
	"github.com/Shruti10934/talksy-backend/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignup(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{
		"name":     "Alice",
		"username": "Alice99",
		"password": "password123",
		"bio":      "hi there",
	}, "avatar", "alice.png")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/new", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.api.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, cookieNamed(rec, auth.UserCookieName), "signup must issue the session cookie")

	var stored models.User
	require.NoError(t, env.db.First(&stored, "username = ?", "alice99").Error)
	assert.Equal(t, "Alice", stored.Name)
	assert.Equal(t, "alice99", stored.Username, "usernames are stored lowercased")
	assert.NotEmpty(t, stored.Avatar.URL)
	assert.NotEqual(t, "password123", stored.PasswordHash)
}

func TestSignupMissingAvatar(t *testing.T) {
	env := newTestEnv(t)

	body, contentType := multipartBody(t, map[string]string{
		"name":     "Alice",
		"username": "alice",
		"password": "password123",
		"bio":      "hi",
	}, "avatar")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/new", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.api.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSignupDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Alice", "alice")

	body, contentType := multipartBody(t, map[string]string{
		"name":     "Other Alice",
		"username": "ALICE",
		"password": "password123",
		"bio":      "hi",
	}, "avatar", "a.png")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/user/new", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.api.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Alice", "alice")

	rec, body := env.do(t, http.MethodPost, "/api/v1/user/login",
		map[string]string{"username": "alice", "password": "password123"})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])
	assert.NotNil(t, cookieNamed(rec, auth.UserCookieName))
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.createUser(t, "Alice", "alice")

	rec, _ := env.do(t, http.MethodPost, "/api/v1/user/login",
		map[string]string{"username": "alice", "password": "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, cookieNamed(rec, auth.UserCookieName))
}

func TestLoginUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodPost, "/api/v1/user/login",
		map[string]string{"username": "ghost", "password": "password123"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMeRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/api/v1/user/me", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")

	rec, body := env.do(t, http.MethodGet, "/api/v1/user/me", nil, env.userCookie(t, alice.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, alice.ID.String(), user["_id"])
	assert.NotContains(t, user, "password", "password hash never leaves the API")
}

func TestLogoutClearsCookie(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")

	rec, _ := env.do(t, http.MethodGet, "/api/v1/user/logout", nil, env.userCookie(t, alice.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	c := cookieNamed(rec, auth.UserCookieName)
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Negative(t, c.MaxAge)
}

func TestSearchExcludesSelfAndDirectPartners(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")
	carol := env.createUser(t, "Carol", "carol")
	env.createChat(t, "Alice-Bob", false, alice, bob)

	rec, body := env.do(t, http.MethodGet, "/api/v1/user/search?name=", nil, env.userCookie(t, alice.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	users, ok := body["users"].([]any)
	require.True(t, ok)
	require.Len(t, users, 1, "only carol has no direct chat with alice")
	found := users[0].(map[string]any)
	assert.Equal(t, carol.ID.String(), found["_id"])
	assert.Equal(t, "Carol", found["name"])
}

func TestSendFriendRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")

	rec, body := env.do(t, http.MethodPut, "/api/v1/user/send-request",
		map[string]any{"userId": bob.ID}, env.userCookie(t, alice.ID))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body["success"])

	var fr models.FriendRequest
	require.NoError(t, env.db.First(&fr, "sender_id = ?", alice.ID).Error)
	assert.Equal(t, bob.ID, fr.ReceiverID)
	assert.Equal(t, "pending", fr.Status)
}

func TestSendFriendRequestDuplicate(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")

	rec, _ := env.do(t, http.MethodPut, "/api/v1/user/send-request",
		map[string]any{"userId": bob.ID}, env.userCookie(t, alice.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	// Same pair in the opposite direction is still a duplicate.
	rec, _ = env.do(t, http.MethodPut, "/api/v1/user/send-request",
		map[string]any{"userId": alice.ID}, env.userCookie(t, bob.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAcceptFriendRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")

	fr := &models.FriendRequest{ID: uuid.New(), SenderID: alice.ID, ReceiverID: bob.ID}
	require.NoError(t, env.db.Create(fr).Error)

	accept := true
	rec, body := env.do(t, http.MethodPut, "/api/v1/user/accept-request",
		map[string]any{"requestId": fr.ID, "accept": accept}, env.userCookie(t, bob.ID))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, alice.ID.String(), body["senderId"])

	// Acceptance spawns the direct chat and retires the request row.
	var chat models.Chat
	require.NoError(t, env.db.Preload("Members").First(&chat, "name = ?", "Alice-Bob").Error)
	assert.False(t, chat.GroupChat)
	assert.True(t, chat.HasMember(alice.ID))
	assert.True(t, chat.HasMember(bob.ID))

	var count int64
	require.NoError(t, env.db.Model(&models.FriendRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRejectFriendRequest(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")

	fr := &models.FriendRequest{ID: uuid.New(), SenderID: alice.ID, ReceiverID: bob.ID}
	require.NoError(t, env.db.Create(fr).Error)

	accept := false
	rec, _ := env.do(t, http.MethodPut, "/api/v1/user/accept-request",
		map[string]any{"requestId": fr.ID, "accept": accept}, env.userCookie(t, bob.ID))
	require.Equal(t, http.StatusOK, rec.Code)

	var chats int64
	require.NoError(t, env.db.Model(&models.Chat{}).Count(&chats).Error)
	assert.Zero(t, chats, "rejection must not create a chat")

	var requests int64
	require.NoError(t, env.db.Model(&models.FriendRequest{}).Count(&requests).Error)
	assert.Zero(t, requests)
}

func TestAcceptFriendRequestWrongReceiver(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")
	mallory := env.createUser(t, "Mallory", "mallory")

	fr := &models.FriendRequest{ID: uuid.New(), SenderID: alice.ID, ReceiverID: bob.ID}
	require.NoError(t, env.db.Create(fr).Error)

	accept := true
	rec, _ := env.do(t, http.MethodPut, "/api/v1/user/accept-request",
		map[string]any{"requestId": fr.ID, "accept": accept}, env.userCookie(t, mallory.ID))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestNotifications(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")

	fr := &models.FriendRequest{ID: uuid.New(), SenderID: alice.ID, ReceiverID: bob.ID}
	require.NoError(t, env.db.Create(fr).Error)

	rec, body := env.do(t, http.MethodGet, "/api/v1/user/notifications", nil, env.userCookie(t, bob.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	all, ok := body["allRequests"].([]any)
	require.True(t, ok)
	require.Len(t, all, 1)
	sender := all[0].(map[string]any)["sender"].(map[string]any)
	assert.Equal(t, alice.ID.String(), sender["_id"])
	assert.Equal(t, "Alice", sender["name"])
}

func TestFriends(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")
	carol := env.createUser(t, "Carol", "carol")
	env.createChat(t, "Alice-Bob", false, alice, bob)
	env.createChat(t, "Alice-Carol", false, alice, carol)
	// Group membership does not make someone a friend.
	dave := env.createUser(t, "Dave", "dave")
	env.createChat(t, "The Group", true, alice, bob, dave)

	rec, body := env.do(t, http.MethodGet, "/api/v1/user/friends", nil, env.userCookie(t, alice.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	friends, ok := body["friends"].([]any)
	require.True(t, ok)
	ids := make([]string, 0, len(friends))
	for _, f := range friends {
		ids = append(ids, f.(map[string]any)["_id"].(string))
	}
	assert.ElementsMatch(t, []string{bob.ID.String(), carol.ID.String()}, ids)
}

func TestFriendsFilteredByChat(t *testing.T) {
	env := newTestEnv(t)
	alice := env.createUser(t, "Alice", "alice")
	bob := env.createUser(t, "Bob", "bob")
	carol := env.createUser(t, "Carol", "carol")
	dave := env.createUser(t, "Dave", "dave")
	env.createChat(t, "Alice-Bob", false, alice, bob)
	env.createChat(t, "Alice-Carol", false, alice, carol)
	group := env.createChat(t, "The Group", true, alice, bob, dave)

	rec, body := env.do(t, http.MethodGet, "/api/v1/user/friends?chatId="+group.ID.String(), nil,
		env.userCookie(t, alice.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	friends, ok := body["friends"].([]any)
	require.True(t, ok)
	require.Len(t, friends, 1, "bob is already in the group, only carol is addable")
	assert.Equal(t, carol.ID.String(), friends[0].(map[string]any)["_id"])
}
