package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedMessage struct {
	senderID uuid.UUID
	chatID   uuid.UUID
	content  string
}

// stubStore captures RecordMessage calls; writes signal recorded.
type stubStore struct {
	mu       sync.Mutex
	calls    []recordedMessage
	err      error
	recorded chan struct{}
}

func newStubStore() *stubStore {
	return &stubStore{recorded: make(chan struct{}, 16)}
}

func (s *stubStore) RecordMessage(_ context.Context, senderID, chatID uuid.UUID, content string) error {
	s.mu.Lock()
	s.calls = append(s.calls, recordedMessage{senderID: senderID, chatID: chatID, content: content})
	s.mu.Unlock()
	s.recorded <- struct{}{}
	return s.err
}

func (s *stubStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func (s *stubStore) waitForWrite(t *testing.T) {
	t.Helper()
	select {
	case <-s.recorded:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for persistence write")
	}
}

type fixture struct {
	registry *Registry
	presence *Presence
	router   *Router
	store    *stubStore
}

func newFixture() *fixture {
	reg := NewRegistry()
	return &fixture{
		registry: reg,
		presence: NewPresence(),
		router:   NewRouter(reg),
		store:    newStubStore(),
	}
}

// connect registers a session the way NewConn does, minus the websocket.
func (f *fixture) connect(id uuid.UUID, name string) *Conn {
	c := &Conn{
		userID:   id,
		userName: name,
		registry: f.registry,
		presence: f.presence,
		router:   f.router,
		store:    f.store,
		out:      make(chan []byte, 16),
		done:     make(chan struct{}),
	}
	f.registry.Register(id, c)
	return c
}

func frame(t *testing.T, kind string, payload any) Frame {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return Frame{Type: kind, Payload: b}
}

func TestNewMessageFanOutAndPersist(t *testing.T) {
	f := newFixture()
	a := f.connect(uuid.New(), "Alice")
	b := f.connect(uuid.New(), "Bob")
	chatID := uuid.New()

	a.handleEvent(frame(t, NewMessage, map[string]any{
		"chatId":  chatID,
		"members": []uuid.UUID{a.userID, b.userID},
		"message": "hi",
	}))
	f.store.waitForWrite(t)

	frames := drainFrames(t, b)
	require.Len(t, frames, 2, "full message then alert")

	assert.Equal(t, NewMessage, frames[0].Type)
	var full MessagePayload
	require.NoError(t, json.Unmarshal(frames[0].Payload, &full))
	assert.Equal(t, chatID.String(), full.ChatID)
	assert.Equal(t, "hi", full.Message.Content)
	assert.Equal(t, a.userID.String(), full.Message.Sender.ID)
	assert.Equal(t, "Alice", full.Message.Sender.Name)
	assert.NotEmpty(t, full.Message.CreatedAt)

	assert.Equal(t, NewMessageAlert, frames[1].Type)
	var alert AlertPayload
	require.NoError(t, json.Unmarshal(frames[1].Payload, &alert))
	assert.Equal(t, chatID.String(), alert.ChatID)

	// Sender is part of the member set, so it hears its own message too.
	assert.Len(t, drainFrames(t, a), 2)

	require.Equal(t, 1, f.store.callCount())
	assert.Equal(t, a.userID, f.store.calls[0].senderID)
	assert.Equal(t, chatID, f.store.calls[0].chatID)
	assert.Equal(t, "hi", f.store.calls[0].content)
}

func TestNewMessagePersistFailureKeepsDelivery(t *testing.T) {
	f := newFixture()
	f.store.err = errors.New("store down")
	a := f.connect(uuid.New(), "Alice")
	b := f.connect(uuid.New(), "Bob")

	a.handleEvent(frame(t, NewMessage, map[string]any{
		"chatId":  uuid.New(),
		"members": []uuid.UUID{b.userID},
		"message": "hi",
	}))
	f.store.waitForWrite(t)

	assert.Len(t, drainFrames(t, b), 2, "broadcasts are independent of the failed write")
	assert.Equal(t, 1, f.store.callCount(), "exactly one write attempt, no retry")
}

func TestNewMessageMalformedPayloadDropped(t *testing.T) {
	f := newFixture()
	a := f.connect(uuid.New(), "Alice")
	b := f.connect(uuid.New(), "Bob")

	a.handleEvent(Frame{Type: NewMessage, Payload: json.RawMessage(`{"chatId":42}`)})
	a.handleEvent(frame(t, NewMessage, map[string]any{
		"chatId":  uuid.New(),
		"members": []uuid.UUID{b.userID},
		"message": "",
	}))

	assert.Empty(t, drainFrames(t, b))
	assert.Equal(t, 0, f.store.callCount())
}

func TestTypingExcludesSender(t *testing.T) {
	f := newFixture()
	a := f.connect(uuid.New(), "Alice")
	b := f.connect(uuid.New(), "Bob")

	a.handleEvent(frame(t, StartTyping, map[string]any{
		"chatId":  uuid.New(),
		"members": []uuid.UUID{a.userID, b.userID}, // sender listed explicitly
	}))

	assert.Empty(t, drainFrames(t, a))
	frames := drainFrames(t, b)
	require.Len(t, frames, 1)
	assert.Equal(t, StartTyping, frames[0].Type)
}

func TestPresenceJoinLeaveBroadcasts(t *testing.T) {
	f := newFixture()
	a := f.connect(uuid.New(), "Alice")
	b := f.connect(uuid.New(), "Bob")
	members := []uuid.UUID{a.userID, b.userID}

	a.handleEvent(frame(t, ChatJoined, map[string]any{"userId": a.userID, "members": members}))

	assert.True(t, f.presence.IsOnline(a.userID))
	for _, c := range []*Conn{a, b} {
		frames := drainFrames(t, c)
		require.Len(t, frames, 1, "join snapshot goes to the member set including the joiner")
		assert.Equal(t, OnlineUsers, frames[0].Type)
		var online []uuid.UUID
		require.NoError(t, json.Unmarshal(frames[0].Payload, &online))
		assert.Contains(t, online, a.userID)
	}

	a.handleEvent(frame(t, ChatLeaved, map[string]any{"userId": a.userID, "members": members}))

	assert.False(t, f.presence.IsOnline(a.userID))
	frames := drainFrames(t, b)
	require.Len(t, frames, 1)
	var online []uuid.UUID
	require.NoError(t, json.Unmarshal(frames[0].Payload, &online))
	assert.NotContains(t, online, a.userID)
}

func TestDisconnectCleansUpAndBroadcastsGlobally(t *testing.T) {
	f := newFixture()
	a := f.connect(uuid.New(), "Alice")
	b := f.connect(uuid.New(), "Bob")
	f.presence.MarkOnline(a.userID)

	a.close()

	assert.Nil(t, f.registry.Resolve([]uuid.UUID{a.userID})[0])
	assert.False(t, f.presence.IsOnline(a.userID))

	frames := drainFrames(t, b)
	require.Len(t, frames, 1, "disconnect presence broadcast is global")
	assert.Equal(t, OnlineUsers, frames[0].Type)
	var online []uuid.UUID
	require.NoError(t, json.Unmarshal(frames[0].Payload, &online))
	assert.NotContains(t, online, a.userID)
}

func TestDisconnectWithoutPresence(t *testing.T) {
	f := newFixture()
	a := f.connect(uuid.New(), "Alice")

	// Never marked online: close must still clean both structures quietly.
	a.close()
	a.close() // idempotent

	assert.Nil(t, f.registry.Resolve([]uuid.UUID{a.userID})[0])
	assert.Empty(t, f.presence.Snapshot())
}

func TestUnknownEventIgnored(t *testing.T) {
	f := newFixture()
	a := f.connect(uuid.New(), "Alice")

	a.handleEvent(Frame{Type: "BOGUS", Payload: json.RawMessage(`{}`)})

	assert.Empty(t, drainFrames(t, a))
}
