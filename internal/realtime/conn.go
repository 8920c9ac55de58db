package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/Shruti10934/talksy-backend/pkg/log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn represents ONE live websocket session for an authenticated user.
type Conn struct {
	ws       *websocket.Conn
	userID   uuid.UUID
	userName string

	registry *Registry
	presence *Presence
	router   *Router
	store    MessageStore

	out       chan []byte
	done      chan struct{}
	closeOnce sync.Once
}

// NewConn registers the connection and starts its pumps. Registration
// happens exactly once, before any event is accepted.
func NewConn(userID uuid.UUID, userName string, ws *websocket.Conn,
	registry *Registry, presence *Presence, router *Router, store MessageStore) *Conn {

	c := &Conn{
		ws:       ws,
		userID:   userID,
		userName: userName,
		registry: registry,
		presence: presence,
		router:   router,
		store:    store,
		out:      make(chan []byte, 8),
		done:     make(chan struct{}),
	}
	registry.Register(userID, c)

	go c.writeLoop()
	go c.readLoop()

	return c
}

func (c *Conn) UserID() uuid.UUID { return c.userID }

// Send queues one tagged frame. A full buffer drops the frame: best-effort,
// at-most-once delivery.
func (c *Conn) Send(kind string, payload any) error {
	b, err := json.Marshal(outFrame{Type: kind, Payload: payload})
	if err != nil {
		return err
	}
	select {
	case <-c.done:
		return nil // already closed; swallow
	default:
	}
	select {
	case c.out <- b:
	default: // slow consumer, drop
	}
	return nil
}

// ----------------------------------------------------------
// private loops
// ----------------------------------------------------------

func (c *Conn) readLoop() {
	defer c.close()

	for {
		var f Frame
		if err := c.ws.ReadJSON(&f); err != nil {
			return // closed
		}
		c.handleEvent(f)
	}
}

func (c *Conn) writeLoop() {
	tick := time.NewTicker(25 * time.Second)
	defer tick.Stop()

	for {
		select {
		case <-c.done:
			_ = c.ws.WriteMessage(websocket.CloseMessage, nil)
			return

		case msg := <-c.out:
			_ = c.ws.WriteMessage(websocket.TextMessage, msg)

		case <-tick.C:
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ----------------------------------------------------------
// inbound event dispatch
// ----------------------------------------------------------

type newMessageIn struct {
	ChatID  uuid.UUID   `json:"chatId"`
	Members []uuid.UUID `json:"members"`
	Message string      `json:"message"`
}

type typingIn struct {
	ChatID  uuid.UUID   `json:"chatId"`
	Members []uuid.UUID `json:"members"`
}

type presenceIn struct {
	UserID  uuid.UUID   `json:"userId"`
	Members []uuid.UUID `json:"members"`
}

// handleEvent dispatches one inbound frame. Malformed payloads are logged
// and skipped; a bad frame never takes the connection down.
func (c *Conn) handleEvent(f Frame) {
	switch f.Type {
	case NewMessage:
		var in newMessageIn
		if err := json.Unmarshal(f.Payload, &in); err != nil || in.ChatID == uuid.Nil || in.Message == "" {
			c.warnBadPayload(f.Type, err)
			return
		}
		msg := RealtimeMessage{
			ID:        uuid.NewString(),
			Content:   in.Message,
			Sender:    SenderInfo{ID: c.userID.String(), Name: c.userName},
			ChatID:    in.ChatID.String(),
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		}
		c.router.Broadcast(in.Members, NewMessage, MessagePayload{ChatID: msg.ChatID, Message: msg})
		c.router.Broadcast(in.Members, NewMessageAlert, AlertPayload{ChatID: msg.ChatID})

		// Durable write runs beside the broadcast; recipients may see the
		// message even when the write fails.
		go func() {
			if err := c.store.RecordMessage(context.Background(), c.userID, in.ChatID, in.Message); err != nil {
				log.Logger.Error().Err(err).
					Str("user_id", c.userID.String()).
					Str("chat_id", in.ChatID.String()).
					Msg("message persist failed")
			}
		}()

	case StartTyping, StopTyping:
		var in typingIn
		if err := json.Unmarshal(f.Payload, &in); err != nil || in.ChatID == uuid.Nil {
			c.warnBadPayload(f.Type, err)
			return
		}
		c.router.BroadcastExcept(in.Members, c.userID, f.Type, in)

	case ChatJoined:
		var in presenceIn
		if err := json.Unmarshal(f.Payload, &in); err != nil || in.UserID == uuid.Nil {
			c.warnBadPayload(f.Type, err)
			return
		}
		c.presence.MarkOnline(in.UserID)
		c.router.Broadcast(in.Members, OnlineUsers, c.presence.Snapshot())

	case ChatLeaved:
		var in presenceIn
		if err := json.Unmarshal(f.Payload, &in); err != nil || in.UserID == uuid.Nil {
			c.warnBadPayload(f.Type, err)
			return
		}
		c.presence.MarkOffline(in.UserID)
		c.router.Broadcast(in.Members, OnlineUsers, c.presence.Snapshot())

	default:
		log.Logger.Warn().Str("type", f.Type).Msg("unknown realtime event")
	}
}

func (c *Conn) warnBadPayload(kind string, err error) {
	log.Logger.Warn().Err(err).
		Str("type", kind).
		Str("user_id", c.userID.String()).
		Msg("dropping malformed realtime payload")
}

// ----------------------------------------------------------

// close tears the session down: deregister, mark offline, and tell every
// remaining connection who is still online. The offline broadcast is global,
// unlike the chat-scoped join/leave ones.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		c.registry.Deregister(c.userID)
		c.presence.MarkOffline(c.userID)
		c.router.BroadcastAll(OnlineUsers, c.presence.Snapshot())
		close(c.done)
		if c.ws != nil {
			_ = c.ws.Close()
		}
	})
}
