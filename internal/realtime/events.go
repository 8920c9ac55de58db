package realtime

import "encoding/json"

// Wire event kinds, shared with the frontend.
const (
	NewMessage      = "NEW_MESSAGE"
	NewMessageAlert = "NEW_MESSAGE_ALERT"
	StartTyping     = "START_TYPING"
	StopTyping      = "STOP_TYPING"
	ChatJoined      = "CHAT_JOINED"
	ChatLeaved      = "CHAT_LEAVED"
	OnlineUsers     = "ONLINE_USERS"
	Alert           = "ALERT"
	NewRequest      = "NEW_REQUEST"
	RefetchChats    = "REFETCH_CHATS"
)

// Frame is one inbound websocket message. Payloads are decoded per kind.
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outFrame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// SenderInfo is the trimmed sender block on realtime message payloads.
type SenderInfo struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// RealtimeMessage is the full message body pushed to recipients. It exists
// before (and independent of) the durable Message row.
type RealtimeMessage struct {
	ID        string     `json:"_id"`
	Content   string     `json:"content"`
	Sender    SenderInfo `json:"sender"`
	ChatID    string     `json:"chatId"`
	CreatedAt string     `json:"createdAt"`
}

// MessagePayload carries the full message body on NEW_MESSAGE.
type MessagePayload struct {
	ChatID  string          `json:"chatId"`
	Message RealtimeMessage `json:"message"`
}

// AlertPayload is the lightweight NEW_MESSAGE_ALERT body, used for
// unread-badge updates.
type AlertPayload struct {
	ChatID string `json:"chatId"`
}
