package realtime

import (
	"context"
	"fmt"

	"github.com/Shruti10934/talksy-backend/internal/models"
	"github.com/Shruti10934/talksy-backend/internal/repository"

	"github.com/google/uuid"
)

// MessageStore durably records a realtime message. Recording runs
// concurrently with delivery; a failed write never rolls back a broadcast
// that already happened.
type MessageStore interface {
	RecordMessage(ctx context.Context, senderID, chatID uuid.UUID, content string) error
}

// Bridge is the MessageStore backed by the message repository.
type Bridge struct {
	messages *repository.MessageRepository
}

func NewBridge(messages *repository.MessageRepository) *Bridge {
	return &Bridge{messages: messages}
}

func (b *Bridge) RecordMessage(ctx context.Context, senderID, chatID uuid.UUID, content string) error {
	msg := &models.Message{
		ID:       uuid.New(),
		Content:  content,
		SenderID: senderID,
		ChatID:   chatID,
	}
	if err := b.messages.Create(msg); err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	return nil
}
