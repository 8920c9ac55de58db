package repository

import (
	"time"

	"github.com/Shruti10934/talksy-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(m *models.Message) error {
	return r.db.Create(m).Error
}

// FindByChatPage returns one page of a chat's messages, newest first,
// sender loaded, plus the total message count for the chat.
func (r *MessageRepository) FindByChatPage(chatID uuid.UUID, page, limit int) ([]models.Message, int64, error) {
	if page < 1 {
		page = 1
	}
	var messages []models.Message
	err := r.db.Where("chat_id = ?", chatID).
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Preload("Sender").
		Find(&messages).Error
	if err != nil {
		return nil, 0, err
	}
	var total int64
	if err := r.db.Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *MessageRepository) CountByChat(chatID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.Model(&models.Message{}).Where("chat_id = ?", chatID).Count(&n).Error
	return n, err
}

// FindByChat returns every message of a chat; used to collect attachment
// public IDs before a chat is deleted.
func (r *MessageRepository) FindByChat(chatID uuid.UUID) ([]models.Message, error) {
	var messages []models.Message
	if err := r.db.Where("chat_id = ?", chatID).Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepository) DeleteByChat(chatID uuid.UUID) error {
	return r.db.Where("chat_id = ?", chatID).Delete(&models.Message{}).Error
}

func (r *MessageRepository) All() ([]models.Message, error) {
	var messages []models.Message
	if err := r.db.Preload("Sender").Find(&messages).Error; err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Message{}).Count(&n).Error
	return n, err
}

// CreatedSince returns the creation times of messages newer than t, for the
// dashboard's 7-day chart.
func (r *MessageRepository) CreatedSince(t time.Time) ([]time.Time, error) {
	var times []time.Time
	err := r.db.Model(&models.Message{}).
		Where("created_at >= ?", t).
		Pluck("created_at", &times).Error
	if err != nil {
		return nil, err
	}
	return times, nil
}
