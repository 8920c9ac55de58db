package repository

import (
	"github.com/Shruti10934/talksy-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

func (r *ChatRepository) Create(chat *models.Chat) error {
	return r.db.Create(chat).Error
}

func (r *ChatRepository) FindByID(id uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepository) FindByIDWithMembers(id uuid.UUID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.db.Preload("Members").Where("id = ?", id).First(&chat).Error; err != nil {
		return nil, err
	}
	return &chat, nil
}

// memberQuery scopes chats to those containing userID.
func (r *ChatRepository) memberQuery(userID uuid.UUID) *gorm.DB {
	return r.db.
		Joins("JOIN chat_members cm ON cm.chat_id = chats.id").
		Where("cm.user_id = ?", userID)
}

// FindByMember lists every chat the user belongs to, members loaded.
func (r *ChatRepository) FindByMember(userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	if err := r.memberQuery(userID).Preload("Members").Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

// FindDirectByMember lists the user's one-to-one chats, members loaded.
func (r *ChatRepository) FindDirectByMember(userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.memberQuery(userID).
		Where("chats.group_chat = ?", false).
		Preload("Members").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// FindGroupsCreatedBy lists group chats the user both belongs to and created.
func (r *ChatRepository) FindGroupsCreatedBy(userID uuid.UUID) ([]models.Chat, error) {
	var chats []models.Chat
	err := r.memberQuery(userID).
		Where("chats.group_chat = ? AND chats.creator_id = ?", true, userID).
		Preload("Members").
		Find(&chats).Error
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *ChatRepository) Save(chat *models.Chat) error {
	return r.db.Save(chat).Error
}

// ReplaceMembers rewrites the chat's member set.
func (r *ChatRepository) ReplaceMembers(chat *models.Chat, members []models.User) error {
	return r.db.Model(chat).Association("Members").Replace(members)
}

func (r *ChatRepository) AddMembers(chat *models.Chat, members []models.User) error {
	return r.db.Model(chat).Association("Members").Append(members)
}

// Delete removes the chat and its membership rows.
func (r *ChatRepository) Delete(chat *models.Chat) error {
	if err := r.db.Model(chat).Association("Members").Clear(); err != nil {
		return err
	}
	return r.db.Delete(chat).Error
}

func (r *ChatRepository) All() ([]models.Chat, error) {
	var chats []models.Chat
	if err := r.db.Preload("Members").Find(&chats).Error; err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *ChatRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.Chat{}).Count(&n).Error
	return n, err
}

func (r *ChatRepository) CountGroups() (int64, error) {
	var n int64
	err := r.db.Model(&models.Chat{}).Where("group_chat = ?", true).Count(&n).Error
	return n, err
}

// CountForMember counts the user's chats of the given kind. Direct chats
// double as the friend count on the admin dashboard.
func (r *ChatRepository) CountForMember(userID uuid.UUID, groupChat bool) (int64, error) {
	var n int64
	err := r.db.Model(&models.Chat{}).
		Joins("JOIN chat_members cm ON cm.chat_id = chats.id").
		Where("cm.user_id = ? AND chats.group_chat = ?", userID, groupChat).
		Count(&n).Error
	return n, err
}
