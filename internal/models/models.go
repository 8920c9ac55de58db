package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// -------------------------------
// Users
// -------------------------------

// Avatar is the remote-asset reference for a profile picture.
type Avatar struct {
	PublicID string `gorm:"type:text" json:"publicId"`
	URL      string `gorm:"type:text" json:"url"`
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Name         string    `gorm:"type:text" json:"name"`
	Username     string    `gorm:"type:text;uniqueIndex" json:"username"`
	Bio          string    `gorm:"type:text" json:"bio"`
	PasswordHash string    `gorm:"type:text" json:"-"`
	Avatar       Avatar    `gorm:"embedded;embeddedPrefix:avatar_" json:"avatar"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// -------------------------------
// Chats & Messages
// -------------------------------

type Chat struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"_id"`
	Name      string     `gorm:"type:text" json:"name"`
	GroupChat bool       `gorm:"default:false" json:"groupChat"`
	CreatorID *uuid.UUID `gorm:"type:uuid;index" json:"creator,omitempty"`
	Creator   *User      `gorm:"foreignKey:CreatorID" json:"-"`
	Members   []User     `gorm:"many2many:chat_members" json:"members,omitempty"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

// MemberIDs returns the member keys without the loaded user rows.
func (c *Chat) MemberIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Members))
	for _, m := range c.Members {
		ids = append(ids, m.ID)
	}
	return ids
}

// HasMember reports whether id belongs to the chat's member set.
func (c *Chat) HasMember(id uuid.UUID) bool {
	for _, m := range c.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// Attachment is one uploaded file riding on a message.
type Attachment struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
}

type Message struct {
	ID          uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"_id"`
	Content     string                            `gorm:"type:text" json:"content"`
	Attachments datatypes.JSONSlice[Attachment]   `json:"attachments"`
	SenderID    uuid.UUID                         `gorm:"type:uuid;index" json:"-"`
	Sender      User                              `gorm:"foreignKey:SenderID" json:"sender"`
	ChatID      uuid.UUID                         `gorm:"type:uuid;index" json:"chatId"`
	CreatedAt   time.Time                         `gorm:"autoCreateTime" json:"createdAt"`
}

// -------------------------------
// Friend Requests
// -------------------------------

type FriendRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"_id"`
	Status     string    `gorm:"type:varchar(20);default:'pending'" json:"status"`
	SenderID   uuid.UUID `gorm:"type:uuid;index" json:"-"`
	Sender     User      `gorm:"foreignKey:SenderID" json:"sender"`
	ReceiverID uuid.UUID `gorm:"type:uuid;index" json:"-"`
	Receiver   User      `gorm:"foreignKey:ReceiverID" json:"receiver"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"createdAt"`
}
