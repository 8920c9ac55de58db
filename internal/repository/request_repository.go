package repository

import (
	"github.com/Shruti10934/talksy-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RequestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) Create(req *models.FriendRequest) error {
	return r.db.Create(req).Error
}

// FindBetween looks for a pending request in either direction between the
// two users.
func (r *RequestRepository) FindBetween(a, b uuid.UUID) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		a, b, b, a,
	).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) FindByID(id uuid.UUID) (*models.FriendRequest, error) {
	var req models.FriendRequest
	err := r.db.Preload("Sender").Preload("Receiver").Where("id = ?", id).First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *RequestRepository) FindByReceiver(receiverID uuid.UUID) ([]models.FriendRequest, error) {
	var reqs []models.FriendRequest
	err := r.db.Preload("Sender").Where("receiver_id = ?", receiverID).Find(&reqs).Error
	if err != nil {
		return nil, err
	}
	return reqs, nil
}

func (r *RequestRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&models.FriendRequest{}).Error
}
