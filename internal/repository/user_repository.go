package repository

import (
	"strings"

	"github.com/Shruti10934/talksy-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *models.User) error {
	u.Username = strings.ToLower(strings.TrimSpace(u.Username))
	return r.db.Create(u).Error
}

// FindByUsername loads a user including the password hash, for login.
func (r *UserRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	username = strings.ToLower(strings.TrimSpace(username))
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByID(id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) FindByIDs(ids []uuid.UUID) ([]models.User, error) {
	var users []models.User
	if len(ids) == 0 {
		return users, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// SearchExcluding finds users whose name matches the query, case-insensitive,
// skipping the given IDs (the caller's existing direct-chat partners).
func (r *UserRepository) SearchExcluding(name string, exclude []uuid.UUID) ([]models.User, error) {
	var users []models.User
	q := r.db.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(name)+"%")
	if len(exclude) > 0 {
		q = q.Where("id NOT IN ?", exclude)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) All() ([]models.User, error) {
	var users []models.User
	if err := r.db.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) Count() (int64, error) {
	var n int64
	err := r.db.Model(&models.User{}).Count(&n).Error
	return n, err
}
