package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// FollowService manages the user -> author follow graph.
type FollowService struct {
	db *gorm.DB
}

func NewFollowService(db *gorm.DB) *FollowService {
	return &FollowService{db: db}
}

// Follow inserts the (user, author) pair. Following yourself is never
// allowed; following twice fails.
func (s *FollowService) Follow(ctx context.Context, userID, authorID uint) (*models.User, error) {
	if userID == authorID {
		return nil, ErrSelfFollow
	}

	var author models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&author, authorID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Follow{}).
			Where("user_id = ? AND author_id = ?", userID, authorID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}

		return tx.Create(&models.Follow{UserID: userID, AuthorID: authorID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &author, nil
}

func (s *FollowService) Unfollow(ctx context.Context, userID, authorID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// IsFollowing is the existence check behind the per-viewer is_subscribed
// flag on author representations.
func (s *FollowService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	return count > 0, err
}

// Following returns the authors the user follows, most recent first.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	var authors []models.User
	err := s.db.WithContext(ctx).
		Table("users").
		Select("users.*").
		Joins("JOIN follows ON follows.author_id = users.id").
		Where("follows.user_id = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Scan(&authors).Error
	return authors, err
}
