package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// UserService serves user profiles and avatar updates.
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("id").Find(&users).Error
	return users, err
}

func (s *UserService) UpdateAvatar(ctx context.Context, userID uint, avatar string) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("avatar", avatar)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserService) ClearAvatar(ctx context.Context, userID uint) error {
	return s.UpdateAvatar(ctx, userID, "")
}

// RecipesByAuthor returns the author's recipes newest first, truncated to
// limit when limit > 0.
func (s *UserService) RecipesByAuthor(ctx context.Context, authorID uint, limit int) ([]models.Recipe, error) {
	q := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var recipes []models.Recipe
	err := q.Find(&recipes).Error
	return recipes, err
}

func (s *UserService) CountRecipes(ctx context.Context, authorID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", authorID).
		Count(&count).Error
	return count, err
}
