package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// FavoriteService manages the user <-> recipe favorite membership set.
// Membership is binary: add fails on duplicates, remove fails on absence.
type FavoriteService struct {
	db *gorm.DB
}

func NewFavoriteService(db *gorm.DB) *FavoriteService {
	return &FavoriteService{db: db}
}

// Add inserts the (user, recipe) pair. The existence check runs inside the
// transaction so two concurrent adds cannot both succeed.
func (s *FavoriteService) Add(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.Favorite{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}

		return tx.Create(&models.Favorite{UserID: userID, RecipeID: recipeID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *FavoriteService) Remove(ctx context.Context, userID, recipeID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FavoriteService) IsFavorited(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}
