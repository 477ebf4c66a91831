package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// CatalogService serves the read-mostly tag and ingredient reference data.
type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).Order("name").Find(&tags).Error
	return tags, err
}

func (s *CatalogService) GetTag(ctx context.Context, id uint) (*models.Tag, error) {
	var tag models.Tag
	if err := s.db.WithContext(ctx).First(&tag, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &tag, nil
}

// ListIngredients filters by case-insensitive name prefix when name is set.
func (s *CatalogService) ListIngredients(ctx context.Context, name string) ([]models.Ingredient, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if name != "" {
		q = q.Where("LOWER(name) LIKE ?", strings.ToLower(name)+"%")
	}
	var ingredients []models.Ingredient
	err := q.Order("name").Find(&ingredients).Error
	return ingredients, err
}

func (s *CatalogService) GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error) {
	var ingredient models.Ingredient
	if err := s.db.WithContext(ctx).First(&ingredient, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ingredient, nil
}
