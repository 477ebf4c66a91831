package service

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
)

// CartService manages the user's shopping cart membership set and folds the
// cart into an aggregated shopping list.
type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

func (s *CartService) Add(ctx context.Context, userID, recipeID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}

		var count int64
		if err := tx.Model(&models.ShoppingCartItem{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrAlreadyExists
		}

		return tx.Create(&models.ShoppingCartItem{UserID: userID, RecipeID: recipeID}).Error
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *CartService) Remove(ctx context.Context, userID, recipeID uint) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.ShoppingCartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *CartService) IsInCart(ctx context.Context, userID, recipeID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.ShoppingCartItem{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error
	return count > 0, err
}

// ShoppingListEntry is one aggregated (name, unit) group with the summed
// amount across every recipe in the cart.
type ShoppingListEntry struct {
	Name            string
	MeasurementUnit string
	Amount          int
}

// ShoppingList gathers the ingredient rows of every recipe in the user's
// cart and sums amounts per (name, unit) pair. Groups keep the order they
// were first encountered: cart rows by insertion, each recipe's ingredients
// by row id. An empty cart is ErrCartEmpty.
func (s *CartService) ShoppingList(ctx context.Context, userID uint) ([]ShoppingListEntry, error) {
	var rows []struct {
		Name            string
		MeasurementUnit string
		Amount          int
	}
	err := s.db.WithContext(ctx).
		Table("shopping_cart_items").
		Select("ingredients.name, ingredients.measurement_unit, recipe_ingredients.amount").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.recipe_id = shopping_cart_items.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("shopping_cart_items.user_id = ?", userID).
		Order("shopping_cart_items.id, recipe_ingredients.id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrCartEmpty
	}

	index := make(map[string]int, len(rows))
	entries := make([]ShoppingListEntry, 0, len(rows))
	for _, row := range rows {
		key := row.Name + "\x00" + row.MeasurementUnit
		if i, ok := index[key]; ok {
			entries[i].Amount += row.Amount
			continue
		}
		index[key] = len(entries)
		entries = append(entries, ShoppingListEntry{
			Name:            row.Name,
			MeasurementUnit: row.MeasurementUnit,
			Amount:          row.Amount,
		})
	}
	return entries, nil
}

// RenderShoppingList formats the aggregated entries as the downloadable
// plain-text report.
func RenderShoppingList(entries []ShoppingListEntry) string {
	var b strings.Builder
	b.WriteString("Shopping list:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- %s (%s): %d\n", e.Name, e.MeasurementUnit, e.Amount)
	}
	return b.String()
}
