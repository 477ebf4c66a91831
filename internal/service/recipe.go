package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/types"
)

const (
	minCookingTime = 1
	maxCookingTime = 1440
)

// RecipeService owns the recipe aggregate: CRUD, listing filters, and the
// write reconciler that replaces a recipe's tag and ingredient associations
// wholesale inside one transaction.
type RecipeService struct {
	db *gorm.DB
}

func NewRecipeService(db *gorm.DB) *RecipeService {
	return &RecipeService{db: db}
}

// CreateRecipe validates the input, creates the recipe owned by authorID and
// inserts its association rows, all in one transaction. The author is fixed
// here and never reconciled afterward.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uint, in *types.RecipeInput) (*models.Recipe, error) {
	var recipe *models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags, err := s.validateInput(tx, in)
		if err != nil {
			return err
		}

		recipe = &models.Recipe{
			AuthorID:    authorID,
			Name:        in.Name,
			Text:        in.Text,
			Image:       in.Image,
			CookingTime: in.CookingTime,
		}
		if err := tx.Create(recipe).Error; err != nil {
			return err
		}
		return s.reconcileAssociations(tx, recipe.ID, tags, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return recipe, nil
}

// UpdateRecipe replaces the recipe's fields and its full association sets.
// Only the author may update; the author itself is never changed.
func (s *RecipeService) UpdateRecipe(ctx context.Context, userID, recipeID uint, in *types.RecipeInput) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if recipe.AuthorID != userID {
			return ErrPermissionDenied
		}

		tags, err := s.validateInput(tx, in)
		if err != nil {
			return err
		}

		recipe.Name = in.Name
		recipe.Text = in.Text
		recipe.CookingTime = in.CookingTime
		if in.Image != "" {
			recipe.Image = in.Image
		}
		if err := tx.Save(&recipe).Error; err != nil {
			return err
		}
		return s.reconcileAssociations(tx, recipe.ID, tags, in.Ingredients)
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

func (s *RecipeService) GetRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

// DeleteRecipe removes the recipe and the association and membership rows it
// owns. Author only.
func (s *RecipeService) DeleteRecipe(ctx context.Context, userID, recipeID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, recipeID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrNotFound
			}
			return err
		}
		if recipe.AuthorID != userID {
			return ErrPermissionDenied
		}

		for _, owned := range []interface{}{
			&models.RecipeTag{},
			&models.RecipeIngredient{},
			&models.Favorite{},
			&models.ShoppingCartItem{},
		} {
			if err := tx.Where("recipe_id = ?", recipeID).Delete(owned).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&recipe).Error
	})
}

// ListRecipes applies the viewer-aware filters and returns recipes newest
// first.
func (s *RecipeService) ListRecipes(ctx context.Context, f *types.RecipeFilter) ([]models.Recipe, error) {
	if f == nil {
		f = &types.RecipeFilter{}
	}

	// An anonymous viewer asking for "favorited" or "in cart" has nothing
	// matching either, same as the upstream filter semantics.
	if f.ViewerID == nil {
		if (f.Favorited != nil && *f.Favorited) || (f.InCart != nil && *f.InCart) {
			return []models.Recipe{}, nil
		}
	}

	q := s.db.WithContext(ctx).Model(&models.Recipe{})

	if f.AuthorID != nil {
		q = q.Where("recipes.author_id = ?", *f.AuthorID)
	}

	if len(f.TagSlugs) > 0 {
		q = q.Joins("JOIN recipe_tags ON recipe_tags.recipe_id = recipes.id").
			Joins("JOIN tags ON tags.id = recipe_tags.tag_id").
			Where("tags.slug IN ?", f.TagSlugs).
			Distinct("recipes.*")
	}

	if f.Favorited != nil && f.ViewerID != nil {
		sub := s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *f.ViewerID)
		if *f.Favorited {
			q = q.Where("recipes.id IN (?)", sub)
		} else {
			q = q.Where("recipes.id NOT IN (?)", sub)
		}
	}

	if f.InCart != nil && f.ViewerID != nil {
		sub := s.db.Model(&models.ShoppingCartItem{}).Select("recipe_id").Where("user_id = ?", *f.ViewerID)
		if *f.InCart {
			q = q.Where("recipes.id IN (?)", sub)
		} else {
			q = q.Where("recipes.id NOT IN (?)", sub)
		}
	}

	if f.Name != "" {
		q = q.Where("LOWER(recipes.name) LIKE ?", "%"+strings.ToLower(f.Name)+"%")
	}

	var recipes []models.Recipe
	if err := q.Order("recipes.created_at DESC, recipes.id DESC").Find(&recipes).Error; err != nil {
		return nil, err
	}
	return recipes, nil
}

// Tags returns the recipe's tags in association insertion order.
func (s *RecipeService) Tags(ctx context.Context, recipeID uint) ([]models.Tag, error) {
	var tags []models.Tag
	err := s.db.WithContext(ctx).
		Table("tags").
		Select("tags.*").
		Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
		Where("recipe_tags.recipe_id = ?", recipeID).
		Order("recipe_tags.id").
		Scan(&tags).Error
	return tags, err
}

// Ingredients returns the recipe's ingredient rows joined with the catalog,
// in association insertion order.
func (s *RecipeService) Ingredients(ctx context.Context, recipeID uint) ([]types.RecipeIngredientRow, error) {
	var rows []types.RecipeIngredientRow
	err := s.db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("ingredients.id, ingredients.name, ingredients.measurement_unit, recipe_ingredients.amount").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id = ?", recipeID).
		Order("recipe_ingredients.id").
		Scan(&rows).Error
	return rows, err
}

// validateInput checks the write request against the reconciler contract.
// Rules run in a fixed order and the first violation wins; nothing has been
// mutated by the time an error is returned. The resolved tags come back in
// input order.
func (s *RecipeService) validateInput(tx *gorm.DB, in *types.RecipeInput) ([]models.Tag, error) {
	if len(in.Tags) == 0 {
		return nil, newValidationError("tags", "at least one tag is required")
	}
	seenSlugs := make(map[string]struct{}, len(in.Tags))
	for _, slug := range in.Tags {
		if _, dup := seenSlugs[slug]; dup {
			return nil, newValidationError("tags", "duplicate tag %q", slug)
		}
		seenSlugs[slug] = struct{}{}
	}

	var found []models.Tag
	if err := tx.Where("slug IN ?", in.Tags).Find(&found).Error; err != nil {
		return nil, err
	}
	bySlug := make(map[string]models.Tag, len(found))
	for _, t := range found {
		bySlug[t.Slug] = t
	}
	tags := make([]models.Tag, 0, len(in.Tags))
	for _, slug := range in.Tags {
		t, ok := bySlug[slug]
		if !ok {
			return nil, newValidationError("tags", "unknown tag %q", slug)
		}
		tags = append(tags, t)
	}

	if len(in.Ingredients) == 0 {
		return nil, newValidationError("ingredients", "at least one ingredient is required")
	}
	seenIDs := make(map[uint]struct{}, len(in.Ingredients))
	ids := make([]uint, 0, len(in.Ingredients))
	for _, item := range in.Ingredients {
		if _, dup := seenIDs[item.ID]; dup {
			return nil, newValidationError("ingredients", "duplicate ingredient id=%d", item.ID)
		}
		seenIDs[item.ID] = struct{}{}
		if item.Amount < 1 {
			return nil, newValidationError("ingredients", "amount for ingredient id=%d must be >= 1", item.ID)
		}
		ids = append(ids, item.ID)
	}

	var existing []models.Ingredient
	if err := tx.Where("id IN ?", ids).Find(&existing).Error; err != nil {
		return nil, err
	}
	if len(existing) != len(ids) {
		known := make(map[uint]struct{}, len(existing))
		for _, ing := range existing {
			known[ing.ID] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				return nil, newValidationError("ingredients", "unknown ingredient id=%d", id)
			}
		}
	}

	if in.CookingTime < minCookingTime || in.CookingTime > maxCookingTime {
		return nil, newValidationError("cooking_time", "cooking time must be between %d and %d minutes", minCookingTime, maxCookingTime)
	}

	return tags, nil
}

// reconcileAssociations replaces the recipe's tag and ingredient rows with
// the target sets: delete-all-then-insert, never a diff. Callers run this
// inside the same transaction as the recipe write.
func (s *RecipeService) reconcileAssociations(tx *gorm.DB, recipeID uint, tags []models.Tag, ingredients []types.IngredientAmount) error {
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeTag{}).Error; err != nil {
		return err
	}
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.RecipeIngredient{}).Error; err != nil {
		return err
	}

	tagRows := make([]models.RecipeTag, 0, len(tags))
	for _, t := range tags {
		tagRows = append(tagRows, models.RecipeTag{RecipeID: recipeID, TagID: t.ID})
	}
	if err := tx.Create(&tagRows).Error; err != nil {
		return err
	}

	ingredientRows := make([]models.RecipeIngredient, 0, len(ingredients))
	for _, item := range ingredients {
		ingredientRows = append(ingredientRows, models.RecipeIngredient{
			RecipeID:     recipeID,
			IngredientID: item.ID,
			Amount:       item.Amount,
		})
	}
	return tx.Create(&ingredientRows).Error
}
