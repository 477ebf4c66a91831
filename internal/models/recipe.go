package models

import (
	"time"
)

// Tag is static reference data identified by slug in write requests.
type Tag struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Name  string `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Color string `gorm:"size:7" json:"color"`
	Slug  string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
}

type Ingredient struct {
	ID              uint   `gorm:"primarykey" json:"id"`
	Name            string `gorm:"size:128;not null;uniqueIndex:idx_ingredient_name_unit" json:"name"`
	MeasurementUnit string `gorm:"size:32;not null;uniqueIndex:idx_ingredient_name_unit" json:"measurement_unit"`
}

type Recipe struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time `gorm:"index:idx_recipes_created,sort:desc" json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	AuthorID    uint      `gorm:"not null;index" json:"author_id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	Text        string    `gorm:"type:text" json:"text"`
	Image       string    `gorm:"size:255" json:"image"`
	CookingTime int       `gorm:"not null" json:"cooking_time"`
}

// RecipeTag rows are owned by their recipe: written wholesale by the
// reconciler and removed with the recipe.
type RecipeTag struct {
	ID       uint `gorm:"primarykey" json:"id"`
	RecipeID uint `gorm:"not null;uniqueIndex:idx_recipe_tag" json:"recipe_id"`
	TagID    uint `gorm:"not null;uniqueIndex:idx_recipe_tag" json:"tag_id"`
}

func (RecipeTag) TableName() string {
	return "recipe_tags"
}

// RecipeIngredient rows are owned by their recipe, same lifecycle as
// RecipeTag. Amount is always >= 1.
type RecipeIngredient struct {
	ID           uint `gorm:"primarykey" json:"id"`
	RecipeID     uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"recipe_id"`
	IngredientID uint `gorm:"not null;uniqueIndex:idx_recipe_ingredient" json:"ingredient_id"`
	Amount       int  `gorm:"not null" json:"amount"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

type Favorite struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_favorite_user_recipe" json:"recipe_id"`
}

func (Favorite) TableName() string {
	return "favorites"
}

type ShoppingCartItem struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe" json:"user_id"`
	RecipeID  uint      `gorm:"not null;uniqueIndex:idx_cart_user_recipe" json:"recipe_id"`
}

func (ShoppingCartItem) TableName() string {
	return "shopping_cart_items"
}
