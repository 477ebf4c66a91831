package testhelpers

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/platefeed/backend/internal/database"
	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/types"
)

// TestJWTSecret signs tokens in tests.
const TestJWTSecret = "test-jwt-secret"

// TestPassword is the plaintext password of every seeded user.
const TestPassword = "password123"

// NewTestDB opens an in-memory SQLite database with the full schema applied.
// The connection pool is pinned to one connection so the in-memory database
// is not dropped between queries.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	return db
}

// NewTestAuthService builds an auth service without Redis. Logout revocation
// is a no-op in that configuration.
func NewTestAuthService(db *gorm.DB) *service.AuthService {
	return service.NewAuthService(db, nil, TestJWTSecret)
}

// CreateTestUser inserts a user with a bcrypt hash of TestPassword. The tag
// distinguishes email and username across multiple seeded users.
func CreateTestUser(t *testing.T, db *gorm.DB, tag string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.DefaultCost)
	require.NoError(t, err)

	user := &models.User{
		Email:        fmt.Sprintf("%s@example.com", tag),
		Username:     tag,
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateTestUserAndToken seeds a user and returns a valid token for them.
func CreateTestUserAndToken(t *testing.T, db *gorm.DB, auth *service.AuthService, tag string) (*models.User, string) {
	t.Helper()

	user := CreateTestUser(t, db, tag)
	token, err := auth.GenerateToken(&types.TokenClaims{UserID: user.ID, Username: user.Username})
	require.NoError(t, err)
	return user, token
}

// SeedTag inserts a tag and returns it.
func SeedTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()

	tag := &models.Tag{Name: name, Slug: slug, Color: "#49B64E"}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

// SeedIngredient inserts an ingredient and returns it.
func SeedIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ing).Error)
	return ing
}

// SeedRecipe inserts a recipe with the given tags and ingredient amounts
// through the recipe service so association rows are written the same way
// the API writes them.
func SeedRecipe(t *testing.T, db *gorm.DB, authorID uint, name string, tagSlugs []string, ingredients []types.IngredientAmount) *models.Recipe {
	t.Helper()

	in := &types.RecipeInput{
		Name:        name,
		Text:        "Seeded recipe for " + name,
		Image:       "/media/recipes/" + name + ".jpg",
		CookingTime: 30,
		Tags:        tagSlugs,
		Ingredients: ingredients,
	}
	recipe, err := service.NewRecipeService(db).CreateRecipe(context.Background(), authorID, in)
	require.NoError(t, err)
	return recipe
}
