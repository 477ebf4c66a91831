package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/platefeed/backend/internal/models"
	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/testhelpers"
	"github.com/platefeed/backend/internal/types"
)

type recipeFixture struct {
	db      *gorm.DB
	svc     *service.RecipeService
	author  *models.User
	tags    []*models.Tag
	flour   *models.Ingredient
	sugar   *models.Ingredient
	butter  *models.Ingredient
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	db := testhelpers.NewTestDB(t)
	return &recipeFixture{
		db:     db,
		svc:    service.NewRecipeService(db),
		author: testhelpers.CreateTestUser(t, db, "author"),
		tags: []*models.Tag{
			testhelpers.SeedTag(t, db, "Breakfast", "breakfast"),
			testhelpers.SeedTag(t, db, "Dinner", "dinner"),
		},
		flour:  testhelpers.SeedIngredient(t, db, "flour", "g"),
		sugar:  testhelpers.SeedIngredient(t, db, "sugar", "g"),
		butter: testhelpers.SeedIngredient(t, db, "butter", "g"),
	}
}

func (f *recipeFixture) validInput() *types.RecipeInput {
	return &types.RecipeInput{
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		Image:       "/media/recipes/pancakes.jpg",
		CookingTime: 20,
		Tags:        []string{"breakfast"},
		Ingredients: []types.IngredientAmount{
			{ID: f.flour.ID, Amount: 200},
			{ID: f.sugar.ID, Amount: 50},
		},
	}
}

func TestCreateRecipeAndReadBack(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	in := f.validInput()
	in.Tags = []string{"dinner", "breakfast"}
	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, in)
	require.NoError(t, err)
	assert.Equal(t, f.author.ID, recipe.AuthorID)
	assert.Equal(t, "Pancakes", recipe.Name)

	tags, err := f.svc.Tags(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "dinner", tags[0].Slug)
	assert.Equal(t, "breakfast", tags[1].Slug)

	rows, err := f.svc.Ingredients(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "flour", rows[0].Name)
	assert.Equal(t, 200, rows[0].Amount)
	assert.Equal(t, "g", rows[0].MeasurementUnit)
	assert.Equal(t, "sugar", rows[1].Name)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(in *types.RecipeInput)
		field  string
	}{
		{"no tags", func(in *types.RecipeInput) { in.Tags = nil }, "tags"},
		{"duplicate tags", func(in *types.RecipeInput) { in.Tags = []string{"breakfast", "breakfast"} }, "tags"},
		{"unknown tag", func(in *types.RecipeInput) { in.Tags = []string{"brunch"} }, "tags"},
		{"no ingredients", func(in *types.RecipeInput) { in.Ingredients = nil }, "ingredients"},
		{"duplicate ingredient", func(in *types.RecipeInput) {
			in.Ingredients = []types.IngredientAmount{{ID: f.flour.ID, Amount: 1}, {ID: f.flour.ID, Amount: 2}}
		}, "ingredients"},
		{"zero amount", func(in *types.RecipeInput) {
			in.Ingredients = []types.IngredientAmount{{ID: f.flour.ID, Amount: 0}}
		}, "ingredients"},
		{"unknown ingredient", func(in *types.RecipeInput) {
			in.Ingredients = []types.IngredientAmount{{ID: 9999, Amount: 5}}
		}, "ingredients"},
		{"cooking time too low", func(in *types.RecipeInput) { in.CookingTime = 0 }, "cooking_time"},
		{"cooking time too high", func(in *types.RecipeInput) { in.CookingTime = 1441 }, "cooking_time"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := f.validInput()
			tc.mutate(in)

			_, err := f.svc.CreateRecipe(ctx, f.author.ID, in)
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)

			var count int64
			require.NoError(t, f.db.Model(&models.Recipe{}).Count(&count).Error)
			assert.Zero(t, count, "a rejected write must not leave rows behind")
		})
	}
}

func TestUpdateRecipeReplacesAssociations(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.validInput())
	require.NoError(t, err)

	in := f.validInput()
	in.Name = "Crepes"
	in.Tags = []string{"dinner"}
	in.Ingredients = []types.IngredientAmount{{ID: f.butter.ID, Amount: 30}}
	updated, err := f.svc.UpdateRecipe(ctx, f.author.ID, recipe.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "Crepes", updated.Name)
	assert.Equal(t, f.author.ID, updated.AuthorID)

	tags, err := f.svc.Tags(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "dinner", tags[0].Slug)

	rows, err := f.svc.Ingredients(ctx, recipe.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "butter", rows[0].Name)
	assert.Equal(t, 30, rows[0].Amount)
}

func TestUpdateRecipeKeepsImageWhenOmitted(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.validInput())
	require.NoError(t, err)

	in := f.validInput()
	in.Image = ""
	updated, err := f.svc.UpdateRecipe(ctx, f.author.ID, recipe.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "/media/recipes/pancakes.jpg", updated.Image)
}

func TestUpdateRecipeAuthorOnly(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	other := testhelpers.CreateTestUser(t, f.db, "intruder")

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.validInput())
	require.NoError(t, err)

	_, err = f.svc.UpdateRecipe(ctx, other.ID, recipe.ID, f.validInput())
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	err = f.svc.DeleteRecipe(ctx, other.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrPermissionDenied)

	_, err = f.svc.UpdateRecipe(ctx, f.author.ID, 9999, f.validInput())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestDeleteRecipeRemovesOwnedRows(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.validInput())
	require.NoError(t, err)

	favorites := service.NewFavoriteService(f.db)
	_, err = favorites.Add(ctx, f.author.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRecipe(ctx, f.author.ID, recipe.ID))

	_, err = f.svc.GetRecipe(ctx, recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)

	for _, owned := range []interface{}{
		&models.RecipeTag{}, &models.RecipeIngredient{}, &models.Favorite{},
	} {
		var count int64
		require.NoError(t, f.db.Model(owned).Where("recipe_id = ?", recipe.ID).Count(&count).Error)
		assert.Zero(t, count)
	}
}

func TestListRecipesFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	other := testhelpers.CreateTestUser(t, f.db, "other")

	breakfast := testhelpers.SeedRecipe(t, f.db, f.author.ID, "Porridge", []string{"breakfast"},
		[]types.IngredientAmount{{ID: f.flour.ID, Amount: 100}})
	both := testhelpers.SeedRecipe(t, f.db, f.author.ID, "Omelette", []string{"breakfast", "dinner"},
		[]types.IngredientAmount{{ID: f.butter.ID, Amount: 20}})
	dinner := testhelpers.SeedRecipe(t, f.db, other.ID, "Stew", []string{"dinner"},
		[]types.IngredientAmount{{ID: f.sugar.ID, Amount: 10}})

	t.Run("by author", func(t *testing.T) {
		got, err := f.svc.ListRecipes(ctx, &types.RecipeFilter{AuthorID: &other.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, dinner.ID, got[0].ID)
	})

	t.Run("tags match any without duplicates", func(t *testing.T) {
		got, err := f.svc.ListRecipes(ctx, &types.RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}})
		require.NoError(t, err)
		assert.Len(t, got, 3)

		ids := map[uint]int{}
		for _, r := range got {
			ids[r.ID]++
		}
		assert.Equal(t, 1, ids[both.ID], "a recipe matching two tags appears once")
	})

	t.Run("name substring case insensitive", func(t *testing.T) {
		got, err := f.svc.ListRecipes(ctx, &types.RecipeFilter{Name: "PORR"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, breakfast.ID, got[0].ID)
	})

	t.Run("favorited for viewer", func(t *testing.T) {
		favorites := service.NewFavoriteService(f.db)
		_, err := favorites.Add(ctx, other.ID, breakfast.ID)
		require.NoError(t, err)

		tr := true
		got, err := f.svc.ListRecipes(ctx, &types.RecipeFilter{Favorited: &tr, ViewerID: &other.ID})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, breakfast.ID, got[0].ID)
	})

	t.Run("anonymous favorited filter is empty", func(t *testing.T) {
		tr := true
		got, err := f.svc.ListRecipes(ctx, &types.RecipeFilter{Favorited: &tr})
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("anonymous in-cart filter is empty", func(t *testing.T) {
		tr := true
		got, err := f.svc.ListRecipes(ctx, &types.RecipeFilter{InCart: &tr})
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
