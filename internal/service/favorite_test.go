package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/backend/internal/service"
)

func TestFavoriteAddRemove(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()
	favorites := service.NewFavoriteService(f.db)

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.validInput())
	require.NoError(t, err)

	added, err := favorites.Add(ctx, f.author.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.Name, added.Name)

	favorited, err := favorites.IsFavorited(ctx, f.author.ID, recipe.ID)
	require.NoError(t, err)
	assert.True(t, favorited)

	_, err = favorites.Add(ctx, f.author.ID, recipe.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)

	_, err = favorites.Add(ctx, f.author.ID, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	require.NoError(t, favorites.Remove(ctx, f.author.ID, recipe.ID))
	assert.ErrorIs(t, favorites.Remove(ctx, f.author.ID, recipe.ID), service.ErrNotFound)

	favorited, err = favorites.IsFavorited(ctx, f.author.ID, recipe.ID)
	require.NoError(t, err)
	assert.False(t, favorited)
}
