package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/testhelpers"
)

func TestFollowLifecycle(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()
	follows := service.NewFollowService(db)

	reader := testhelpers.CreateTestUser(t, db, "reader")
	author := testhelpers.CreateTestUser(t, db, "writer")

	followed, err := follows.Follow(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.Equal(t, author.ID, followed.ID)

	following, err := follows.IsFollowing(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, following)

	// Follows are directed: the author does not follow back.
	reverse, err := follows.IsFollowing(ctx, author.ID, reader.ID)
	require.NoError(t, err)
	assert.False(t, reverse)

	authors, err := follows.Following(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, authors, 1)
	assert.Equal(t, author.ID, authors[0].ID)

	require.NoError(t, follows.Unfollow(ctx, reader.ID, author.ID))
	assert.ErrorIs(t, follows.Unfollow(ctx, reader.ID, author.ID), service.ErrNotFound)
}

func TestFollowRejections(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()
	follows := service.NewFollowService(db)

	reader := testhelpers.CreateTestUser(t, db, "reader")
	author := testhelpers.CreateTestUser(t, db, "writer")

	_, err := follows.Follow(ctx, reader.ID, reader.ID)
	assert.ErrorIs(t, err, service.ErrSelfFollow)

	_, err = follows.Follow(ctx, reader.ID, 9999)
	assert.ErrorIs(t, err, service.ErrNotFound)

	_, err = follows.Follow(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	_, err = follows.Follow(ctx, reader.ID, author.ID)
	assert.ErrorIs(t, err, service.ErrAlreadyExists)
}
