package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platefeed/backend/internal/service"
	"github.com/platefeed/backend/internal/testhelpers"
)

func TestRegisterAndLogin(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()
	auth := testhelpers.NewTestAuthService(db)

	token, err := auth.Register(ctx, "cook@example.com", "cook", "Carla", "Cook", "supersecret")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "cook", claims.Username)
	assert.NotZero(t, claims.UserID)

	token, err = auth.Login(ctx, "cook@example.com", "supersecret")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	_, err = auth.Login(ctx, "cook@example.com", "wrongpassword")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = auth.Login(ctx, "nobody@example.com", "supersecret")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestRegisterDuplicates(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()
	auth := testhelpers.NewTestAuthService(db)

	_, err := auth.Register(ctx, "cook@example.com", "cook", "Carla", "Cook", "supersecret")
	require.NoError(t, err)

	var verr *service.ValidationError
	_, err = auth.Register(ctx, "cook@example.com", "othername", "", "", "supersecret")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "email", verr.Field)

	_, err = auth.Register(ctx, "other@example.com", "cook", "", "", "supersecret")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "username", verr.Field)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	auth := testhelpers.NewTestAuthService(db)

	_, err := auth.ValidateToken("not-a-token")
	assert.Error(t, err)

	other := service.NewAuthService(db, nil, "some-other-secret")
	_, token := testhelpers.CreateTestUserAndToken(t, db, other, "cook")
	_, err = auth.ValidateToken(token)
	assert.Error(t, err, "tokens signed with another secret must fail")
}

func TestLogoutWithoutRedisIsNoop(t *testing.T) {
	db := testhelpers.NewTestDB(t)
	ctx := context.Background()
	auth := testhelpers.NewTestAuthService(db)

	_, token := testhelpers.CreateTestUserAndToken(t, db, auth, "cook")
	require.NoError(t, auth.Logout(ctx, token))

	// Without a denylist the token stays valid until it expires.
	_, err := auth.ValidateToken(token)
	assert.NoError(t, err)

	assert.ErrorIs(t, auth.Logout(ctx, "not-a-token"), service.ErrInvalidToken)
}
