package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yaqa/yaqa/internal/ctxkeys"
	"github.com/yaqa/yaqa/internal/model"
	"github.com/yaqa/yaqa/internal/validation"
	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	u, err := env.users.Register(ctx, RegisterRequest{
		Username:  "alice",
		Password:  "correct horse battery",
		FirstName: " Alice ",
		Email:     "Alice@Example.com",
	})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "Alice", u.FirstName)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse battery")))

	_, err = env.users.Register(ctx, RegisterRequest{Username: "alice", Password: "another good one"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	_, err = env.users.Register(ctx, RegisterRequest{Username: "b", Password: "correct horse battery"})
	var vErr validation.Error
	assert.ErrorAs(t, err, &vErr)
}

func TestRegisterUsesFreshSalt(t *testing.T) {
	env := newTestEnv(t)
	a := env.register(t, "alice")
	b := env.register(t, "bobby")

	assert.NotEqual(t, a.PasswordHash, b.PasswordHash)
}

func TestRegisterClosed(t *testing.T) {
	env := newTestEnv(t)
	closed := NewUserService(env.store, nil, false)

	_, err := closed.Register(context.Background(), RegisterRequest{Username: "alice", Password: "correct horse battery"})
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestCurrent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	_, err := env.users.Current(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	got, err := env.users.Current(ctxkeys.WithPrincipal(ctx, "alice"))
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = env.users.Current(ctxkeys.WithPrincipal(ctx, "ghost"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateProfileAvatar(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")
	first := env.upload(t, alice)
	second := env.upload(t, alice)

	name := "Alice"
	profile, err := env.users.UpdateProfile(ctx, alice, UpdateProfileRequest{FirstName: &name, AvatarImageID: &first})
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.DisplayName)
	require.NotNil(t, profile.AvatarImageID)
	assert.Equal(t, first, *profile.AvatarImageID)

	profile, err = env.users.UpdateProfile(ctx, alice, UpdateProfileRequest{AvatarImageID: &second})
	require.NoError(t, err)
	assert.Equal(t, second, *profile.AvatarImageID)
	assert.Equal(t, "Alice", profile.FirstName)

	old, err := env.store.Repos().Images.ByID(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, model.ImageOwnerNone, old.Owner())

	var none int64
	profile, err = env.users.UpdateProfile(ctx, alice, UpdateProfileRequest{AvatarImageID: &none})
	require.NoError(t, err)
	assert.Nil(t, profile.AvatarImageID)

	missing := int64(999)
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileRequest{AvatarImageID: &missing})
	assert.ErrorIs(t, err, ErrInvalidImageID)

	bad := "nope"
	_, err = env.users.UpdateProfile(ctx, alice, UpdateProfileRequest{Email: &bad})
	var vErr validation.Error
	assert.ErrorAs(t, err, &vErr)
}

func TestSubscriptions(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	alice := env.register(t, "alice")

	profile, err := env.users.Subscribe(ctx, alice, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, profile.SubscribedTags)

	profile, err = env.users.Subscribe(ctx, alice, "go")
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, profile.SubscribedTags)

	profile, err = env.users.Unsubscribe(ctx, alice, "go")
	require.NoError(t, err)
	assert.Empty(t, profile.SubscribedTags)

	_, err = env.users.Unsubscribe(ctx, alice, "rust")
	assert.ErrorIs(t, err, ErrNotFound)
}
