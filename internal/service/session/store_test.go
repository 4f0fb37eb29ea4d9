package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/ai-astrologer/backend/internal/model/astro"
	"github.com/zhouzirui/ai-astrologer/backend/internal/service/session"
)

func TestStoreGetSession(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()

	sess := store.Create(ctx)
	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)

	assert.Equal(t, sess.ID, got.ID)
	assert.False(t, got.HasProfile)
	assert.Equal(t, 1, store.Len())
}

func TestStoreGetSessionNotFound(t *testing.T) {
	store := session.NewStore()

	_, err := store.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))

	_, _, err = store.Profile(context.Background(), "missing")
	assert.True(t, errors.Is(err, session.ErrSessionNotFound))

	assert.True(t, errors.Is(store.SetProfile(context.Background(), "missing", "x"), session.ErrSessionNotFound))
}

func TestProfileAbsentUntilSet(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess := store.Create(ctx)

	text, ok, err := store.Profile(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, text)
}

func TestSetProfileRoundTripsExactValue(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess := store.Create(ctx)

	for _, value := range []string{"", "P", "  padded\n", "Key Themes: {x}"} {
		require.NoError(t, store.SetProfile(ctx, sess.ID, value))

		text, ok, err := store.Profile(ctx, sess.ID)
		require.NoError(t, err)
		assert.True(t, ok, "empty profile must still count as present")
		assert.Equal(t, value, text)
	}
}

func TestSetProfileOverwritesPrevious(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess := store.Create(ctx)

	require.NoError(t, store.SetProfile(ctx, sess.ID, "first"))
	require.NoError(t, store.SetProfile(ctx, sess.ID, "second"))

	text, _, err := store.Profile(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", text)
}

func TestSessionsAreIsolated(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	a := store.Create(ctx)
	b := store.Create(ctx)

	require.NoError(t, store.SetProfile(ctx, a.ID, "A"))

	_, ok, err := store.Profile(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSetDetails(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess := store.Create(ctx)

	require.NoError(t, store.SetDetails(ctx, sess.ID, astro.DefaultBirthDetails()))

	got, err := store.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "2004-05-25", got.Details.DOB())
}

func TestBeginCallRejectsConcurrentCall(t *testing.T) {
	store := session.NewStore()
	ctx := context.Background()
	sess := store.Create(ctx)

	require.NoError(t, store.BeginCall(ctx, sess.ID))
	assert.True(t, errors.Is(store.BeginCall(ctx, sess.ID), session.ErrBusy))

	got, _ := store.Get(ctx, sess.ID)
	assert.True(t, got.Pending)

	store.EndCall(ctx, sess.ID)
	require.NoError(t, store.BeginCall(ctx, sess.ID))
}
