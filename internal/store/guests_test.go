package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestAddGuest_UpperCasesUserID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := s.AddGuest(ctx, " guest01 ", "os=rhel9", "first")
	require.NoError(t, err)
	assert.Equal(t, "id-1", g.ID)
	assert.Equal(t, "GUEST01", g.UserID)

	byID, err := s.GuestByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, g, byID)

	byUser, err := s.GuestByUserID(ctx, "Guest01")
	require.NoError(t, err)
	assert.Equal(t, "os=rhel9", byUser.Metadata)
}

func TestAddGuest_Duplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.AddGuest(ctx, "guest01", "", "")
	require.NoError(t, err)

	_, err = s.AddGuest(ctx, "GUEST01", "", "")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestAddGuest_EmptyUserID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.AddGuest(context.Background(), "  ", "", "")
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestGuestLookup_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.GuestByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.GuestByUserID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListGuests_Ordered(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, u := range []string{"zeta", "alpha", "mid"} {
		_, err := s.AddGuest(ctx, u, "", "")
		require.NoError(t, err)
	}

	guests, err := s.ListGuests(ctx)
	require.NoError(t, err)
	require.Len(t, guests, 3)
	assert.Equal(t, "ALPHA", guests[0].UserID)
	assert.Equal(t, "MID", guests[1].UserID)
	assert.Equal(t, "ZETA", guests[2].UserID)
}

func TestUpdateGuest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := s.AddGuest(ctx, "guest01", "old", "keep")
	require.NoError(t, err)

	require.NoError(t, s.UpdateGuestByUserID(ctx, "guest01", GuestUpdate{Metadata: strPtr("new")}))

	got, err := s.GuestByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Metadata)
	assert.Equal(t, "keep", got.Comments)

	require.NoError(t, s.UpdateGuestByID(ctx, g.ID, GuestUpdate{UserID: strPtr("guest02")}))

	got, err = s.GuestByID(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "GUEST02", got.UserID)
}

func TestUpdateGuest_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := s.AddGuest(ctx, "guest01", "", "")
	require.NoError(t, err)

	assert.ErrorIs(t, s.UpdateGuestByID(ctx, g.ID, GuestUpdate{}), ErrNoFields)
	assert.ErrorIs(t, s.UpdateGuestByID(ctx, "missing", GuestUpdate{Comments: strPtr("x")}), ErrNotFound)
	assert.ErrorIs(t, s.UpdateGuestByID(ctx, g.ID, GuestUpdate{UserID: strPtr(" ")}), ErrInvalid)
}

func TestDeleteGuest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g1, err := s.AddGuest(ctx, "guest01", "", "")
	require.NoError(t, err)
	_, err = s.AddGuest(ctx, "guest02", "", "")
	require.NoError(t, err)

	require.NoError(t, s.DeleteGuestByID(ctx, g1.ID))
	require.NoError(t, s.DeleteGuestByUserID(ctx, "guest02"))

	guests, err := s.ListGuests(ctx)
	require.NoError(t, err)
	assert.Empty(t, guests)

	assert.ErrorIs(t, s.DeleteGuestByUserID(ctx, "guest02"), ErrNotFound)

	_, err = s.GuestByID(ctx, g1.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	var deleted int
	require.NoError(t, s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM guests WHERE deleted = 1 AND deleted_at IS NOT NULL`).Scan(&deleted))
	assert.Equal(t, 2, deleted)

	// A deleted user ID can be recorded again.
	_, err = s.AddGuest(ctx, "guest01", "", "")
	assert.NoError(t, err)
}

func TestUpdateGuest_UserIDCollision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	g, err := s.AddGuest(ctx, "guest01", "", "")
	require.NoError(t, err)
	_, err = s.AddGuest(ctx, "guest02", "", "")
	require.NoError(t, err)

	err = s.UpdateGuestByID(ctx, g.ID, GuestUpdate{UserID: strPtr("GUEST02")})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	require.NoError(t, s.UpdateGuestByID(ctx, g.ID, GuestUpdate{UserID: strPtr("guest01")}))
}
