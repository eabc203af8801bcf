package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNIC_CoupleAndUncouple(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddNIC(ctx, "guest01", "1000", "", ""))
	require.NoError(t, s.SetNICSwitch(ctx, "GUEST01", "1000", "XCATVSW2"))

	nics, err := s.NICsForUser(ctx, "guest01")
	require.NoError(t, err)
	require.Len(t, nics, 1)
	assert.Equal(t, NIC{UserID: "GUEST01", Interface: "1000", Switch: "XCATVSW2"}, nics[0])

	require.NoError(t, s.SetNICSwitch(ctx, "guest01", "1000", ""))

	nics, err = s.NICsForUser(ctx, "guest01")
	require.NoError(t, err)
	assert.Empty(t, nics[0].Switch)
}

func TestAddNIC_Errors(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddNIC(ctx, "guest01", "1000", "", ""))
	assert.ErrorIs(t, s.AddNIC(ctx, "guest01", "1000", "", ""), ErrAlreadyExists)
	assert.ErrorIs(t, s.AddNIC(ctx, "", "1000", "", ""), ErrInvalid)
	assert.ErrorIs(t, s.SetNICSwitch(ctx, "guest01", "2000", "VSW"), ErrNotFound)
}

func TestDeleteNICs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddNIC(ctx, "guest01", "1000", "", ""))
	require.NoError(t, s.AddNIC(ctx, "guest01", "2000", "", ""))
	require.NoError(t, s.AddNIC(ctx, "guest02", "1000", "", ""))

	require.NoError(t, s.DeleteNIC(ctx, "guest02", "1000"))
	require.NoError(t, s.DeleteNIC(ctx, "guest02", "1000"))

	all, err := s.ListNICs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, s.DeleteNICsForUser(ctx, "guest01"))

	all, err = s.ListNICs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, s.AddNIC(ctx, "guest01", "1000", "", ""), "deleted NICs free their interface")
}
