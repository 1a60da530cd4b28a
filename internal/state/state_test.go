package state_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azuchi/tapyrus-signer/internal/state"
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

func TestMasterBuilderFromPreservesBlockHeight(t *testing.T) {
	m := state.NewMasterBuilder().WithBlockHeight(42).Build()
	require.EqualValues(t, 42, m.BlockHeight)

	// Rebuilding from an existing Master must not reset the height to 0
	// (spec.md's flagged oversight in the original builder).
	again := state.MasterBuilderFrom(m).WithRoundIsDone(true).Build()
	assert.EqualValues(t, 42, again.BlockHeight)
	assert.True(t, again.RoundIsDone)
}

func TestMemberBuilderFromPreservesBlockHeight(t *testing.T) {
	m := state.NewMemberBuilder(2, 42).Build()
	require.EqualValues(t, 42, m.BlockHeight)

	again := state.MemberBuilderFrom(m).WithMasterIndex(3).Build()
	assert.EqualValues(t, 42, again.BlockHeight)
	assert.Equal(t, 3, again.MasterIndex)
}

func TestInsertSharedBlockSecretDoesNotMutatePriorMap(t *testing.T) {
	id1 := signerID(t, 1)
	id2 := signerID(t, 2)

	b := state.NewMasterBuilder().InsertSharedBlockSecret(id1, state.SharedSecretPair{})
	before := b.Build().SharedBlockSecrets
	require.Len(t, before, 1)

	b2 := state.MasterBuilderFrom(b.Build()).InsertSharedBlockSecret(id2, state.SharedSecretPair{})
	after := b2.Build().SharedBlockSecrets

	assert.Len(t, before, 1, "the earlier snapshot must not see the later insert")
	assert.Len(t, after, 2)
}

func TestBlockHeightHelper(t *testing.T) {
	h, ok := state.BlockHeight(state.Joining{})
	assert.False(t, ok)
	assert.Zero(t, h)

	h, ok = state.BlockHeight(state.Idling{BlockHeight: 7})
	assert.True(t, ok)
	assert.EqualValues(t, 7, h)

	h, ok = state.BlockHeight(state.RoundComplete{BlockHeight: 9})
	assert.True(t, ok)
	assert.EqualValues(t, 9, h)
}

func TestZeroScrubsSecretMaterial(t *testing.T) {
	id := signerID(t, 1)
	blockKey, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	share, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	m := state.NewMasterBuilder().
		WithBlockKey(blockKey).
		InsertSharedBlockSecret(id, state.SharedSecretPair{Positive: state.SharedSecret{Share: share}}).
		Build()

	state.Zero(m)

	assert.True(t, blockKey.IsZero())
	assert.True(t, m.SharedBlockSecrets[id].Positive.Share.IsZero())
}

func signerID(t *testing.T, seed uint32) wire.SignerID {
	t.Helper()
	k := curve.NewScalarFromUint32(seed)
	pub := curve.ScalarBaseMult(k)
	b := pub.CompressedBytes()
	id, err := wire.NewSignerID(b[:])
	require.NoError(t, err)
	return id
}
