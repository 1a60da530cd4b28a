package federation_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/azuchi/tapyrus-signer/internal/federation"
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

func newSignerIDs(t *testing.T, n int) []wire.SignerID {
	t.Helper()
	ids := make([]wire.SignerID, n)
	for i := 0; i < n; i++ {
		k, err := curve.RandomScalar(rand.Reader)
		require.NoError(t, err)
		pub := curve.ScalarBaseMult(k)
		b := pub.CompressedBytes()
		id, err := wire.NewSignerID(b[:])
		require.NoError(t, err)
		ids[i] = id
	}
	return ids
}

func TestNewSortsSignersAndFindsSelf(t *testing.T) {
	ids := newSignerIDs(t, 4)
	selfKey, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	sharedKey, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	aggPub := curve.ScalarBaseMult(selfKey)

	p, err := federation.New(ids, 3, ids[2], selfKey, sharedKey, aggPub)
	require.NoError(t, err)

	require.Equal(t, wire.SortSignerIDs(ids), p.Signers)
	idx, ok := p.IndexOf(ids[2])
	require.True(t, ok)
	require.Equal(t, idx, p.SelfIndex())
	require.Equal(t, ids[2], p.SelfID)
}

func TestNewRejectsSelfNotAMember(t *testing.T) {
	ids := newSignerIDs(t, 3)
	outsider := newSignerIDs(t, 1)[0]
	key, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	_, err = federation.New(ids, 2, outsider, key, key, curve.ScalarBaseMult(key))
	require.Error(t, err)
}

func TestNewRejectsOutOfRangeThreshold(t *testing.T) {
	ids := newSignerIDs(t, 3)
	key, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)

	_, err = federation.New(ids, 0, ids[0], key, key, curve.ScalarBaseMult(key))
	require.Error(t, err)

	_, err = federation.New(ids, len(ids)+1, ids[0], key, key, curve.ScalarBaseMult(key))
	require.Error(t, err)
}

func TestIsSelfMasterAndSignerAt(t *testing.T) {
	ids := newSignerIDs(t, 5)
	key, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	sorted := wire.SortSignerIDs(ids)

	p, err := federation.New(ids, 3, sorted[1], key, key, curve.ScalarBaseMult(key))
	require.NoError(t, err)

	require.True(t, p.IsSelfMaster(1))
	require.False(t, p.IsSelfMaster(0))
	require.Equal(t, sorted[1], p.SignerAt(1))
}

func TestParticipantsTakesFirstThresholdByIndex(t *testing.T) {
	ids := newSignerIDs(t, 5)
	key, err := curve.RandomScalar(rand.Reader)
	require.NoError(t, err)
	sorted := wire.SortSignerIDs(ids)

	p, err := federation.New(ids, 3, sorted[0], key, key, curve.ScalarBaseMult(key))
	require.NoError(t, err)

	participants := p.Participants()
	require.Len(t, participants, 3)
	for i := 0; i < 3; i++ {
		_, ok := participants[sorted[i]]
		require.True(t, ok, "expected signer %d to be a participant", i)
	}
	for i := 3; i < 5; i++ {
		_, ok := participants[sorted[i]]
		require.False(t, ok, "did not expect signer %d to be a participant", i)
	}
}
