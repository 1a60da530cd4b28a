package wire

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/azuchi/tapyrus-signer/pkg/curve"
)

func randomSignerID(t *testing.T, r io.Reader) SignerID {
	t.Helper()
	s, err := curve.RandomScalar(r)
	require.NoError(t, err)
	p := curve.ScalarBaseMult(s)
	b := p.CompressedBytes()
	id, err := NewSignerID(b[:])
	require.NoError(t, err)
	return id
}

func TestSignerIDRejectsBadLength(t *testing.T) {
	_, err := NewSignerID([]byte{0x02, 0x03})
	require.ErrorIs(t, err, ErrMalformedSignerID)
}

func TestSignerIDSortIsLexicographic(t *testing.T) {
	ids := []SignerID{}
	seed := deterministicReader{seed: 1}
	for i := 0; i < 5; i++ {
		ids = append(ids, randomSignerID(t, &seed))
	}
	sorted := SortSignerIDs(ids)
	require.Len(t, sorted, 5)
	for i := 1; i < len(sorted); i++ {
		require.True(t, sorted[i-1].Compare(sorted[i]) < 0)
	}
}

func TestSignerIDCBORRoundTrip(t *testing.T) {
	seed := deterministicReader{seed: 7}
	id := randomSignerID(t, &seed)
	encoded, err := cborMarshal(id)
	require.NoError(t, err)
	var decoded SignerID
	require.NoError(t, cborUnmarshal(encoded, &decoded))
	require.True(t, id.Equal(decoded))
}

// deterministicReader is a minimal non-crypto PRNG used only to drive
// reproducible test fixtures; it is not used anywhere outside _test.go files.
type deterministicReader struct {
	seed uint64
}

func (d *deterministicReader) Read(p []byte) (int, error) {
	for i := range p {
		d.seed = d.seed*6364136223846793005 + 1442695040888963407
		p[i] = byte(d.seed >> 56)
	}
	return len(p), nil
}
