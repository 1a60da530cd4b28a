package curve

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarRoundTrip(t *testing.T) {
	s, err := RandomScalar(rand.Reader)
	require.NoError(t, err)
	b := s.Bytes()
	require.True(t, s.Equal(ScalarFromBytes(b[:])))
}

func TestScalarArithmetic(t *testing.T) {
	a := NewScalarFromUint32(3)
	b := NewScalarFromUint32(4)
	require.True(t, a.Add(b).Equal(NewScalarFromUint32(7)))
	require.True(t, a.Mul(b).Equal(NewScalarFromUint32(12)))
	require.True(t, a.Add(a.Negate()).IsZero())
}
