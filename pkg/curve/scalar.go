// Package curve wraps secp256k1 scalar and point arithmetic for the
// signing engine: Feldman VSS, Jacobi-symbol branch selection, threshold
// Schnorr signing, and Lagrange interpolation all live here.
package curve

import (
	"crypto/rand"
	"errors"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrMalformedScalar is returned by UnmarshalBinary when its input is not
// exactly 32 bytes long. Values at or above the group order are reduced,
// and zero is accepted.
var ErrMalformedScalar = errors.New("curve: malformed scalar")

// Scalar is an element of Z_n, where n is the order of the secp256k1 group.
type Scalar struct {
	v secp256k1.ModNScalar
}

// NewScalarFromUint32 builds a small scalar, mostly useful for indices.
func NewScalarFromUint32(x uint32) *Scalar {
	s := &Scalar{}
	s.v.SetInt(x)
	return s
}

// ScalarFromBytes reduces a 32-byte big-endian value modulo the group order.
func ScalarFromBytes(b []byte) *Scalar {
	s := &Scalar{}
	s.v.SetByteSlice(b)
	return s
}

// RandomScalar samples a uniformly random nonzero scalar.
func RandomScalar(r io.Reader) (*Scalar, error) {
	if r == nil {
		r = rand.Reader
	}
	for {
		var buf [32]byte
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return nil, err
		}
		s := &Scalar{}
		overflow := s.v.SetBytes(&buf)
		if overflow == 0 && !s.v.IsZero() {
			return s, nil
		}
	}
}

// Bytes returns the 32-byte big-endian encoding of the scalar.
func (s *Scalar) Bytes() [32]byte {
	return s.v.Bytes()
}

// IsZero reports whether the scalar is the additive identity.
func (s *Scalar) IsZero() bool {
	return s.v.IsZero()
}

// Equal reports whether two scalars are the same element.
func (s *Scalar) Equal(o *Scalar) bool {
	return s.v.Equals(&o.v)
}

// Zero overwrites the scalar's internal representation with zeros. Callers
// use this to scrub round secrets (block_key, secret_share) when a round
// state is discarded, rather than relying on the garbage collector.
func (s *Scalar) Zero() {
	s.v.SetInt(0)
}

// Add returns s + o.
func (s *Scalar) Add(o *Scalar) *Scalar {
	r := &Scalar{}
	r.v.Add2(&s.v, &o.v)
	return r
}

// Negate returns -s.
func (s *Scalar) Negate() *Scalar {
	r := s.v
	r.Negate()
	return &Scalar{v: r}
}

// Mul returns s * o.
func (s *Scalar) Mul(o *Scalar) *Scalar {
	r := &Scalar{}
	r.v.Mul2(&s.v, &o.v)
	return r
}

// modNScalar exposes the underlying library type for use by the rest of
// this package without widening the public API surface.
func (s *Scalar) modNScalar() *secp256k1.ModNScalar {
	return &s.v
}

// MarshalBinary implements encoding.BinaryMarshaler, used by the CBOR wire
// codec to serialize scalars as 32-byte big-endian strings.
func (s *Scalar) MarshalBinary() ([]byte, error) {
	b := s.Bytes()
	return b[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return ErrMalformedScalar
	}
	s.v.SetByteSlice(data)
	return nil
}
