package wire

import (
	"errors"

	"github.com/azuchi/tapyrus-signer/pkg/curve"
)

// ErrMalformedSignature is returned when wire bytes do not decode to a
// valid aggregate signature.
var ErrMalformedSignature = errors.New("wire: malformed signature")

// Signature is the on-wire encoding of an aggregate Schnorr signature: the
// 33-byte compressed nonce point R followed by the 32-byte scalar S. Unlike
// an ECDSA signature this scheme has no ASN.1/DER framing to borrow, so it
// uses the spec's own fallback convention for bare scalars and points.
type Signature curve.Signature

// Bytes returns the 65-byte wire encoding (R || S).
func (s Signature) Bytes() []byte {
	out := make([]byte, 0, 65)
	rb := s.R.CompressedBytes()
	sb := s.S.Bytes()
	out = append(out, rb[:]...)
	out = append(out, sb[:]...)
	return out
}

// SignatureFromBytes decodes a 65-byte wire signature.
func SignatureFromBytes(b []byte) (Signature, error) {
	if len(b) != 65 {
		return Signature{}, ErrMalformedSignature
	}
	r, err := curve.PointFromCompressed(b[:33])
	if err != nil {
		return Signature{}, ErrMalformedSignature
	}
	s := curve.ScalarFromBytes(b[33:])
	return Signature{R: r, S: s}, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s Signature) MarshalBinary() ([]byte, error) {
	return s.Bytes(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Signature) UnmarshalBinary(data []byte) error {
	decoded, err := SignatureFromBytes(data)
	if err != nil {
		return err
	}
	*s = decoded
	return nil
}
