package curve

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrInvalidPoint is returned when a compressed point encoding does not
// decode to a valid secp256k1 curve point.
var ErrInvalidPoint = errors.New("curve: invalid compressed point")

// Point is a secp256k1 curve point, represented internally in Jacobian
// coordinates so repeated additions in VSS reconstruction stay cheap.
type Point struct {
	j secp256k1.JacobianPoint
}

// Identity returns the point at infinity.
func Identity() *Point {
	p := &Point{}
	p.j.X.SetInt(0)
	p.j.Y.SetInt(0)
	p.j.Z.SetInt(0)
	return p
}

// ScalarBaseMult returns s*G.
func ScalarBaseMult(s *Scalar) *Point {
	p := &Point{}
	secp256k1.ScalarBaseMultNonConst(s.modNScalar(), &p.j)
	return p
}

// ScalarMult returns s*P.
func (p *Point) ScalarMult(s *Scalar) *Point {
	r := &Point{}
	affine := p.j
	affine.ToAffine()
	secp256k1.ScalarMultNonConst(s.modNScalar(), &affine, &r.j)
	return r
}

// Add returns p+o.
func (p *Point) Add(o *Point) *Point {
	r := &Point{}
	secp256k1.AddNonConst(&p.j, &o.j, &r.j)
	return r
}

// IsIdentity reports whether p is the point at infinity.
func (p *Point) IsIdentity() bool {
	affine := p.j
	affine.ToAffine()
	return affine.X.IsZero() && affine.Y.IsZero()
}

// affinePubKey converts to the library's affine PublicKey representation.
func (p *Point) affinePubKey() *secp256k1.PublicKey {
	affine := p.j
	affine.ToAffine()
	x := affine.X
	y := affine.Y
	return secp256k1.NewPublicKey(&x, &y)
}

// CompressedBytes returns the 33-byte compressed encoding of p.
func (p *Point) CompressedBytes() [33]byte {
	var out [33]byte
	copy(out[:], p.affinePubKey().SerializeCompressed())
	return out
}

// YBigEndian returns the 32-byte big-endian encoding of the affine
// y-coordinate, the input to the Jacobi-symbol branch selection.
func (p *Point) YBigEndian() [32]byte {
	affine := p.j
	affine.ToAffine()
	return affine.Y.Bytes()
}

// PointFromCompressed decodes a 33-byte compressed secp256k1 point.
func PointFromCompressed(b []byte) (*Point, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, ErrInvalidPoint
	}
	p := &Point{}
	pub.AsJacobian(&p.j)
	return p, nil
}

// Equal reports whether p and o represent the same curve point.
func (p *Point) Equal(o *Point) bool {
	return p.CompressedBytes() == o.CompressedBytes()
}

// MarshalBinary implements encoding.BinaryMarshaler, used by the CBOR wire
// codec to serialize points as 33-byte compressed strings.
func (p *Point) MarshalBinary() ([]byte, error) {
	b := p.CompressedBytes()
	return b[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Point) UnmarshalBinary(data []byte) error {
	decoded, err := PointFromCompressed(data)
	if err != nil {
		return err
	}
	*p = *decoded
	return nil
}
