// Package wire defines the messages exchanged between signers and their
// deterministic binary encoding.
package wire

import (
	"bytes"
	"encoding/hex"
	"errors"

	"github.com/azuchi/tapyrus-signer/pkg/curve"
)

// ErrMalformedSignerID is returned when 33 bytes do not decode to a valid
// compressed secp256k1 public key.
var ErrMalformedSignerID = errors.New("wire: malformed signer id")

// SignerID identifies a federation member by its compressed public key.
// SignerIDs order byte-lexicographically over that encoding; this order
// defines each signer's federation index.
type SignerID struct {
	pubkey [33]byte
}

// NewSignerID wraps a 33-byte compressed public key, validating that it
// decodes to a point on secp256k1.
func NewSignerID(compressed []byte) (SignerID, error) {
	if len(compressed) != 33 {
		return SignerID{}, ErrMalformedSignerID
	}
	if _, err := curve.PointFromCompressed(compressed); err != nil {
		return SignerID{}, ErrMalformedSignerID
	}
	var id SignerID
	copy(id.pubkey[:], compressed)
	return id, nil
}

// Bytes returns the 33-byte compressed public key.
func (id SignerID) Bytes() [33]byte {
	return id.pubkey
}

// String renders the hex-encoded public key, used for the
// "tapyrus-signer-<hex>" private channel name and for log output.
func (id SignerID) String() string {
	return hex.EncodeToString(id.pubkey[:])
}

// Compare orders two SignerIDs byte-lexicographically over their compressed
// encoding, the ordering that defines federation indices.
func (id SignerID) Compare(o SignerID) int {
	return bytes.Compare(id.pubkey[:], o.pubkey[:])
}

// Equal reports whether id and o are the same signer.
func (id SignerID) Equal(o SignerID) bool {
	return id.pubkey == o.pubkey
}

// SortSignerIDs returns a copy of ids sorted ascending by compressed
// encoding. The position of a SignerID in the sorted slice is its 0-based
// federation index (add one for the 1-based index Lagrange interpolation
// uses).
func SortSignerIDs(ids []SignerID) []SignerID {
	out := make([]SignerID, len(ids))
	copy(out, ids)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Compare(out[j]) > 0; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (id SignerID) MarshalBinary() ([]byte, error) {
	b := id.pubkey
	return b[:], nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (id *SignerID) UnmarshalBinary(data []byte) error {
	decoded, err := NewSignerID(data)
	if err != nil {
		return err
	}
	*id = decoded
	return nil
}

// MarshalCBOR implements cbor.Marshaler, encoding a SignerID as a CBOR byte
// string holding its compressed public key.
func (id SignerID) MarshalCBOR() ([]byte, error) {
	b := id.pubkey
	return cborMarshal(b[:])
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (id *SignerID) UnmarshalCBOR(data []byte) error {
	var b []byte
	if err := cborUnmarshal(data, &b); err != nil {
		return err
	}
	return id.UnmarshalBinary(b)
}
