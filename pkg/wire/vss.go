package wire

import (
	"errors"

	"github.com/azuchi/tapyrus-signer/pkg/curve"
)

// ErrMalformedVSS is returned when a decoded VSS commitment list or share
// does not parse as valid curve elements.
var ErrMalformedVSS = errors.New("wire: malformed vss payload")

// VSS is one sender's Feldman VSS contribution: the T-coefficient
// commitment polynomial and the share addressed to this node.
type VSS struct {
	Commitments []*curve.Point
	Share       *curve.Scalar
}

type wireVSS struct {
	Commitments [][]byte
	Share       []byte
}

func (v VSS) toWire() (wireVSS, error) {
	w := wireVSS{Commitments: make([][]byte, len(v.Commitments))}
	for i, c := range v.Commitments {
		b, err := c.MarshalBinary()
		if err != nil {
			return wireVSS{}, err
		}
		w.Commitments[i] = b
	}
	b, err := v.Share.MarshalBinary()
	if err != nil {
		return wireVSS{}, err
	}
	w.Share = b
	return w, nil
}

func (w wireVSS) toVSS() (VSS, error) {
	v := VSS{Commitments: make([]*curve.Point, len(w.Commitments))}
	for i, b := range w.Commitments {
		p := &curve.Point{}
		if err := p.UnmarshalBinary(b); err != nil {
			return VSS{}, ErrMalformedVSS
		}
		v.Commitments[i] = p
	}
	s := &curve.Scalar{}
	if err := s.UnmarshalBinary(w.Share); err != nil {
		return VSS{}, ErrMalformedVSS
	}
	v.Share = s
	return v, nil
}

// EncodeVSS serializes a VSS to its canonical CBOR form, the VSSBLOB half
// of the createnodevss CLI's "PUBKEY:VSSBLOB" output lines (spec.md §6).
func EncodeVSS(v VSS) ([]byte, error) {
	return v.MarshalCBOR()
}

// DecodeVSS parses a VSSBLOB produced by EncodeVSS.
func DecodeVSS(data []byte) (VSS, error) {
	var v VSS
	if err := v.UnmarshalCBOR(data); err != nil {
		return VSS{}, err
	}
	return v, nil
}

// MarshalCBOR implements cbor.Marshaler.
func (v VSS) MarshalCBOR() ([]byte, error) {
	w, err := v.toWire()
	if err != nil {
		return nil, err
	}
	return cborMarshal(w)
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (v *VSS) UnmarshalCBOR(data []byte) error {
	var w wireVSS
	if err := cborUnmarshal(data, &w); err != nil {
		return err
	}
	decoded, err := w.toVSS()
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}
