package curve

import (
	"github.com/cronokirby/saferith"
)

// groupOrderBytes is n, the order of the secp256k1 group, big-endian.
var groupOrderBytes = []byte{
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF,
	0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFE,
	0xBA, 0xAE, 0xDC, 0xE6, 0xAF, 0x48, 0xA0, 0x3B,
	0xBF, 0xD2, 0x5E, 0x8C, 0xD0, 0x36, 0x41, 0x41,
}

var groupOrderModulus = saferith.ModulusFromBytes(groupOrderBytes)

// natFromScalar converts a Scalar into a saferith.Nat, the representation
// this package uses whenever it needs a modular inverse: the secp256k1
// library's own ModNScalar does not expose one.
func natFromScalar(s *Scalar) *saferith.Nat {
	b := s.Bytes()
	return new(saferith.Nat).SetBytes(b[:])
}

// scalarFromNat converts a reduced saferith.Nat back into a Scalar.
func scalarFromNat(n *saferith.Nat) *Scalar {
	return ScalarFromBytes(n.Bytes())
}

// natFromInt builds a saferith.Nat for a small non-negative index.
func natFromInt(x int) *saferith.Nat {
	return new(saferith.Nat).SetUint64(uint64(x))
}

// LagrangeCoefficient computes λ_i(0) = Π_{j≠i} x_j / (x_j - x_i) mod n for
// the 1-based index self (x_i = self, one of the values in indices) among
// all of indices. This is the
// weight applied to participant self's local signature share when
// combining T shares into the final aggregate Schnorr signature.
func LagrangeCoefficient(indices []int, self int) *Scalar {
	num := natFromInt(1)
	den := natFromInt(1)

	xi := natFromInt(self)
	for _, xj := range indices {
		if xj == self {
			continue
		}
		xjNat := natFromInt(xj)
		num = new(saferith.Nat).ModMul(num, xjNat, groupOrderModulus)

		diff := new(saferith.Nat).ModSub(xjNat, xi, groupOrderModulus)
		den = new(saferith.Nat).ModMul(den, diff, groupOrderModulus)
	}

	denInv := new(saferith.Nat).ModInverse(den, groupOrderModulus)
	coeff := new(saferith.Nat).ModMul(num, denInv, groupOrderModulus)
	return scalarFromNat(coeff)
}

// CombineSignatureShares aggregates each participant's gamma_i (scalar
// signature share, keyed by 1-based index in the same order as indices)
// into the final Schnorr s-value via Lagrange interpolation at x = 0.
func CombineSignatureShares(indices []int, gammaByIndex map[int]*Scalar) *Scalar {
	s := NewScalarFromUint32(0)
	for _, idx := range indices {
		lambda := LagrangeCoefficient(indices, idx)
		s = s.Add(lambda.Mul(gammaByIndex[idx]))
	}
	return s
}
