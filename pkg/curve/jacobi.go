package curve

import "math/big"

// FieldPrime is p = 2^256 - 2^32 - 977, the secp256k1 field modulus. Jacobi
// symbols in this package are always taken with respect to this prime,
// never the group order n.
var FieldPrime = func() *big.Int {
	p, ok := new(big.Int).SetString(
		"FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEFFFFFC2F", 16)
	if !ok {
		panic("curve: invalid field prime constant")
	}
	return p
}()

// Jacobi computes the Jacobi symbol (n/p) for an odd positive p, returning
// one of -1, 0, +1. It is used to canonicalize which of a pair of VSS
// branches ("positive"/"negative") a signer adopts for a round: the branch
// whose combined y-coordinate has Jacobi symbol +1 wins. A thin wrapper
// over math/big.Jacobi so callers in this package can keep referring to it
// as the Jacobi symbol rather than big.Int arithmetic.
func Jacobi(n, p *big.Int) int {
	if p.Sign() <= 0 || p.Bit(0) == 0 {
		panic("curve: Jacobi symbol requires an odd positive modulus")
	}
	return big.Jacobi(n, p)
}

// JacobiOfY reports whether the affine y-coordinate of p has Jacobi symbol
// +1 modulo the secp256k1 field prime.
func JacobiOfY(p *Point) bool {
	y := p.YBigEndian()
	yInt := new(big.Int).SetBytes(y[:])
	return Jacobi(yInt, FieldPrime) == 1
}
