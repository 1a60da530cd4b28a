package curve

import (
	"errors"
	"io"
)

// ErrVSSVerification is returned by VerifyAndConstructKey when a share does
// not match its own commitment polynomial.
var ErrVSSVerification = errors.New("curve: share does not match commitment")

// Share runs Feldman's verifiable secret sharing: it builds a random
// polynomial of degree t-1 whose constant term is secret, evaluates it at
// x = 1..n, and returns both the per-coefficient commitments (t points) and
// the n shares.
func Share(secret *Scalar, n, t int, r io.Reader) (commitments []*Point, shares []*Scalar, err error) {
	if t < 1 || t > n {
		return nil, nil, errors.New("curve: threshold must satisfy 1 <= t <= n")
	}

	coeffs := make([]*Scalar, t)
	coeffs[0] = secret
	for i := 1; i < t; i++ {
		c, err := RandomScalar(r)
		if err != nil {
			return nil, nil, err
		}
		coeffs[i] = c
	}

	commitments = make([]*Point, t)
	for i, c := range coeffs {
		commitments[i] = ScalarBaseMult(c)
	}

	shares = make([]*Scalar, n)
	for j := 1; j <= n; j++ {
		shares[j-1] = evaluate(coeffs, j)
	}
	return commitments, shares, nil
}

// evaluate computes Σ coeffs[k] * x^k using Horner's method.
func evaluate(coeffs []*Scalar, x int) *Scalar {
	xs := NewScalarFromUint32(uint32(x))
	acc := NewScalarFromUint32(0)
	for i := len(coeffs) - 1; i >= 0; i-- {
		acc = acc.Mul(xs).Add(coeffs[i])
	}
	return acc
}

// commitmentValue computes Σ commitments[k] * x^k, the public counterpart
// of evaluate, used to check a share against its commitments.
func commitmentValue(commitments []*Point, x int) *Point {
	xs := NewScalarFromUint32(uint32(x))
	acc := Identity()
	for i := len(commitments) - 1; i >= 0; i-- {
		acc = acc.ScalarMult(xs).Add(commitments[i])
	}
	return acc
}

// VerifyShare reports whether share is consistent with commitments at the
// given 1-based index: G*share == Σ commitments[k] * index^k.
func VerifyShare(commitments []*Point, index int, share *Scalar) bool {
	lhs := ScalarBaseMult(share)
	rhs := commitmentValue(commitments, index)
	return lhs.Equal(rhs)
}

// VSSEntry is one sender's contribution to a joint VSS round: the
// commitment polynomial it published plus the share it sent this node.
type VSSEntry struct {
	Commitments []*Point
	Share       *Scalar
}

// VerifyAndConstructKey verifies every entry's share against its own
// commitments at selfIndex, then aggregates: x_i is the sum of the
// individual shares (this node's combined share of the joint secret), and Y
// is the sum of the senders' constant-term commitments (the reconstructed
// group element for the joint secret). On the first verification failure it
// returns ErrVSSVerification and the offending entry's position in entries.
// A reconstructed Y at the point at infinity means the entries summed to a
// zero joint secret, which is never legitimate for a live federation key,
// so that also fails verification.
func VerifyAndConstructKey(entries []VSSEntry, selfIndex int) (xi *Scalar, y *Point, badIndex int, err error) {
	xi = NewScalarFromUint32(0)
	y = Identity()
	for i, e := range entries {
		if !VerifyShare(e.Commitments, selfIndex, e.Share) {
			return nil, nil, i, ErrVSSVerification
		}
		xi = xi.Add(e.Share)
		y = y.Add(e.Commitments[0])
	}
	if y.IsIdentity() {
		return nil, nil, -1, ErrVSSVerification
	}
	return xi, y, -1, nil
}
