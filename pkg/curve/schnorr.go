package curve

import "crypto/sha256"

// LocalSig is a single signer's contribution to the aggregate Schnorr
// signature: gamma_i = x_i + e*priv_share, alongside the challenge e it was
// computed against (every honest signer derives the same e independently).
type LocalSig struct {
	GammaI *Scalar
	E      *Scalar
}

// Signature is the aggregate threshold Schnorr signature over a message:
// R is the reconstructed per-round nonce point, S the combined scalar.
type Signature struct {
	R *Point
	S *Scalar
}

// challenge computes e = H(R || Y || m) reduced modulo the group order,
// the Schnorr challenge shared by every participant in a round.
func challenge(r, aggregatePubKey *Point, message [32]byte) *Scalar {
	h := sha256.New()
	rb := r.CompressedBytes()
	yb := aggregatePubKey.CompressedBytes()
	h.Write(rb[:])
	h.Write(yb[:])
	h.Write(message[:])
	return ScalarFromBytes(h.Sum(nil))
}

// Sign produces this node's local signature share for a round. xi and R are
// this node's combined VSS share and reconstructed nonce point for the
// round (see VerifyAndConstructKey); privShare is the node's long-term
// share of the federation's aggregate signing key; aggregatePubKey is the
// federation's aggregate public key.
func Sign(xi *Scalar, r *Point, privShare *Scalar, aggregatePubKey *Point, message [32]byte) LocalSig {
	e := challenge(r, aggregatePubKey, message)
	gammaI := xi.Add(e.Mul(privShare))
	return LocalSig{GammaI: gammaI, E: e}
}

// CombineSignature aggregates T participants' local signatures, keyed by
// their 1-based federation index, into a final signature over r.
func CombineSignature(r *Point, indices []int, gammaByIndex map[int]*Scalar) Signature {
	return Signature{R: r, S: CombineSignatureShares(indices, gammaByIndex)}
}

// Verify checks sig against the federation's aggregate public key and the
// message's sighash: s*G == R + e*Y.
func Verify(sig Signature, aggregatePubKey *Point, message [32]byte) bool {
	e := challenge(sig.R, aggregatePubKey, message)
	lhs := ScalarBaseMult(sig.S)
	rhs := sig.R.Add(aggregatePubKey.ScalarMult(e))
	return lhs.Equal(rhs)
}
