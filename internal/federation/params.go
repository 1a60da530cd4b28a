// Package federation holds the immutable, process-lifetime parameters of
// the signer's federation: the ordered signer list, the threshold, and
// this node's own keys. Every processor in internal/round takes a *Params
// explicitly rather than reading a global, so tests can construct an
// arbitrary federation without touching shared state.
package federation

import (
	"fmt"

	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// Params is the federation configuration loaded once at process start by
// the CLI/config layer and never mutated afterward.
type Params struct {
	// Signers is the federation's member list, sorted ascending by
	// compressed public key. A signer's position in this slice is its
	// 0-based index; add one for the 1-based index Lagrange
	// interpolation and Feldman VSS use.
	Signers []wire.SignerID

	// Threshold is T: the minimum number of cooperating signers needed
	// to reconstruct a signature.
	Threshold int

	// SelfID is this node's own SignerID, must appear in Signers.
	SelfID wire.SignerID

	// SelfPrivateKey is this node's long-term secp256k1 signing key,
	// corresponding to SelfID. It is not an input to the threshold
	// scheme; nothing in this module reads it after New stores it.
	SelfPrivateKey *curve.Scalar

	// PrivateSharedKey is this node's long-lived share of the
	// federation's aggregate signing key, produced by the out-of-band
	// createnodevss bootstrap. It is the priv_shared_keys input to
	// curve.Sign every round.
	PrivateSharedKey *curve.Scalar

	// AggregatePublicKey is the federation's aggregate Schnorr public
	// key, used by Members to verify a Completedblock's signature.
	AggregatePublicKey *curve.Point
}

// New validates and builds federation parameters, sorting the signer list
// so federation indices are well-defined regardless of input order.
func New(signers []wire.SignerID, threshold int, selfID wire.SignerID, selfKey, sharedKey *curve.Scalar, aggregatePub *curve.Point) (*Params, error) {
	if threshold < 1 || threshold > len(signers) {
		return nil, fmt.Errorf("federation: threshold %d out of range for %d signers", threshold, len(signers))
	}
	sorted := wire.SortSignerIDs(signers)
	p := &Params{
		Signers:            sorted,
		Threshold:          threshold,
		SelfID:             selfID,
		SelfPrivateKey:     selfKey,
		PrivateSharedKey:   sharedKey,
		AggregatePublicKey: aggregatePub,
	}
	if _, ok := p.IndexOf(selfID); !ok {
		return nil, fmt.Errorf("federation: self id is not a federation member")
	}
	return p, nil
}

// N returns the federation size.
func (p *Params) N() int {
	return len(p.Signers)
}

// IndexOf returns id's 0-based federation index.
func (p *Params) IndexOf(id wire.SignerID) (int, bool) {
	for i, s := range p.Signers {
		if s.Equal(id) {
			return i, true
		}
	}
	return 0, false
}

// SelfIndex returns this node's 0-based federation index.
func (p *Params) SelfIndex() int {
	idx, _ := p.IndexOf(p.SelfID)
	return idx
}

// SignerAt returns the signer at 0-based index i.
func (p *Params) SignerAt(i int) wire.SignerID {
	return p.Signers[i]
}

// IsSelfMaster reports whether this node is Master for the given 0-based
// master index.
func (p *Params) IsSelfMaster(masterIndex int) bool {
	return masterIndex == p.SelfIndex()
}

// Participants returns the federation subset declared for a round: the
// first Threshold members in index order. The spec leaves the margin
// above T ("T+epsilon") policy-defined; this implementation takes
// epsilon=0 (see DESIGN.md).
func (p *Params) Participants() map[wire.SignerID]struct{} {
	out := make(map[wire.SignerID]struct{}, p.Threshold)
	for i := 0; i < p.Threshold && i < len(p.Signers); i++ {
		out[p.Signers[i]] = struct{}{}
	}
	return out
}
