// Package state defines NodeState, the round-generation state machine's
// tagged variant type, and its builders. Values are immutable by
// construction: every processor in internal/round produces a fresh
// NodeState rather than mutating one in place.
package state

import (
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// SharedSecret is one sender's contribution to a round's joint VSS: the
// Feldman commitment polynomial and the share addressed to this node.
type SharedSecret struct {
	VSS   []*curve.Point
	Share *curve.Scalar
}

// SharedSecretPair holds the parallel positive/negative VSS a sender
// contributes each round; exactly one branch is used, chosen by the
// Jacobi symbol of the reconstructed group element's y-coordinate.
type SharedSecretPair struct {
	Positive SharedSecret
	Negative SharedSecret
}

// BlockSharedKeys is the per-round combined key material derived once all
// participants' VSSs have arrived: which branch was selected, this node's
// combined share x_i, and the reconstructed group element Y.
type BlockSharedKeys struct {
	IsPositive bool
	Xi         *curve.Scalar
	Y          *curve.Point
}

// LocalSig is a sender's local Schnorr signature contribution, as received
// in a Blocksig message.
type LocalSig struct {
	GammaI *curve.Scalar
	E      *curve.Scalar
}

// NodeState is the tagged union of the five round states in spec.md §3.
// Exactly one concrete type is active at a time; type-switch on the
// interface to inspect which.
type NodeState interface {
	// isNodeState restricts implementers to this package's five variants.
	isNodeState()
}

// Joining is the initial state: the node is waiting to learn the current
// block height from the RPC collaborator.
type Joining struct{}

func (Joining) isNodeState() {}

// Idling means the node is not participating this round (e.g. not yet a
// federation member at this height).
type Idling struct {
	BlockHeight uint64
}

func (Idling) isNodeState() {}

// Master is the state of the node elected to propose and finalize a
// block this round.
type Master struct {
	BlockKey           *curve.Scalar
	SharedBlockSecrets map[wire.SignerID]SharedSecretPair
	BlockSharedKeys    *BlockSharedKeys
	CandidateBlock     *wire.Block
	Signatures         map[wire.SignerID]LocalSig
	Participants       map[wire.SignerID]struct{}
	RoundIsDone        bool
	BlockHeight        uint64
}

func (Master) isNodeState() {}

// Member is the state of every non-Master node this round.
type Member struct {
	BlockKey           *curve.Scalar
	SharedBlockSecrets map[wire.SignerID]SharedSecretPair
	BlockSharedKeys    *BlockSharedKeys
	CandidateBlock     *wire.Block
	Participants       map[wire.SignerID]struct{}
	MasterIndex        int
	BlockHeight        uint64
}

func (Member) isNodeState() {}

// RoundComplete marks the end of a round, successful or not, and carries
// the information the driver needs to start the next one.
type RoundComplete struct {
	MasterIndex     int
	NextMasterIndex int
	BlockHeight     uint64
	// Err is set when the round ended in failure (timeout, Roundfailure,
	// VSS/signature verification failure). Nil means a clean completion.
	Err error
}

func (RoundComplete) isNodeState() {}

// BlockHeight returns the block height carried by any state that has one.
// Joining has none; callers must check the type first (mirrors the
// original's "unreachable!()" on Joining, but as a typed false rather
// than a panic).
func BlockHeight(s NodeState) (uint64, bool) {
	switch v := s.(type) {
	case Idling:
		return v.BlockHeight, true
	case Master:
		return v.BlockHeight, true
	case Member:
		return v.BlockHeight, true
	case RoundComplete:
		return v.BlockHeight, true
	default:
		return 0, false
	}
}

// Zero scrubs the secret material (BlockKey and every stored share) out of
// a state that is about to be discarded. The driver calls it on the last
// Master/Member state of a round once that round reaches RoundComplete,
// and ProcessRoundFailure calls it on the state it replaces. It must not
// be called on a state whose successor is still live: builders share the
// BlockKey and share pointers between successive states of a round.
func Zero(s NodeState) {
	switch v := s.(type) {
	case Master:
		zeroBlockKeyAndShares(v.BlockKey, v.SharedBlockSecrets)
	case Member:
		zeroBlockKeyAndShares(v.BlockKey, v.SharedBlockSecrets)
	}
}

func zeroBlockKeyAndShares(blockKey *curve.Scalar, secrets map[wire.SignerID]SharedSecretPair) {
	if blockKey != nil {
		blockKey.Zero()
	}
	for _, pair := range secrets {
		if pair.Positive.Share != nil {
			pair.Positive.Share.Zero()
		}
		if pair.Negative.Share != nil {
			pair.Negative.Share.Zero()
		}
	}
}
