// Package round implements the pure message-transition functions of
// spec.md §4.4: given a previous NodeState and an inbound message (or
// timeout), each processor returns the next NodeState and, as a side
// effect through the injected conn.Manager, any outbound messages the
// transition requires. Processors never mutate prev or retain it; every
// call produces a fresh, independent state value.
package round

import (
	"context"

	"go.uber.org/zap"

	"github.com/azuchi/tapyrus-signer/internal/conn"
	"github.com/azuchi/tapyrus-signer/internal/errs"
	"github.com/azuchi/tapyrus-signer/internal/federation"
	"github.com/azuchi/tapyrus-signer/internal/rpc"
	"github.com/azuchi/tapyrus-signer/internal/state"
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// Processor bundles the dependencies every message-transition function
// needs: the federation's immutable parameters, the connection manager
// capability for outbound sends, the RPC collaborator, and a logger.
// Constructing one per round (or once per process, federation params
// permitting) keeps every ProcessX method a small pure function of its
// arguments plus this fixed context, matching spec.md §5's "(state,
// message, params, conman) -> new_state" processor signature.
type Processor struct {
	Params *federation.Params
	Conn   conn.Manager
	RPC    rpc.Client
	Log    *zap.SugaredLogger
}

// generateRoundVSS samples this round's fresh block_key and produces the
// Feldman VSS commitment/share pair for both the positive and negative
// branches (spec.md §4.4.1): a polynomial over block_key for the positive
// branch, and over -block_key for the negative one, each shared across
// the full federation (N = federation size, T = threshold).
func (p *Processor) generateRoundVSS() (blockKey *curve.Scalar, commPos []*curve.Point, sharesPos []*curve.Scalar, commNeg []*curve.Point, sharesNeg []*curve.Scalar, err error) {
	blockKey, err = curve.RandomScalar(nil)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	n, t := p.Params.N(), p.Params.Threshold
	commPos, sharesPos, err = curve.Share(blockKey, n, t, nil)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	commNeg, sharesNeg, err = curve.Share(blockKey.Negate(), n, t, nil)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}
	return blockKey, commPos, sharesPos, commNeg, sharesNeg, nil
}

// distributeBlockVSS sends this node's per-round VSS pair to every other
// participant (point-to-point, spec.md §4.4.1) and returns the entry this
// node keeps for itself, without a network round-trip.
func (p *Processor) distributeBlockVSS(blockHash [32]byte, participants map[wire.SignerID]struct{}, commPos []*curve.Point, sharesPos []*curve.Scalar, commNeg []*curve.Point, sharesNeg []*curve.Scalar) state.SharedSecretPair {
	self := p.Params.SelfID
	var selfPair state.SharedSecretPair
	for id := range participants {
		idx, ok := p.Params.IndexOf(id)
		if !ok {
			continue
		}
		pair := state.SharedSecretPair{
			Positive: state.SharedSecret{VSS: commPos, Share: sharesPos[idx]},
			Negative: state.SharedSecret{VSS: commNeg, Share: sharesNeg[idx]},
		}
		if id.Equal(self) {
			selfPair = pair
			continue
		}
		payload := wire.BlockVSSPayload{
			BlockHash: blockHash,
			VSSPos:    wire.VSS{Commitments: commPos, Share: sharesPos[idx]},
			VSSNeg:    wire.VSS{Commitments: commNeg, Share: sharesNeg[idx]},
		}
		msg, err := wire.NewBlockVSSMessage(self, id, payload)
		if err != nil {
			p.Log.Errorw("failed to build blockvss message", "recipient", id, "error", err)
			continue
		}
		p.Conn.Send(msg)
	}
	return selfPair
}

// insertSecret returns a copy of existing with sender's pair set, so a
// duplicate Blockvss from the same sender overwrites idempotently without
// mutating the map a previous NodeState value is still holding.
func insertSecret(existing map[wire.SignerID]state.SharedSecretPair, sender wire.SignerID, pair state.SharedSecretPair) map[wire.SignerID]state.SharedSecretPair {
	next := make(map[wire.SignerID]state.SharedSecretPair, len(existing)+1)
	for k, v := range existing {
		next[k] = v
	}
	next[sender] = pair
	return next
}

// deriveBlockSharedKeys implements spec.md §4.4.2 steps 1-3: verify and
// aggregate both VSS branches, then pick the one whose Y has Jacobi
// symbol +1.
func (p *Processor) deriveBlockSharedKeys(secrets map[wire.SignerID]state.SharedSecretPair) (*state.BlockSharedKeys, error) {
	selfIndex := p.Params.SelfIndex() + 1 // Lagrange/VSS indices are 1-based.

	entriesPos := make([]curve.VSSEntry, 0, len(secrets))
	entriesNeg := make([]curve.VSSEntry, 0, len(secrets))
	for _, pair := range secrets {
		entriesPos = append(entriesPos, curve.VSSEntry{Commitments: pair.Positive.VSS, Share: pair.Positive.Share})
		entriesNeg = append(entriesNeg, curve.VSSEntry{Commitments: pair.Negative.VSS, Share: pair.Negative.Share})
	}

	xiPos, yPos, _, err := curve.VerifyAndConstructKey(entriesPos, selfIndex)
	if err != nil {
		return nil, errs.Wrap(errs.ErrVssVerification, "positive branch")
	}
	xiNeg, yNeg, _, err := curve.VerifyAndConstructKey(entriesNeg, selfIndex)
	if err != nil {
		return nil, errs.Wrap(errs.ErrVssVerification, "negative branch")
	}

	if curve.JacobiOfY(yPos) {
		return &state.BlockSharedKeys{IsPositive: true, Xi: xiPos, Y: yPos}, nil
	}
	return &state.BlockSharedKeys{IsPositive: false, Xi: xiNeg, Y: yNeg}, nil
}

// broadcastLocalSig implements spec.md §4.4.2 steps 4-5: sign the
// candidate block's sighash with the node's combined share and broadcast
// the contribution.
func (p *Processor) broadcastLocalSig(block wire.Block, keys *state.BlockSharedKeys) {
	localSig := curve.Sign(keys.Xi, keys.Y, p.Params.PrivateSharedKey, p.Params.AggregatePublicKey, block.Sighash())
	gammaBytes, err := localSig.GammaI.MarshalBinary()
	if err != nil {
		p.Log.Errorw("failed to encode local signature", "error", err)
		return
	}
	eBytes, err := localSig.E.MarshalBinary()
	if err != nil {
		p.Log.Errorw("failed to encode local signature", "error", err)
		return
	}
	msg, err := wire.NewBlockSigMessage(p.Params.SelfID, wire.BlockSigPayload{
		BlockHash: block.Sighash(),
		GammaI:    gammaBytes,
		E:         eBytes,
	})
	if err != nil {
		p.Log.Errorw("failed to build blocksig message", "error", err)
		return
	}
	p.Conn.Broadcast(msg)
}

// submitBlock forwards a completed block to the RPC collaborator,
// demoting failures to warnings per spec.md §6/§7 (RpcError is not
// fatal for a block that already has a valid signature).
func (p *Processor) submitBlock(ctx context.Context, block wire.Block) {
	if err := p.RPC.SubmitBlock(ctx, block); err != nil {
		p.Log.Warnw("submit_block failed", "error", err)
	}
}
