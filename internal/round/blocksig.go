package round

import (
	"bytes"
	"context"

	"github.com/azuchi/tapyrus-signer/internal/state"
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// ProcessBlockSig implements spec.md §4.4.2 steps 6-8: the Master
// accumulates local signature shares and, once Threshold of them have
// arrived, combines them via Lagrange interpolation, attaches the
// aggregate signature to the candidate block, broadcasts Completedblock,
// and submits the finished block to the RPC collaborator. Members only
// observe Blocksig messages for progress (spec.md §4.2); they have no
// transition here.
func (p *Processor) ProcessBlockSig(ctx context.Context, sender wire.SignerID, payload wire.BlockSigPayload, prev state.NodeState) state.NodeState {
	s, ok := prev.(state.Master)
	if !ok {
		return prev
	}
	if s.RoundIsDone || s.CandidateBlock == nil {
		return prev
	}
	if !bytes.Equal(payload.BlockHash[:], s.CandidateBlock.Sighash()[:]) {
		p.Log.Warnw("dropping blocksig: block hash mismatch", "sender", sender)
		return prev
	}
	if _, ok := s.Participants[sender]; !ok {
		p.Log.Warnw("dropping blocksig from non-participant", "sender", sender)
		return prev
	}

	gammaI := &curve.Scalar{}
	if err := gammaI.UnmarshalBinary(payload.GammaI); err != nil {
		p.Log.Warnw("dropping blocksig: malformed gamma_i", "sender", sender, "error", err)
		return prev
	}
	e := &curve.Scalar{}
	if err := e.UnmarshalBinary(payload.E); err != nil {
		p.Log.Warnw("dropping blocksig: malformed e", "sender", sender, "error", err)
		return prev
	}

	builder := state.MasterBuilderFrom(s).InsertSignature(sender, state.LocalSig{GammaI: gammaI, E: e})
	signatures := builder.Build().Signatures
	if len(signatures) < p.Params.Threshold || s.BlockSharedKeys == nil {
		return builder.Build()
	}

	indices := make([]int, 0, len(signatures))
	gammaByIndex := make(map[int]*curve.Scalar, len(signatures))
	for signer, sig := range signatures {
		idx, ok := p.Params.IndexOf(signer)
		if !ok {
			continue
		}
		oneBased := idx + 1
		indices = append(indices, oneBased)
		gammaByIndex[oneBased] = sig.GammaI
	}

	aggregate := curve.CombineSignature(s.BlockSharedKeys.Y, indices, gammaByIndex)
	if !curve.Verify(aggregate, p.Params.AggregatePublicKey, s.CandidateBlock.Sighash()) {
		p.Log.Errorw("aggregate signature failed self-verification")
		return builder.Build()
	}

	completed := s.CandidateBlock.WithSignature(wire.Signature(aggregate))
	msg, err := wire.NewCompletedBlockMessage(p.Params.SelfID, completed)
	if err != nil {
		p.Log.Errorw("failed to build completedblock message", "error", err)
		return builder.Build()
	}
	p.Conn.Broadcast(msg)
	p.submitBlock(ctx, completed)

	return state.RoundComplete{
		MasterIndex:     p.Params.SelfIndex(),
		NextMasterIndex: (p.Params.SelfIndex() + 1) % p.Params.N(),
		BlockHeight:     s.BlockHeight,
	}
}
