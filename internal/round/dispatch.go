package round

import (
	"context"

	"github.com/azuchi/tapyrus-signer/internal/state"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// RoundContext carries the per-round facts a processor needs but that
// don't live on every NodeState variant (Idling and Joining have no
// master_index field, for instance). The driver owns these values and
// passes the same one to every Dispatch call within a round.
type RoundContext struct {
	MasterIndex  int
	BlockHeight  uint64
	Participants map[wire.SignerID]struct{}
}

// Dispatch routes a decoded inbound message to the processor matching its
// Kind, implementing spec.md §4.4's "(prev_state, message, params, conman)
// -> next_state" transition as a single entry point for the driver's
// message loop. Unrecognized or malformed payloads are logged and leave
// the state unchanged rather than propagating a decode error up to the
// driver.
func (p *Processor) Dispatch(ctx context.Context, msg *wire.Message, rc RoundContext, prev state.NodeState) state.NodeState {
	switch msg.Kind {
	case wire.KindCandidateBlock:
		block, err := msg.CandidateBlock()
		if err != nil {
			p.Log.Warnw("dropping malformed candidateblock", "error", err)
			return prev
		}
		return p.ProcessCandidateBlock(msg.SenderID, block, rc.MasterIndex, rc.Participants, rc.BlockHeight, prev)

	case wire.KindBlockVSS:
		payload, err := msg.BlockVSS()
		if err != nil {
			p.Log.Warnw("dropping malformed blockvss", "error", err)
			return prev
		}
		return p.ProcessBlockVSS(msg.SenderID, payload, prev)

	case wire.KindBlockSig:
		payload, err := msg.BlockSig()
		if err != nil {
			p.Log.Warnw("dropping malformed blocksig", "error", err)
			return prev
		}
		return p.ProcessBlockSig(ctx, msg.SenderID, payload, prev)

	case wire.KindCompletedBlock:
		block, err := msg.CompletedBlock()
		if err != nil {
			p.Log.Warnw("dropping malformed completedblock", "error", err)
			return prev
		}
		return p.ProcessCompletedBlock(msg.SenderID, block, rc.MasterIndex, prev)

	case wire.KindRoundFailure:
		return p.ProcessRoundFailure(rc.MasterIndex, rc.BlockHeight, ErrExplicitRoundFailure, prev)

	default:
		p.Log.Warnw("dropping message of unknown kind", "kind", msg.Kind)
		return prev
	}
}
