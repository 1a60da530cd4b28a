package round

import (
	"context"
	"fmt"

	"github.com/azuchi/tapyrus-signer/internal/state"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// ProcessCandidateBlock implements spec.md §4.4.1. It handles two prev
// states: an Idling node becoming a Member on receiving the Master's
// broadcast, and the Master itself processing the synthetic
// self-delivered Candidateblock spec.md §4.5 describes — the trick that
// lets the Master generate and distribute its own VSS pair through the
// same code path a Member uses, without changing variant.
func (p *Processor) ProcessCandidateBlock(sender wire.SignerID, block wire.Block, masterIndex int, participants map[wire.SignerID]struct{}, blockHeight uint64, prev state.NodeState) state.NodeState {
	switch s := prev.(type) {
	case state.Idling:
		masterID := p.Params.SignerAt(masterIndex)
		if !sender.Equal(masterID) {
			p.Log.Warnw("dropping candidateblock from non-master sender", "sender", sender, "master_index", masterIndex)
			return prev
		}
		builder := state.NewMemberBuilder(masterIndex, blockHeight).
			WithParticipants(participants).
			WithCandidateBlock(&block)
		if _, isParticipant := participants[p.Params.SelfID]; isParticipant {
			blockKey, commPos, sharesPos, commNeg, sharesNeg, err := p.generateRoundVSS()
			if err != nil {
				p.Log.Errorw("failed to generate round vss", "error", err)
				return prev
			}
			selfPair := p.distributeBlockVSS(block.Sighash(), participants, commPos, sharesPos, commNeg, sharesNeg)
			builder = builder.WithBlockKey(blockKey).InsertSharedBlockSecret(p.Params.SelfID, selfPair)
		}
		return builder.Build()

	case state.Master:
		if s.RoundIsDone {
			p.Log.Warnw("dropping candidateblock: round already done")
			return prev
		}
		if !sender.Equal(p.Params.SelfID) {
			p.Log.Warnw("dropping candidateblock: master only self-delivers this message", "sender", sender)
			return prev
		}
		if s.CandidateBlock != nil {
			// The broker echoes a Master's own broadcast back to it (real
			// pub/sub subscribers see every publish on a channel they are
			// subscribed to, including their own); StartMasterRound already
			// folded the first copy into state via a direct call, so this
			// is a duplicate redelivery and must be a no-op for idempotence
			// (spec.md §8, property 2).
			return prev
		}
		builder := state.MasterBuilderFrom(s).WithCandidateBlock(&block)
		if _, isParticipant := s.Participants[p.Params.SelfID]; isParticipant {
			blockKey, commPos, sharesPos, commNeg, sharesNeg, err := p.generateRoundVSS()
			if err != nil {
				p.Log.Errorw("failed to generate round vss", "error", err)
				return prev
			}
			selfPair := p.distributeBlockVSS(block.Sighash(), s.Participants, commPos, sharesPos, commNeg, sharesNeg)
			builder = builder.WithBlockKey(blockKey).InsertSharedBlockSecret(p.Params.SelfID, selfPair)
		}
		return builder.Build()

	default:
		p.Log.Warnw("candidateblock received in unsupported state", "sender", sender)
		return prev
	}
}

// StartMasterRound implements the Master branch of spec.md §4.5 step 1:
// fetch a candidate block, declare this round's participants, broadcast
// Candidateblock, then self-deliver it so ProcessCandidateBlock runs its
// VSS-generation path uniformly for Master and Member alike.
func (p *Processor) StartMasterRound(ctx context.Context, prevHash [32]byte, masterIndex int, blockHeight uint64) (state.NodeState, error) {
	block, err := p.RPC.GetNewBlock(ctx, prevHash)
	if err != nil {
		return nil, fmt.Errorf("start master round: %w", err)
	}
	participants := p.Params.Participants()

	msg, err := wire.NewCandidateBlockMessage(p.Params.SelfID, block)
	if err != nil {
		return nil, fmt.Errorf("start master round: %w", err)
	}
	p.Conn.Broadcast(msg)

	initial := state.NewMasterBuilder().
		WithParticipants(participants).
		WithBlockHeight(blockHeight).
		Build()
	return p.ProcessCandidateBlock(p.Params.SelfID, block, masterIndex, participants, blockHeight, initial), nil
}
