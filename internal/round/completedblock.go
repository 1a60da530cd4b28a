package round

import (
	"github.com/azuchi/tapyrus-signer/internal/errs"
	"github.com/azuchi/tapyrus-signer/internal/state"
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// ProcessCompletedBlock implements spec.md §4.4.2 step 9: a Member
// verifies the Master's aggregate signature and ends the round. An
// invalid signature still ends the round, but RoundComplete carries
// ErrBlockVerification so the driver can log and fall back to Idling
// rather than treating it as success.
func (p *Processor) ProcessCompletedBlock(sender wire.SignerID, block wire.Block, masterIndex int, prev state.NodeState) state.NodeState {
	s, ok := prev.(state.Member)
	if !ok {
		return prev
	}
	masterID := p.Params.SignerAt(masterIndex)
	if !sender.Equal(masterID) {
		p.Log.Warnw("dropping completedblock from non-master sender", "sender", sender)
		return prev
	}
	if block.Signature == nil {
		p.Log.Warnw("dropping completedblock: missing signature")
		return prev
	}

	var verifyErr error
	if !curve.Verify(curve.Signature(*block.Signature), p.Params.AggregatePublicKey, block.Sighash()) {
		verifyErr = errs.Wrap(errs.ErrBlockVerification, "aggregate signature does not verify")
	}

	return state.RoundComplete{
		MasterIndex:     masterIndex,
		NextMasterIndex: (masterIndex + 1) % p.Params.N(),
		BlockHeight:     s.BlockHeight,
		Err:             verifyErr,
	}
}
