package round

import (
	"errors"

	"github.com/azuchi/tapyrus-signer/internal/state"
)

// ErrExplicitRoundFailure is the cause recorded when another signer sent
// an explicit Roundfailure message, as opposed to this node's own round
// timeout.
var ErrExplicitRoundFailure = errors.New("round: peer reported round failure")

// ProcessRoundFailure implements spec.md §4.4.3: an explicit Roundfailure
// message, or the driver's own synthetic one on round timeout, zeroes any
// secret material the current state holds and ends the round without a
// block. masterIndex is supplied by the driver, since neither Idling nor
// Joining carries one.
func (p *Processor) ProcessRoundFailure(masterIndex int, blockHeight uint64, cause error, prev state.NodeState) state.NodeState {
	state.Zero(prev)
	return state.RoundComplete{
		MasterIndex:     masterIndex,
		NextMasterIndex: (masterIndex + 1) % p.Params.N(),
		BlockHeight:     blockHeight,
		Err:             cause,
	}
}
