package round

import (
	"bytes"

	"github.com/azuchi/tapyrus-signer/internal/state"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// ProcessBlockVSS implements spec.md §4.4.2: record a participant's
// per-round VSS pair, and once every participant's contribution has
// arrived, derive this node's combined key material and broadcast its
// local signature share.
func (p *Processor) ProcessBlockVSS(sender wire.SignerID, payload wire.BlockVSSPayload, prev state.NodeState) state.NodeState {
	switch s := prev.(type) {
	case state.Master:
		return p.processBlockVSSMaster(sender, payload, s)
	case state.Member:
		return p.processBlockVSSMember(sender, payload, s)
	default:
		p.Log.Warnw("blockvss received in unsupported state", "sender", sender)
		return prev
	}
}

func (p *Processor) processBlockVSSMaster(sender wire.SignerID, payload wire.BlockVSSPayload, s state.Master) state.NodeState {
	if s.CandidateBlock == nil {
		p.Log.Warnw("dropping blockvss: no candidate block yet")
		return s
	}
	if !bytes.Equal(payload.BlockHash[:], s.CandidateBlock.Sighash()[:]) {
		p.Log.Warnw("dropping blockvss: block hash mismatch", "sender", sender)
		return s
	}
	if _, ok := s.Participants[sender]; !ok {
		p.Log.Warnw("dropping blockvss from non-participant", "sender", sender)
		return s
	}

	pair := state.SharedSecretPair{
		Positive: state.SharedSecret{VSS: payload.VSSPos.Commitments, Share: payload.VSSPos.Share},
		Negative: state.SharedSecret{VSS: payload.VSSNeg.Commitments, Share: payload.VSSNeg.Share},
	}
	secrets := insertSecret(s.SharedBlockSecrets, sender, pair)
	builder := state.MasterBuilderFrom(s).WithSharedBlockSecrets(secrets)

	if len(secrets) < len(s.Participants) {
		return builder.Build()
	}

	keys, err := p.deriveBlockSharedKeys(secrets)
	if err != nil {
		p.Log.Errorw("failed to derive block shared keys", "error", err)
		return builder.Build()
	}
	p.broadcastLocalSig(*s.CandidateBlock, keys)
	return builder.WithBlockSharedKeys(keys).Build()
}

func (p *Processor) processBlockVSSMember(sender wire.SignerID, payload wire.BlockVSSPayload, s state.Member) state.NodeState {
	if s.CandidateBlock == nil {
		p.Log.Warnw("dropping blockvss: no candidate block yet")
		return s
	}
	if !bytes.Equal(payload.BlockHash[:], s.CandidateBlock.Sighash()[:]) {
		p.Log.Warnw("dropping blockvss: block hash mismatch", "sender", sender)
		return s
	}
	if _, ok := s.Participants[sender]; !ok {
		p.Log.Warnw("dropping blockvss from non-participant", "sender", sender)
		return s
	}

	pair := state.SharedSecretPair{
		Positive: state.SharedSecret{VSS: payload.VSSPos.Commitments, Share: payload.VSSPos.Share},
		Negative: state.SharedSecret{VSS: payload.VSSNeg.Commitments, Share: payload.VSSNeg.Share},
	}
	secrets := insertSecret(s.SharedBlockSecrets, sender, pair)
	builder := state.MemberBuilderFrom(s).WithSharedBlockSecrets(secrets)

	if _, isParticipant := s.Participants[p.Params.SelfID]; !isParticipant {
		return builder.Build()
	}
	if len(secrets) < len(s.Participants) {
		return builder.Build()
	}

	keys, err := p.deriveBlockSharedKeys(secrets)
	if err != nil {
		p.Log.Errorw("failed to derive block shared keys", "error", err)
		return builder.Build()
	}
	p.broadcastLocalSig(*s.CandidateBlock, keys)
	return builder.WithBlockSharedKeys(keys).Build()
}
