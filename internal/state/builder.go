package state

import (
	"github.com/azuchi/tapyrus-signer/pkg/curve"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// MasterBuilder expresses partial updates to a Master state ergonomically:
// each With* method returns the receiver so calls chain, and Build()
// produces the immutable NodeState.
type MasterBuilder struct {
	blockKey           *curve.Scalar
	sharedBlockSecrets map[wire.SignerID]SharedSecretPair
	blockSharedKeys    *BlockSharedKeys
	candidateBlock     *wire.Block
	signatures         map[wire.SignerID]LocalSig
	participants       map[wire.SignerID]struct{}
	roundIsDone        bool
	blockHeight        uint64
}

// NewMasterBuilder returns a builder with empty defaults, for starting a
// fresh Master state at round start.
func NewMasterBuilder() *MasterBuilder {
	return &MasterBuilder{
		sharedBlockSecrets: make(map[wire.SignerID]SharedSecretPair),
		signatures:         make(map[wire.SignerID]LocalSig),
		participants:       make(map[wire.SignerID]struct{}),
	}
}

// MasterBuilderFrom seeds a builder from an existing Master state, for
// processors that only change one field.
func MasterBuilderFrom(m Master) *MasterBuilder {
	return &MasterBuilder{
		blockKey:           m.BlockKey,
		sharedBlockSecrets: m.SharedBlockSecrets,
		blockSharedKeys:    m.BlockSharedKeys,
		candidateBlock:     m.CandidateBlock,
		signatures:         m.Signatures,
		participants:       m.Participants,
		roundIsDone:        m.RoundIsDone,
		blockHeight:        m.BlockHeight,
	}
}

func (b *MasterBuilder) WithBlockKey(k *curve.Scalar) *MasterBuilder {
	b.blockKey = k
	return b
}

func (b *MasterBuilder) WithSharedBlockSecrets(m map[wire.SignerID]SharedSecretPair) *MasterBuilder {
	b.sharedBlockSecrets = m
	return b
}

// InsertSharedBlockSecret returns a builder with sender's pair inserted
// into a copy of the current map (never mutates the caller's map).
func (b *MasterBuilder) InsertSharedBlockSecret(sender wire.SignerID, pair SharedSecretPair) *MasterBuilder {
	next := make(map[wire.SignerID]SharedSecretPair, len(b.sharedBlockSecrets)+1)
	for k, v := range b.sharedBlockSecrets {
		next[k] = v
	}
	next[sender] = pair
	b.sharedBlockSecrets = next
	return b
}

func (b *MasterBuilder) WithBlockSharedKeys(k *BlockSharedKeys) *MasterBuilder {
	b.blockSharedKeys = k
	return b
}

func (b *MasterBuilder) WithCandidateBlock(blk *wire.Block) *MasterBuilder {
	b.candidateBlock = blk
	return b
}

// InsertSignature returns a builder with sender's local signature
// inserted into a copy of the current signatures map.
func (b *MasterBuilder) InsertSignature(sender wire.SignerID, sig LocalSig) *MasterBuilder {
	next := make(map[wire.SignerID]LocalSig, len(b.signatures)+1)
	for k, v := range b.signatures {
		next[k] = v
	}
	next[sender] = sig
	b.signatures = next
	return b
}

func (b *MasterBuilder) WithParticipants(p map[wire.SignerID]struct{}) *MasterBuilder {
	b.participants = p
	return b
}

func (b *MasterBuilder) WithRoundIsDone(done bool) *MasterBuilder {
	b.roundIsDone = done
	return b
}

func (b *MasterBuilder) WithBlockHeight(h uint64) *MasterBuilder {
	b.blockHeight = h
	return b
}

// Build produces the immutable Master state. BlockHeight is always carried
// from the builder's current value (including one seeded via
// MasterBuilderFrom) — the original Rust builder's build() hardcodes 0
// here, which spec.md flags as an oversight; this port preserves height
// instead (see DESIGN.md, Open Question resolutions).
func (b *MasterBuilder) Build() Master {
	return Master{
		BlockKey:           b.blockKey,
		SharedBlockSecrets: b.sharedBlockSecrets,
		BlockSharedKeys:    b.blockSharedKeys,
		CandidateBlock:     b.candidateBlock,
		Signatures:         b.signatures,
		Participants:       b.participants,
		RoundIsDone:        b.roundIsDone,
		BlockHeight:        b.blockHeight,
	}
}

// MemberBuilder is the Member analogue of MasterBuilder.
type MemberBuilder struct {
	blockKey           *curve.Scalar
	sharedBlockSecrets map[wire.SignerID]SharedSecretPair
	blockSharedKeys    *BlockSharedKeys
	candidateBlock     *wire.Block
	participants       map[wire.SignerID]struct{}
	masterIndex        int
	blockHeight        uint64
}

// NewMemberBuilder returns a builder with empty defaults.
func NewMemberBuilder(masterIndex int, blockHeight uint64) *MemberBuilder {
	return &MemberBuilder{
		sharedBlockSecrets: make(map[wire.SignerID]SharedSecretPair),
		participants:       make(map[wire.SignerID]struct{}),
		masterIndex:        masterIndex,
		blockHeight:        blockHeight,
	}
}

// MemberBuilderFrom seeds a builder from an existing Member state.
func MemberBuilderFrom(m Member) *MemberBuilder {
	return &MemberBuilder{
		blockKey:           m.BlockKey,
		sharedBlockSecrets: m.SharedBlockSecrets,
		blockSharedKeys:    m.BlockSharedKeys,
		candidateBlock:     m.CandidateBlock,
		participants:       m.Participants,
		masterIndex:        m.MasterIndex,
		blockHeight:        m.BlockHeight,
	}
}

func (b *MemberBuilder) WithBlockKey(k *curve.Scalar) *MemberBuilder {
	b.blockKey = k
	return b
}

func (b *MemberBuilder) WithSharedBlockSecrets(m map[wire.SignerID]SharedSecretPair) *MemberBuilder {
	b.sharedBlockSecrets = m
	return b
}

func (b *MemberBuilder) InsertSharedBlockSecret(sender wire.SignerID, pair SharedSecretPair) *MemberBuilder {
	next := make(map[wire.SignerID]SharedSecretPair, len(b.sharedBlockSecrets)+1)
	for k, v := range b.sharedBlockSecrets {
		next[k] = v
	}
	next[sender] = pair
	b.sharedBlockSecrets = next
	return b
}

func (b *MemberBuilder) WithBlockSharedKeys(k *BlockSharedKeys) *MemberBuilder {
	b.blockSharedKeys = k
	return b
}

func (b *MemberBuilder) WithCandidateBlock(blk *wire.Block) *MemberBuilder {
	b.candidateBlock = blk
	return b
}

func (b *MemberBuilder) WithParticipants(p map[wire.SignerID]struct{}) *MemberBuilder {
	b.participants = p
	return b
}

func (b *MemberBuilder) WithMasterIndex(i int) *MemberBuilder {
	b.masterIndex = i
	return b
}

func (b *MemberBuilder) WithBlockHeight(h uint64) *MemberBuilder {
	b.blockHeight = h
	return b
}

// Build produces the immutable Member state.
func (b *MemberBuilder) Build() Member {
	return Member{
		BlockKey:           b.blockKey,
		SharedBlockSecrets: b.sharedBlockSecrets,
		BlockSharedKeys:    b.blockSharedKeys,
		CandidateBlock:     b.candidateBlock,
		Participants:       b.participants,
		MasterIndex:        b.masterIndex,
		BlockHeight:        b.blockHeight,
	}
}
