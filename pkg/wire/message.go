package wire

import (
	"errors"
)

// MessageKind discriminates the wire message variants of spec.md §4.2.
type MessageKind string

const (
	KindCandidateBlock MessageKind = "candidateblock"
	KindCompletedBlock MessageKind = "completedblock"
	KindNodeVSS        MessageKind = "nodevss"
	KindBlockVSS       MessageKind = "blockvss"
	KindBlockSig       MessageKind = "blocksig"
	KindRoundFailure   MessageKind = "roundfailure"
)

// ErrWrongKind is returned by a typed payload accessor when the message's
// Kind does not match the payload type requested.
var ErrWrongKind = errors.New("wire: message kind does not match requested payload")

// Message is the envelope every wire payload travels in. ReceiverID is nil
// iff the message is a broadcast.
type Message struct {
	Kind       MessageKind
	SenderID   SignerID
	ReceiverID *SignerID
	payload    []byte
}

// IsBroadcast reports whether the message has no specific receiver.
func (m Message) IsBroadcast() bool {
	return m.ReceiverID == nil
}

// NodeVSSPayload is the long-term key-share bootstrap message (pre-round).
type NodeVSSPayload struct {
	VSS VSS
}

// BlockVSSPayload is a signer's per-round VSS pair for a candidate block.
type BlockVSSPayload struct {
	BlockHash [32]byte
	VSSPos    VSS
	VSSNeg    VSS
}

// BlockSigPayload is a signer's local signature contribution.
type BlockSigPayload struct {
	BlockHash [32]byte
	GammaI    []byte // 32-byte scalar
	E         []byte // 32-byte scalar
}

// NewCandidateBlockMessage builds a Candidateblock message (Master -> all).
func NewCandidateBlockMessage(sender SignerID, block Block) (*Message, error) {
	return newMessage(KindCandidateBlock, sender, nil, block)
}

// NewCompletedBlockMessage builds a Completedblock message (Master -> all).
func NewCompletedBlockMessage(sender SignerID, block Block) (*Message, error) {
	return newMessage(KindCompletedBlock, sender, nil, block)
}

// NewNodeVSSMessage builds a Nodevss message (point-to-point bootstrap).
func NewNodeVSSMessage(sender, receiver SignerID, payload NodeVSSPayload) (*Message, error) {
	return newMessage(KindNodeVSS, sender, &receiver, payload)
}

// NewBlockVSSMessage builds a Blockvss message (point-to-point, this
// signer's per-round VSS pair for the given sender/receiver).
func NewBlockVSSMessage(sender, receiver SignerID, payload BlockVSSPayload) (*Message, error) {
	return newMessage(KindBlockVSS, sender, &receiver, payload)
}

// NewBlockSigMessage builds a Blocksig message (signer -> Master, but
// broadcast so participants can observe progress; receiver is nil).
func NewBlockSigMessage(sender SignerID, payload BlockSigPayload) (*Message, error) {
	return newMessage(KindBlockSig, sender, nil, payload)
}

// NewRoundFailureMessage builds an abort signal.
func NewRoundFailureMessage(sender SignerID) (*Message, error) {
	return &Message{Kind: KindRoundFailure, SenderID: sender}, nil
}

func newMessage(kind MessageKind, sender SignerID, receiver *SignerID, payload interface{}) (*Message, error) {
	b, err := cborMarshal(payload)
	if err != nil {
		return nil, err
	}
	return &Message{Kind: kind, SenderID: sender, ReceiverID: receiver, payload: b}, nil
}

// CandidateBlock decodes the payload of a Candidateblock message.
func (m *Message) CandidateBlock() (Block, error) {
	if m.Kind != KindCandidateBlock && m.Kind != KindCompletedBlock {
		return Block{}, ErrWrongKind
	}
	var b Block
	if err := cborUnmarshal(m.payload, &b); err != nil {
		return Block{}, err
	}
	return b, nil
}

// CompletedBlock decodes the payload of a Completedblock message.
func (m *Message) CompletedBlock() (Block, error) {
	return m.CandidateBlock()
}

// NodeVSS decodes the payload of a Nodevss message.
func (m *Message) NodeVSS() (NodeVSSPayload, error) {
	if m.Kind != KindNodeVSS {
		return NodeVSSPayload{}, ErrWrongKind
	}
	var p NodeVSSPayload
	if err := cborUnmarshal(m.payload, &p); err != nil {
		return NodeVSSPayload{}, err
	}
	return p, nil
}

// BlockVSS decodes the payload of a Blockvss message.
func (m *Message) BlockVSS() (BlockVSSPayload, error) {
	if m.Kind != KindBlockVSS {
		return BlockVSSPayload{}, ErrWrongKind
	}
	var p BlockVSSPayload
	if err := cborUnmarshal(m.payload, &p); err != nil {
		return BlockVSSPayload{}, err
	}
	return p, nil
}

// BlockSig decodes the payload of a Blocksig message.
func (m *Message) BlockSig() (BlockSigPayload, error) {
	if m.Kind != KindBlockSig {
		return BlockSigPayload{}, ErrWrongKind
	}
	var p BlockSigPayload
	if err := cborUnmarshal(m.payload, &p); err != nil {
		return BlockSigPayload{}, err
	}
	return p, nil
}

type wireMessage struct {
	Kind       MessageKind
	SenderID   SignerID
	ReceiverID *SignerID `cbor:",omitempty"`
	Payload    []byte    `cbor:",omitempty"`
}

// Encode serializes a message to its canonical CBOR wire form.
func Encode(m *Message) ([]byte, error) {
	return cborMarshal(wireMessage{
		Kind:       m.Kind,
		SenderID:   m.SenderID,
		ReceiverID: m.ReceiverID,
		Payload:    m.payload,
	})
}

// Decode parses a message off the wire. It never panics: malformed input
// yields a typed error so the caller (the connection manager) can drop the
// message and log, instead of the original implementation's unwrap-or-crash
// behavior.
func Decode(data []byte) (*Message, error) {
	var w wireMessage
	if err := cborUnmarshal(data, &w); err != nil {
		return nil, err
	}
	return &Message{
		Kind:       w.Kind,
		SenderID:   w.SenderID,
		ReceiverID: w.ReceiverID,
		payload:    w.Payload,
	}, nil
}
