package wire

import "crypto/sha256"

// Block is an opaque candidate block payload plus the 32-byte sighash that
// is the actual input to Schnorr signing. The payload's internal structure
// (transactions, header fields) is the blockchain RPC collaborator's
// concern, not this engine's — see internal/rpc's Client interface.
type Block struct {
	Payload   []byte
	sighash   [32]byte
	Signature *Signature // set once Completedblock carries the aggregate signature
}

// NewBlock derives the sighash (double-SHA256 of the payload, the
// Bitcoin-family convention the RPC collaborator is expected to follow) and
// wraps an unsigned candidate block.
func NewBlock(payload []byte) Block {
	first := sha256.Sum256(payload)
	second := sha256.Sum256(first[:])
	return Block{Payload: payload, sighash: second}
}

// Sighash returns the 32-byte message digest that Schnorr signing is run
// over.
func (b Block) Sighash() [32]byte {
	return b.sighash
}

// WithSignature returns a copy of b carrying the aggregate signature, used
// when the Master builds the Completedblock message.
func (b Block) WithSignature(sig Signature) Block {
	b.Signature = &sig
	return b
}

type wireBlock struct {
	Payload   []byte
	Sighash   [32]byte
	Signature []byte `cbor:",omitempty"`
}

// MarshalCBOR implements cbor.Marshaler.
func (b Block) MarshalCBOR() ([]byte, error) {
	return cborMarshal(blockToWire(b))
}

// UnmarshalCBOR implements cbor.Unmarshaler.
func (b *Block) UnmarshalCBOR(data []byte) error {
	var w wireBlock
	if err := cborUnmarshal(data, &w); err != nil {
		return err
	}
	blk, err := wireToBlock(w)
	if err != nil {
		return err
	}
	*b = blk
	return nil
}

func blockToWire(b Block) wireBlock {
	w := wireBlock{Payload: b.Payload, Sighash: b.sighash}
	if b.Signature != nil {
		w.Signature = b.Signature.Bytes()
	}
	return w
}

func wireToBlock(w wireBlock) (Block, error) {
	b := Block{Payload: w.Payload, sighash: w.Sighash}
	if len(w.Signature) > 0 {
		sig, err := SignatureFromBytes(w.Signature)
		if err != nil {
			return Block{}, err
		}
		b.Signature = &sig
	}
	return b, nil
}
