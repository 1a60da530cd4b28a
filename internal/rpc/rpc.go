// Package rpc defines the minimal contract the signing engine needs from
// the blockchain RPC collaborator (spec.md §6): candidate block supply,
// submission of the completed block, and chain-tip queries at startup
// and round boundaries. The real Tapyrus Core RPC client and the
// command-line front end that wires it up are out of scope (spec.md §1);
// this package ships only the interface and an in-memory double for
// tests.
package rpc

import (
	"context"
	"errors"

	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// ErrUnavailable marks a transient RPC failure the driver retries with
// bounded backoff before falling back to Idling (spec.md §7, RpcError).
var ErrUnavailable = errors.New("rpc: collaborator unavailable")

// ChainInfo is the subset of getblockchaininfo the driver consults at
// startup and after every RoundComplete that ended without an error.
type ChainInfo struct {
	TipHeight uint64
	TipHash   [32]byte
}

// Client is the RPC collaborator capability the round driver depends on.
type Client interface {
	// GetNewBlock asks for a fresh candidate block extending prevHash.
	// Only the elected Master calls this.
	GetNewBlock(ctx context.Context, prevHash [32]byte) (wire.Block, error)

	// SubmitBlock commits a fully signed block. Failures are surfaced as
	// warnings by the caller, never fatal (spec.md §6).
	SubmitBlock(ctx context.Context, block wire.Block) error

	// GetBlockChainInfo reports the current chain tip.
	GetBlockChainInfo(ctx context.Context) (ChainInfo, error)
}
