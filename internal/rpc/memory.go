package rpc

import (
	"context"
	"sync"

	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// InMemoryClient is a Client test double: GetNewBlock returns a
// caller-supplied payload, SubmitBlock records what it was given, and
// GetBlockChainInfo reports a fixed, settable tip.
type InMemoryClient struct {
	mu sync.Mutex

	NextPayload []byte
	Tip         ChainInfo

	Submitted []wire.Block
	FailNext  error
}

// NewInMemoryClient builds a double starting at the given chain tip.
func NewInMemoryClient(tip ChainInfo) *InMemoryClient {
	return &InMemoryClient{Tip: tip, NextPayload: []byte("candidate")}
}

// GetNewBlock implements Client.
func (c *InMemoryClient) GetNewBlock(ctx context.Context, prevHash [32]byte) (wire.Block, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailNext != nil {
		err := c.FailNext
		c.FailNext = nil
		return wire.Block{}, err
	}
	return wire.NewBlock(c.NextPayload), nil
}

// SubmitBlock implements Client.
func (c *InMemoryClient) SubmitBlock(ctx context.Context, block wire.Block) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.FailNext != nil {
		err := c.FailNext
		c.FailNext = nil
		return err
	}
	c.Submitted = append(c.Submitted, block)
	return nil
}

// GetBlockChainInfo implements Client.
func (c *InMemoryClient) GetBlockChainInfo(ctx context.Context) (ChainInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Tip, nil
}

// SubmittedCount reports how many blocks SubmitBlock has recorded so far,
// safe to call concurrently with a driver goroutine still running.
func (c *InMemoryClient) SubmittedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.Submitted)
}

// SetTip updates the chain tip GetBlockChainInfo reports, safe to call
// concurrently with a driver goroutine still running.
func (c *InMemoryClient) SetTip(tip ChainInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Tip = tip
}
