// Package driver implements the round driver of spec.md §4.5: the single
// goroutine that owns the live NodeState, dispatches inbound messages to
// the internal/round processors, arms the per-round timeout, and advances
// from one round to the next.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/azuchi/tapyrus-signer/internal/conn"
	"github.com/azuchi/tapyrus-signer/internal/federation"
	"github.com/azuchi/tapyrus-signer/internal/round"
	"github.com/azuchi/tapyrus-signer/internal/rpc"
	"github.com/azuchi/tapyrus-signer/internal/state"
	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// ErrRoundTimeout is the cause recorded on RoundComplete when no message
// advanced the round before its wall-clock deadline.
var ErrRoundTimeout = errors.New("round: timed out waiting for peers")

// rpcMaxAttempts and rpcBackoffBase bound the retry policy spec.md §7
// assigns to RpcError: bounded backoff, then fall back rather than block
// the round indefinitely.
const (
	rpcMaxAttempts = 3
	rpcBackoffBase = 200 * time.Millisecond
)

// Driver owns one federation member's live round state and advances it
// round by round until its context is cancelled or the connection
// manager reports a fatal broker error.
type Driver struct {
	Params       *federation.Params
	Conn         conn.Manager
	RPC          rpc.Client
	Log          *zap.SugaredLogger
	RoundTimeout time.Duration

	proc *round.Processor
}

// New builds a Driver. roundTimeout is not validated: with a zero value
// every round's timer fires immediately (internal/config defaults it to
// 30s).
func New(params *federation.Params, connMgr conn.Manager, rpcClient rpc.Client, log *zap.SugaredLogger, roundTimeout time.Duration) *Driver {
	return &Driver{
		Params:       params,
		Conn:         connMgr,
		RPC:          rpcClient,
		Log:          log,
		RoundTimeout: roundTimeout,
		proc:         &round.Processor{Params: params, Conn: connMgr, RPC: rpcClient, Log: log},
	}
}

// Run subscribes to the connection manager and drives rounds until ctx is
// cancelled or a fatal error occurs. It returns nil only on clean
// cancellation.
func (d *Driver) Run(ctx context.Context) error {
	msgCh := make(chan *wire.Message, 256)
	handler := func(m *wire.Message) conn.ControlFlow {
		select {
		case msgCh <- m:
			return conn.Continue
		case <-ctx.Done():
			return conn.Break
		}
	}
	if err := d.Conn.Start(d.Params.SelfID, handler); err != nil {
		return fmt.Errorf("driver: starting connection manager: %w", err)
	}
	defer d.Conn.Stop()

	info, err := d.fetchChainInfoWithBackoff(ctx)
	if err != nil {
		return fmt.Errorf("driver: fetching initial chain info: %w", err)
	}

	height := info.TipHeight
	prevHash := info.TipHash
	masterIndex := int(height % uint64(d.Params.N()))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		rc, nextPrevHash, err := d.runRound(ctx, msgCh, masterIndex, height, prevHash)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if rc.Err != nil {
			d.Log.Warnw("round ended without a completed block", "height", height, "master_index", masterIndex, "error", rc.Err)
		} else {
			d.Log.Infow("round completed", "height", height, "master_index", masterIndex)
		}

		masterIndex = rc.NextMasterIndex
		height = rc.BlockHeight + 1
		prevHash = nextPrevHash
	}
}

// runRound drives a single round to completion: determine this node's
// role, arm the timeout, and dispatch messages until RoundComplete.
func (d *Driver) runRound(ctx context.Context, msgCh <-chan *wire.Message, masterIndex int, height uint64, prevHash [32]byte) (state.RoundComplete, [32]byte, error) {
	participants := d.Params.Participants()
	rc := round.RoundContext{MasterIndex: masterIndex, BlockHeight: height, Participants: participants}

	var current state.NodeState
	if d.Params.IsSelfMaster(masterIndex) {
		st, err := d.startMasterRoundWithBackoff(ctx, prevHash, masterIndex, height)
		if err != nil {
			d.Log.Warnw("master could not fetch a candidate block, falling back to idling this round", "height", height, "error", err)
			current = state.Idling{BlockHeight: height}
		} else {
			current = st
		}
	} else {
		current = state.Idling{BlockHeight: height}
	}

	timer := time.NewTimer(d.RoundTimeout)
	defer timer.Stop()

	for {
		prev := current
		select {
		case <-ctx.Done():
			return state.RoundComplete{}, prevHash, ctx.Err()

		case err, ok := <-d.Conn.ErrorChannel():
			if !ok {
				continue
			}
			return state.RoundComplete{}, prevHash, fmt.Errorf("driver: fatal broker error: %w", err)

		case <-timer.C:
			current = d.proc.ProcessRoundFailure(masterIndex, height, ErrRoundTimeout, current)

		case msg := <-msgCh:
			current = d.proc.Dispatch(ctx, msg, rc, current)
		}

		if complete, ok := current.(state.RoundComplete); ok {
			state.Zero(prev)
			nextPrevHash := prevHash
			if complete.Err == nil {
				if info, err := d.RPC.GetBlockChainInfo(ctx); err == nil {
					nextPrevHash = info.TipHash
				}
			}
			return complete, nextPrevHash, nil
		}
	}
}

// startMasterRoundWithBackoff retries Processor.StartMasterRound's RPC
// call per spec.md §7's RpcError policy: bounded backoff, then give up
// for this round rather than block the driver indefinitely.
func (d *Driver) startMasterRoundWithBackoff(ctx context.Context, prevHash [32]byte, masterIndex int, height uint64) (state.NodeState, error) {
	var lastErr error
	for attempt := 0; attempt < rpcMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(rpcBackoffBase * time.Duration(1<<uint(attempt-1))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		st, err := d.proc.StartMasterRound(ctx, prevHash, masterIndex, height)
		if err == nil {
			return st, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

// fetchChainInfoWithBackoff retries the startup chain-tip query with the
// same bounded backoff policy.
func (d *Driver) fetchChainInfoWithBackoff(ctx context.Context) (rpc.ChainInfo, error) {
	var lastErr error
	for attempt := 0; attempt < rpcMaxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(rpcBackoffBase * time.Duration(1<<uint(attempt-1))):
			case <-ctx.Done():
				return rpc.ChainInfo{}, ctx.Err()
			}
		}
		info, err := d.RPC.GetBlockChainInfo(ctx)
		if err == nil {
			return info, nil
		}
		lastErr = err
	}
	return rpc.ChainInfo{}, lastErr
}
