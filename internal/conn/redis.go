package conn

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// RedisManager is the production Manager, grounded on original_source's
// net.rs RedisManager: a single client, one subscriber goroutine per
// Start call covering both channels, and fire-and-forget publisher
// goroutines per outbound message so sender never blocks on broker I/O.
type RedisManager struct {
	client *redis.Client
	log    *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	errCh  chan error
	pubsub *redis.PubSub
}

// NewRedisManager opens a client against addr (host:port).
func NewRedisManager(addr string, log *zap.SugaredLogger) *RedisManager {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisManager{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
		errCh:  make(chan error, 1),
	}
}

// Broadcast implements Manager.
func (m *RedisManager) Broadcast(msg *wire.Message) {
	if !msg.IsBroadcast() {
		panic("conn: Broadcast requires a nil ReceiverID")
	}
	m.publish(BroadcastChannel, msg)
}

// Send implements Manager.
func (m *RedisManager) Send(msg *wire.Message) {
	if msg.IsBroadcast() {
		panic("conn: Send requires a non-nil ReceiverID")
	}
	m.publish(PrivateChannel(*msg.ReceiverID), msg)
}

func (m *RedisManager) publish(channel string, msg *wire.Message) {
	data, err := wire.Encode(msg)
	if err != nil {
		m.log.Errorw("failed to encode outbound message", "channel", channel, "error", err)
		return
	}
	go func() {
		if err := m.client.Publish(m.ctx, channel, data).Err(); err != nil {
			m.log.Warnw("publish failed", "channel", channel, "error", err)
		} else {
			m.log.Debugw("published message", "channel", channel, "kind", msg.Kind)
		}
	}()
}

// Start implements Manager: subscribes to the broadcast channel and
// selfID's private channel, then dispatches decoded messages to handler
// on a background goroutine until it returns Break, Stop is called, or
// the subscription errors.
func (m *RedisManager) Start(selfID wire.SignerID, handler Handler) error {
	m.pubsub = m.client.Subscribe(m.ctx, BroadcastChannel, PrivateChannel(selfID))
	if _, err := m.pubsub.Receive(m.ctx); err != nil {
		return fmt.Errorf("conn: subscribe failed: %w", err)
	}

	ch := m.pubsub.Channel()
	go func() {
		for payload := range ch {
			msg, err := wire.Decode([]byte(payload.Payload))
			if err != nil {
				m.log.Warnw("dropping malformed wire message", "channel", payload.Channel, "error", err)
				continue
			}
			if handler(msg) == Break {
				return
			}
		}
		// The pub/sub channel only closes on Stop (which cancels m.ctx
		// first) or a broker disconnect go-redis could not recover from.
		// Distinguish the two so a real disconnect surfaces as the fatal
		// error spec.md §3/§7 require, instead of degrading silently to
		// round timeouts.
		if m.ctx.Err() == nil {
			m.ReportError(fmt.Errorf("conn: redis subscription closed: %w", errBrokerDisconnected))
		}
	}()
	return nil
}

// errBrokerDisconnected marks a pub/sub subscription that closed without
// Stop having been called.
var errBrokerDisconnected = errors.New("conn: broker disconnected")

// Stop implements Manager. cancel runs before pubsub.Close so the
// subscriber goroutine sees m.ctx already done once its Channel() closes,
// and does not mistake this clean shutdown for a broker disconnect.
func (m *RedisManager) Stop() {
	m.cancel()
	if m.pubsub != nil {
		_ = m.pubsub.Close()
	}
	_ = m.client.Close()
}

// ErrorChannel implements Manager. RedisManager surfaces a broker
// disconnect detected by its own subscriber goroutine (the pub/sub
// channel closing without Stop having run) as well as client-level
// connection errors a caller reports via ReportError, matching the
// original's error_sender/receiver channel pair.
func (m *RedisManager) ErrorChannel() <-chan error {
	return m.errCh
}

// ReportError pushes a fatal broker error onto ErrorChannel, readable
// once; further reports are dropped while one is unread. Start's
// subscriber goroutine calls it on a disconnect; publish failures are
// only logged and do not reach it.
func (m *RedisManager) ReportError(err error) {
	select {
	case m.errCh <- err:
	default:
	}
}
