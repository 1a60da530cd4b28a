package conn

import (
	"sync"

	"github.com/azuchi/tapyrus-signer/pkg/wire"
)

// Bus is a shared in-memory broker used by InMemoryManager, standing in
// for the Redis pub/sub server in tests: every InMemoryManager attached
// to the same Bus observes the same broadcast and private channels.
type Bus struct {
	mu   sync.Mutex
	subs map[string][]chan *wire.Message
}

// NewBus creates an empty shared bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[string][]chan *wire.Message)}
}

func (b *Bus) subscribe(channel string) chan *wire.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *wire.Message, 64)
	b.subs[channel] = append(b.subs[channel], ch)
	return ch
}

func (b *Bus) publish(channel string, msg *wire.Message) {
	b.mu.Lock()
	subs := append([]chan *wire.Message(nil), b.subs[channel]...)
	b.mu.Unlock()
	for _, ch := range subs {
		ch <- msg
	}
}

// InMemoryManager is a Manager test double: it captures every outbound
// message (for assertions) and delivers inbound messages synchronously
// over a Bus, with no broker round-trip. Grounded on spec.md §9's
// "capability... implementations: a real pub/sub broker client and a
// test double that captures outbound messages for assertion."
type InMemoryManager struct {
	bus *Bus

	mu          sync.Mutex
	Sent        []*wire.Message
	Broadcasted []*wire.Message

	errCh chan error
	done  chan struct{}
}

// NewInMemoryManager attaches a new test-double manager to bus.
func NewInMemoryManager(bus *Bus) *InMemoryManager {
	return &InMemoryManager{
		bus:   bus,
		errCh: make(chan error, 1),
		done:  make(chan struct{}),
	}
}

// Broadcast implements Manager, recording the message and publishing it
// on the shared bus's broadcast channel.
func (m *InMemoryManager) Broadcast(msg *wire.Message) {
	if !msg.IsBroadcast() {
		panic("conn: Broadcast requires a nil ReceiverID")
	}
	m.mu.Lock()
	m.Broadcasted = append(m.Broadcasted, msg)
	m.mu.Unlock()
	m.bus.publish(BroadcastChannel, msg)
}

// Send implements Manager.
func (m *InMemoryManager) Send(msg *wire.Message) {
	if msg.IsBroadcast() {
		panic("conn: Send requires a non-nil ReceiverID")
	}
	m.mu.Lock()
	m.Sent = append(m.Sent, msg)
	m.mu.Unlock()
	m.bus.publish(PrivateChannel(*msg.ReceiverID), msg)
}

// Start implements Manager: subscribes this node's goroutine to the
// shared bus's broadcast and private channels and dispatches until
// handler returns Break or Stop is called.
func (m *InMemoryManager) Start(selfID wire.SignerID, handler Handler) error {
	broadcastCh := m.bus.subscribe(BroadcastChannel)
	privateCh := m.bus.subscribe(PrivateChannel(selfID))

	go func() {
		for {
			select {
			case msg := <-broadcastCh:
				if handler(msg) == Break {
					return
				}
			case msg := <-privateCh:
				if handler(msg) == Break {
					return
				}
			case <-m.done:
				return
			}
		}
	}()
	return nil
}

// Stop implements Manager.
func (m *InMemoryManager) Stop() {
	close(m.done)
}

// ErrorChannel implements Manager.
func (m *InMemoryManager) ErrorChannel() <-chan error {
	return m.errCh
}

// InjectError pushes a synthetic broker error, for driver-level tests of
// the BrokerError escalation path.
func (m *InMemoryManager) InjectError(err error) {
	m.errCh <- err
}
