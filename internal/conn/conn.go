// Package conn provides the message-delivery fabric connecting signers: a
// shared broadcast channel and a per-signer private channel over an
// external pub/sub broker. The round driver depends only on the Manager
// capability defined here — "something that can broadcast, send, start,
// and surface errors" — never on a concrete broker client, so tests run
// against an in-memory double instead of a real Redis instance.
package conn

import "github.com/azuchi/tapyrus-signer/pkg/wire"

// BroadcastChannel is the shared pub/sub channel every signer subscribes
// to for federation-wide messages.
const BroadcastChannel = "tapyrus-signer"

// PrivateChannel returns the per-signer channel name for point-to-point
// delivery, "tapyrus-signer-<hex pubkey>".
func PrivateChannel(id wire.SignerID) string {
	return "tapyrus-signer-" + id.String()
}

// ControlFlow is returned by a Handler to tell Manager.Start whether to
// keep subscribing (Continue) or to unsubscribe and return (Break).
type ControlFlow int

const (
	Continue ControlFlow = iota
	Break
)

// Handler processes one decoded inbound message.
type Handler func(*wire.Message) ControlFlow

// Manager is the capability the round driver needs from a message bus: it
// never sees the broker type itself, only this interface, parameterised
// per spec.md §9 ("dynamic dispatch over connection managers").
type Manager interface {
	// Broadcast publishes msg to BroadcastChannel. msg.ReceiverID must be
	// nil; delivery happens on a short-lived goroutine and never blocks
	// the caller.
	Broadcast(msg *wire.Message)

	// Send publishes msg to msg.ReceiverID's private channel. msg.ReceiverID
	// must be non-nil.
	Send(msg *wire.Message)

	// Start subscribes to both BroadcastChannel and selfID's private
	// channel, decoding each payload and invoking handler. It returns
	// once subscription is established; delivery continues on a
	// background goroutine until handler returns Break or Stop is
	// called.
	Start(selfID wire.SignerID, handler Handler) error

	// Stop ends the subscription loop started by Start and releases the
	// broker connection.
	Stop()

	// ErrorChannel returns a channel that receives at most one fatal
	// broker error (a disconnect, for instance); the driver treats
	// anything read from it as terminal.
	ErrorChannel() <-chan error
}
