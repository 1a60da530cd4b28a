// Package errs defines the error kinds the signing engine distinguishes
// between, per the taxonomy in the error-handling design: configuration
// and CLI errors are fatal at startup, processor errors fold back into
// the state machine, and broker/RPC errors are the only ones that
// propagate up to terminate or retry the process.
package errs

import (
	"errors"
	"fmt"
)

// Kind errors. Wrap one with fmt.Errorf("...: %w", kind) and test with
// errors.Is against these sentinels.
var (
	// ErrInvalidArgs marks malformed CLI or configuration input.
	ErrInvalidArgs = errors.New("invalid arguments")

	// ErrInvalidKey marks a key that failed to parse or does not belong
	// to the curve (a bad WIF, a bad compressed public key).
	ErrInvalidKey = errors.New("invalid key")

	// ErrInvalidNodeState marks a processor invoked against a state it
	// does not support. The processor logs and returns its input state.
	ErrInvalidNodeState = errors.New("invalid node state for this message")

	// ErrVssVerification marks a VSS share that does not match its
	// commitment polynomial.
	ErrVssVerification = errors.New("vss share does not match commitment")

	// ErrBlockVerification marks an aggregate signature that does not
	// verify against the federation's public key.
	ErrBlockVerification = errors.New("block signature failed verification")

	// ErrBrokerError marks an unrecoverable pub/sub failure.
	ErrBrokerError = errors.New("broker error")

	// ErrRpcError marks an RPC collaborator failure, retried with bounded
	// backoff by the round driver before falling back to Idling.
	ErrRpcError = errors.New("rpc error")
)

// FieldError carries the offending field name alongside ErrInvalidArgs, so a
// caller that needs to render the CLI's stable `InvalidArgs("<field>")` tag
// (spec.md §6) can recover it with errors.As rather than re-parsing the
// message text.
type FieldError struct {
	Field string
	msg   string
}

func (e *FieldError) Error() string { return e.msg }

func (e *FieldError) Unwrap() error { return ErrInvalidArgs }

// InvalidArgsf wraps ErrInvalidArgs with the offending field name, mirroring
// the CLI's stable `InvalidArgs("<field>")` error tag.
func InvalidArgsf(field string, format string, args ...interface{}) error {
	msg := fmt.Sprintf("%s: "+format+": %s", append([]interface{}{field}, append(args, ErrInvalidArgs.Error())...)...)
	return &FieldError{Field: field, msg: msg}
}

// Wrap annotates err with a message while preserving errors.Is matching
// against kind.
func Wrap(kind error, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}
