// Package lnerr is the uniform error surface shared by every layer of
// lnsocket: the Noise handshake, the transport cipher, wire-message
// decoding, and the Commando multiplexer.
package lnerr

import (
	"errors"
	"fmt"
)

// Kind identifies the category of failure. Unlike the wrapped detail
// string, Kind is safe to switch on across package boundaries.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotConnected
	KindFirstMessageNotInit
	KindDNS
	KindIO
	KindJSON
	KindLightningDecode
	KindDecode
	KindAddrParse
	KindRPC
	KindProxyConnection
	KindUnknownRequiredFeature
)

func (k Kind) String() string {
	switch k {
	case KindNotConnected:
		return "not_connected"
	case KindFirstMessageNotInit:
		return "first_message_not_init"
	case KindDNS:
		return "dns_error"
	case KindIO:
		return "io"
	case KindJSON:
		return "json"
	case KindLightningDecode:
		return "lightning_decode"
	case KindDecode:
		return "decode"
	case KindAddrParse:
		return "addr_parse"
	case KindRPC:
		return "rpc"
	case KindProxyConnection:
		return "proxy_connection"
	case KindUnknownRequiredFeature:
		return "unknown_required_feature"
	default:
		return "unknown"
	}
}

// Error is the single error type returned by every lnsocket package. It is
// a plain value (a Kind, optional field/code, the rendered message, and,
// only when built by Wrap, the original error for Unwrap) so it is cheap to
// copy, which matters because a single fatal stream error must be handed to
// an unbounded number of pending Commando callers without fear of aliasing
// mutable state (spec §9, "Error cloning").
type Error struct {
	Kind    Kind
	Field   string // offending field name for decode errors, "" otherwise
	Code    int    // RPC error code, when Kind == KindRPC
	detail  string
	wrapped error // set only when constructed via Wrap; not part of equality
}

func (e *Error) Error() string {
	switch {
	case e.Field != "" && e.detail != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Field, e.detail)
	case e.Field != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Field)
	case e.detail != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.detail)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.wrapped }

// Is makes errors.Is(err, lnerr.New(KindIO, "")) match any Error of the
// same Kind, regardless of detail.
func (e *Error) Is(target error) bool {
	var o *Error
	if errors.As(target, &o) {
		return o.Kind == e.Kind
	}
	return false
}

// Clone returns a value copy safe to hand to a second waiter. Error already
// holds no shared mutable state, so Clone is here for call-site clarity at
// pump fan-out points rather than necessity.
func (e *Error) Clone() *Error {
	c := *e
	return &c
}

func New(kind Kind, detail string) *Error {
	return &Error{Kind: kind, detail: detail}
}

func NewField(kind Kind, field, detail string) *Error {
	return &Error{Kind: kind, Field: field, detail: detail}
}

// Wrap narrows an arbitrary error to a Kind while keeping it reachable via
// errors.Unwrap/errors.As for callers that want the underlying detail (for
// example an *os.PathError for KindIO).
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, detail: err.Error(), wrapped: err}
}

func RPC(code int, message string) *Error {
	return &Error{Kind: KindRPC, Code: code, detail: message}
}

// ShortRead is the canonical KindDecode error for a truncated field.
func ShortRead(field string) *Error {
	return NewField(KindDecode, field, "short read")
}

func InvalidValue(field, detail string) *Error {
	return NewField(KindDecode, field, detail)
}
