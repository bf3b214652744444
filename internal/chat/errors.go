package chat

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidIdentity   = errors.New("chat: invalid identity")
	ErrProtocolViolation = errors.New("chat: protocol violation")
	ErrLineTooLong       = fmt.Errorf("%w: line exceeds %d bytes", ErrProtocolViolation, MaxLineLen)
	ErrPayloadTooLarge   = fmt.Errorf("%w: payload exceeds receive buffer", ErrProtocolViolation)
	ErrPeerClosed        = errors.New("chat: peer closed the connection")
)

// Kind classifies a fatal condition.
type Kind int

const (
	KindUnknown Kind = iota
	KindArgument
	KindAddressResolution
	KindConnect
	KindTransportIO
	KindProtocol
)

// String returns the string representation of Kind
func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "argument"
	case KindAddressResolution:
		return "address resolution"
	case KindConnect:
		return "connect"
	case KindTransportIO:
		return "transport i/o"
	case KindProtocol:
		return "protocol"
	default:
		return "unknown"
	}
}

// Error is a classified failure returned by the session and transports.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s error: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError wraps err with a kind and the operation that failed.
func NewError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind of the first *Error in err's chain.
// Protocol violations that were never wrapped report KindProtocol.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, ErrProtocolViolation) {
		return KindProtocol
	}
	return KindUnknown
}
