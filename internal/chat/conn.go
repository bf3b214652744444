// Package chat implements the turn-based chat session: the identity
// handshake and the alternating send/receive loop that follows it.
package chat

import "context"

// Conn abstracts the byte stream a session runs over, for both TCP and
// WebSocket. Implementations must not buffer across messages: one Write is
// one message on the wire and one Read returns at most one message.
type Conn interface {
	// Read receives the next message into buf.
	// Returns io.EOF when the peer has closed the stream.
	Read(ctx context.Context, buf []byte) (int, error)

	// Write sends data as a single message.
	Write(ctx context.Context, data []byte) (int, error)

	// Close closes the stream.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}

// Console is the local user's side of a session.
type Console interface {
	// Prompt shows the input prompt for the given local identity.
	Prompt(id Identity)

	// ReadLine returns the next input line including its trailing newline.
	// Returns io.EOF once input is exhausted.
	ReadLine() (string, error)

	// Display renders a chat line received from the peer.
	// payload is only valid for the duration of the call.
	Display(payload []byte)

	// Notice prints a session status message.
	Notice(msg string)
}
