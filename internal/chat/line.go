package chat

import "bytes"

const (
	// Separator sits between the sender's identity and the message text.
	Separator = "> "
	// LocalQuit is the input line that ends the session locally.
	LocalQuit = "\\quit\n"
	// RemoteQuit is the payload a peer sends when it ends the session.
	RemoteQuit = "\\quit"

	MaxIdentityLen    = 10
	MaxLineLen        = 512
	ReceiveBufferSize = 512
)

// FormatLine assembles an outgoing chat line: id, Separator, then text
// verbatim.
func FormatLine(id Identity, text string) ([]byte, error) {
	n := len(id) + len(Separator) + len(text)
	if n > MaxLineLen {
		return nil, ErrLineTooLong
	}
	line := make([]byte, 0, n)
	line = append(line, id...)
	line = append(line, Separator...)
	line = append(line, text...)
	return line, nil
}

// ParseLine strips the identity prefix FormatLine added.
func ParseLine(id Identity, line []byte) (string, bool) {
	prefix := string(id) + Separator
	if !bytes.HasPrefix(line, []byte(prefix)) {
		return "", false
	}
	return string(line[len(prefix):]), true
}

// IsRemoteQuit reports whether payload is exactly the bare quit sentinel.
func IsRemoteQuit(payload []byte) bool {
	return string(payload) == RemoteQuit
}

// IsLocalQuit reports whether an input line is the quit sentinel.
func IsLocalQuit(line string) bool {
	return line == LocalQuit
}
