package chat

import (
	"bytes"
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Identity is the short handle a party labels its chat lines with.
type Identity string

// ParseIdentity validates a locally supplied handle: 1 to MaxIdentityLen
// bytes, one word of printable characters.
func ParseIdentity(s string) (Identity, error) {
	if len(s) == 0 {
		return "", fmt.Errorf("%w: empty", ErrInvalidIdentity)
	}
	if len(s) > MaxIdentityLen {
		return "", fmt.Errorf("%w: %d bytes, at most %d allowed", ErrInvalidIdentity, len(s), MaxIdentityLen)
	}
	if !utf8.ValidString(s) {
		return "", fmt.Errorf("%w: not valid UTF-8", ErrInvalidIdentity)
	}
	for _, r := range s {
		if unicode.IsSpace(r) || !unicode.IsPrint(r) {
			return "", fmt.Errorf("%w: %q must be one word of printable characters", ErrInvalidIdentity, s)
		}
	}
	return Identity(s), nil
}

// PeerIdentity decodes a token received during the handshake. The peer is
// not trusted to pad or terminate it, so trailing NUL bytes and whitespace
// are dropped before the length is checked.
func PeerIdentity(b []byte) (Identity, error) {
	token := bytes.TrimRight(b, "\x00\r\n\t ")
	if len(token) == 0 {
		return "", fmt.Errorf("%w: empty peer identity", ErrProtocolViolation)
	}
	if len(token) > MaxIdentityLen {
		return "", fmt.Errorf("%w: peer identity is %d bytes", ErrProtocolViolation, len(token))
	}
	return Identity(token), nil
}

func (id Identity) String() string {
	return string(id)
}
