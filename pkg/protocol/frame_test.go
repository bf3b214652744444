package protocol_test

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omochice/turn-chat/pkg/protocol"
)

func TestReadFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame protocol.Frame
	}{
		{"handshake token", protocol.Frame{Seq: 1, Payload: []byte("alice")}},
		{"chat line", protocol.Frame{Seq: 2, Payload: []byte("alice> hello\n")}},
		{"empty payload", protocol.Frame{Seq: 3, Payload: []byte{}}},
		{"large seq", protocol.Frame{Seq: 1 << 40, Payload: []byte(`\quit`)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, protocol.WriteFrame(&buf, tt.frame))

			got, err := protocol.ReadFrame(bufio.NewReader(&buf), 512)
			require.NoError(t, err)
			assert.Equal(t, tt.frame.Seq, got.Seq)
			assert.Equal(t, string(tt.frame.Payload), string(got.Payload))
			assert.Zero(t, buf.Len())
		})
	}
}

func TestReadFrame_KeepsBoundaries(t *testing.T) {
	// two frames written back to back arrive in one TCP segment
	var wire []byte
	wire = protocol.AppendFrame(wire, protocol.Frame{Seq: 1, Payload: []byte("bob> one\n")})
	wire = protocol.AppendFrame(wire, protocol.Frame{Seq: 2, Payload: []byte("bob> two\n")})
	r := bufio.NewReader(bytes.NewReader(wire))

	first, err := protocol.ReadFrame(r, 512)
	require.NoError(t, err)
	second, err := protocol.ReadFrame(r, 512)
	require.NoError(t, err)
	_, err = protocol.ReadFrame(r, 512)

	assert.Equal(t, "bob> one\n", string(first.Payload))
	assert.Equal(t, "bob> two\n", string(second.Payload))
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadFrame_TooLarge(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, protocol.WriteFrame(&buf, protocol.Frame{Seq: 1, Payload: []byte(strings.Repeat("x", 11))}))

	_, err := protocol.ReadFrame(bufio.NewReader(&buf), 10)
	assert.ErrorIs(t, err, protocol.ErrFrameTooLarge)
}

func TestReadFrame_Truncated(t *testing.T) {
	wire := protocol.AppendFrame(nil, protocol.Frame{Seq: 1, Payload: []byte("alice> hello\n")})

	_, err := protocol.ReadFrame(bufio.NewReader(bytes.NewReader(wire[:len(wire)-3])), 512)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestReadFrame_OversizedLengthPrefix(t *testing.T) {
	// a length prefix larger than any frame the reader accepts is rejected
	// before the body is allocated
	wire := []byte{0xff, 0xff, 0xff, 0xff, 0x0f}

	_, err := protocol.ReadFrame(bufio.NewReader(bytes.NewReader(wire)), 512)
	assert.ErrorIs(t, err, protocol.ErrFrameTooLarge)
}

func TestFrame_DecodeMalformed(t *testing.T) {
	var f protocol.Frame
	err := f.Decode([]byte{0x12, 0x05, 'a'})
	assert.ErrorIs(t, err, protocol.ErrMalformedFrame)
}
