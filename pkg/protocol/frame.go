// Package protocol implements the length-prefixed framing used when both
// peers opt into it. A frame on the wire is a uvarint body length followed
// by the body, a protobuf-encoded message:
//
//	message Frame {
//	  uint64 seq     = 1;
//	  bytes  payload = 2;
//	}
//
// Framing makes message boundaries explicit, so a partial TCP read or two
// coalesced writes can no longer be mistaken for one chat line. It is not
// wire compatible with unframed peers.
package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

const (
	fieldSeq     protowire.Number = 1
	fieldPayload protowire.Number = 2
)

var (
	ErrFrameTooLarge  = errors.New("protocol: frame too large")
	ErrMalformedFrame = errors.New("protocol: malformed frame")
)

// Frame is one framed message. Seq starts at 1 for the first frame each
// side sends and increases by one per frame.
type Frame struct {
	Seq     uint64
	Payload []byte
}

// Encode encodes the frame body in protobuf wire format.
func (f *Frame) Encode() []byte {
	b := make([]byte, 0, MaxBodySize(len(f.Payload)))
	b = protowire.AppendTag(b, fieldSeq, protowire.VarintType)
	b = protowire.AppendVarint(b, f.Seq)
	b = protowire.AppendTag(b, fieldPayload, protowire.BytesType)
	b = protowire.AppendBytes(b, f.Payload)
	return b
}

// Decode decodes a frame body. Unknown fields are skipped.
func (f *Frame) Decode(data []byte) error {
	*f = Frame{}
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return fmt.Errorf("%w: %v", ErrMalformedFrame, protowire.ParseError(n))
		}
		data = data[n:]

		switch {
		case num == fieldSeq && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(data)
			if n < 0 {
				return fmt.Errorf("%w: seq: %v", ErrMalformedFrame, protowire.ParseError(n))
			}
			f.Seq = v
			data = data[n:]
		case num == fieldPayload && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(data)
			if n < 0 {
				return fmt.Errorf("%w: payload: %v", ErrMalformedFrame, protowire.ParseError(n))
			}
			f.Payload = append([]byte(nil), v...)
			data = data[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, data)
			if n < 0 {
				return fmt.Errorf("%w: field %d: %v", ErrMalformedFrame, num, protowire.ParseError(n))
			}
			data = data[n:]
		}
	}
	return nil
}

// MaxBodySize is the largest encoded body a frame carrying payloadLen
// bytes can have.
func MaxBodySize(payloadLen int) int {
	return protowire.SizeTag(fieldSeq) + protowire.SizeVarint(math.MaxUint64) +
		protowire.SizeTag(fieldPayload) + protowire.SizeBytes(payloadLen)
}

// AppendFrame appends the length-prefixed encoding of f to b.
func AppendFrame(b []byte, f Frame) []byte {
	body := f.Encode()
	b = protowire.AppendVarint(b, uint64(len(body)))
	return append(b, body...)
}

// WriteFrame writes f with a single Write call.
func WriteFrame(w io.Writer, f Frame) error {
	_, err := w.Write(AppendFrame(nil, f))
	return err
}

// ReadFrame reads the next frame, rejecting frames whose payload would not
// fit in maxPayload bytes. It returns io.EOF only when the stream ends on a
// frame boundary.
func ReadFrame(r *bufio.Reader, maxPayload int) (Frame, error) {
	size, err := binary.ReadUvarint(r)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Frame{}, err
		}
		return Frame{}, fmt.Errorf("%w: length: %v", ErrMalformedFrame, err)
	}
	if size > uint64(MaxBodySize(maxPayload)) {
		return Frame{}, fmt.Errorf("%w: %d byte body", ErrFrameTooLarge, size)
	}

	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return Frame{}, err
	}

	var f Frame
	if err := f.Decode(body); err != nil {
		return Frame{}, err
	}
	if len(f.Payload) > maxPayload {
		return Frame{}, fmt.Errorf("%w: %d byte payload", ErrFrameTooLarge, len(f.Payload))
	}
	return f, nil
}
