// Package protocol turns relay envelopes into frames and back.
// Both the relay and every peer must use the same Codec.
package protocol

import (
	"errors"
	"fmt"

	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/hashicorp/go-msgpack/v2/codec"
)

// ErrMalformed wraps every decode or validation failure. Callers drop the
// frame and keep the connection.
var ErrMalformed = errors.New("malformed packet")

// MaxFrameSize bounds a single frame read from the wire.
const MaxFrameSize = 1 << 16

// Codec encodes packets as msgpack maps keyed by field name, so frames stay
// self-describing across versions.
type Codec struct {
	handle *codec.MsgpackHandle
}

func NewCodec() *Codec {
	h := &codec.MsgpackHandle{}
	h.WriteExt = true
	h.RawToString = true
	return &Codec{handle: h}
}

// Encode validates and serializes a packet.
func (c *Codec) Encode(p messages.Packet) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var out []byte
	if err := codec.NewEncoderBytes(&out, c.handle).Encode(&p); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return out, nil
}

// Decode parses a frame. Any failure is reported as ErrMalformed.
func (c *Codec) Decode(frame []byte) (messages.Packet, error) {
	var p messages.Packet
	if len(frame) == 0 {
		return p, fmt.Errorf("%w: empty frame", ErrMalformed)
	}
	if len(frame) > MaxFrameSize {
		return p, fmt.Errorf("%w: frame of %d bytes", ErrMalformed, len(frame))
	}
	if err := codec.NewDecoderBytes(frame, c.handle).Decode(&p); err != nil {
		return messages.Packet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := p.Validate(); err != nil {
		return messages.Packet{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return p, nil
}
