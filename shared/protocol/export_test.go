package protocol

import (
	"github.com/automoto/ballpit-mp/shared/messages"
	"github.com/hashicorp/go-msgpack/v2/codec"
)

func encodeRaw(c *Codec, out *[]byte, p messages.Packet) error {
	return codec.NewEncoderBytes(out, c.handle).Encode(&p)
}
