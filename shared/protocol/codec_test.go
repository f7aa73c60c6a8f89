package protocol

import (
	"errors"
	"reflect"
	"testing"

	"github.com/automoto/ballpit-mp/shared/gamemath"
	"github.com/automoto/ballpit-mp/shared/messages"
)

func TestRoundTripEveryVariant(t *testing.T) {
	c := NewCodec()
	pos := gamemath.Fixed2{X: gamemath.FromRatio(-7, 3), Y: gamemath.FromInt(1 << 40)}
	strength := gamemath.Fixed(-12345)

	packets := map[string]messages.Packet{
		"chat":          messages.ChatMessage("hello, peers"),
		"empty chat":    messages.ChatMessage(""),
		"spawn":         messages.ActionMessage(messages.SpawnBall(pos)),
		"outward":       messages.ActionMessage(messages.OutwardForce(pos, strength)),
		"circular":      messages.ActionMessage(messages.CircularForce(pos, strength)),
		"action packet": messages.ActionPacketMessage(messages.ActionPacket{Tick: 1<<63 + 5, Action: messages.CircularForce(pos, strength)}),
		"reset now":     messages.ResetMessage(messages.ResetImmediately()),
		"reset at":      messages.ResetMessage(messages.ResetAt(1_760_000_000_000)),
	}

	for name, p := range packets {
		t.Run(name, func(t *testing.T) {
			frame, err := c.Encode(p)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			got, err := c.Decode(frame)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, p) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, p)
			}
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	c := NewCodec()
	frames := [][]byte{
		nil,
		{0xc1}, // never used in msgpack
		[]byte("not msgpack at all"),
		make([]byte, MaxFrameSize+1),
	}
	for i, f := range frames {
		if _, err := c.Decode(f); !errors.Is(err, ErrMalformed) {
			t.Errorf("frame %d: err = %v, want ErrMalformed", i, err)
		}
	}
}

func TestDecodeRejectsMismatchedTag(t *testing.T) {
	c := NewCodec()
	// A client packet whose payload pointer does not match its kind.
	bad := messages.Packet{
		Kind:   messages.PacketClient,
		Client: &messages.SimPacket{Kind: messages.SimReset},
	}
	if _, err := c.Encode(bad); err == nil {
		t.Fatal("Encode accepted an invalid packet")
	}

	// Bypass Encode validation to get the bytes on the wire.
	var frame []byte
	if err := encodeRaw(c, &frame, bad); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Decode(frame); !errors.Is(err, ErrMalformed) {
		t.Errorf("err = %v, want ErrMalformed", err)
	}
}

func TestEncodeRejectsUnknownAction(t *testing.T) {
	c := NewCodec()
	p := messages.ActionMessage(messages.Action{Kind: messages.ActionKindCount})
	if _, err := c.Encode(p); err == nil {
		t.Error("expected error for unknown action kind")
	}
}
