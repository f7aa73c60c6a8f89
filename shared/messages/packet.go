package messages

import (
	"errors"
	"fmt"
)

// PacketKind tags the wire envelope.
type PacketKind uint8

const (
	PacketChat PacketKind = iota + 1
	PacketClient
)

// Packet is the envelope every relay frame carries: either a chat line
// or a simulation payload.
type Packet struct {
	Kind   PacketKind
	Chat   string     `codec:",omitempty"`
	Client *SimPacket `codec:",omitempty"`
}

// SimKind tags the simulation payload.
type SimKind uint8

const (
	SimAction SimKind = iota + 1
	SimActionPacket
	SimReset
)

// SimPacket carries exactly one of its pointer fields, selected by Kind.
type SimPacket struct {
	Kind         SimKind
	Action       *Action       `codec:",omitempty"`
	ActionPacket *ActionPacket `codec:",omitempty"`
	Reset        *ResetRequest `codec:",omitempty"`
}

func ChatMessage(text string) Packet {
	return Packet{Kind: PacketChat, Chat: text}
}

func ActionMessage(a Action) Packet {
	return Packet{Kind: PacketClient, Client: &SimPacket{Kind: SimAction, Action: &a}}
}

func ActionPacketMessage(p ActionPacket) Packet {
	return Packet{Kind: PacketClient, Client: &SimPacket{Kind: SimActionPacket, ActionPacket: &p}}
}

func ResetMessage(r ResetRequest) Packet {
	return Packet{Kind: PacketClient, Client: &SimPacket{Kind: SimReset, Reset: &r}}
}

var errMissingPayload = errors.New("missing payload")

// Validate checks that the tag and the populated field agree.
func (p Packet) Validate() error {
	switch p.Kind {
	case PacketChat:
		if p.Client != nil {
			return errors.New("chat packet carries a client payload")
		}
		return nil
	case PacketClient:
		if p.Client == nil {
			return errMissingPayload
		}
		return p.Client.Validate()
	}
	return fmt.Errorf("invalid packet kind %d", uint8(p.Kind))
}

func (s SimPacket) Validate() error {
	switch s.Kind {
	case SimAction:
		if s.Action == nil {
			return fmt.Errorf("action: %w", errMissingPayload)
		}
		return s.Action.Validate()
	case SimActionPacket:
		if s.ActionPacket == nil {
			return fmt.Errorf("action packet: %w", errMissingPayload)
		}
		return s.ActionPacket.Action.Validate()
	case SimReset:
		if s.Reset == nil {
			return fmt.Errorf("reset: %w", errMissingPayload)
		}
		return s.Reset.Validate()
	}
	return fmt.Errorf("invalid sim packet kind %d", uint8(s.Kind))
}
