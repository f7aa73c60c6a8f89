package network

import (
	"fmt"

	"github.com/automoto/ballpit-mp/shared/messages"
)

// ConnID identifies one connection for the lifetime of a relay or client.
// IDs are never reused.
type ConnID uint64

// EventKind is the connection lifecycle stage an Event reports.
type EventKind int

const (
	EventConnected    EventKind = iota // client side: handshake completed
	EventAccepted                      // relay side: a peer joined
	EventDisconnected                  // either side: the connection is gone
	EventMessage                       // a packet was decoded
)

func (k EventKind) String() string {
	switch k {
	case EventConnected:
		return "connected"
	case EventAccepted:
		return "accepted"
	case EventDisconnected:
		return "disconnected"
	case EventMessage:
		return "message"
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// Event is one entry of the lifecycle stream. Packet is set for
// EventMessage, Err may be set for EventDisconnected.
type Event struct {
	Kind   EventKind
	Conn   ConnID
	Packet messages.Packet
	Err    error
}

// Handler receives events. Events of one connection arrive in order; handlers
// for different connections may run concurrently and must not block for long.
type Handler func(Event)
