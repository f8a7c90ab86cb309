// Package session defines the external, message-oriented peer collaborator
// SPEC_FULL.md §6 describes: an addressable session that a controller joins,
// sends framed bytes over, and receives join/leave/data events from. The
// real transport is explicitly out of this core's scope (spec.md §1); this
// package only carries the interface plus two in-memory implementations:
// NewPipe, which cmd/lockstepd uses, and the multi-peer Loopback, which
// only this package's tests use.
package session

import "context"

// EventKind classifies an Event delivered by a Session.
type EventKind int

const (
	EventJoined EventKind = iota
	EventLeft
	EventData
)

func (k EventKind) String() string {
	switch k {
	case EventJoined:
		return "Joined"
	case EventLeft:
		return "Left"
	case EventData:
		return "Data"
	default:
		return "Unknown"
	}
}

// Event is one occurrence on a Session: a peer joining or leaving, or a
// framed payload arriving from one.
type Event struct {
	Kind         EventKind
	PlayerNumber int32
	Data         []byte
}

// Session is the external collaborator a controller drives. A real
// implementation sits on top of whatever datagram or stream transport the
// host application chooses; this core constructs only the in-memory ones
// (NewPipe in cmd/lockstepd, Loopback in tests).
type Session interface {
	// Join registers this peer under playerNumber and begins delivering
	// events.
	Join(ctx context.Context, playerNumber int32) error
	// Leave disconnects this peer. Events() is closed afterward.
	Leave() error
	// Send transmits one already-framed payload (protocol.MessageType
	// prefix plus body) to every other joined peer.
	Send(data []byte) error
	// Events delivers join/leave/data occurrences in arrival order. The
	// channel is closed after Leave.
	Events() <-chan Event
}
