// Package protocol defines the wire framing every session payload uses
// (SPEC_FULL.md §6): a one-byte message-type discriminator followed by a
// message-specific body. The larger bodies — a Command, a TSS snapshot — are
// written directly by their owning packages (command.Command.Packetize,
// tss.TSS.Packetize) straight into the same buffer; this package only owns
// the discriminator and the small fixed-shape payloads.
package protocol

import (
	"errors"
	"fmt"

	"github.com/nullframe/trailsim/internal/xbuf"
)

// MessageType is the single byte that opens every session payload.
type MessageType uint8

const (
	MessageCommand MessageType = iota
	MessageSynchronize
	MessageGameStateRequest
	MessageGameStateResponse
	MessageRemoveGameObject
	MessageHashCheck
)

func (t MessageType) String() string {
	switch t {
	case MessageCommand:
		return "Command"
	case MessageSynchronize:
		return "Synchronize"
	case MessageGameStateRequest:
		return "GameStateRequest"
	case MessageGameStateResponse:
		return "GameStateResponse"
	case MessageRemoveGameObject:
		return "RemoveGameObject"
	case MessageHashCheck:
		return "HashCheck"
	default:
		return fmt.Sprintf("MessageType(%d)", uint8(t))
	}
}

// ErrUnknownMessageType is returned by ReadHeader for a discriminator byte
// outside the six recognized message types.
var ErrUnknownMessageType = errors.New("protocol: unknown message type")

// WriteHeader writes the one-byte discriminator that must open every
// session payload.
func WriteHeader(b *xbuf.Buffer, t MessageType) {
	b.WriteU8(uint8(t))
}

// ReadHeader reads and validates the discriminator byte.
func ReadHeader(b *xbuf.Buffer) (MessageType, error) {
	v, err := b.ReadU8()
	if err != nil {
		return 0, err
	}
	t := MessageType(v)
	if t > MessageHashCheck {
		return 0, fmt.Errorf("%w: %d", ErrUnknownMessageType, v)
	}
	return t, nil
}

// Synchronize is the clock-sync exchange of SPEC_FULL.md §4.5/§4.7: a client
// sends (its frame, 0, its safe load); the server replies (the client's
// sent frame, the server's frame, the adjusted speed).
type Synchronize struct {
	Frame1              int64
	Frame2              int64
	LoadOrAdjustedSpeed float32
}

func (s Synchronize) Packetize(b *xbuf.Buffer) {
	b.WriteI64(s.Frame1)
	b.WriteI64(s.Frame2)
	b.WriteF32(s.LoadOrAdjustedSpeed)
}

func ReadSynchronize(b *xbuf.Buffer) (Synchronize, error) {
	var s Synchronize
	var err error
	if s.Frame1, err = b.ReadI64(); err != nil {
		return Synchronize{}, err
	}
	if s.Frame2, err = b.ReadI64(); err != nil {
		return Synchronize{}, err
	}
	if s.LoadOrAdjustedSpeed, err = b.ReadF32(); err != nil {
		return Synchronize{}, err
	}
	return s, nil
}

// RemoveGameObject tells peers to destroy an entity outside the normal
// command/hash path (used for authoritative server-driven despawns that
// don't need rollback protection — e.g. an object already consumed by
// every peer's trailing state).
type RemoveGameObject struct {
	Frame    int64
	EntityID int32
}

func (r RemoveGameObject) Packetize(b *xbuf.Buffer) {
	b.WriteI64(r.Frame)
	b.WriteI32(r.EntityID)
}

func ReadRemoveGameObject(b *xbuf.Buffer) (RemoveGameObject, error) {
	var r RemoveGameObject
	var err error
	if r.Frame, err = b.ReadI64(); err != nil {
		return RemoveGameObject{}, err
	}
	if r.EntityID, err = b.ReadI32(); err != nil {
		return RemoveGameObject{}, err
	}
	return r, nil
}

// HashCheck carries one peer's hash of its trailing simulation at frame, for
// periodic divergence detection.
type HashCheck struct {
	Frame int64
	Hash  int32
}

func (h HashCheck) Packetize(b *xbuf.Buffer) {
	b.WriteI64(h.Frame)
	b.WriteI32(h.Hash)
}

func ReadHashCheck(b *xbuf.Buffer) (HashCheck, error) {
	var h HashCheck
	var err error
	if h.Frame, err = b.ReadI64(); err != nil {
		return HashCheck{}, err
	}
	if h.Hash, err = b.ReadI32(); err != nil {
		return HashCheck{}, err
	}
	return h, nil
}

// GameStateResponseHeader is the fixed-shape prefix of a GameStateResponse
// payload; the TSS snapshot bytes that follow are written by the caller via
// tss.TSS.Packetize directly into the same buffer.
type GameStateResponseHeader struct {
	Hash int32
}

func (g GameStateResponseHeader) Packetize(b *xbuf.Buffer) {
	b.WriteI32(g.Hash)
}

func ReadGameStateResponseHeader(b *xbuf.Buffer) (GameStateResponseHeader, error) {
	hash, err := b.ReadI32()
	if err != nil {
		return GameStateResponseHeader{}, err
	}
	return GameStateResponseHeader{Hash: hash}, nil
}
