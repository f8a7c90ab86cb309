// Package command defines the wire-stamped unit of player input
// (SPEC_FULL.md §3 Commands) and the per-frame log that deduplicates and
// orders it. There is exactly one command shape, matching the Open Question
// resolution in SPEC_FULL.md §9: no separate authoritative/tentative struct,
// just an IsAuthoritative flag stamped by whichever side trusts the command.
package command

import (
	"fmt"

	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// Payload is the per-command-type payload a gameplay layer defines. It is
// dispatched through the same process-wide type registry components and
// systems use, so a Command can be depacketized without the reader knowing
// the concrete payload type in advance.
type Payload interface {
	xbuf.Typed
	HashInto(h xhash.Hasher)
	CopyInto(dst Payload)
}

// Command carries one player's input targeted at a specific simulation
// frame. Commands are compared for equivalence by (PlayerNumber, Frame,
// PayloadHash) so the same command arriving twice — once tentatively from a
// local prediction, once authoritatively from the server — can be
// deduplicated.
type Command struct {
	PlayerNumber    int32
	Frame           int64
	IsAuthoritative bool
	ID              int32
	Payload         Payload
}

// PayloadHash returns the payload's hash contribution, used as the third
// component of a command's dedup key.
func (c Command) PayloadHash() uint64 {
	return xhash.Of(c.Payload.HashInto)
}

// key identifies a command for deduplication purposes, per SPEC_FULL.md §3:
// "(player_number, frame, payload_hash)".
type key struct {
	player      int32
	frame       int64
	payloadHash uint64
}

func (c Command) dedupKey() key {
	return key{player: c.PlayerNumber, frame: c.Frame, payloadHash: c.PayloadHash()}
}

// Packetize writes the wire form specified in SPEC_FULL.md §6: the payload's
// type tag, then frame, player_number, is_authoritative, command_id, then the
// payload's own bytes.
func (c Command) Packetize(b *xbuf.Buffer) {
	b.WriteString(c.Payload.TypeTag())
	b.WriteI64(c.Frame)
	b.WriteI32(c.PlayerNumber)
	b.WriteBool(c.IsAuthoritative)
	b.WriteI32(c.ID)
	c.Payload.Packetize(b)
}

// Depacketize reads a Command written by Packetize, looking up the payload's
// concrete type in the global type registry.
func Depacketize(b *xbuf.Buffer) (Command, error) {
	var c Command

	tag, err := b.ReadString()
	if err != nil {
		return Command{}, err
	}
	typed, err := xbuf.Global().New(tag)
	if err != nil {
		return Command{}, err
	}
	payload, ok := typed.(Payload)
	if !ok {
		return Command{}, fmt.Errorf("command: type tag %q does not implement command.Payload", tag)
	}

	if c.Frame, err = b.ReadI64(); err != nil {
		return Command{}, err
	}
	if c.PlayerNumber, err = b.ReadI32(); err != nil {
		return Command{}, err
	}
	if c.IsAuthoritative, err = b.ReadBool(); err != nil {
		return Command{}, err
	}
	if c.ID, err = b.ReadI32(); err != nil {
		return Command{}, err
	}
	if err := payload.Depacketize(b); err != nil {
		return Command{}, err
	}
	c.Payload = payload
	return c, nil
}

// Clone deep-copies the command, cloning its payload through the type
// registry so the copy shares no mutable state with the source.
func (c Command) Clone() (Command, error) {
	typed, err := xbuf.Global().New(c.Payload.TypeTag())
	if err != nil {
		return Command{}, err
	}
	payload, ok := typed.(Payload)
	if !ok {
		return Command{}, fmt.Errorf("command: type tag %q does not implement command.Payload", c.Payload.TypeTag())
	}
	c.Payload.CopyInto(payload)
	clone := c
	clone.Payload = payload
	return clone, nil
}
