package ecs

import (
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// System is a named, ordered processor advancing a subset of components
// once per frame (SPEC_FULL.md §3 Systems). Systems may hold small state of
// their own and are therefore subject to the same packetize/depacketize/hash
// capability set as components. System order is fixed at construction time
// and is part of the simulation's semantics: it is never reconstructed from
// the wire, only validated against (see ErrSystemTagMismatch).
type System interface {
	Kind() SystemType
	TypeTag() string

	// Update advances this system's owned state for the given frame,
	// reading and mutating the Manager's entities/components as needed.
	Update(m *Manager, frame int64) error

	Packetize(b *xbuf.Buffer)
	Depacketize(b *xbuf.Buffer) error
	HashInto(h xhash.Hasher)
	CopyInto(dst System)
}
