package ecs

import (
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// Component is the capability set every component payload type must
// implement (SPEC_FULL.md §3 Components): a stable wire tag for dynamic
// reconstruction at the Manager boundary, deterministic serialization, a
// hash contribution, and a field-by-field copy into a same-typed
// destination. There is no inheritance here — see design note §9 ("Deep
// inheritance") — only this flat interface.
type Component interface {
	// Kind returns the dense in-process type identifier used for queries
	// and the (entity, type) index. It never appears on the wire.
	Kind() ComponentType

	// TypeTag returns the stable string registered with the global type
	// registry, consulted only at the Manager packetize/depacketize
	// boundary.
	TypeTag() string

	// Packetize writes this component's payload fields, and only its
	// payload fields, in deterministic order.
	Packetize(b *xbuf.Buffer)

	// Depacketize is the exact inverse of Packetize.
	Depacketize(b *xbuf.Buffer) error

	// HashInto feeds the exact byte sequence this component contributes to
	// a running hash. It must be a pure function of logical state: no
	// pointers, no map iteration order, no wall-clock reads.
	HashInto(h xhash.Hasher)

	// CopyInto performs a field-by-field copy of this component's state
	// into dst, which must be the same concrete type (constructed via the
	// same type registry entry as this component).
	CopyInto(dst Component)
}

// record is the Manager's internal wrapper pairing a Component payload with
// the bookkeeping fields spec.md §3 assigns to every component: a stable id,
// its owning entity, and an enabled flag.
type record struct {
	id      ComponentID
	entity  EntityID
	enabled bool
	payload Component
}
