// Package components provides the reference component set sufficient to
// exercise and test the core: position, velocity, and a frame-stamped
// expiration marker (SPEC_FULL.md §2 item "reference systems sufficient for
// testing"), adapted from the teacher's TransformComponent/PhysicsComponent
// (internal/core/ecs/components/transform.go, physics.go) with the
// non-deterministic hierarchy/dirty-cache machinery stripped and fixed-point
// fields in place of float64.
package components

import "github.com/nullframe/trailsim/internal/ecs"

// Component type identifiers for the reference set. Gameplay-specific
// types in a real game built on this core would continue numbering from
// here.
const (
	KindPosition ecs.ComponentType = iota + 1
	KindVelocity
	KindExpiration
	KindIndex
)
