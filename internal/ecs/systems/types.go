// Package systems provides the reference system set the core ships for
// testing: translation (position += velocity), expiration, and index
// assignment (SPEC_FULL.md §2's "reference systems sufficient for testing").
// Adapted from the teacher's internal/core/systems package (BaseSystem,
// MovementSystem) with the priority/parallel-execution/render/metrics
// machinery stripped — system order here is a fixed slice on ecs.Manager,
// not a runtime-computed dependency graph (SPEC_FULL.md §3 Systems).
package systems

import "github.com/nullframe/trailsim/internal/ecs"

const (
	KindTranslation ecs.SystemType = iota + 1
	KindExpiration
	KindIndex
)

// baseSystem carries the one piece of state every reference system needs:
// whether it currently runs. It has no hash contribution of its own beyond
// that flag, matching the teacher's BaseSystem enabled/disabled toggle.
type baseSystem struct {
	enabled bool
}

func newBaseSystem() baseSystem { return baseSystem{enabled: true} }

func (b *baseSystem) Enabled() bool     { return b.enabled }
func (b *baseSystem) SetEnabled(v bool) { b.enabled = v }
