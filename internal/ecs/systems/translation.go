package systems

import (
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/components"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// TranslationSystem advances every entity with both a Position and a
// Velocity component by adding velocity to position once per frame,
// adapted from the teacher's MovementSystem
// (internal/core/systems/movement.go) with acceleration/max-speed/boundary
// clamping dropped — velocity integration in fixed point is the minimal
// behavior the rollback test scenarios (SPEC_FULL.md §8 E2E-A) need.
type TranslationSystem struct {
	baseSystem
}

// NewTranslationSystem constructs an enabled TranslationSystem.
func NewTranslationSystem() *TranslationSystem {
	return &TranslationSystem{baseSystem: newBaseSystem()}
}

func (s *TranslationSystem) Kind() ecs.SystemType { return KindTranslation }
func (s *TranslationSystem) TypeTag() string       { return "systems.translation" }

func (s *TranslationSystem) Update(m *ecs.Manager, frame int64) error {
	if !s.enabled {
		return nil
	}
	for _, posID := range m.ComponentsOfType(components.KindPosition) {
		posComp, ok := m.Component(posID)
		if !ok || !m.IsEnabled(posID) {
			continue
		}
		pos := posComp.(*components.Position)

		entity := m.EntityOfComponent(posID)
		velComp, ok := m.ComponentByType(entity, components.KindVelocity)
		if !ok {
			continue
		}
		vel := velComp.(*components.Velocity)
		pos.Point = pos.Point.Add(vel.Point)
	}
	return nil
}

func (s *TranslationSystem) Packetize(b *xbuf.Buffer)       { b.WriteBool(s.enabled) }
func (s *TranslationSystem) Depacketize(b *xbuf.Buffer) error {
	v, err := b.ReadBool()
	if err != nil {
		return err
	}
	s.enabled = v
	return nil
}
func (s *TranslationSystem) HashInto(h xhash.Hasher) { h.WriteBool(s.enabled) }
func (s *TranslationSystem) CopyInto(dst ecs.System) {
	dst.(*TranslationSystem).enabled = s.enabled
}
