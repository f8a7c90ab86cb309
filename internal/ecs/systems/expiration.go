package systems

import (
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/components"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// ExpirationSystem destroys every entity carrying an Expiration component
// whose ExpireAtFrame has been reached. It runs after TranslationSystem so a
// frame that both moves and expires an entity leaves no stale position
// behind.
type ExpirationSystem struct {
	baseSystem
}

// NewExpirationSystem constructs an enabled ExpirationSystem.
func NewExpirationSystem() *ExpirationSystem {
	return &ExpirationSystem{baseSystem: newBaseSystem()}
}

func (s *ExpirationSystem) Kind() ecs.SystemType { return KindExpiration }
func (s *ExpirationSystem) TypeTag() string       { return "systems.expiration" }

func (s *ExpirationSystem) Update(m *ecs.Manager, frame int64) error {
	if !s.enabled {
		return nil
	}
	var toRemove []ecs.EntityID
	for _, id := range m.ComponentsOfType(components.KindExpiration) {
		comp, ok := m.Component(id)
		if !ok || !m.IsEnabled(id) {
			continue
		}
		exp := comp.(*components.Expiration)
		if frame >= exp.ExpireAtFrame {
			toRemove = append(toRemove, m.EntityOfComponent(id))
		}
	}
	for _, entity := range toRemove {
		if err := m.RemoveEntity(entity); err != nil {
			return err
		}
	}
	return nil
}

func (s *ExpirationSystem) Packetize(b *xbuf.Buffer)       { b.WriteBool(s.enabled) }
func (s *ExpirationSystem) Depacketize(b *xbuf.Buffer) error {
	v, err := b.ReadBool()
	if err != nil {
		return err
	}
	s.enabled = v
	return nil
}
func (s *ExpirationSystem) HashInto(h xhash.Hasher) { h.WriteBool(s.enabled) }
func (s *ExpirationSystem) CopyInto(dst ecs.System) {
	dst.(*ExpirationSystem).enabled = s.enabled
}
