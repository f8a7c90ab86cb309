package systems

import (
	"sort"

	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/components"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// IndexSystem assigns every entity carrying an Index component a dense,
// ascending slot number ranked by entity id. It recomputes the full
// assignment every frame rather than tracking incremental joins/leaves, so
// the result is a pure function of which entities currently hold an Index
// component — reproducible from any trailing state without replaying history.
type IndexSystem struct {
	baseSystem
}

// NewIndexSystem constructs an enabled IndexSystem.
func NewIndexSystem() *IndexSystem {
	return &IndexSystem{baseSystem: newBaseSystem()}
}

func (s *IndexSystem) Kind() ecs.SystemType { return KindIndex }
func (s *IndexSystem) TypeTag() string       { return "systems.index" }

func (s *IndexSystem) Update(m *ecs.Manager, frame int64) error {
	if !s.enabled {
		return nil
	}
	ids := m.ComponentsOfType(components.KindIndex)
	type entry struct {
		entity ecs.EntityID
		compID ecs.ComponentID
	}
	entries := make([]entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, entry{entity: m.EntityOfComponent(id), compID: id})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].entity < entries[j].entity })

	for slot, e := range entries {
		comp, ok := m.Component(e.compID)
		if !ok {
			continue
		}
		idx := comp.(*components.Index)
		idx.Slot = int32(slot)
	}
	return nil
}

func (s *IndexSystem) Packetize(b *xbuf.Buffer)       { b.WriteBool(s.enabled) }
func (s *IndexSystem) Depacketize(b *xbuf.Buffer) error {
	v, err := b.ReadBool()
	if err != nil {
		return err
	}
	s.enabled = v
	return nil
}
func (s *IndexSystem) HashInto(h xhash.Hasher) { h.WriteBool(s.enabled) }
func (s *IndexSystem) CopyInto(dst ecs.System) {
	dst.(*IndexSystem).enabled = s.enabled
}
