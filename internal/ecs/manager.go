package ecs

import (
	"sort"

	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

// Manager owns every entity, component, and system in one simulation
// instance (SPEC_FULL.md §4.2). It is the flat table of value storages the
// design notes call for: components never hold references to one another,
// so a Manager's entire logical state is reconstructable from
// Packetize/Depacketize and comparable byte-for-byte via Hash.
//
// A Manager is not safe for concurrent use; SPEC_FULL.md §5 requires a
// controller to own its Manager exclusively for the duration of one Update.
type Manager struct {
	nextEntityID    EntityID
	nextComponentID ComponentID

	// entity table: entity id -> set of owned component ids.
	entities map[EntityID]map[ComponentID]struct{}

	// component table: component id -> record.
	components map[ComponentID]*record

	// type index: (entity id, component type) -> component id.
	typeIndex map[EntityID]map[ComponentType]ComponentID

	// ascending order of live component ids, maintained incrementally so
	// ComponentsOfType/Packetize/Hash never depend on map iteration order
	// (SPEC_FULL.md §4.2 determinism invariants).
	sortedIDs []ComponentID

	systems     []System
	systemIndex map[SystemType]int

	bus messageBus
}

// NewManager returns an empty Manager with no systems registered.
func NewManager() *Manager {
	return &Manager{
		entities:    make(map[EntityID]map[ComponentID]struct{}),
		components:  make(map[ComponentID]*record),
		typeIndex:   make(map[EntityID]map[ComponentType]ComponentID),
		systemIndex: make(map[SystemType]int),
	}
}

// OnEntityRemoved registers a handler invoked synchronously, before
// structural removal, whenever RemoveEntity is called.
func (m *Manager) OnEntityRemoved(fn func(EntityRemovedMsg)) { m.bus.onEntityRemoved(fn) }

// OnComponentAdded registers a handler invoked after AddComponent completes.
func (m *Manager) OnComponentAdded(fn func(ComponentAddedMsg)) { m.bus.onComponentAdded(fn) }

// OnComponentRemoved registers a handler invoked after RemoveComponent completes.
func (m *Manager) OnComponentRemoved(fn func(ComponentRemovedMsg)) { m.bus.onComponentRemoved(fn) }

// AddEntity mints a fresh, non-zero entity id.
func (m *Manager) AddEntity() EntityID {
	m.nextEntityID++
	id := m.nextEntityID
	m.entities[id] = make(map[ComponentID]struct{})
	return id
}

// IsValidEntity reports whether id currently names a live entity.
func (m *Manager) IsValidEntity(id EntityID) bool {
	_, ok := m.entities[id]
	return ok
}

// EntityCount returns the number of live entities.
func (m *Manager) EntityCount() int { return len(m.entities) }

// ActiveEntities returns every live entity id, sorted ascending for
// deterministic iteration.
func (m *Manager) ActiveEntities() []EntityID {
	out := make([]EntityID, 0, len(m.entities))
	for id := range m.entities {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// RemoveEntity destroys an entity: it broadcasts EntityRemoved, then
// removes every component the entity owns, then removes the entity id
// itself (SPEC_FULL.md §4.2).
func (m *Manager) RemoveEntity(id EntityID) error {
	owned, ok := m.entities[id]
	if !ok {
		return ErrEntityNotFound(id)
	}

	m.bus.publishEntityRemoved(EntityRemovedMsg{Entity: id})

	ids := make([]ComponentID, 0, len(owned))
	for cid := range owned {
		ids = append(ids, cid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, cid := range ids {
		m.removeComponentNoEntityCheck(cid)
	}

	delete(m.entities, id)
	delete(m.typeIndex, id)
	return nil
}

// AddComponent attaches c to entity, minting a fresh component id. It fails
// if entity does not exist or already has a component of c's type.
func (m *Manager) AddComponent(entity EntityID, c Component) (ComponentID, error) {
	owned, ok := m.entities[entity]
	if !ok {
		return InvalidComponentID, ErrEntityNotFound(entity)
	}
	kind := c.Kind()
	if byType, ok := m.typeIndex[entity]; ok {
		if _, exists := byType[kind]; exists {
			return InvalidComponentID, ErrComponentExists(entity, kind)
		}
	}

	m.nextComponentID++
	id := m.nextComponentID

	rec := &record{id: id, entity: entity, enabled: true, payload: c}
	m.components[id] = rec
	owned[id] = struct{}{}
	if m.typeIndex[entity] == nil {
		m.typeIndex[entity] = make(map[ComponentType]ComponentID)
	}
	m.typeIndex[entity][kind] = id
	m.sortedIDs = append(m.sortedIDs, id) // ids increase monotonically: already sorted

	m.bus.publishComponentAdded(ComponentAddedMsg{Component: id, Entity: entity, Kind: kind})
	return id, nil
}

// RemoveComponent detaches a component by id.
func (m *Manager) RemoveComponent(id ComponentID) error {
	if _, ok := m.components[id]; !ok {
		return ErrComponentNotFound(id)
	}
	m.removeComponentNoEntityCheck(id)
	return nil
}

// removeComponentNoEntityCheck removes bookkeeping for id without requiring
// the owning entity to still be present (used during entity teardown, where
// the entity's map is removed right after this returns).
func (m *Manager) removeComponentNoEntityCheck(id ComponentID) {
	rec, ok := m.components[id]
	if !ok {
		return
	}
	kind := rec.payload.Kind()

	if owned, ok := m.entities[rec.entity]; ok {
		delete(owned, id)
	}
	if byType, ok := m.typeIndex[rec.entity]; ok {
		if byType[kind] == id {
			delete(byType, kind)
		}
	}
	delete(m.components, id)

	idx := sort.Search(len(m.sortedIDs), func(i int) bool { return m.sortedIDs[i] >= id })
	if idx < len(m.sortedIDs) && m.sortedIDs[idx] == id {
		m.sortedIDs = append(m.sortedIDs[:idx], m.sortedIDs[idx+1:]...)
	}

	m.bus.publishComponentRemoved(ComponentRemovedMsg{Component: id, Entity: rec.entity, Kind: kind})
}

// GetComponentID resolves the (entity, type) pair to a component id.
func (m *Manager) GetComponentID(entity EntityID, kind ComponentType) (ComponentID, bool) {
	byType, ok := m.typeIndex[entity]
	if !ok {
		return InvalidComponentID, false
	}
	id, ok := byType[kind]
	return id, ok
}

// Component fetches a component payload by id.
func (m *Manager) Component(id ComponentID) (Component, bool) {
	rec, ok := m.components[id]
	if !ok {
		return nil, false
	}
	return rec.payload, true
}

// ComponentByType is a convenience wrapper combining GetComponentID and
// Component.
func (m *Manager) ComponentByType(entity EntityID, kind ComponentType) (Component, bool) {
	id, ok := m.GetComponentID(entity, kind)
	if !ok {
		return nil, false
	}
	return m.Component(id)
}

// EntityOfComponent returns the entity owning id, or InvalidEntityID if id
// does not name a live component.
func (m *Manager) EntityOfComponent(id ComponentID) EntityID {
	rec, ok := m.components[id]
	if !ok {
		return InvalidEntityID
	}
	return rec.entity
}

// IsEnabled reports a component's enabled flag.
func (m *Manager) IsEnabled(id ComponentID) bool {
	rec, ok := m.components[id]
	return ok && rec.enabled
}

// SetEnabled toggles a component's enabled flag.
func (m *Manager) SetEnabled(id ComponentID, enabled bool) {
	if rec, ok := m.components[id]; ok {
		rec.enabled = enabled
	}
}

// ComponentsOfType returns every live component id of the given type, in
// ascending component-id order (SPEC_FULL.md §4.2 iteration stability).
func (m *Manager) ComponentsOfType(kind ComponentType) []ComponentID {
	out := make([]ComponentID, 0)
	for _, id := range m.sortedIDs {
		if m.components[id].payload.Kind() == kind {
			out = append(out, id)
		}
	}
	return out
}

// AddSystem appends a system to the update order. Systems must be added in
// the same order on every peer constructing an equivalent Manager.
func (m *Manager) AddSystem(s System) {
	m.systemIndex[s.Kind()] = len(m.systems)
	m.systems = append(m.systems, s)
}

// Systems returns the registered systems in declared order.
func (m *Manager) Systems() []System {
	return append([]System(nil), m.systems...)
}

// Update runs every system's Update in declared order.
func (m *Manager) Update(frame int64) error {
	for _, s := range m.systems {
		if err := s.Update(m, frame); err != nil {
			return err
		}
	}
	return nil
}

// Packetize serializes the Manager's full logical state: the id counters,
// every system in declared order, then every component in ascending
// component-id order (the Manager-state wire layout of SPEC_FULL.md §6).
func (m *Manager) Packetize(b *xbuf.Buffer) {
	b.WriteI32(int32(m.nextEntityID))
	b.WriteI32(int32(m.nextComponentID))

	b.WriteU32(uint32(len(m.systems)))
	for _, s := range m.systems {
		b.WriteString(s.TypeTag())
		s.Packetize(b)
	}

	b.WriteU32(uint32(len(m.sortedIDs)))
	for _, id := range m.sortedIDs {
		rec := m.components[id]
		b.WriteString(rec.payload.TypeTag())
		b.WriteI32(int32(rec.entity))
		b.WriteBool(rec.enabled)
		rec.payload.Packetize(b)
	}
}

// Depacketize replaces the Manager's entity/component state with what was
// serialized by Packetize. The Manager must already carry the same ordered
// systems it was constructed with: systems are structural, not
// wire-reconstructed (SPEC_FULL.md §9 design notes), so a tag mismatch
// reports ErrSystemTagMismatch.
func (m *Manager) Depacketize(b *xbuf.Buffer) error {
	nextEntityID, err := b.ReadI32()
	if err != nil {
		return err
	}
	nextComponentID, err := b.ReadI32()
	if err != nil {
		return err
	}

	systemCount, err := b.ReadU32()
	if err != nil {
		return err
	}
	if int(systemCount) != len(m.systems) {
		return newError(ErrCodeSystemTagMismatch, SeverityCritical,
			"serialized system count does not match registered systems", nil)
	}
	for _, s := range m.systems {
		tag, err := b.ReadString()
		if err != nil {
			return err
		}
		if tag != s.TypeTag() {
			return ErrSystemTagMismatch(s.TypeTag(), tag)
		}
		if err := s.Depacketize(b); err != nil {
			return err
		}
	}

	componentCount, err := b.ReadU32()
	if err != nil {
		return err
	}

	m.entities = make(map[EntityID]map[ComponentID]struct{})
	m.components = make(map[ComponentID]*record)
	m.typeIndex = make(map[EntityID]map[ComponentType]ComponentID)
	m.sortedIDs = make([]ComponentID, 0, componentCount)
	m.nextComponentID = 0

	for i := uint32(0); i < componentCount; i++ {
		tag, err := b.ReadString()
		if err != nil {
			return err
		}
		entityRaw, err := b.ReadI32()
		if err != nil {
			return err
		}
		enabled, err := b.ReadBool()
		if err != nil {
			return err
		}
		typed, err := xbuf.Global().New(tag)
		if err != nil {
			return err
		}
		payload, ok := typed.(Component)
		if !ok {
			return newError(ErrCodeUnknownTypeTag, SeverityCritical,
				"registered type tag does not implement ecs.Component", nil)
		}
		if err := payload.Depacketize(b); err != nil {
			return err
		}

		entity := EntityID(entityRaw)
		m.nextComponentID++
		id := m.nextComponentID
		rec := &record{id: id, entity: entity, enabled: enabled, payload: payload}
		m.components[id] = rec
		if m.entities[entity] == nil {
			m.entities[entity] = make(map[ComponentID]struct{})
		}
		m.entities[entity][id] = struct{}{}
		if m.typeIndex[entity] == nil {
			m.typeIndex[entity] = make(map[ComponentType]ComponentID)
		}
		m.typeIndex[entity][payload.Kind()] = id
		m.sortedIDs = append(m.sortedIDs, id)
	}

	m.nextEntityID = EntityID(nextEntityID)
	m.nextComponentID = ComponentID(nextComponentID)
	return nil
}

// Hash feeds every system's hash contribution in declared order, then every
// component's hash contribution in ascending component-id order, so Hash is
// a pure function of logical state (SPEC_FULL.md §4.2).
func (m *Manager) Hash(h xhash.Hasher) {
	for _, s := range m.systems {
		h.WriteString(s.TypeTag())
		s.HashInto(h)
	}
	for _, id := range m.sortedIDs {
		rec := m.components[id]
		h.WriteString(rec.payload.TypeTag())
		h.WriteUint32(uint32(rec.entity))
		h.WriteBool(rec.enabled)
		rec.payload.HashInto(h)
	}
}

// CopyInto clears dst and deep-copies this Manager's entities, components,
// and system state into it, preserving every id. dst must already have the
// same ordered systems registered as m (see Depacketize).
func (m *Manager) CopyInto(dst *Manager) error {
	if len(dst.systems) != len(m.systems) {
		return newError(ErrCodeSystemTagMismatch, SeverityCritical,
			"destination manager has a different system count", nil)
	}
	for i, s := range m.systems {
		if dst.systems[i].TypeTag() != s.TypeTag() {
			return ErrSystemTagMismatch(s.TypeTag(), dst.systems[i].TypeTag())
		}
		s.CopyInto(dst.systems[i])
	}

	dst.entities = make(map[EntityID]map[ComponentID]struct{}, len(m.entities))
	for id := range m.entities {
		dst.entities[id] = make(map[ComponentID]struct{})
	}
	dst.components = make(map[ComponentID]*record, len(m.components))
	dst.typeIndex = make(map[EntityID]map[ComponentType]ComponentID, len(m.typeIndex))
	dst.sortedIDs = make([]ComponentID, 0, len(m.sortedIDs))

	for _, id := range m.sortedIDs {
		rec := m.components[id]
		typed, err := xbuf.Global().New(rec.payload.TypeTag())
		if err != nil {
			return err
		}
		clone, ok := typed.(Component)
		if !ok {
			return newError(ErrCodeUnknownTypeTag, SeverityCritical,
				"registered type tag does not implement ecs.Component", nil)
		}
		rec.payload.CopyInto(clone)

		newRec := &record{id: rec.id, entity: rec.entity, enabled: rec.enabled, payload: clone}
		dst.components[id] = newRec
		if dst.entities[rec.entity] == nil {
			dst.entities[rec.entity] = make(map[ComponentID]struct{})
		}
		dst.entities[rec.entity][id] = struct{}{}
		if dst.typeIndex[rec.entity] == nil {
			dst.typeIndex[rec.entity] = make(map[ComponentType]ComponentID)
		}
		dst.typeIndex[rec.entity][clone.Kind()] = id
		dst.sortedIDs = append(dst.sortedIDs, id)
	}

	dst.nextEntityID = m.nextEntityID
	dst.nextComponentID = m.nextComponentID
	return nil
}
