// Package ecs provides the deterministic entity-component-system core the
// simulation and TSS layers are built on: a Manager owning entities,
// components and systems, addressed entirely by stable integer ids so that
// any two peers applying the same command history mint the same ids in the
// same order (SPEC_FULL.md §3).
package ecs

// EntityID is a stable, non-zero integer minted by a Manager. It carries no
// data of its own; it is a grouping key for components.
type EntityID uint32

// InvalidEntityID is never minted by AddEntity.
const InvalidEntityID EntityID = 0

// ComponentID is a stable, monotonically increasing integer within a Manager.
type ComponentID uint32

// InvalidComponentID is never assigned by AddComponent.
const InvalidComponentID ComponentID = 0

// ComponentType is a small, dense identifier for a component's concrete
// type, used for fast lookups and queries. It is distinct from the wire
// type tag string: the tag is only consulted at the Manager/TSS wire
// boundary (SPEC_FULL.md §9 design notes), while ComponentType drives
// in-process dispatch.
type ComponentType uint16

// SystemType is the analogous dense identifier for systems.
type SystemType uint16
