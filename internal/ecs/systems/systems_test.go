package systems

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/components"
)

func newTestManager() *ecs.Manager {
	m := ecs.NewManager()
	m.AddSystem(NewTranslationSystem())
	m.AddSystem(NewExpirationSystem())
	m.AddSystem(NewIndexSystem())
	return m
}

func TestTranslationSystemIntegratesVelocity(t *testing.T) {
	m := newTestManager()
	e := m.AddEntity()
	_, err := m.AddComponent(e, components.NewPosition(0, 0))
	require.NoError(t, err)
	_, err = m.AddComponent(e, components.NewVelocity(2, -1))
	require.NoError(t, err)

	require.NoError(t, m.Update(1))

	posID, ok := m.GetComponentID(e, components.KindPosition)
	require.True(t, ok)
	comp, ok := m.Component(posID)
	require.True(t, ok)
	pos := comp.(*components.Position)
	require.Equal(t, int64(2), pos.Point.X.ToInt())
	require.Equal(t, int64(-1), pos.Point.Y.ToInt())
}

func TestTranslationSystemSkipsEntityWithoutVelocity(t *testing.T) {
	m := newTestManager()
	e := m.AddEntity()
	_, err := m.AddComponent(e, components.NewPosition(5, 5))
	require.NoError(t, err)

	require.NoError(t, m.Update(1))

	posID, _ := m.GetComponentID(e, components.KindPosition)
	comp, _ := m.Component(posID)
	pos := comp.(*components.Position)
	require.Equal(t, int64(5), pos.Point.X.ToInt())
}

func TestExpirationSystemRemovesAtDeadline(t *testing.T) {
	m := newTestManager()
	e := m.AddEntity()
	_, err := m.AddComponent(e, components.NewExpiration(3))
	require.NoError(t, err)

	require.NoError(t, m.Update(2))
	require.True(t, m.IsValidEntity(e))

	require.NoError(t, m.Update(3))
	require.False(t, m.IsValidEntity(e))
}

func TestIndexSystemAssignsAscendingSlotsByEntityID(t *testing.T) {
	m := newTestManager()
	e1 := m.AddEntity()
	e2 := m.AddEntity()
	e3 := m.AddEntity()

	_, err := m.AddComponent(e3, components.NewIndex())
	require.NoError(t, err)
	_, err = m.AddComponent(e1, components.NewIndex())
	require.NoError(t, err)
	_, err = m.AddComponent(e2, components.NewIndex())
	require.NoError(t, err)

	require.NoError(t, m.Update(1))

	slotOf := func(e ecs.EntityID) int32 {
		id, ok := m.GetComponentID(e, components.KindIndex)
		require.True(t, ok)
		comp, _ := m.Component(id)
		return comp.(*components.Index).Slot
	}

	require.Equal(t, int32(0), slotOf(e1))
	require.Equal(t, int32(1), slotOf(e2))
	require.Equal(t, int32(2), slotOf(e3))
}

func TestIndexSystemRecomputesAfterRemoval(t *testing.T) {
	m := newTestManager()
	e1 := m.AddEntity()
	e2 := m.AddEntity()
	_, err := m.AddComponent(e1, components.NewIndex())
	require.NoError(t, err)
	_, err = m.AddComponent(e2, components.NewIndex())
	require.NoError(t, err)

	require.NoError(t, m.Update(1))
	require.NoError(t, m.RemoveEntity(e1))
	require.NoError(t, m.Update(2))

	id, ok := m.GetComponentID(e2, components.KindIndex)
	require.True(t, ok)
	comp, _ := m.Component(id)
	require.Equal(t, int32(0), comp.(*components.Index).Slot)
}
