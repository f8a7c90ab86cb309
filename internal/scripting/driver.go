// Package scripting provides a small Lua DSL for driving a
// simulation.Simulation through deterministic test scenarios. It is a
// from-scratch repurposing of the sandboxed-VM idea behind the teacher's
// internal/core/ecs/lua modding bridge, aimed at a different job: instead of
// letting a game's content authors script gameplay, it lets this core's own
// test suites and fixtures script command timing and assert on resulting
// hashes and positions without hand-writing Go for every scenario.
package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/nullframe/trailsim/internal/command"
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/components"
	"github.com/nullframe/trailsim/internal/simulation"
	"github.com/nullframe/trailsim/internal/xhash"
)

// Driver wires a *simulation.Simulation to a single Lua VM and exposes it
// through a handful of global functions. One Driver runs exactly one script;
// scenarios that need more than one simulation (e.g. a client/server
// convergence check) construct one Driver per side and step them in
// lockstep from the host test, not from Lua.
type Driver struct {
	sim   *simulation.Simulation
	state *lua.LState
}

// New returns a Driver around sim, with its DSL functions registered as Lua
// globals. The caller owns sim's lifetime; Close releases only the Lua VM.
func New(sim *simulation.Simulation) *Driver {
	d := &Driver{sim: sim, state: lua.NewState()}

	fns := map[string]lua.LGFunction{
		"spawn":           d.luaSpawn,
		"push_command":    d.luaPushCommand,
		"advance":         d.luaAdvance,
		"current_frame":   d.luaCurrentFrame,
		"position":        d.luaPosition,
		"assert_position": d.luaAssertPosition,
		"assert_hash":     d.luaAssertHash,
	}
	for name, fn := range fns {
		d.state.SetGlobal(name, d.state.NewFunction(fn))
	}
	return d
}

// Close releases the underlying Lua VM. It does not touch the Simulation.
func (d *Driver) Close() {
	d.state.Close()
}

// Run executes script to completion. A failed assertion or a Lua runtime
// error surfaces as a Go error carrying the Lua traceback.
func (d *Driver) Run(script string) error {
	if err := d.state.DoString(script); err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	return nil
}

// spawn(x, y, vx, vy) -> entity_id
// Adds an entity with a Position and Velocity component directly to the
// manager, bypassing the command log; scenario setup is not itself part of
// the rollback-replay surface the DSL is meant to exercise.
func (d *Driver) luaSpawn(L *lua.LState) int {
	x := int64(L.CheckNumber(1))
	y := int64(L.CheckNumber(2))
	vx := int64(L.CheckNumber(3))
	vy := int64(L.CheckNumber(4))

	e := d.sim.Manager.AddEntity()
	if _, err := d.sim.Manager.AddComponent(e, components.NewPosition(x, y)); err != nil {
		L.RaiseError("spawn: add position: %v", err)
		return 0
	}
	if _, err := d.sim.Manager.AddComponent(e, components.NewVelocity(vx, vy)); err != nil {
		L.RaiseError("spawn: add velocity: %v", err)
		return 0
	}
	L.Push(lua.LNumber(e))
	return 1
}

// push_command(frame, player_number, entity_id, dx, dy)
// Schedules a nudgePayload command for the given frame and player, pushed
// through Simulation.PushCommand exactly as a real Client would. The Driver
// wraps a bare Simulation, which never rolls back: a command for a frame the
// simulation has already passed is kept in its log and has no effect.
func (d *Driver) luaPushCommand(L *lua.LState) int {
	frame := int64(L.CheckNumber(1))
	player := int32(L.CheckNumber(2))
	entity := ecs.EntityID(L.CheckNumber(3))
	dx := int64(L.CheckNumber(4))
	dy := int64(L.CheckNumber(5))

	cmd := command.Command{
		PlayerNumber: player,
		Frame:        frame,
		Payload:      &nudgePayload{Entity: entity, DX: dx, DY: dy},
	}
	if err := d.sim.PushCommand(cmd); err != nil {
		L.RaiseError("push_command: %v", err)
	}
	return 0
}

// advance(n) steps the simulation forward n frames.
func (d *Driver) luaAdvance(L *lua.LState) int {
	n := int(L.CheckNumber(1))
	for i := 0; i < n; i++ {
		if err := d.sim.Update(); err != nil {
			L.RaiseError("advance: %v", err)
			return 0
		}
	}
	return 0
}

func (d *Driver) luaCurrentFrame(L *lua.LState) int {
	L.Push(lua.LNumber(d.sim.CurrentFrame))
	return 1
}

// position(entity_id) -> x, y
func (d *Driver) luaPosition(L *lua.LState) int {
	entity := ecs.EntityID(L.CheckNumber(1))
	x, y, err := d.entityPosition(entity)
	if err != nil {
		L.RaiseError("position: %v", err)
		return 0
	}
	L.Push(lua.LNumber(x))
	L.Push(lua.LNumber(y))
	return 2
}

// assert_position(entity_id, x, y) raises a Lua error, failing Run, when
// the entity's Position does not exactly equal (x, y).
func (d *Driver) luaAssertPosition(L *lua.LState) int {
	entity := ecs.EntityID(L.CheckNumber(1))
	wantX := int64(L.CheckNumber(2))
	wantY := int64(L.CheckNumber(3))

	gotX, gotY, err := d.entityPosition(entity)
	if err != nil {
		L.RaiseError("assert_position: %v", err)
		return 0
	}
	if gotX != wantX || gotY != wantY {
		L.RaiseError("assert_position: entity %d at (%d, %d), want (%d, %d)", entity, gotX, gotY, wantX, wantY)
	}
	return 0
}

func (d *Driver) entityPosition(entity ecs.EntityID) (x, y int64, err error) {
	comp, ok := d.sim.Manager.ComponentByType(entity, components.KindPosition)
	if !ok {
		return 0, 0, fmt.Errorf("entity %d has no Position component", entity)
	}
	pos := comp.(*components.Position)
	return pos.Point.X.ToInt(), pos.Point.Y.ToInt(), nil
}

// assert_hash(expected) compares the simulation's current streaming hash
// against expected, a decimal string (Lua has no native 64-bit integer
// literal wide enough to hold a uint64 digest without precision loss).
func (d *Driver) luaAssertHash(L *lua.LState) int {
	expected := L.CheckString(1)
	got := fmt.Sprintf("%d", xhash.Of(d.sim.Hash))
	if got != expected {
		L.RaiseError("assert_hash: got %s, want %s", got, expected)
	}
	return 0
}
