package scripting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/systems"
	"github.com/nullframe/trailsim/internal/simulation"
)

func newScriptedSim() *simulation.Simulation {
	m := ecs.NewManager()
	m.AddSystem(systems.NewTranslationSystem())
	return simulation.New(m, simulation.DefaultConfig(), NudgeHandler{})
}

func TestDriverAdvancesPositionByVelocity(t *testing.T) {
	sim := newScriptedSim()
	d := New(sim)
	defer d.Close()

	err := d.Run(`
		e = spawn(0, 0, 1, 2)
		advance(3)
		assert_position(e, 3, 6)
	`)
	require.NoError(t, err)
}

func TestDriverPushCommandAtPastFrameHasNoEffect(t *testing.T) {
	sim := newScriptedSim()
	d := New(sim)
	defer d.Close()

	err := d.Run(`
		e = spawn(0, 0, 1, 0)
		advance(5)
		push_command(2, 1, e, 10, 0)
		advance(0)
		frame = current_frame()
		assert(frame == 5, "frame moved by a no-op advance")
	`)
	require.NoError(t, err)

	// The command was scheduled for frame 2 but the simulation here has no
	// rollback of its own (that is the TSS's job, see internal/tss) — a bare
	// Simulation only ever dispatches a command when Update reaches its
	// frame. Since frame 2 is already behind CurrentFrame, the command is
	// simply retained in the log without effect, matching the handler
	// contract: push_command never implicitly rewinds.
	x, y, err := d.entityPosition(1)
	require.NoError(t, err)
	require.Equal(t, int64(5), x)
	require.Equal(t, int64(0), y)
}

func TestDriverAssertHashMismatchFailsRun(t *testing.T) {
	sim := newScriptedSim()
	d := New(sim)
	defer d.Close()

	err := d.Run(`assert_hash("not-a-real-hash")`)
	require.Error(t, err)
}

func TestDriverAssertPositionMismatchFailsRun(t *testing.T) {
	sim := newScriptedSim()
	d := New(sim)
	defer d.Close()

	err := d.Run(`
		e = spawn(0, 0, 0, 0)
		assert_position(e, 1, 0)
	`)
	require.Error(t, err)
}
