package tss

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullframe/trailsim/internal/command"
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/components"
	"github.com/nullframe/trailsim/internal/ecs/systems"
	"github.com/nullframe/trailsim/internal/fixedmath"
	"github.com/nullframe/trailsim/internal/simulation"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

const bumpPayloadTag = "tss.test.bump"

func init() {
	xbuf.Global().Register(bumpPayloadTag, func() xbuf.Typed { return &bumpPayload{} })
}

// bumpPayload commands the handler to push an entity's Velocity.X up by one
// — small, deterministic, and order-sensitive enough to reveal a resim bug.
type bumpPayload struct{}

func (p *bumpPayload) TypeTag() string                        { return bumpPayloadTag }
func (p *bumpPayload) Packetize(b *xbuf.Buffer)                {}
func (p *bumpPayload) Depacketize(b *xbuf.Buffer) error        { return nil }
func (p *bumpPayload) HashInto(h xhash.Hasher)                 { h.WriteUint8(1) }
func (p *bumpPayload) CopyInto(dst command.Payload)            {}

// bumpHandler applies a bumpPayload by nudging the target entity's velocity
// by a fixed, deterministic amount — enough to make a resim observably
// diverge from a run that dropped the command.
type bumpHandler struct{ entity ecs.EntityID }

func (h *bumpHandler) HandleCommand(m *ecs.Manager, frame int64, cmd command.Command) error {
	if _, ok := cmd.Payload.(*bumpPayload); !ok {
		return nil
	}
	velID, ok := m.GetComponentID(h.entity, components.KindVelocity)
	if !ok {
		return nil
	}
	comp, _ := m.Component(velID)
	vel := comp.(*components.Velocity)
	vel.Point = vel.Point.Add(fixedmath.PointFromInt(1, 0))
	return nil
}

func buildSimWithEntity() (*simulation.Simulation, ecs.EntityID) {
	m := ecs.NewManager()
	m.AddSystem(systems.NewTranslationSystem())
	m.AddSystem(systems.NewExpirationSystem())
	m.AddSystem(systems.NewIndexSystem())
	e := m.AddEntity()
	m.AddComponent(e, components.NewPosition(0, 0))
	m.AddComponent(e, components.NewVelocity(1, 0))
	return simulation.New(m, simulation.DefaultConfig(), &bumpHandler{entity: e}), e
}

func newTestTSS(t *testing.T, delays []int64) *TSS {
	t.Helper()
	tss, err := New(delays, func() *simulation.Simulation {
		sim, _ := buildSimWithEntity()
		return sim
	})
	require.NoError(t, err)
	return tss
}

func TestTSSSinglePlayerLeadingIsTrailing(t *testing.T) {
	tss := newTestTSS(t, nil)
	require.NoError(t, tss.Update())
	require.Equal(t, int64(1), tss.CurrentFrame())
	require.Equal(t, int64(1), tss.TrailingFrame())
}

func TestTSSAdvancesAllStatesEachUpdate(t *testing.T) {
	tss := newTestTSS(t, []int64{2, 5})
	for i := 0; i < 10; i++ {
		require.NoError(t, tss.Update())
	}
	require.Equal(t, int64(10), tss.CurrentFrame())
	require.Equal(t, int64(5), tss.TrailingFrame())
	require.Equal(t, int64(8), tss.states[1].CurrentFrame)
}

func TestTSSPushCommandTooOldIsDropped(t *testing.T) {
	tss := newTestTSS(t, []int64{2, 5})
	for i := 0; i < 10; i++ {
		require.NoError(t, tss.Update())
	}
	err := tss.PushCommand(command.Command{Frame: 3, Payload: &bumpPayload{}})
	require.Error(t, err)
}

func TestTSSLateCommandMarksDirtyThenReconverges(t *testing.T) {
	delays := []int64{2, 5}
	tssA := newTestTSS(t, delays)
	tssB := newTestTSS(t, delays)

	for i := 0; i < 8; i++ {
		require.NoError(t, tssA.Update())
		require.NoError(t, tssB.Update())
	}
	require.Equal(t, xhash.Of(tssA.Hash), xhash.Of(tssB.Hash))

	// a command targeting a frame the leading state has already passed:
	// pushed into A only, it must be absorbed by a dirty resim rather than
	// silently dropped, diverging A's trailing hash from B's.
	lateFrame := tssA.leading().CurrentFrame - 1
	require.NoError(t, tssA.PushCommand(command.Command{Frame: lateFrame, PlayerNumber: 1, Payload: &bumpPayload{}}))
	require.Equal(t, StateRollingForward, tssA.State())

	for i := 0; i < 10; i++ {
		require.NoError(t, tssA.Update())
		require.NoError(t, tssB.Update())
	}
	require.Equal(t, StateReady, tssA.State())
	require.NotEqual(t, xhash.Of(tssA.Hash), xhash.Of(tssB.Hash))
}

func TestTSSPacketizeDepacketizeRoundTrip(t *testing.T) {
	delays := []int64{2, 5}
	src := newTestTSS(t, delays)
	for i := 0; i < 8; i++ {
		require.NoError(t, src.Update())
	}
	require.NoError(t, src.PushCommand(command.Command{Frame: src.CurrentFrame() + 1, Payload: &bumpPayload{}}))
	require.NoError(t, src.Update())

	buf := xbuf.New()
	src.Packetize(buf)

	dst := newTestTSS(t, delays)
	require.NoError(t, dst.Depacketize(xbuf.NewFromBytes(buf.Bytes())))

	require.Equal(t, src.CurrentFrame(), dst.CurrentFrame())
	require.Equal(t, src.TrailingFrame(), dst.TrailingFrame())
	require.Equal(t, xhash.Of(src.Hash), xhash.Of(dst.Hash))
	require.Equal(t, StateReady, dst.State())
}

func TestTSSInvalidateSuppressesUpdates(t *testing.T) {
	tss := newTestTSS(t, []int64{2})
	require.NoError(t, tss.Update())
	tss.Invalidate()
	require.True(t, tss.WaitingForSync())

	require.NoError(t, tss.Update())
	require.Equal(t, int64(1), tss.CurrentFrame())

	err := tss.PushCommand(command.Command{Frame: 100, Payload: &bumpPayload{}})
	require.Error(t, err)
}
