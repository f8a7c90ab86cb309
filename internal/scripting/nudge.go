package scripting

import (
	"github.com/nullframe/trailsim/internal/command"
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/ecs/components"
	"github.com/nullframe/trailsim/internal/fixedmath"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

const nudgeTag = "scripting.nudge"

func init() {
	xbuf.Global().Register(nudgeTag, func() xbuf.Typed { return &nudgePayload{} })
}

// nudgePayload is the one command.Payload the scripting DSL can issue: add
// (DX, DY) to the Velocity of Entity. It lets a Lua scenario schedule
// commands through push_command without the DSL exposing arbitrary Go
// payload types to script authors.
type nudgePayload struct {
	Entity ecs.EntityID
	DX, DY int64
}

func (p *nudgePayload) TypeTag() string { return nudgeTag }

func (p *nudgePayload) Packetize(b *xbuf.Buffer) {
	b.WriteI32(int32(p.Entity))
	b.WriteI64(p.DX)
	b.WriteI64(p.DY)
}

func (p *nudgePayload) Depacketize(b *xbuf.Buffer) error {
	e, err := b.ReadI32()
	if err != nil {
		return err
	}
	dx, err := b.ReadI64()
	if err != nil {
		return err
	}
	dy, err := b.ReadI64()
	if err != nil {
		return err
	}
	p.Entity, p.DX, p.DY = ecs.EntityID(e), dx, dy
	return nil
}

func (p *nudgePayload) HashInto(h xhash.Hasher) {
	h.WriteUint32(uint32(p.Entity))
	h.WriteInt64(p.DX)
	h.WriteInt64(p.DY)
}

func (p *nudgePayload) CopyInto(dst command.Payload) {
	d := dst.(*nudgePayload)
	d.Entity, d.DX, d.DY = p.Entity, p.DX, p.DY
}

// NewNudgeCommand builds the one command.Payload this package defines, for
// callers outside the Lua DSL (e.g. a demo binary) that want to drive a
// Simulation/TSS the same way a scripted scenario does.
func NewNudgeCommand(entity ecs.EntityID, dx, dy int64) command.Payload {
	return &nudgePayload{Entity: entity, DX: dx, DY: dy}
}

// NudgeHandler applies nudgePayload commands to the target entity's
// Velocity. It is the one built-in simulation.CommandHandler effect the
// scripting DSL can schedule via push_command; any other gameplay effect
// belongs to a host application's own handler, not this core.
type NudgeHandler struct{}

func (NudgeHandler) HandleCommand(m *ecs.Manager, frame int64, cmd command.Command) error {
	n, ok := cmd.Payload.(*nudgePayload)
	if !ok {
		return nil
	}
	velID, ok := m.GetComponentID(n.Entity, components.KindVelocity)
	if !ok {
		return nil
	}
	comp, ok := m.Component(velID)
	if !ok {
		return nil
	}
	vel := comp.(*components.Velocity)
	vel.Point = vel.Point.Add(fixedmath.PointFromInt(n.DX, n.DY))
	return nil
}
