package components

import (
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/fixedmath"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

const velocityTag = "components.velocity"

func init() {
	xbuf.Global().Register(velocityTag, func() xbuf.Typed { return &Velocity{} })
}

// Velocity holds an entity's per-frame displacement, adapted from the
// teacher's PhysicsComponent with mass/friction/gravity/max-speed dropped —
// those belong to a gameplay-specific physics system, not this core.
type Velocity struct {
	Point fixedmath.Point
}

// NewVelocity constructs a Velocity from whole-number components.
func NewVelocity(x, y int64) *Velocity {
	return &Velocity{Point: fixedmath.PointFromInt(x, y)}
}

func (v *Velocity) Kind() ecs.ComponentType { return KindVelocity }
func (v *Velocity) TypeTag() string         { return velocityTag }

func (v *Velocity) Packetize(b *xbuf.Buffer) {
	b.WriteI64(v.Point.X.Raw())
	b.WriteI64(v.Point.Y.Raw())
}

func (v *Velocity) Depacketize(b *xbuf.Buffer) error {
	x, err := b.ReadI64()
	if err != nil {
		return err
	}
	y, err := b.ReadI64()
	if err != nil {
		return err
	}
	v.Point = fixedmath.Point{X: fixedmath.FromRaw(x), Y: fixedmath.FromRaw(y)}
	return nil
}

func (v *Velocity) HashInto(h xhash.Hasher) {
	h.WriteInt64(v.Point.X.Raw())
	h.WriteInt64(v.Point.Y.Raw())
}

func (v *Velocity) CopyInto(dst ecs.Component) {
	dst.(*Velocity).Point = v.Point
}
