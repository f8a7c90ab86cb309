package components

import (
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/fixedmath"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

const positionTag = "components.position"

func init() {
	xbuf.Global().Register(positionTag, func() xbuf.Typed { return &Position{} })
}

// Position holds an entity's location, adapted from the teacher's
// TransformComponent with rotation/scale/hierarchy dropped — those are
// gameplay/rendering concerns outside this core's scope (SPEC_FULL.md §1).
type Position struct {
	Point fixedmath.Point
}

// NewPosition constructs a Position at the given whole-number coordinates.
func NewPosition(x, y int64) *Position {
	return &Position{Point: fixedmath.PointFromInt(x, y)}
}

func (p *Position) Kind() ecs.ComponentType { return KindPosition }
func (p *Position) TypeTag() string         { return positionTag }

func (p *Position) Packetize(b *xbuf.Buffer) {
	b.WriteI64(p.Point.X.Raw())
	b.WriteI64(p.Point.Y.Raw())
}

func (p *Position) Depacketize(b *xbuf.Buffer) error {
	x, err := b.ReadI64()
	if err != nil {
		return err
	}
	y, err := b.ReadI64()
	if err != nil {
		return err
	}
	p.Point = fixedmath.Point{X: fixedmath.FromRaw(x), Y: fixedmath.FromRaw(y)}
	return nil
}

func (p *Position) HashInto(h xhash.Hasher) {
	h.WriteInt64(p.Point.X.Raw())
	h.WriteInt64(p.Point.Y.Raw())
}

func (p *Position) CopyInto(dst ecs.Component) {
	dst.(*Position).Point = p.Point
}
