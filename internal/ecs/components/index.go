package components

import (
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

const indexTag = "components.index"

func init() {
	xbuf.Global().Register(indexTag, func() xbuf.Typed { return &Index{} })
}

// Index carries a stable, deterministically assigned slot number for an
// entity, maintained by systems.IndexSystem. It is useful wherever a
// gameplay system needs a dense, reproducible ordinal (e.g. player seat
// number, spawn-order rank) that cannot be derived from map iteration.
type Index struct {
	Slot int32
}

// NewIndex constructs an Index component with no slot assigned yet; the next
// IndexSystem.Update call fills it in.
func NewIndex() *Index { return &Index{} }

func (i *Index) Kind() ecs.ComponentType { return KindIndex }
func (i *Index) TypeTag() string         { return indexTag }

func (i *Index) Packetize(b *xbuf.Buffer) { b.WriteI32(i.Slot) }

func (i *Index) Depacketize(b *xbuf.Buffer) error {
	v, err := b.ReadI32()
	if err != nil {
		return err
	}
	i.Slot = v
	return nil
}

func (i *Index) HashInto(h xhash.Hasher) { h.WriteInt64(int64(i.Slot)) }

func (i *Index) CopyInto(dst ecs.Component) {
	dst.(*Index).Slot = i.Slot
}
