package components

import (
	"github.com/nullframe/trailsim/internal/ecs"
	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

const expirationTag = "components.expiration"

func init() {
	xbuf.Global().Register(expirationTag, func() xbuf.Typed { return &Expiration{} })
}

// Expiration marks an entity for removal once the simulation reaches
// ExpireAtFrame. It is consumed by systems.ExpirationSystem.
type Expiration struct {
	ExpireAtFrame int64
}

// NewExpiration constructs an Expiration firing at the given frame.
func NewExpiration(frame int64) *Expiration {
	return &Expiration{ExpireAtFrame: frame}
}

func (e *Expiration) Kind() ecs.ComponentType { return KindExpiration }
func (e *Expiration) TypeTag() string         { return expirationTag }

func (e *Expiration) Packetize(b *xbuf.Buffer) { b.WriteI64(e.ExpireAtFrame) }

func (e *Expiration) Depacketize(b *xbuf.Buffer) error {
	v, err := b.ReadI64()
	if err != nil {
		return err
	}
	e.ExpireAtFrame = v
	return nil
}

func (e *Expiration) HashInto(h xhash.Hasher) { h.WriteInt64(e.ExpireAtFrame) }

func (e *Expiration) CopyInto(dst ecs.Component) {
	dst.(*Expiration).ExpireAtFrame = e.ExpireAtFrame
}
