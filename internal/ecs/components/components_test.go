package components

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullframe/trailsim/internal/xbuf"
	"github.com/nullframe/trailsim/internal/xhash"
)

func TestPositionPacketizeRoundTrip(t *testing.T) {
	src := NewPosition(3, -7)
	buf := xbuf.New()
	src.Packetize(buf)

	dst := &Position{}
	require.NoError(t, dst.Depacketize(xbuf.NewFromBytes(buf.Bytes())))
	require.Equal(t, src.Point, dst.Point)
}

func TestPositionHashStableAcrossCopy(t *testing.T) {
	src := NewPosition(10, 20)
	dst := &Position{}
	src.CopyInto(dst)

	require.Equal(t, xhash.Of(src.HashInto), xhash.Of(dst.HashInto))
}

func TestVelocityPacketizeRoundTrip(t *testing.T) {
	src := NewVelocity(-1, 2)
	buf := xbuf.New()
	src.Packetize(buf)

	dst := &Velocity{}
	require.NoError(t, dst.Depacketize(xbuf.NewFromBytes(buf.Bytes())))
	require.Equal(t, src.Point, dst.Point)
}

func TestExpirationPacketizeRoundTrip(t *testing.T) {
	src := NewExpiration(42)
	buf := xbuf.New()
	src.Packetize(buf)

	dst := &Expiration{}
	require.NoError(t, dst.Depacketize(xbuf.NewFromBytes(buf.Bytes())))
	require.Equal(t, src.ExpireAtFrame, dst.ExpireAtFrame)
}

func TestIndexPacketizeRoundTrip(t *testing.T) {
	src := &Index{Slot: 5}
	buf := xbuf.New()
	src.Packetize(buf)

	dst := &Index{}
	require.NoError(t, dst.Depacketize(xbuf.NewFromBytes(buf.Bytes())))
	require.Equal(t, src.Slot, dst.Slot)
}

func TestComponentKindsAreDistinct(t *testing.T) {
	require.NotEqual(t, KindPosition, KindVelocity)
	require.NotEqual(t, KindVelocity, KindExpiration)
	require.NotEqual(t, KindExpiration, KindIndex)
	require.NotEqual(t, KindPosition, KindIndex)
}
