package protocol

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullframe/trailsim/internal/xbuf"
)

func TestHeaderRoundTrip(t *testing.T) {
	buf := xbuf.New()
	WriteHeader(buf, MessageHashCheck)

	got, err := ReadHeader(xbuf.NewFromBytes(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, MessageHashCheck, got)
}

func TestReadHeaderRejectsUnknownType(t *testing.T) {
	buf := xbuf.New()
	buf.WriteU8(200)

	_, err := ReadHeader(xbuf.NewFromBytes(buf.Bytes()))
	require.ErrorIs(t, err, ErrUnknownMessageType)
}

func TestSynchronizeRoundTrip(t *testing.T) {
	src := Synchronize{Frame1: 10, Frame2: 12, LoadOrAdjustedSpeed: 1.5}
	buf := xbuf.New()
	src.Packetize(buf)

	got, err := ReadSynchronize(xbuf.NewFromBytes(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, src, got)
}

func TestRemoveGameObjectRoundTrip(t *testing.T) {
	src := RemoveGameObject{Frame: 40, EntityID: 7}
	buf := xbuf.New()
	src.Packetize(buf)

	got, err := ReadRemoveGameObject(xbuf.NewFromBytes(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, src, got)
}

func TestHashCheckRoundTrip(t *testing.T) {
	src := HashCheck{Frame: 90, Hash: -42}
	buf := xbuf.New()
	src.Packetize(buf)

	got, err := ReadHashCheck(xbuf.NewFromBytes(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, src, got)
}

func TestGameStateResponseHeaderRoundTrip(t *testing.T) {
	src := GameStateResponseHeader{Hash: 123}
	buf := xbuf.New()
	src.Packetize(buf)

	got, err := ReadGameStateResponseHeader(xbuf.NewFromBytes(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, src, got)
}
