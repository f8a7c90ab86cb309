package command

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nullframe/trailsim/internal/xbuf"
)

func moveCmd(player int32, frame int64, dir int32) Command {
	return Command{PlayerNumber: player, Frame: frame, Payload: &movePayload{Direction: dir}}
}

func TestLogPushDeduplicates(t *testing.T) {
	l := NewLog()
	require.True(t, l.Push(moveCmd(1, 10, 5)))
	require.False(t, l.Push(moveCmd(1, 10, 5)))
	require.Equal(t, 1, l.Count())
}

func TestLogForFrameOrdersByPlayerThenInsertion(t *testing.T) {
	l := NewLog()
	l.Push(moveCmd(3, 10, 1))
	l.Push(moveCmd(1, 10, 2))
	l.Push(moveCmd(1, 10, 3))
	l.Push(moveCmd(2, 10, 4))

	cmds := l.ForFrame(10)
	require.Len(t, cmds, 4)
	require.Equal(t, int32(1), cmds[0].PlayerNumber)
	require.Equal(t, int32(2), cmds[0].Payload.(*movePayload).Direction)
	require.Equal(t, int32(1), cmds[1].PlayerNumber)
	require.Equal(t, int32(3), cmds[1].Payload.(*movePayload).Direction)
	require.Equal(t, int32(2), cmds[2].PlayerNumber)
	require.Equal(t, int32(3), cmds[3].PlayerNumber)
}

func TestLogTrimDiscardsOldFrames(t *testing.T) {
	l := NewLog()
	l.Push(moveCmd(1, 5, 1))
	l.Push(moveCmd(1, 10, 2))
	l.Trim(8)

	require.Nil(t, l.ForFrame(5))
	require.Len(t, l.ForFrame(10), 1)
	require.Equal(t, 1, l.Count())

	// the trimmed frame's dedup key must be forgotten, so re-pushing it works.
	require.True(t, l.Push(moveCmd(1, 5, 1)))
}

func TestLogPacketizeDepacketizeRoundTrip(t *testing.T) {
	src := NewLog()
	src.Push(moveCmd(1, 1, 1))
	src.Push(moveCmd(2, 1, 2))
	src.Push(moveCmd(1, 2, 3))

	buf := xbuf.New()
	src.Packetize(buf)

	dst := NewLog()
	require.NoError(t, dst.Depacketize(xbuf.NewFromBytes(buf.Bytes())))
	require.Equal(t, src.Count(), dst.Count())
	require.Equal(t, src.Frames(), dst.Frames())
}

func TestLogCopyIntoIsIndependent(t *testing.T) {
	src := NewLog()
	src.Push(moveCmd(1, 1, 7))

	dst := NewLog()
	require.NoError(t, src.CopyInto(dst))

	dst.ForFrame(1)[0].Payload.(*movePayload).Direction = 99
	require.Equal(t, int32(7), src.ForFrame(1)[0].Payload.(*movePayload).Direction)
}
