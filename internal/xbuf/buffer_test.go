package xbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBufferRoundTrip(t *testing.T) {
	b := New()
	b.WriteBool(true)
	b.WriteU8(0xAB)
	b.WriteI16(-1234)
	b.WriteU32(0xDEADBEEF)
	b.WriteI64(-9223372036854775000)
	b.WriteF32(3.5)
	b.WriteF64(2.71828)
	b.WriteString("hello, tss")
	b.WriteBytes([]byte{1, 2, 3, 4})

	r := NewFromBytes(b.Bytes())

	boolVal, err := r.ReadBool()
	require.NoError(t, err)
	require.True(t, boolVal)

	u8, err := r.ReadU8()
	require.NoError(t, err)
	require.Equal(t, uint8(0xAB), u8)

	i16, err := r.ReadI16()
	require.NoError(t, err)
	require.Equal(t, int16(-1234), i16)

	u32, err := r.ReadU32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xDEADBEEF), u32)

	i64, err := r.ReadI64()
	require.NoError(t, err)
	require.Equal(t, int64(-9223372036854775000), i64)

	f32, err := r.ReadF32()
	require.NoError(t, err)
	require.Equal(t, float32(3.5), f32)

	f64, err := r.ReadF64()
	require.NoError(t, err)
	require.Equal(t, 2.71828, f64)

	s, err := r.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello, tss", s)

	bs, err := r.ReadBytes()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3, 4}, bs)

	require.Equal(t, 0, r.Remaining())
}

func TestBufferReadPastEndIsMalformed(t *testing.T) {
	b := New()
	b.WriteU8(1)
	r := NewFromBytes(b.Bytes())
	_, err := r.ReadU32()
	require.ErrorIs(t, err, ErrMalformed)
}

func TestBufferReadBytesTruncatedLengthIsMalformed(t *testing.T) {
	b := New()
	b.WriteU32(100) // claims 100 bytes follow, but none do
	r := NewFromBytes(b.Bytes())
	_, err := r.ReadBytes()
	require.ErrorIs(t, err, ErrMalformed)
}
