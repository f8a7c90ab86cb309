package xbuf

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type testTyped struct {
	value int32
}

func (t *testTyped) TypeTag() string { return "xbuf.testTyped" }
func (t *testTyped) Packetize(b *Buffer) { b.WriteI32(t.value) }
func (t *testTyped) Depacketize(b *Buffer) error {
	v, err := b.ReadI32()
	if err != nil {
		return err
	}
	t.value = v
	return nil
}

func TestTypeTagRegistryRoundTrip(t *testing.T) {
	reg := &TypeRegistry{constructors: make(map[string]func() Typed)}
	reg.Register("xbuf.testTyped", func() Typed { return &testTyped{} })

	b := New()
	orig := &testTyped{value: 42}
	b.WriteString(orig.TypeTag())
	orig.Packetize(b)

	r := NewFromBytes(b.Bytes())
	tag, err := r.ReadString()
	require.NoError(t, err)
	decoded, err := reg.New(tag)
	require.NoError(t, err)
	require.NoError(t, decoded.Depacketize(r))
	require.Equal(t, orig, decoded)
}

func TestRegistryNewUnknownTagErrors(t *testing.T) {
	reg := &TypeRegistry{constructors: make(map[string]func() Typed)}
	_, err := reg.New("does.not.exist")
	require.ErrorIs(t, err, ErrUnknownTypeTag)
}

func TestRegisterDuplicateTagPanics(t *testing.T) {
	reg := &TypeRegistry{constructors: make(map[string]func() Typed)}
	reg.Register("dup", func() Typed { return &testTyped{} })
	require.Panics(t, func() {
		reg.Register("dup", func() Typed { return &testTyped{} })
	})
}
