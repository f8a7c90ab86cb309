// Package xhash wraps xxhash behind the streaming-hasher contract the core
// requires: write raw bytes, read back a stable 64-bit digest. Every
// hash-contributing call in the ecs/command/simulation/tss packages goes
// through this interface so the digest is always a pure function of the
// bytes written to it.
package xhash

import "github.com/cespare/xxhash/v2"

// Hasher accumulates bytes and exposes a cumulative digest.
type Hasher interface {
	Write(p []byte)
	WriteUint8(v uint8)
	WriteUint32(v uint32)
	WriteInt64(v int64)
	WriteBool(v bool)
	WriteString(v string)
	Sum64() uint64
}

type streamHasher struct {
	d   *xxhash.Digest
	buf [8]byte
}

// New returns a fresh streaming hasher seeded deterministically.
func New() Hasher {
	return &streamHasher{d: xxhash.New()}
}

func (h *streamHasher) Write(p []byte) {
	_, _ = h.d.Write(p)
}

func (h *streamHasher) WriteUint8(v uint8) {
	h.buf[0] = v
	_, _ = h.d.Write(h.buf[:1])
}

func (h *streamHasher) WriteUint32(v uint32) {
	h.buf[0] = byte(v >> 24)
	h.buf[1] = byte(v >> 16)
	h.buf[2] = byte(v >> 8)
	h.buf[3] = byte(v)
	_, _ = h.d.Write(h.buf[:4])
}

func (h *streamHasher) WriteInt64(v int64) {
	u := uint64(v)
	for i := 0; i < 8; i++ {
		h.buf[i] = byte(u >> (56 - 8*i))
	}
	_, _ = h.d.Write(h.buf[:8])
}

func (h *streamHasher) WriteBool(v bool) {
	if v {
		h.WriteUint8(1)
	} else {
		h.WriteUint8(0)
	}
}

func (h *streamHasher) WriteString(v string) {
	h.WriteUint32(uint32(len(v)))
	_, _ = h.d.WriteString(v)
}

func (h *streamHasher) Sum64() uint64 {
	return h.d.Sum64()
}

// Of is a convenience helper for one-shot hashing of a single writer.
func Of(fn func(Hasher)) uint64 {
	h := New()
	fn(h)
	return h.Sum64()
}
