package lnwire

import (
	"encoding/binary"
	"io"

	"github.com/gosuda/lnsocket/lnerr"
)

// LimitedReader wraps a byte slice already known to hold exactly one
// decrypted record's payload, and tracks how many bytes remain so a
// variable-tail field (the TLV stream at the end of Init, an opaque
// Commando chunk) can be consumed up to the declared message boundary
// without guessing at lengths. This mirrors the length-prefixed read idiom
// in relaydns/core/cryptoops/handshaker.go's readLengthPrefixed, generalized
// into a reusable cursor.
type LimitedReader struct {
	buf []byte
	pos int
}

func NewLimitedReader(buf []byte) *LimitedReader {
	return &LimitedReader{buf: buf}
}

// RemainingBytes reports how many undecoded bytes are left in the record.
func (r *LimitedReader) RemainingBytes() int {
	return len(r.buf) - r.pos
}

func (r *LimitedReader) Read(p []byte) (int, error) {
	if r.pos >= len(r.buf) {
		return 0, io.EOF
	}
	n := copy(p, r.buf[r.pos:])
	r.pos += n
	return n, nil
}

// ReadExact reads n bytes or fails with a ShortRead naming field.
func (r *LimitedReader) ReadExact(field string, n int) ([]byte, error) {
	if r.RemainingBytes() < n {
		return nil, lnerr.ShortRead(field)
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadToEnd consumes and returns every remaining byte.
func (r *LimitedReader) ReadToEnd() []byte {
	out := r.buf[r.pos:]
	r.pos = len(r.buf)
	return out
}

func (r *LimitedReader) ReadU8(field string) (uint8, error) {
	b, err := r.ReadExact(field, 1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *LimitedReader) ReadU16(field string) (uint16, error) {
	b, err := r.ReadExact(field, 2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (r *LimitedReader) ReadU32(field string) (uint32, error) {
	b, err := r.ReadExact(field, 4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *LimitedReader) ReadU64(field string) (uint64, error) {
	b, err := r.ReadExact(field, 8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadVec reads a 2-byte big-endian length prefix followed by that many
// bytes, the length-prefixed byte vector shape used throughout BOLT 1/8.
func (r *LimitedReader) ReadVec(field string) ([]byte, error) {
	n, err := r.ReadU16(field + "_len")
	if err != nil {
		return nil, err
	}
	return r.ReadExact(field, int(n))
}
