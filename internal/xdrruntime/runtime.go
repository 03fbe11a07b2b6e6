// Package xdrruntime holds the small set of primitive helpers that
// emitted code (internal/xdr/codegen) calls into for every scalar read and
// write. Keeping them here, rather than inlining the bit-twiddling into
// every generated method, is the Go equivalent of the reference compiler's
// bundled `helpers` module (xdr_codegen/src/codegen/mod.rs's HELPERS
// constant) — emitted code stays readable and this package stays unit
// tested on its own.
//
// Wire format throughout: big-endian, 4-byte alignment, bool as a 0/1 u32.
package xdrruntime

import (
	"encoding/binary"
	"fmt"
)

// DeserializeError is returned by every Reader method and by generated
// Unmarshal methods when the input is malformed: too few bytes remain for a
// scalar, an enum discriminant has no matching variant and no default arm,
// or a union discriminant is unknown and the union has no default arm.
type DeserializeError struct {
	Reason string
}

func (e *DeserializeError) Error() string { return "xdr: " + e.Reason }

func shortRead(need, have int) error {
	return &DeserializeError{Reason: fmt.Sprintf("need %d bytes, only %d remain", need, have)}
}

// Reader is a cursor-style view over an input buffer, advanced by every
// scalar read. It never copies the backing slice.
type Reader struct {
	Buf []byte
	Pos int
}

// NewReader wraps buf for sequential decoding.
func NewReader(buf []byte) *Reader { return &Reader{Buf: buf} }

// Remaining reports how many unread bytes are left.
func (r *Reader) Remaining() int { return len(r.Buf) - r.Pos }

func (r *Reader) take(n int) ([]byte, error) {
	if r.Remaining() < n {
		return nil, shortRead(n, r.Remaining())
	}
	b := r.Buf[r.Pos : r.Pos+n]
	r.Pos += n
	return b, nil
}

// I32 reads a big-endian signed 32-bit scalar.
func (r *Reader) I32() (int32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// U32 reads a big-endian unsigned 32-bit scalar.
func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// I64 reads a big-endian signed 64-bit scalar (XDR `hyper`).
func (r *Reader) I64() (int64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// U64 reads a big-endian unsigned 64-bit scalar (XDR `unsigned hyper`).
func (r *Reader) U64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// Bool reads an XDR bool, encoded as a 0/1 big-endian u32. Any nonzero
// value decodes as true, matching the reference implementation's leniency.
func (r *Reader) Bool() (bool, error) {
	v, err := r.U32()
	if err != nil {
		return false, err
	}
	return v != 0, nil
}

// padLen returns how many zero padding bytes follow n bytes of payload to
// reach a 4-byte boundary.
func padLen(n int) int { return (4 - n%4) % 4 }

func (r *Reader) skipPadding(n int) error {
	if n == 0 {
		return nil
	}
	_, err := r.take(n)
	return err
}

// OpaqueFixed reads exactly n bytes with no length prefix, then the zero
// padding up to a 4-byte boundary, copying the n bytes into a fresh slice
// the caller owns.
func (r *Reader) OpaqueFixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	if err := r.skipPadding(padLen(n)); err != nil {
		return nil, err
	}
	return out, nil
}

// OpaqueVar reads a u32 length prefix (rejecting one that exceeds limit or
// the remaining input), the payload, and its zero padding.
func (r *Reader) OpaqueVar(limit uint64) ([]byte, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	if limit > 0 && uint64(n) > limit {
		return nil, &DeserializeError{Reason: fmt.Sprintf("opaque length %d exceeds limit %d", n, limit)}
	}
	b, err := r.take(int(n))
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	if err := r.skipPadding(padLen(int(n))); err != nil {
		return nil, err
	}
	return out, nil
}

// String reads a length-prefixed XDR string the same way OpaqueVar reads
// opaque data, converting the payload to a Go string.
func (r *Reader) String(limit uint64) (string, error) {
	b, err := r.OpaqueVar(limit)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ===========================================================================
// Allocating serializer surface: append to a growing []byte and return it.
// ===========================================================================

func AppendI32(buf []byte, v int32) []byte { return AppendU32(buf, uint32(v)) }

func AppendU32(buf []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(buf, tmp[:]...)
}

func AppendI64(buf []byte, v int64) []byte { return AppendU64(buf, uint64(v)) }

func AppendU64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func AppendBool(buf []byte, v bool) []byte {
	if v {
		return AppendU32(buf, 1)
	}
	return AppendU32(buf, 0)
}

// AppendOpaqueFixed appends data verbatim with zero padding to a 4-byte
// boundary and no length prefix.
func AppendOpaqueFixed(buf []byte, data []byte) []byte {
	buf = append(buf, data...)
	return appendZeroPad(buf, len(data))
}

// AppendOpaqueVar appends a u32 length prefix, the data, and its padding.
// Panics if len(data) exceeds limit: per spec.md §4.D, a length-limit
// violation on the encode side is a programmer error, not a protocol error.
func AppendOpaqueVar(buf []byte, data []byte, limit uint64) []byte {
	if limit > 0 && uint64(len(data)) > limit {
		panic(fmt.Sprintf("xdr: opaque data length %d exceeds declared limit %d", len(data), limit))
	}
	buf = AppendU32(buf, uint32(len(data)))
	return AppendOpaqueFixed(buf, data)
}

// AppendString appends a length-prefixed string the same way AppendOpaqueVar
// does, treating the string's bytes as the opaque payload.
func AppendString(buf []byte, s string, limit uint64) []byte {
	return AppendOpaqueVar(buf, []byte(s), limit)
}

func appendZeroPad(buf []byte, payloadLen int) []byte {
	var zero [4]byte
	return append(buf, zero[:padLen(payloadLen)]...)
}

// ===========================================================================
// Non-allocating serializer surface: write at an offset into a
// caller-supplied buffer, returning the offset past the written bytes.
// Fails loudly (panics) on insufficient buffer space or limit violations —
// deliberate, per spec.md §4.D: a short buffer here is a programmer error.
// ===========================================================================

func need(dst []byte, off, n int) {
	if off+n > len(dst) {
		panic(fmt.Sprintf("xdr: buffer too short: need %d bytes at offset %d, have %d", n, off, len(dst)))
	}
}

func PutI32(dst []byte, off int, v int32) int { return PutU32(dst, off, uint32(v)) }

func PutU32(dst []byte, off int, v uint32) int {
	need(dst, off, 4)
	binary.BigEndian.PutUint32(dst[off:off+4], v)
	return off + 4
}

func PutI64(dst []byte, off int, v int64) int { return PutU64(dst, off, uint64(v)) }

func PutU64(dst []byte, off int, v uint64) int {
	need(dst, off, 8)
	binary.BigEndian.PutUint64(dst[off:off+8], v)
	return off + 8
}

func PutBool(dst []byte, off int, v bool) int {
	if v {
		return PutU32(dst, off, 1)
	}
	return PutU32(dst, off, 0)
}

// PutOpaqueFixed writes data verbatim plus zero padding, no length prefix.
func PutOpaqueFixed(dst []byte, off int, data []byte) int {
	need(dst, off, len(data))
	copy(dst[off:], data)
	off += len(data)
	pad := padLen(len(data))
	need(dst, off, pad)
	for i := 0; i < pad; i++ {
		dst[off+i] = 0
	}
	return off + pad
}

// PutOpaqueVar writes a u32 length prefix, then behaves like PutOpaqueFixed.
// Panics if len(data) exceeds limit.
func PutOpaqueVar(dst []byte, off int, data []byte, limit uint64) int {
	if limit > 0 && uint64(len(data)) > limit {
		panic(fmt.Sprintf("xdr: opaque data length %d exceeds declared limit %d", len(data), limit))
	}
	off = PutU32(dst, off, uint32(len(data)))
	return PutOpaqueFixed(dst, off, data)
}

// PutString writes a length-prefixed string the same way PutOpaqueVar does.
func PutString(dst []byte, off int, s string, limit uint64) int {
	return PutOpaqueVar(dst, off, []byte(s), limit)
}

// EncodedLen returns how many bytes AppendOpaqueVar/PutOpaqueVar will write
// for a payload of payloadLen bytes: the u32 length prefix, the payload
// itself, and its zero padding.
func EncodedLen(payloadLen int) int {
	return 4 + payloadLen + padLen(payloadLen)
}
