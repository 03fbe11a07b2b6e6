package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// lastFragmentFlag is the high bit of a record mark: set, the fragment is
// the last (and, in this implementation, only) one in the message.
const lastFragmentFlag = 1 << 31

// MaxFragmentLength is the largest record-mark length this implementation
// will read. It guards against a corrupt or hostile peer claiming a
// multi-gigabyte message and exhausting memory before any other validation
// runs.
const MaxFragmentLength = 1 << 26 // 64 MiB

// ErrMessageFragment is returned when a record mark's last-fragment bit is
// clear. RFC 5531 §11 allows a message to span multiple fragments; this
// implementation does not reassemble them, per spec.
var ErrMessageFragment = errors.New("wire: multi-fragment records are not supported")

// WriteRecordMarkPlaceholder appends a zeroed 4-byte record mark to buf and
// returns the extended slice along with the offset the mark was written at.
// Call PatchRecordMark with that offset once the record's payload has been
// fully appended, so the mark can be filled in with the real length.
func WriteRecordMarkPlaceholder(buf []byte) (out []byte, markOffset int) {
	markOffset = len(buf)
	return append(buf, 0, 0, 0, 0), markOffset
}

// PatchRecordMark fills in the record mark written by WriteRecordMarkPlaceholder
// at markOffset, now that buf holds the complete record. The last-fragment
// flag is always set; this implementation never emits multi-fragment
// records.
func PatchRecordMark(buf []byte, markOffset int) error {
	payloadLen := len(buf) - markOffset - 4
	if payloadLen < 0 {
		return fmt.Errorf("wire: record mark offset %d exceeds buffer length %d", markOffset, len(buf))
	}
	binary.BigEndian.PutUint32(buf[markOffset:markOffset+4], lastFragmentFlag|uint32(payloadLen))
	return nil
}

// Frame prepends a record mark to body and returns the complete,
// ready-to-write message: WriteRecordMarkPlaceholder followed by
// PatchRecordMark in one step, for callers that already hold the full
// payload rather than building it incrementally (contrast encodeCall,
// which threads the two calls around an XDR encode in between).
func Frame(body []byte) []byte {
	buf, markOffset := WriteRecordMarkPlaceholder(make([]byte, 0, 4+len(body)))
	buf = append(buf, body...)
	// payloadLen is always len(body) here, so PatchRecordMark cannot fail.
	_ = PatchRecordMark(buf, markOffset)
	return buf
}

// ReadRecordMark reads one 4-byte record mark from r and returns the
// fragment's length. It returns ErrMessageFragment if the last-fragment bit
// is clear, and an error if the decoded length exceeds MaxFragmentLength.
func ReadRecordMark(r io.Reader) (length uint32, err error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return 0, err
	}
	v := binary.BigEndian.Uint32(hdr[:])
	if v&lastFragmentFlag == 0 {
		return 0, ErrMessageFragment
	}
	length = v &^ lastFragmentFlag
	if length > MaxFragmentLength {
		return 0, fmt.Errorf("wire: fragment length %d exceeds maximum %d", length, MaxFragmentLength)
	}
	return length, nil
}
