//go:build linux

package rpcserver

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

// uringOp mirrors the subset of include/uapi/linux/io_uring.h this package
// needs. golang.org/x/sys/unix exposes the setup/enter/register syscalls
// but not the opcode or SQE/CQE field-layout constants, so they are named
// here directly from the stable kernel ABI.
const (
	opAccept          = 13
	opProvideBuffers  = 31
	opRecv            = 27
	opSend            = 26
	sqeBufferSelect   = 1 << 5 // IOSQE_BUFFER_SELECT
	cqeFBuffer        = 1 << 0 // IORING_CQE_F_BUFFER
	cqeBufferShift    = 16
	sqEntries         = 256
	recvBufferGroupID = 7
	recvBufferCount   = 64
	recvBufferSize    = 4096
)

// sqe is the 64-byte io_uring submission queue entry, laid out exactly as
// the kernel expects.
type sqe struct {
	opcode      uint8
	flags       uint8
	ioprio      uint16
	fd          int32
	off         uint64
	addr        uint64
	len         uint32
	unionFlags  uint32
	userData    uint64
	bufIG       uint16 // buf_index / buf_group, depending on opcode
	personality uint16
	spliceFDIn  int32
	pad         [2]uint64
}

// cqe is the 16-byte io_uring completion queue entry.
type cqe struct {
	userData uint64
	res      int32
	flags    uint32
}

// ring wraps one io_uring instance: the submission/completion queues this
// dispatcher submits Accept/Recv/Send operations on, mapped once at setup
// time per spec §4.I "one submission/completion queue."
type ring struct {
	fd int

	sqRing   []byte
	cqRing   []byte
	sqesMem  []byte
	sqes     []sqe

	recvBacking []byte

	sqHead, sqTail *uint32
	sqMask         uint32
	sqArray        []uint32

	cqHead, cqTail *uint32
	cqMask         uint32
	cqes           []cqe

	sqTailLocal uint32
}

func newRing(entries uint32) (*ring, error) {
	params := unix.IoUringParams{}
	fd, err := unix.IoUringSetup(entries, &params)
	if err != nil {
		return nil, fmt.Errorf("rpcserver: io_uring_setup: %w", err)
	}

	sqRingSize := int(params.SqOff.Array) + int(params.SqEntries)*4
	sqRing, err := unix.Mmap(fd, unix.IORING_OFF_SQ_RING, sqRingSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return nil, fmt.Errorf("rpcserver: mmap sq ring: %w", err)
	}

	cqRingSize := int(params.CqOff.Cqes) + int(params.CqEntries)*16
	cqRing, err := unix.Mmap(fd, unix.IORING_OFF_CQ_RING, cqRingSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return nil, fmt.Errorf("rpcserver: mmap cq ring: %w", err)
	}

	sqesMem, err := unix.Mmap(fd, unix.IORING_OFF_SQES, int(params.SqEntries)*64,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return nil, fmt.Errorf("rpcserver: mmap sqes: %w", err)
	}

	r := &ring{
		fd:      fd,
		sqRing:  sqRing,
		cqRing:  cqRing,
		sqesMem: sqesMem,
	}
	r.sqHead = (*uint32)(unsafe.Pointer(&sqRing[params.SqOff.Head]))
	r.sqTail = (*uint32)(unsafe.Pointer(&sqRing[params.SqOff.Tail]))
	r.sqMask = *(*uint32)(unsafe.Pointer(&sqRing[params.SqOff.RingMask]))
	arrayPtr := unsafe.Pointer(&sqRing[params.SqOff.Array])
	r.sqArray = unsafe.Slice((*uint32)(arrayPtr), params.SqEntries)

	r.cqHead = (*uint32)(unsafe.Pointer(&cqRing[params.CqOff.Head]))
	r.cqTail = (*uint32)(unsafe.Pointer(&cqRing[params.CqOff.Tail]))
	r.cqMask = *(*uint32)(unsafe.Pointer(&cqRing[params.CqOff.RingMask]))
	cqesPtr := unsafe.Pointer(&cqRing[params.CqOff.Cqes])
	r.cqes = unsafe.Slice((*cqe)(cqesPtr), params.CqEntries)

	sqesPtr := unsafe.Pointer(&sqesMem[0])
	r.sqes = unsafe.Slice((*sqe)(sqesPtr), params.SqEntries)

	r.sqTailLocal = atomic.LoadUint32(r.sqTail)

	return r, nil
}

func (r *ring) close() {
	_ = unix.Munmap(r.sqesMem)
	_ = unix.Munmap(r.cqRing)
	_ = unix.Munmap(r.sqRing)
	_ = unix.Close(r.fd)
}

// pushSQE claims the next submission slot and hands it to fill for setup,
// then publishes it by advancing the shared tail with release ordering.
func (r *ring) pushSQE(fill func(*sqe)) {
	idx := r.sqTailLocal & r.sqMask
	entry := &r.sqes[idx]
	*entry = sqe{}
	fill(entry)
	r.sqArray[idx] = idx
	r.sqTailLocal++
	atomic.StoreUint32(r.sqTail, r.sqTailLocal)
}

// submitAndWait submits pending entries and blocks for at least minComplete
// completions, treating EAGAIN as "retry next iteration" per spec §4.I.
func (r *ring) submitAndWait(minComplete uint32) error {
	pending := r.sqTailLocal - atomic.LoadUint32(r.sqHead)
	_, err := unix.IoUringEnter(r.fd, pending, minComplete, unix.IORING_ENTER_GETEVENTS, nil)
	if err == unix.EAGAIN || err == unix.EINTR {
		return nil
	}
	return err
}

// nextCQE pops one completion if available, advancing the shared head.
func (r *ring) nextCQE() (cqe, bool) {
	head := atomic.LoadUint32(r.cqHead)
	tail := atomic.LoadUint32(r.cqTail)
	if head == tail {
		return cqe{}, false
	}
	entry := r.cqes[head&r.cqMask]
	atomic.StoreUint32(r.cqHead, head+1)
	return entry, true
}

// borrowProvidedBuffer returns a view of the provided-buffers backing
// allocation for the buffer id a completion reported, truncated to the
// amount the kernel says it wrote. The caller must not hold onto the
// returned slice past its own processing: handleRecvCompletion re-provides
// the buffer to the kernel (which may then overwrite it) as soon as the
// received bytes have been handled.
func (r *ring) borrowProvidedBuffer(id uint16, amount int) []byte {
	start := int(id) * recvBufferSize
	return r.recvBacking[start : start+amount]
}

// registerProvidedBuffers seeds the recv buffer group with one contiguous
// backing allocation split into count fixed-size buffers, the classic
// (non ring-mapped) provided-buffers mechanism: the kernel selects and
// reports a buffer id on each completion via IORING_CQE_F_BUFFER, achieving
// the spec's "buffer ring" contract without requiring a manually-mapped
// io_uring_buf_ring structure.
func (r *ring) registerProvidedBuffers(backing []byte, count int, bufSize int, groupID uint16, startID uint16) {
	r.recvBacking = backing
	r.pushSQE(func(e *sqe) {
		e.opcode = opProvideBuffers
		e.fd = int32(count)
		e.addr = uint64(uintptr(unsafe.Pointer(&backing[0])))
		e.len = uint32(bufSize)
		e.off = uint64(startID)
		e.bufIG = groupID
	})
}
