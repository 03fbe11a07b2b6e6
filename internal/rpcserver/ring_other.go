//go:build !linux

package rpcserver

import (
	"errors"

	"github.com/marmos91/onc-rpc/internal/rpc"
)

// ErrRingUnsupported is returned by ListenAndServeRing on platforms without
// io_uring. The blocking dispatcher in server.go has no such restriction.
var ErrRingUnsupported = errors.New("rpcserver: completion-ring dispatcher requires linux")

// RingResult is what a RingProcedure reports back to the ring dispatcher.
type RingResult struct{}

// RingDone wraps a synchronously-ready Result.
func RingDone(Result) RingResult { return RingResult{} }

// RingMoreIO reports that the procedure needs ring I/O to complete.
func RingMoreIO() RingResult { return RingResult{} }

// RingProcedure is the ring dispatcher's procedure signature.
type RingProcedure[T any] func(call *rpc.Call, arg []byte, state *T) RingResult

// RingService is the completion-ring analogue of Service.
type RingService[T any] struct {
	Program    uint32
	VersionMin uint32
	VersionMax uint32
	Procedures []RingProcedure[T]
	State      T
}

// ListenAndServeRing always fails off Linux: io_uring is Linux-only.
func (s *RingService[T]) ListenAndServeRing(addr string) error {
	return ErrRingUnsupported
}
