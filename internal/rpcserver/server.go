// Package rpcserver implements the two RFC 5531 server cores named by this
// module: a blocking dispatcher serving one connection at a time (this file) and
// a completion-ring dispatcher (ring.go, ring_other.go, uring_linux.go)
// built on raw io_uring syscalls on Linux.
package rpcserver

import (
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/marmos91/onc-rpc/internal/bufpool"
	"github.com/marmos91/onc-rpc/internal/bytesize"
	"github.com/marmos91/onc-rpc/internal/logger"
	"github.com/marmos91/onc-rpc/internal/rpc"
	"github.com/marmos91/onc-rpc/internal/wire"
)

// Procedure implements one RPC procedure. It receives the call header (for
// inspecting the credential, say), the procedure's raw XDR-encoded argument
// bytes, and the service's shared state.
type Procedure[T any] func(call *rpc.CallBody, arg []byte, state *T) Result

// Result is the outcome a Procedure may report back to the dispatcher.
type Result struct {
	kind    resultKind
	Success []byte
}

type resultKind int

const (
	resultSuccess resultKind = iota
	resultGarbageArgs
	resultSystemErr
)

// Success reports a successful call whose reply payload is the given
// already-XDR-encoded bytes (len(payload)%4 must be 0).
func Success(payload []byte) Result { return Result{kind: resultSuccess, Success: payload} }

// GarbageArgs reports that the procedure could not decode its arguments.
func GarbageArgs() Result { return Result{kind: resultGarbageArgs} }

// SystemErr reports an internal failure unrelated to the client's request.
func SystemErr() Result { return Result{kind: resultSystemErr} }

// NullProcedure is the universal zero-argument, zero-result NULL procedure
// every service answers at procedure index 0.
func NullProcedure[T any](_ *rpc.CallBody, _ []byte, _ *T) Result {
	return Success(nil)
}

// Listener abstracts accept() so the dispatcher runs identically over a TCP
// listener and a Unix-domain stream listener.
type Listener interface {
	Accept() (net.Conn, error)
}

// Service is an RPC program: a (program, [version_min, version_max]) pair,
// a zero-indexed procedure table shared by every version in that range, and
// the state object every procedure call borrows mutably in turn.
type Service[T any] struct {
	Program    uint32
	VersionMin uint32
	VersionMax uint32
	Procedures []Procedure[T]
	State      T

	// MaxMessageSize caps the per-request payload this service accepts,
	// tighter than wire.MaxFragmentLength when set. Zero means no
	// additional cap beyond wire's own.
	MaxMessageSize bytesize.ByteSize
}

func (s *Service[T]) maxMessageSize() uint32 {
	if s.MaxMessageSize == 0 || s.MaxMessageSize.Uint64() > wire.MaxFragmentLength {
		return wire.MaxFragmentLength
	}
	return uint32(s.MaxMessageSize.Uint64())
}

// Serve runs a blocking accept loop on listener: one connection handled at
// a time per invocation, each to EOF or first error, matching the teacher's
// one-thread-per-server-instance model. Parallelism across connections, if
// wanted, comes from calling Serve from multiple goroutines over listeners
// that share an OS-level accept queue (e.g. SO_REUSEPORT), not from this
// function itself.
func (s *Service[T]) Serve(listener Listener) error {
	for {
		conn, err := listener.Accept()
		if err != nil {
			return fmt.Errorf("rpcserver: accept: %w", err)
		}
		s.handleConnection(conn)
	}
}

// handleConnection drives the per-connection loop of spec §4.H: read a
// record-marked message, validate it, dispatch, reply, repeat until EOF or
// a header-level error -- which this transport has no resynchronization
// for, so it always closes the connection.
func (s *Service[T]) handleConnection(conn net.Conn) {
	defer func() { _ = conn.Close() }()

	for {
		length, err := wire.ReadRecordMark(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Debug("rpcserver: record mark error", "error", err)
			}
			return
		}
		if length > s.maxMessageSize() {
			logger.Debug("rpcserver: message exceeds configured max", "length", length, "max", s.maxMessageSize())
			return
		}

		buf := bufpool.GetUint32(length)
		if _, err := io.ReadFull(conn, buf); err != nil {
			bufpool.Put(buf)
			logger.Debug("rpcserver: short read", "error", err)
			return
		}

		call, err := rpc.ReadCall(buf)
		if err != nil {
			bufpool.Put(buf)
			logger.Debug("rpcserver: decode call", "error", err)
			return
		}

		reply, ok := s.validate(call)
		if !ok {
			if reply != nil {
				if err := writeFramed(conn, reply); err != nil {
					logger.Debug("rpcserver: write reply", "error", err)
				}
			}
			bufpool.Put(buf)
			return
		}

		arg, err := rpc.ReadData(buf, call)
		if err != nil {
			bufpool.Put(buf)
			logger.Debug("rpcserver: read call args", "error", err)
			return
		}

		var result Result
		if call.Procedure == 0 {
			result = NullProcedure[T](&call.CallBody, arg, &s.State)
		} else {
			result = s.Procedures[call.Procedure](&call.CallBody, arg, &s.State)
		}

		encoded, err := encodeResult(call.XID, result)
		bufpool.Put(buf)
		if err != nil {
			logger.Debug("rpcserver: encode reply", "error", err)
			return
		}
		if err := writeFramed(conn, encoded); err != nil {
			logger.Debug("rpcserver: write reply", "error", err)
			return
		}
	}
}

// validate implements spec §4.H step 4: the blocking dispatcher's
// header-level acceptance checks (ring.go's handleReceivedBytes makes its
// own program/version/procedure checks). ok is false when the connection must be
// closed; reply, when non-nil, is the unframed reply body to write first.
func (s *Service[T]) validate(call *rpc.Call) (reply []byte, ok bool) {
	if call.RPCVersion != rpc.RPCVersion {
		logger.Debug("rpcserver: wrong rpcvers", "rpcvers", call.RPCVersion)
		return nil, false
	}

	switch call.Cred.Flavor {
	case rpc.AuthNull, rpc.AuthUnix:
	default:
		logger.Debug("rpcserver: unsupported auth flavor", "flavor", call.Cred.Flavor)
		return rpc.MakeDeniedAuthReply(call.XID, rpc.AuthRejectedCred), false
	}

	if call.Program != s.Program {
		logger.Debug("rpcserver: wrong program", "program", call.Program)
		return rpc.MakeErrorReply(call.XID, rpc.RPCProgUnavail), false
	}

	if call.Version < s.VersionMin || call.Version > s.VersionMax {
		logger.Debug("rpcserver: version mismatch", "version", call.Version)
		reply, err := rpc.MakeProgMismatchReply(call.XID, s.VersionMin, s.VersionMax)
		if err != nil {
			logger.Debug("rpcserver: build prog mismatch reply", "error", err)
			return nil, false
		}
		return reply, false
	}

	if call.Procedure == 0 {
		return nil, true
	}

	if int(call.Procedure) >= len(s.Procedures) || s.Procedures[call.Procedure] == nil {
		logger.Debug("rpcserver: proc unavailable", "procedure", call.Procedure)
		return rpc.MakeErrorReply(call.XID, rpc.RPCProcUnavail), false
	}

	return nil, true
}

// encodeResult implements spec §4.H step 6: translate a procedure Result
// into an unframed Accepted reply body (writeFramed or wire.Frame adds the
// record mark). Success payloads must already be padded to
// a 4-byte multiple -- the caller's XDR encoder is responsible for that.
func encodeResult(xid uint32, result Result) ([]byte, error) {
	switch result.kind {
	case resultSuccess:
		if len(result.Success)%4 != 0 {
			return nil, fmt.Errorf("rpcserver: success payload not 4-byte aligned (%d bytes)", len(result.Success))
		}
		return rpc.MakeSuccessReply(xid, result.Success), nil
	case resultGarbageArgs:
		return rpc.MakeErrorReply(xid, rpc.RPCGarbageArgs), nil
	case resultSystemErr:
		return rpc.MakeErrorReply(xid, rpc.RPCSystemErr), nil
	default:
		return nil, fmt.Errorf("rpcserver: unknown result kind %d", result.kind)
	}
}

// writeFramed frames body with a record mark (every internal/rpc Make*Reply
// builder returns unframed bytes) and writes it whole.
func writeFramed(w io.Writer, body []byte) error {
	_, err := w.Write(wire.Frame(body))
	return err
}
