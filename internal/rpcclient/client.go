// Package rpcclient implements the blocking RPC client dispatcher: encode a
// call, write it record-marked to a stream, read the framed reply, and
// surface either the procedure's result bytes or one of the three error
// families client.rs defines (Protocol, Rpc, Io).
package rpcclient

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/marmos91/onc-rpc/internal/rpc"
	"github.com/marmos91/onc-rpc/internal/wire"
)

// ProtocolErrorKind distinguishes the ways a received message can fail to
// be a usable reply to the call this client just sent.
type ProtocolErrorKind int

const (
	// Decode covers any structural decode failure, an XID mismatch, or a
	// message that was not a Reply.
	Decode ProtocolErrorKind = iota
	// MessageFragmentKind is returned when the peer's record mark has its
	// last-fragment bit clear; this client does not reassemble fragments.
	MessageFragmentKind
	// UnsupportedAuthKind is reserved for a future auth flavor this client
	// does not know how to present; always AUTH_NONE today.
	UnsupportedAuthKind
	// WrongRpcVersionKind is reserved for a future rpcvers check; replies
	// carry no rpcvers field, so this client never produces it today.
	WrongRpcVersionKind
)

func (k ProtocolErrorKind) String() string {
	switch k {
	case Decode:
		return "error decoding"
	case MessageFragmentKind:
		return "received a fragmented message"
	case UnsupportedAuthKind:
		return "unsupported authorization mechanism"
	case WrongRpcVersionKind:
		return "only RPC protocol version 2 is supported"
	default:
		return "unknown protocol error"
	}
}

// ProtocolError is a framing/decoding failure on the client side of a call.
type ProtocolError struct {
	Kind ProtocolErrorKind
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("rpcclient: protocol error: %s", e.Kind)
}

// RpcError wraps a server-produced reply that was not Accepted::Success:
// the caller can inspect Reply to distinguish ProgMismatch, ProcUnavail,
// GarbageArgs, SystemErr, and the two Denied variants.
type RpcError struct {
	Reply rpc.ReplyBody
}

func (e *RpcError) Error() string {
	if e.Reply.Denied {
		return fmt.Sprintf("rpcclient: rpc error: denied (reject_stat=%d)", e.Reply.RejectStat)
	}
	return fmt.Sprintf("rpcclient: rpc error: accept_stat=%d", e.Reply.Accepted.Stat)
}

// IoError wraps a stream read/write failure.
type IoError struct {
	Err error
}

func (e *IoError) Error() string { return fmt.Sprintf("rpcclient: io error: %v", e.Err) }
func (e *IoError) Unwrap() error { return e.Err }

// Call performs one RPC call over stream: program prog, version vers,
// procedure proc, with arg already XDR-encoded by the caller (a
// zero-length slice is valid for a void-argument procedure). It blocks
// until a reply arrives, returning the procedure's raw encoded result on
// Accepted::Success, or one of ProtocolError/RpcError/IoError otherwise.
func Call(stream io.ReadWriter, prog, vers, proc uint32, arg []byte) ([]byte, error) {
	xid := wire.NextXID()

	body := rpc.CallBody{
		RPCVersion: rpc.RPCVersion,
		Program:    prog,
		Version:    vers,
		Procedure:  proc,
		Cred:       rpc.OpaqueAuth{Flavor: rpc.AuthNull},
		Verf:       rpc.OpaqueAuth{Flavor: rpc.AuthNull},
	}

	msg, err := encodeCall(xid, body, arg)
	if err != nil {
		return nil, err
	}

	if _, err := stream.Write(msg); err != nil {
		return nil, &IoError{Err: err}
	}

	return readReply(xid, stream)
}

func encodeCall(xid uint32, body rpc.CallBody, arg []byte) ([]byte, error) {
	buf, markOffset := wire.WriteRecordMarkPlaceholder(nil)

	var hdr bytes.Buffer
	if err := binary.Write(&hdr, binary.BigEndian, xid); err != nil {
		return nil, fmt.Errorf("rpcclient: encode xid: %w", err)
	}
	if err := binary.Write(&hdr, binary.BigEndian, rpc.RPCCall); err != nil {
		return nil, fmt.Errorf("rpcclient: encode msg_type: %w", err)
	}
	if _, err := xdr.Marshal(&hdr, &body); err != nil {
		return nil, fmt.Errorf("rpcclient: encode call body: %w", err)
	}

	buf = append(buf, hdr.Bytes()...)
	buf = append(buf, arg...)

	if err := wire.PatchRecordMark(buf, markOffset); err != nil {
		return nil, err
	}
	return buf, nil
}

func readReply(xid uint32, stream io.Reader) ([]byte, error) {
	length, err := wire.ReadRecordMark(stream)
	if err != nil {
		if errors.Is(err, wire.ErrMessageFragment) {
			return nil, &ProtocolError{Kind: MessageFragmentKind}
		}
		return nil, &IoError{Err: err}
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(stream, buf); err != nil {
		return nil, &IoError{Err: err}
	}

	msg, err := rpc.ReadReply(buf)
	if err != nil {
		return nil, &ProtocolError{Kind: Decode}
	}

	if msg.XID != xid {
		return nil, &ProtocolError{Kind: Decode}
	}

	if msg.Reply.Denied || msg.Reply.Accepted.Stat != rpc.RPCSuccess {
		return nil, &RpcError{Reply: msg.Reply}
	}

	return msg.Reply.Accepted.Results, nil
}
