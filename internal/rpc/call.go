package rpc

import (
	"bytes"
	"encoding/binary"
	"fmt"

	xdr "github.com/rasky/go-xdr/xdr2"

	"github.com/marmos91/onc-rpc/internal/wire"
)

// OpaqueAuth is the (flavor, body) pair RFC 5531 uses for the credential
// and verifier fields of a call, and the verifier field of an accepted
// reply. Body is XDR opaque<>; go-xdr encodes and decodes a []byte field
// as length-prefixed, zero-padded opaque data, so no custom Marshaler is
// needed here.
type OpaqueAuth struct {
	Flavor uint32
	Body   []byte
}

// CallBody is the body of a Call message, excluding the xid and msg_type
// fields that belong to the outer rpc_msg discriminated union. go-xdr has
// no notion of that union, so ReadCall decodes xid/msg_type by hand (as
// the outer portmap/mount dispatch loops already do) and delegates only
// the flat CallBody shape to go-xdr, mirroring how the mount handler
// decodes MountRequest.
type CallBody struct {
	RPCVersion uint32
	Program    uint32
	Version    uint32
	Procedure  uint32
	Cred       OpaqueAuth
	Verf       OpaqueAuth
}

// Call is a fully decoded incoming RPC call.
type Call struct {
	XID uint32
	CallBody

	// headerLen is how many bytes of the original message ReadCall
	// consumed (xid through verf inclusive); ReadData uses it to locate
	// the start of the procedure argument bytes.
	headerLen int
}

// ReadCall decodes the RPC header from data: xid, msg_type (must be
// RPCCall), then CallBody via go-xdr. It does not validate rpcvers,
// program, version, or procedure -- the dispatcher applies its own policy
// for those (see internal/rpcserver).
func ReadCall(data []byte) (*Call, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("rpc: call too short: %d bytes", len(data))
	}
	xid := binary.BigEndian.Uint32(data[0:4])
	msgType := binary.BigEndian.Uint32(data[4:8])
	if msgType != RPCCall {
		return nil, fmt.Errorf("rpc: expected msg_type CALL(%d), got %d", RPCCall, msgType)
	}

	r := bytes.NewReader(data[8:])
	var body CallBody
	n, err := xdr.Unmarshal(r, &body)
	if err != nil {
		return nil, fmt.Errorf("rpc: decode call body: %w", err)
	}

	return &Call{XID: xid, CallBody: body, headerLen: 8 + n}, nil
}

// ReadData returns the procedure argument bytes following call's header in
// the original message buffer passed to ReadCall.
func ReadData(data []byte, call *Call) ([]byte, error) {
	if call.headerLen > len(data) {
		return nil, fmt.Errorf("rpc: call header length %d exceeds message length %d", call.headerLen, len(data))
	}
	return data[call.headerLen:], nil
}

// replyHeader writes the xid + msg_type=REPLY + reply_state=MSG_ACCEPTED +
// an AUTH_NONE verifier common to every accepted reply this runtime sends.
func replyHeader(xid uint32) []byte {
	buf := make([]byte, 24)
	binary.BigEndian.PutUint32(buf[0:4], xid)
	binary.BigEndian.PutUint32(buf[4:8], RPCReply)
	binary.BigEndian.PutUint32(buf[8:12], RPCMsgAccepted)
	binary.BigEndian.PutUint32(buf[12:16], wire.NoneAuth().Flavor) // verf flavor
	binary.BigEndian.PutUint32(buf[16:20], 0)                      // verf length
	binary.BigEndian.PutUint32(buf[20:24], RPCSuccess)             // overwritten by callers that need another accept_stat
	return buf
}

// MakeSuccessReply builds a complete Accepted::Success reply body (no
// record mark): the 24-byte accepted-reply header followed directly by
// the procedure's own result bytes, per §4.F -- the result is concatenated,
// not wrapped in its own length-prefixed field.
func MakeSuccessReply(xid uint32, resultBytes []byte) []byte {
	hdr := replyHeader(xid)
	return append(hdr, resultBytes...)
}

// MakeErrorReply builds a self-contained Accepted:: reply body carrying no
// procedure result (ProgUnavail, ProcUnavail, GarbageArgs, or SystemErr).
func MakeErrorReply(xid uint32, acceptStat uint32) []byte {
	hdr := replyHeader(xid)
	binary.BigEndian.PutUint32(hdr[20:24], acceptStat)
	return hdr
}

// MakeProgMismatchReply builds an Accepted::ProgMismatch reply body (no
// record mark, same convention as MakeSuccessReply/MakeErrorReply -- the
// caller's transport loop frames it).
func MakeProgMismatchReply(xid, low, high uint32) ([]byte, error) {
	if low > high {
		return nil, fmt.Errorf("rpc: invalid version range: low (%d) > high (%d)", low, high)
	}

	hdr := replyHeader(xid)
	binary.BigEndian.PutUint32(hdr[20:24], RPCProgMismatch)

	body := make([]byte, 0, len(hdr)+8)
	body = append(body, hdr...)
	var lowHigh [8]byte
	binary.BigEndian.PutUint32(lowHigh[0:4], low)
	binary.BigEndian.PutUint32(lowHigh[4:8], high)
	body = append(body, lowHigh[:]...)

	return body, nil
}

// MakeDeniedAuthReply builds a Denied(AuthError) reply: the call is
// rejected before any accept_stat is meaningful, so the body is just
// reject_stat=AUTH_ERROR followed by the auth_stat reason.
func MakeDeniedAuthReply(xid uint32, reason uint32) []byte {
	buf := make([]byte, 16)
	binary.BigEndian.PutUint32(buf[0:4], xid)
	binary.BigEndian.PutUint32(buf[4:8], RPCReply)
	binary.BigEndian.PutUint32(buf[8:12], RPCMsgDenied)
	binary.BigEndian.PutUint32(buf[12:16], RPCAuthError)
	return append(buf, encodeU32(reason)...)
}

func encodeU32(v uint32) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return b[:]
}
