// Package rpc implements the RFC 5531 message model: the Call/Reply header
// shapes, accept/reject status codes, and the two auth flavors this runtime
// accepts (AUTH_NONE and AUTH_SYS). It is conceptually the hand-maintained
// equivalent of code generated from a bundled rpc_prot.x: the wire layout
// and discriminant values are dictated by the RFC, not by this package.
//
// internal/wire supplies the lower-level framing primitives (record marks,
// XIDs, opaque-auth) this package builds on.
package rpc

// RPCVersion is the only ONC-RPC protocol version this runtime speaks.
const RPCVersion = 2

// Message types (the msg_type field of rpc_msg).
const (
	RPCCall  uint32 = 0
	RPCReply uint32 = 1
)

// Reply statuses (the stat field of reply_body).
const (
	RPCMsgAccepted uint32 = 0
	RPCMsgDenied   uint32 = 1
)

// Accept statuses (the stat field of accepted_reply), per RFC 5531 §8.1.
const (
	RPCSuccess      uint32 = 0
	RPCProgUnavail  uint32 = 1
	RPCProgMismatch uint32 = 2
	RPCProcUnavail  uint32 = 3
	RPCGarbageArgs  uint32 = 4
	RPCSystemErr    uint32 = 5
)

// Reject statuses (the stat field of rejected_reply).
const (
	RPCMismatch  uint32 = 0
	RPCAuthError uint32 = 1
)

// Auth rejection reasons (the stat field of auth_stat), used when
// RejectStat is RPCAuthError.
const (
	AuthBadCred      uint32 = 1
	AuthRejectedCred uint32 = 2
	AuthBadVerf      uint32 = 3
	AuthRejectedVerf uint32 = 4
	AuthTooWeak      uint32 = 5
)

// Auth flavors (the flavor field of opaque_auth). Only AuthNull and
// AuthUnix are accepted for incoming credentials; AuthShort and AuthDES are
// named here only so the full RFC enumeration is available for comparison.
const (
	AuthNull  uint32 = 0
	AuthUnix  uint32 = 1
	AuthShort uint32 = 2
	AuthDES   uint32 = 3
)
