// Package wire provides the RFC 5531 framing primitives shared by every
// RPC transport: record marking, per-call transaction IDs, opaque-auth
// construction, and XDR padding. internal/rpc builds the Call/Reply
// message model on top of these; internal/rpcclient and internal/rpcserver
// are the only callers that touch a byte stream directly.
package wire
