package rpc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	xdr "github.com/rasky/go-xdr/xdr2"
)

// AcceptedBody is the decoded body of an accepted reply. Only the fields
// relevant to Stat are populated: Low/High for RPCProgMismatch, Results
// for RPCSuccess.
type AcceptedBody struct {
	Verf    OpaqueAuth
	Stat    uint32
	Low     uint32
	High    uint32
	Results []byte
}

// ReplyBody is the decoded body of a Reply message: either Accepted, or
// Denied with a RejectStat of RPCMismatch (MismatchLow/High populated) or
// RPCAuthError (AuthStat populated).
type ReplyBody struct {
	Denied       bool
	Accepted     AcceptedBody
	RejectStat   uint32
	AuthStat     uint32
	MismatchLow  uint32
	MismatchHigh uint32
}

// RpcMessage is a fully decoded Reply message: xid plus the body it wraps.
// internal/rpcclient is the primary consumer -- it reads one record, peels
// off the record mark, and calls ReadReply on what remains.
type RpcMessage struct {
	XID   uint32
	Reply ReplyBody
}

// ReadReply decodes a Reply message from data, the bytes of one complete
// record with its record mark already stripped.
func ReadReply(data []byte) (*RpcMessage, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("rpc: reply too short: %d bytes", len(data))
	}
	xid := binary.BigEndian.Uint32(data[0:4])
	msgType := binary.BigEndian.Uint32(data[4:8])
	if msgType != RPCReply {
		return nil, fmt.Errorf("rpc: expected msg_type REPLY(%d), got %d", RPCReply, msgType)
	}

	r := bytes.NewReader(data[8:])
	var replyStat uint32
	if err := binary.Read(r, binary.BigEndian, &replyStat); err != nil {
		return nil, fmt.Errorf("rpc: read reply_stat: %w", err)
	}

	switch replyStat {
	case RPCMsgAccepted:
		accepted, err := readAcceptedBody(r)
		if err != nil {
			return nil, err
		}
		return &RpcMessage{XID: xid, Reply: ReplyBody{Accepted: *accepted}}, nil
	case RPCMsgDenied:
		body, err := readDeniedBody(r)
		if err != nil {
			return nil, err
		}
		return &RpcMessage{XID: xid, Reply: *body}, nil
	default:
		return nil, fmt.Errorf("rpc: unknown reply_stat %d", replyStat)
	}
}

func readAcceptedBody(r *bytes.Reader) (*AcceptedBody, error) {
	var verf OpaqueAuth
	if _, err := xdr.Unmarshal(r, &verf); err != nil {
		return nil, fmt.Errorf("rpc: decode reply verifier: %w", err)
	}

	var stat uint32
	if err := binary.Read(r, binary.BigEndian, &stat); err != nil {
		return nil, fmt.Errorf("rpc: read accept_stat: %w", err)
	}

	accepted := &AcceptedBody{Verf: verf, Stat: stat}
	switch stat {
	case RPCProgMismatch:
		if err := binary.Read(r, binary.BigEndian, &accepted.Low); err != nil {
			return nil, fmt.Errorf("rpc: read prog_mismatch low: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &accepted.High); err != nil {
			return nil, fmt.Errorf("rpc: read prog_mismatch high: %w", err)
		}
	case RPCSuccess:
		rest := make([]byte, r.Len())
		if _, err := io.ReadFull(r, rest); err != nil {
			return nil, fmt.Errorf("rpc: read success payload: %w", err)
		}
		accepted.Results = rest
	}
	return accepted, nil
}

func readDeniedBody(r *bytes.Reader) (*ReplyBody, error) {
	var rejectStat uint32
	if err := binary.Read(r, binary.BigEndian, &rejectStat); err != nil {
		return nil, fmt.Errorf("rpc: read reject_stat: %w", err)
	}

	body := &ReplyBody{Denied: true, RejectStat: rejectStat}
	switch rejectStat {
	case RPCMismatch:
		if err := binary.Read(r, binary.BigEndian, &body.MismatchLow); err != nil {
			return nil, fmt.Errorf("rpc: read rpc_mismatch low: %w", err)
		}
		if err := binary.Read(r, binary.BigEndian, &body.MismatchHigh); err != nil {
			return nil, fmt.Errorf("rpc: read rpc_mismatch high: %w", err)
		}
	case RPCAuthError:
		if err := binary.Read(r, binary.BigEndian, &body.AuthStat); err != nil {
			return nil, fmt.Errorf("rpc: read auth_stat: %w", err)
		}
	}
	return body, nil
}
