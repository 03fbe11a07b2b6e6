package rpc

import (
	"bytes"
	"encoding/binary"
	"testing"

	xdr "github.com/rasky/go-xdr/xdr2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodeCall(t *testing.T, xid uint32, body CallBody, argBytes []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.BigEndian, xid))
	require.NoError(t, binary.Write(&buf, binary.BigEndian, RPCCall))
	_, err := xdr.Marshal(&buf, &body)
	require.NoError(t, err)
	buf.Write(argBytes)
	return buf.Bytes()
}

func TestReadCallAndReadData(t *testing.T) {
	body := CallBody{
		RPCVersion: RPCVersion,
		Program:    7,
		Version:    3,
		Procedure:  1,
		Cred:       OpaqueAuth{Flavor: AuthNull},
		Verf:       OpaqueAuth{Flavor: AuthNull},
	}
	args := []byte{0, 0, 0, 42}
	data := encodeCall(t, 0xCAFEBABE, body, args)

	call, err := ReadCall(data)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xCAFEBABE), call.XID)
	assert.Equal(t, uint32(7), call.Program)
	assert.Equal(t, uint32(3), call.Version)
	assert.Equal(t, uint32(1), call.Procedure)

	gotArgs, err := ReadData(data, call)
	require.NoError(t, err)
	assert.Equal(t, args, gotArgs)
}

func TestReadCallRejectsWrongMsgType(t *testing.T) {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(1))
	_ = binary.Write(&buf, binary.BigEndian, RPCReply) // not a call

	_, err := ReadCall(buf.Bytes())
	require.Error(t, err)
}

func TestMakeSuccessReplyRoundTrip(t *testing.T) {
	result := []byte{0, 0, 0, 7}
	body := MakeSuccessReply(0x1111, result)

	msg, err := ReadReply(body)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x1111), msg.XID)
	assert.False(t, msg.Reply.Denied)
	assert.Equal(t, RPCSuccess, msg.Reply.Accepted.Stat)
	assert.Equal(t, result, msg.Reply.Accepted.Results)
}

func TestMakeErrorReplyRoundTrip(t *testing.T) {
	body := MakeErrorReply(0x2222, RPCProcUnavail)

	msg, err := ReadReply(body)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x2222), msg.XID)
	assert.Equal(t, RPCProcUnavail, msg.Reply.Accepted.Stat)
	assert.Empty(t, msg.Reply.Accepted.Results)
}

func TestMakeDeniedAuthReplyRoundTrip(t *testing.T) {
	body := MakeDeniedAuthReply(0x3333, AuthRejectedCred)

	msg, err := ReadReply(body)
	require.NoError(t, err)
	assert.True(t, msg.Reply.Denied)
	assert.Equal(t, RPCAuthError, msg.Reply.RejectStat)
	assert.Equal(t, AuthRejectedCred, msg.Reply.AuthStat)
}
