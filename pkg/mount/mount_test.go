package mount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/onc-rpc/internal/rpc"
	"github.com/marmos91/onc-rpc/internal/xdrruntime"
)

func testState() *State {
	return NewState([]Export{{Dirpath: "/export/data"}})
}

func TestHandleMntSuccess(t *testing.T) {
	state := testState()
	result := HandleMnt(&rpc.CallBody{}, EncodeDirpathArg("/export/data"), state)

	r := xdrruntime.NewReader(result.Success)
	status, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(MntOK), status)

	handle, err := r.OpaqueFixed(FileHandleSize)
	require.NoError(t, err)
	assert.Equal(t, StubFileHandle[:], handle)

	count, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(1), count)
	flavor, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(rpc.AuthUnix), flavor)

	dumped := state.DumpMounts()
	require.Len(t, dumped, 1)
	assert.Equal(t, "/export/data", dumped[0].Dirpath)
}

func TestHandleMntUnknownExport(t *testing.T) {
	state := testState()
	result := HandleMnt(&rpc.CallBody{}, EncodeDirpathArg("/export/nope"), state)

	r := xdrruntime.NewReader(result.Success)
	status, err := r.U32()
	require.NoError(t, err)
	assert.Equal(t, uint32(MntErrNoEnt), status)
	assert.Zero(t, r.Remaining())
	assert.Empty(t, state.DumpMounts())
}

func TestHandleUmntAndUmntAll(t *testing.T) {
	state := testState()
	HandleMnt(&rpc.CallBody{}, EncodeDirpathArg("/export/data"), state)
	require.Len(t, state.DumpMounts(), 1)

	HandleUmnt(&rpc.CallBody{}, EncodeDirpathArg("/export/data"), state)
	assert.Empty(t, state.DumpMounts())

	HandleMnt(&rpc.CallBody{}, EncodeDirpathArg("/export/data"), state)
	HandleUmntAll(&rpc.CallBody{}, nil, state)
	assert.Empty(t, state.DumpMounts())
}

func TestHandleExport(t *testing.T) {
	state := NewState([]Export{{Dirpath: "/export/data", Groups: []string{"trusted"}}})
	result := HandleExport(&rpc.CallBody{}, nil, state)

	r := xdrruntime.NewReader(result.Success)
	more, err := r.Bool()
	require.NoError(t, err)
	require.True(t, more)

	dirpath, err := r.String(dirpathLimit)
	require.NoError(t, err)
	assert.Equal(t, "/export/data", dirpath)

	groupMore, err := r.Bool()
	require.NoError(t, err)
	require.True(t, groupMore)
	group, err := r.String(dirpathLimit)
	require.NoError(t, err)
	assert.Equal(t, "trusted", group)

	groupMore, err = r.Bool()
	require.NoError(t, err)
	assert.False(t, groupMore)

	listMore, err := r.Bool()
	require.NoError(t, err)
	assert.False(t, listMore)
}

func TestCallerHostnameFallsBackToUnknown(t *testing.T) {
	assert.Equal(t, "unknown", callerHostname(&rpc.CallBody{Cred: rpc.OpaqueAuth{Flavor: rpc.AuthNull}}))
}
