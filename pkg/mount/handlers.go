package mount

import (
	"github.com/marmos91/onc-rpc/internal/rpc"
	"github.com/marmos91/onc-rpc/internal/rpcserver"
)

// callerHostname recovers the calling machine's name from an AUTH_SYS
// credential, the only identity MOUNT has to work with over ONC-RPC.
// Clients presenting AUTH_NONE are recorded under "unknown", same as a
// mountd that can't resolve a reverse DNS name for an anonymous caller.
func callerHostname(call *rpc.CallBody) string {
	if call == nil || call.Cred.Flavor != rpc.AuthUnix {
		return "unknown"
	}
	auth, err := rpc.ParseUnixAuth(call.Cred.Body)
	if err != nil || auth.MachineName == "" {
		return "unknown"
	}
	return auth.MachineName
}

// HandleMnt implements MOUNT's MNT procedure.
func HandleMnt(call *rpc.CallBody, arg []byte, state *State) rpcserver.Result {
	dirpath, err := decodeDirpath(arg)
	if err != nil {
		return rpcserver.GarbageArgs()
	}

	if !state.IsExported(dirpath) {
		return rpcserver.Success(encodeMountResult(MntErrNoEnt, StubFileHandle))
	}

	state.RecordMount(callerHostname(call), dirpath)
	return rpcserver.Success(encodeMountResult(MntOK, StubFileHandle))
}

// HandleDump implements MOUNT's DUMP procedure.
func HandleDump(_ *rpc.CallBody, _ []byte, state *State) rpcserver.Result {
	return rpcserver.Success(encodeMountList(state.DumpMounts()))
}

// HandleUmnt implements MOUNT's UMNT procedure.
func HandleUmnt(call *rpc.CallBody, arg []byte, state *State) rpcserver.Result {
	dirpath, err := decodeDirpath(arg)
	if err != nil {
		return rpcserver.GarbageArgs()
	}
	state.Unmount(callerHostname(call), dirpath)
	return rpcserver.Success(nil)
}

// HandleUmntAll implements MOUNT's UMNTALL procedure.
func HandleUmntAll(call *rpc.CallBody, _ []byte, state *State) rpcserver.Result {
	state.UnmountAll(callerHostname(call))
	return rpcserver.Success(nil)
}

// HandleExport implements MOUNT's EXPORT procedure.
func HandleExport(_ *rpc.CallBody, _ []byte, state *State) rpcserver.Result {
	return rpcserver.Success(encodeExportList(state.Exports()))
}

// NewService builds the procedure table rpcserver.Service expects, capturing
// state by reference the same way pkg/rpcbind.NewService captures its
// registry, since State embeds a sync.RWMutex.
func NewService(state *State) *rpcserver.Service[struct{}] {
	return &rpcserver.Service[struct{}]{
		Program:    Program,
		VersionMin: Version,
		VersionMax: Version,
		Procedures: []rpcserver.Procedure[struct{}]{
			ProcNull: rpcserver.NullProcedure[struct{}],
			ProcMnt: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleMnt(c, a, state)
			},
			ProcDump: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleDump(c, a, state)
			},
			ProcUmnt: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleUmnt(c, a, state)
			},
			ProcUmntAll: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleUmntAll(c, a, state)
			},
			ProcExport: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleExport(c, a, state)
			},
		},
	}
}
