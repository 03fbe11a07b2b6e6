package rpcbind

import (
	"github.com/marmos91/onc-rpc/internal/rpc"
	"github.com/marmos91/onc-rpc/internal/rpcserver"
)

// HandleSet implements rpcbind's SET procedure.
func HandleSet(_ *rpc.CallBody, arg []byte, registry *Registry) rpcserver.Result {
	args, err := decodeArgs(arg)
	if err != nil {
		return rpcserver.GarbageArgs()
	}
	ok := registry.Set(args.Prog, args.Vers, args.Netid, args.Addr, args.Owner)
	return rpcserver.Success(encodeBool(ok))
}

// HandleUnset implements rpcbind's UNSET procedure.
func HandleUnset(_ *rpc.CallBody, arg []byte, registry *Registry) rpcserver.Result {
	args, err := decodeUnsetArgs(arg)
	if err != nil {
		return rpcserver.GarbageArgs()
	}
	ok := registry.Unset(args.Prog, args.Vers)
	return rpcserver.Success(encodeBool(ok))
}

// HandleGetAddr implements rpcbind's GETADDR procedure, replying with an
// empty string (not an error) when nothing is registered, matching RFC
// 1833's description of GETADDR's failure mode.
func HandleGetAddr(_ *rpc.CallBody, arg []byte, registry *Registry) rpcserver.Result {
	args, err := decodeArgs(arg)
	if err != nil {
		return rpcserver.GarbageArgs()
	}
	addr, _ := registry.GetAddr(args.Prog, args.Vers)
	return rpcserver.Success(encodeAddr(addr))
}

// HandleDump implements rpcbind's DUMP procedure: no arguments, one
// self-terminating list of every current registration.
func HandleDump(_ *rpc.CallBody, _ []byte, registry *Registry) rpcserver.Result {
	return rpcserver.Success(encodeDump(registry.Dump()))
}

// NewService builds the procedure table rpcserver.Service expects, with
// NULL at index 0 and each RFC 1833 procedure at its standard index. The
// registry is captured by reference in every closure rather than stored in
// Service.State: Registry embeds a sync.RWMutex, and Service.State is held
// by value, so storing it there would hand each procedure call a copy of
// the lock instead of the shared registry.
func NewService(registry *Registry) *rpcserver.Service[struct{}] {
	return &rpcserver.Service[struct{}]{
		Program:    Program,
		VersionMin: Version,
		VersionMax: Version,
		Procedures: []rpcserver.Procedure[struct{}]{
			ProcNull: rpcserver.NullProcedure[struct{}],
			ProcSet: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleSet(c, a, registry)
			},
			ProcUnset: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleUnset(c, a, registry)
			},
			ProcGetAddr: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleGetAddr(c, a, registry)
			},
			ProcDump: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleDump(c, a, registry)
			},
		},
	}
}
