// Package rpcbind is a reference RPCBIND (program 100000, version 2)
// service: a thin procedure table over internal/rpcserver, grounded on the
// teacher's internal/adapter/nfs/portmap registry and on RFC 1833's NULL/
// SET/UNSET/GETADDR/DUMP procedure set.
package rpcbind

// Program and Version identify this service to internal/rpcserver.Service.
const (
	Program = 100000
	Version = 2
)

// Procedure numbers, per RFC 1833 (shared across rpcbind's v2/v3/v4 wire
// formats; this service implements only the v2 argument/result shapes).
const (
	ProcNull    = 0
	ProcSet     = 1
	ProcUnset   = 2
	ProcGetAddr = 3
	ProcDump    = 4
)

// Args is the argument shape shared by SET and GETADDR: an (program,
// version) pair plus the netconfig triple (netid, universal address,
// owner) SPEC_FULL.md §4.J names. These are flat (no discriminated union),
// so codec.go encodes/decodes them field by field with internal/xdrruntime.
type Args struct {
	Prog  uint32
	Vers  uint32
	Netid string
	Addr  string
	Owner string
}

// UnsetArgs is UNSET's argument shape: just the (program, version) key.
type UnsetArgs struct {
	Prog uint32
	Vers uint32
}

// GetAddrResult is GETADDR's result: the universal address string, empty
// when nothing is registered for the requested (program, version).
type GetAddrResult struct {
	Addr string
}

// BoolResult carries a bool, XDR's standard "did this succeed" result for
// SET/UNSET.
type BoolResult struct {
	Success bool
}

// Entry is one registration, as returned in the DUMP list.
type Entry struct {
	Prog  uint32
	Vers  uint32
	Netid string
	Addr  string
	Owner string
}
