// Package mount is a reference MOUNT (program 100005, version 3) service,
// grounded on RFC 1813 appendix I's mountprog protocol and built, like
// pkg/rpcbind, as a procedure table over internal/rpcserver. It backs the
// stub NFSv3 service in pkg/nfsstub with filehandles and hands out a
// configured, static export list rather than any real filesystem tree.
package mount

// Program and Version identify this service to internal/rpcserver.Service.
const (
	Program = 100005
	Version = 3
)

// Procedure numbers, per RFC 1813 appendix I.
const (
	ProcNull    = 0
	ProcMnt     = 1
	ProcDump    = 2
	ProcUmnt    = 3
	ProcUmntAll = 4
	ProcExport  = 5
)

// mountstat3 values MNT can report, per RFC 1813 appendix I.
const (
	MntOK             = 0
	MntErrPerm        = 1
	MntErrNoEnt       = 2
	MntErrAcces       = 13
	MntErrNotDir      = 20
	MntErrInval       = 22
	MntErrNameTooLong = 63
	MntErrNotSupp     = 10004
	MntErrServerFault = 10006
)

// FileHandleSize is this stub's fixed filehandle length. RFC 1813 allows up
// to NFS3_FHSIZE (64) bytes of opaque data; a real server's bytes would
// encode whatever it needs to locate an object, but this stub only ever
// names one fixed synthetic object, so a constant-content handle suffices.
const FileHandleSize = 32

// StubFileHandle is the single filehandle this service ever hands out, and
// the only one pkg/nfsstub's GETATTR recognizes.
var StubFileHandle = func() [FileHandleSize]byte {
	var h [FileHandleSize]byte
	copy(h[:], "onc-rpc-stub-filehandle-v1")
	return h
}()

// MountEntry is one entry in the MOUNT DUMP list: a client hostname paired
// with the directory path it has mounted.
type MountEntry struct {
	Hostname string
	Dirpath  string
}

// Export is one entry in the EXPORT list: an exported directory path and
// the client groups permitted to mount it. Groups comes from the configured
// export list; an empty list means "everyone", matching exports(5)'s
// convention for an unrestricted export.
type Export struct {
	Dirpath string
	Groups  []string
}
