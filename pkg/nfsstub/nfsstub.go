// Package nfsstub is a minimal NFSv3 (program 100003, version 3) service:
// just enough of RFC 1813 to let a client round-trip the filehandle
// pkg/mount.HandleMnt hands out through GETATTR and get back a plausible,
// entirely synthetic fattr3. Every other NFSv3 procedure is intentionally
// unimplemented -- this program exists to exercise the MOUNT-to-NFS
// filehandle handoff, not to serve a real filesystem.
package nfsstub

import (
	"github.com/marmos91/onc-rpc/internal/rpc"
	"github.com/marmos91/onc-rpc/internal/rpcserver"
	"github.com/marmos91/onc-rpc/internal/xdrruntime"
	"github.com/marmos91/onc-rpc/pkg/mount"
)

// Program and Version identify this service to internal/rpcserver.Service.
const (
	Program = 100003
	Version = 3
)

// Procedure numbers this stub answers; NFSv3 defines 22 procedures total
// (RFC 1813 §3), but only NULL and GETATTR have handlers here.
const (
	ProcNull    = 0
	ProcGetAttr = 1
)

// nfsStatOK and nfsStatNoEnt are the only nfsstat3 values this stub needs:
// RFC 1813 §2.6's generic "succeeded" and "no such file or directory".
const (
	nfsStatOK    = 0
	nfsStatNoEnt = 2
)

// ftypeReg is NFSv3's ftype3 value for a regular file (RFC 1813 §2.5).
const ftypeReg = 1

// stubFileSize and stubFileID are the fixed attribute values GETATTR
// reports for the one object this stub recognizes.
const (
	stubFileSize = 4096
	stubFileID   = 1
)

func decodeFileHandle(arg []byte) ([]byte, error) {
	return xdrruntime.NewReader(arg).OpaqueVar(mount.FileHandleSize)
}

// encodeFattr3 encodes RFC 1813 §2.6's fattr3: a fixed-shape struct of
// scalars describing one filesystem object. specdata1/2, fsid, and fileid
// are synthetic constants since this stub has no real filesystem behind
// it.
func encodeFattr3() []byte {
	var buf []byte
	buf = xdrruntime.AppendU32(buf, ftypeReg)
	buf = xdrruntime.AppendU32(buf, 0o644)  // mode
	buf = xdrruntime.AppendU32(buf, 1)      // nlink
	buf = xdrruntime.AppendU32(buf, 0)      // uid
	buf = xdrruntime.AppendU32(buf, 0)      // gid
	buf = xdrruntime.AppendU64(buf, stubFileSize)
	buf = xdrruntime.AppendU64(buf, stubFileSize) // used
	buf = xdrruntime.AppendU32(buf, 0)            // specdata1
	buf = xdrruntime.AppendU32(buf, 0)            // specdata2
	buf = xdrruntime.AppendU64(buf, 0) // fsid
	buf = xdrruntime.AppendU64(buf, stubFileID)
	buf = appendNfstime3(buf, 0, 0) // atime
	buf = appendNfstime3(buf, 0, 0) // mtime
	buf = appendNfstime3(buf, 0, 0) // ctime
	return buf
}

func appendNfstime3(buf []byte, seconds, nseconds uint32) []byte {
	buf = xdrruntime.AppendU32(buf, seconds)
	return xdrruntime.AppendU32(buf, nseconds)
}

// encodeGetAttrResult encodes GETATTR3res: the nfsstat3 status, and only on
// NFS3_OK, the fattr3 that follows it.
func encodeGetAttrResult(status uint32) []byte {
	buf := xdrruntime.AppendU32(nil, status)
	if status != nfsStatOK {
		return buf
	}
	return append(buf, encodeFattr3()...)
}

// HandleGetAttr implements NFSv3's GETATTR procedure for the single stub
// filehandle pkg/mount hands out; any other filehandle is reported as
// NFS3ERR_NOENT.
func HandleGetAttr(_ *rpc.CallBody, arg []byte) rpcserver.Result {
	handle, err := decodeFileHandle(arg)
	if err != nil {
		return rpcserver.GarbageArgs()
	}
	if len(handle) != mount.FileHandleSize || string(handle) != string(mount.StubFileHandle[:]) {
		return rpcserver.Success(encodeGetAttrResult(nfsStatNoEnt))
	}
	return rpcserver.Success(encodeGetAttrResult(nfsStatOK))
}

// NewService builds the procedure table rpcserver.Service expects.
func NewService() *rpcserver.Service[struct{}] {
	return &rpcserver.Service[struct{}]{
		Program:    Program,
		VersionMin: Version,
		VersionMax: Version,
		Procedures: []rpcserver.Procedure[struct{}]{
			ProcNull: rpcserver.NullProcedure[struct{}],
			ProcGetAttr: func(c *rpc.CallBody, a []byte, _ *struct{}) rpcserver.Result {
				return HandleGetAttr(c, a)
			},
		},
	}
}
