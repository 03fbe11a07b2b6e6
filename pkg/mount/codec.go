package mount

import (
	"github.com/marmos91/onc-rpc/internal/rpc"
	"github.com/marmos91/onc-rpc/internal/xdrruntime"
)

const dirpathLimit = 1024

// EncodeDirpathArg encodes MNT/UMNT's single dirpath argument, exported so
// cmd/showmount and any other client can build wire-identical requests.
func EncodeDirpathArg(dirpath string) []byte {
	return xdrruntime.AppendString(nil, dirpath, dirpathLimit)
}

func decodeDirpath(arg []byte) (string, error) {
	return xdrruntime.NewReader(arg).String(dirpathLimit)
}

// encodeMountResult encodes MNT's result: the mountstat3 status, and, only
// when status is MntOK, the filehandle and the single AUTH_SYS auth flavor
// this stub supports.
func encodeMountResult(status uint32, handle [FileHandleSize]byte) []byte {
	buf := xdrruntime.AppendU32(nil, status)
	if status != MntOK {
		return buf
	}
	buf = xdrruntime.AppendOpaqueFixed(buf, handle[:])
	buf = xdrruntime.AppendU32(buf, 1)
	buf = xdrruntime.AppendU32(buf, rpc.AuthUnix)
	return buf
}

// DecodeMountResult decodes MNT's result.
func DecodeMountResult(result []byte) (status uint32, handle []byte, err error) {
	r := xdrruntime.NewReader(result)
	if status, err = r.U32(); err != nil {
		return 0, nil, err
	}
	if status != MntOK {
		return status, nil, nil
	}
	if handle, err = r.OpaqueFixed(FileHandleSize); err != nil {
		return 0, nil, err
	}
	return status, handle, nil
}

func encodeMountList(entries []MountEntry) []byte {
	var buf []byte
	for _, e := range entries {
		buf = xdrruntime.AppendBool(buf, true)
		buf = xdrruntime.AppendString(buf, e.Hostname, dirpathLimit)
		buf = xdrruntime.AppendString(buf, e.Dirpath, dirpathLimit)
	}
	buf = xdrruntime.AppendBool(buf, false)
	return buf
}

// DecodeMountListResult decodes DUMP's self-terminating mount list.
func DecodeMountListResult(result []byte) ([]MountEntry, error) {
	r := xdrruntime.NewReader(result)
	var entries []MountEntry
	for {
		more, err := r.Bool()
		if err != nil {
			return nil, err
		}
		if !more {
			return entries, nil
		}
		var e MountEntry
		if e.Hostname, err = r.String(dirpathLimit); err != nil {
			return nil, err
		}
		if e.Dirpath, err = r.String(dirpathLimit); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}

func encodeExportList(exports []Export) []byte {
	var buf []byte
	for _, e := range exports {
		buf = xdrruntime.AppendBool(buf, true)
		buf = xdrruntime.AppendString(buf, e.Dirpath, dirpathLimit)
		for _, group := range e.Groups {
			buf = xdrruntime.AppendBool(buf, true)
			buf = xdrruntime.AppendString(buf, group, dirpathLimit)
		}
		buf = xdrruntime.AppendBool(buf, false)
	}
	buf = xdrruntime.AppendBool(buf, false)
	return buf
}

// DecodeExportListResult decodes EXPORT's self-terminating export list.
func DecodeExportListResult(result []byte) ([]Export, error) {
	r := xdrruntime.NewReader(result)
	var exports []Export
	for {
		more, err := r.Bool()
		if err != nil {
			return nil, err
		}
		if !more {
			return exports, nil
		}
		var e Export
		if e.Dirpath, err = r.String(dirpathLimit); err != nil {
			return nil, err
		}
		for {
			groupMore, err := r.Bool()
			if err != nil {
				return nil, err
			}
			if !groupMore {
				break
			}
			group, err := r.String(dirpathLimit)
			if err != nil {
				return nil, err
			}
			e.Groups = append(e.Groups, group)
		}
		exports = append(exports, e)
	}
}
