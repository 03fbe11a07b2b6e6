package rpcbind

import "github.com/marmos91/onc-rpc/internal/xdrruntime"

// stringLimit bounds netid/addr/owner strings; rpcbind places no formal
// limit on these, but an unbounded limit defeats OpaqueVar's own overflow
// guard, so this service picks a generous practical ceiling.
const stringLimit = 1024

// EncodeArgs encodes the SET/GETADDR argument shape, exported so client-side
// callers (Register, which cmd/mountd and cmd/nfsstub use to register
// themselves) build wire-identical requests without duplicating the field
// order here.
func EncodeArgs(args Args) []byte {
	buf := xdrruntime.AppendU32(nil, args.Prog)
	buf = xdrruntime.AppendU32(buf, args.Vers)
	buf = xdrruntime.AppendString(buf, args.Netid, stringLimit)
	buf = xdrruntime.AppendString(buf, args.Addr, stringLimit)
	buf = xdrruntime.AppendString(buf, args.Owner, stringLimit)
	return buf
}

func decodeArgs(arg []byte) (Args, error) {
	r := xdrruntime.NewReader(arg)
	prog, err := r.U32()
	if err != nil {
		return Args{}, err
	}
	vers, err := r.U32()
	if err != nil {
		return Args{}, err
	}
	netid, err := r.String(stringLimit)
	if err != nil {
		return Args{}, err
	}
	addr, err := r.String(stringLimit)
	if err != nil {
		return Args{}, err
	}
	owner, err := r.String(stringLimit)
	if err != nil {
		return Args{}, err
	}
	return Args{Prog: prog, Vers: vers, Netid: netid, Addr: addr, Owner: owner}, nil
}

// EncodeUnsetArgs encodes UNSET's argument shape.
func EncodeUnsetArgs(args UnsetArgs) []byte {
	buf := xdrruntime.AppendU32(nil, args.Prog)
	return xdrruntime.AppendU32(buf, args.Vers)
}

func decodeUnsetArgs(arg []byte) (UnsetArgs, error) {
	r := xdrruntime.NewReader(arg)
	prog, err := r.U32()
	if err != nil {
		return UnsetArgs{}, err
	}
	vers, err := r.U32()
	if err != nil {
		return UnsetArgs{}, err
	}
	return UnsetArgs{Prog: prog, Vers: vers}, nil
}

func encodeBool(success bool) []byte {
	return xdrruntime.AppendBool(nil, success)
}

// DecodeBoolResult decodes SET/UNSET's bool result.
func DecodeBoolResult(result []byte) (bool, error) {
	return xdrruntime.NewReader(result).Bool()
}

func encodeAddr(addr string) []byte {
	return xdrruntime.AppendString(nil, addr, stringLimit)
}

// DecodeGetAddrResult decodes GETADDR's result.
func DecodeGetAddrResult(result []byte) (string, error) {
	return xdrruntime.NewReader(result).String(stringLimit)
}

// encodeDump encodes rpcbind's DUMP result: a self-terminating linked list
// in which a true bool precedes every entry and a single false bool ends
// the list (so an empty DUMP is just false) -- the classic XDR
// "optional-looking" linked-list encoding also used for MOUNT's export and
// mount-dump lists.
func encodeDump(entries []Entry) []byte {
	var buf []byte
	for _, e := range entries {
		buf = xdrruntime.AppendBool(buf, true)
		buf = xdrruntime.AppendU32(buf, e.Prog)
		buf = xdrruntime.AppendU32(buf, e.Vers)
		buf = xdrruntime.AppendString(buf, e.Netid, stringLimit)
		buf = xdrruntime.AppendString(buf, e.Addr, stringLimit)
		buf = xdrruntime.AppendString(buf, e.Owner, stringLimit)
	}
	buf = xdrruntime.AppendBool(buf, false)
	return buf
}

// DecodeDumpResult decodes DUMP's self-terminating list result.
func DecodeDumpResult(result []byte) ([]Entry, error) {
	r := xdrruntime.NewReader(result)
	var entries []Entry
	for {
		more, err := r.Bool()
		if err != nil {
			return nil, err
		}
		if !more {
			return entries, nil
		}
		var e Entry
		if e.Prog, err = r.U32(); err != nil {
			return nil, err
		}
		if e.Vers, err = r.U32(); err != nil {
			return nil, err
		}
		if e.Netid, err = r.String(stringLimit); err != nil {
			return nil, err
		}
		if e.Addr, err = r.String(stringLimit); err != nil {
			return nil, err
		}
		if e.Owner, err = r.String(stringLimit); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
}
