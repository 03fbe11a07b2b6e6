package rpcbind

import (
	"fmt"
	"net"

	"github.com/marmos91/onc-rpc/internal/rpcclient"
)

// Register dials rpcbindAddr and issues a SET call for (prog, vers),
// letting a reference daemon (cmd/mountd, cmd/nfsstub) announce itself the
// way a real NFS-adjacent service registers with rpcbind at startup. It
// reports an error if the connection, the call, or the registration itself
// (e.g. a duplicate already held by another owner) fails.
func Register(rpcbindAddr string, prog, vers uint32, netid, addr, owner string) error {
	conn, err := net.Dial("tcp", rpcbindAddr)
	if err != nil {
		return fmt.Errorf("rpcbind: dial %s: %w", rpcbindAddr, err)
	}
	defer func() { _ = conn.Close() }()

	arg := EncodeArgs(Args{Prog: prog, Vers: vers, Netid: netid, Addr: addr, Owner: owner})
	result, err := rpcclient.Call(conn, Program, Version, ProcSet, arg)
	if err != nil {
		return fmt.Errorf("rpcbind: SET call: %w", err)
	}

	ok, err := DecodeBoolResult(result)
	if err != nil {
		return fmt.Errorf("rpcbind: decode SET result: %w", err)
	}
	if !ok {
		return fmt.Errorf("rpcbind: SET refused for (%d, %d): already registered", prog, vers)
	}
	return nil
}
