package rpc

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/marmos91/onc-rpc/internal/wire"
)

const (
	maxMachineNameLen = 255
	maxGIDs           = 16
)

// UnixAuth is the decoded body of an AUTH_SYS credential, per
// RFC 5531 §8.2 (the struct historically called "auth_unix" in rpc_prot.x).
type UnixAuth struct {
	Stamp       uint32
	MachineName string
	UID         uint32
	GID         uint32
	GIDs        []uint32
}

// ParseUnixAuth decodes an AUTH_SYS credential body: the Cred.Body of a
// Call whose Cred.Flavor is AuthUnix. It rejects machine names over 255
// bytes and more than 16 supplementary gids, the limits RFC 5531 §8.2
// documents as commonly enforced by implementations.
func ParseUnixAuth(body []byte) (*UnixAuth, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("rpc: empty auth_sys body")
	}

	r := bytes.NewReader(body)

	var stamp uint32
	if err := binary.Read(r, binary.BigEndian, &stamp); err != nil {
		return nil, fmt.Errorf("rpc: read auth_sys stamp: %w", err)
	}

	var nameLen uint32
	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return nil, fmt.Errorf("rpc: read auth_sys machine name length: %w", err)
	}
	if nameLen > maxMachineNameLen {
		return nil, fmt.Errorf("rpc: auth_sys machine name too long: %d bytes", nameLen)
	}

	nameBuf := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBuf); err != nil {
		return nil, fmt.Errorf("rpc: read auth_sys machine name: %w", err)
	}
	if _, err := io.CopyN(io.Discard, r, int64(wire.PadLen(int(nameLen)))); err != nil {
		return nil, fmt.Errorf("rpc: skip auth_sys machine name padding: %w", err)
	}

	var uid, gid uint32
	if err := binary.Read(r, binary.BigEndian, &uid); err != nil {
		return nil, fmt.Errorf("rpc: read auth_sys uid: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &gid); err != nil {
		return nil, fmt.Errorf("rpc: read auth_sys gid: %w", err)
	}

	var gidCount uint32
	if err := binary.Read(r, binary.BigEndian, &gidCount); err != nil {
		return nil, fmt.Errorf("rpc: read auth_sys gid count: %w", err)
	}
	if gidCount > maxGIDs {
		return nil, fmt.Errorf("rpc: auth_sys too many gids: %d", gidCount)
	}

	gids := make([]uint32, gidCount)
	for i := range gids {
		if err := binary.Read(r, binary.BigEndian, &gids[i]); err != nil {
			return nil, fmt.Errorf("rpc: read auth_sys gid[%d]: %w", i, err)
		}
	}

	return &UnixAuth{
		Stamp:       stamp,
		MachineName: string(nameBuf),
		UID:         uid,
		GID:         gid,
		GIDs:        gids,
	}, nil
}

// String implements fmt.Stringer, used when logging the credential
// attached to a dispatched call.
func (a *UnixAuth) String() string {
	return fmt.Sprintf("UnixAuth{machine=%s uid=%d gid=%d gids=%v}", a.MachineName, a.UID, a.GID, a.GIDs)
}
