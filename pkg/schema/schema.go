// Package schema bundles the reference .x schema sources the runtime's
// hand-written packages (internal/rpc, pkg/rpcbind, pkg/mount, pkg/nfsstub)
// implement by hand, plus the ones xdrc's example/test fixtures compile
// directly. Bundling them via go:embed keeps the schema source next to the
// code it documents instead of drifting as a separate reference doc.
package schema

import "embed"

//go:embed rpc_prot.x portmap.x mount.x nfs.x
var Files embed.FS

// Names lists the bundled schema files, in the order a reader would want
// them: the wire envelope first, then each reference service's program
// definition.
var Names = []string{"rpc_prot.x", "portmap.x", "mount.x", "nfs.x"}

// Read returns the bundled source of the named schema file.
func Read(name string) ([]byte, error) {
	return Files.ReadFile(name)
}
