package mount

import (
	"slices"
	"sync"
)

// State tracks the mount service's two pieces of mutable bookkeeping: the
// set of directories currently mounted (for DUMP/UMNT/UMNTALL) and the
// static list of paths this server is configured to export. Concurrency
// discipline follows pkg/rpcbind.Registry: one RWMutex guarding a map, with
// deterministic Dump ordering via slices.SortFunc.
type State struct {
	mu      sync.RWMutex
	mounted map[MountEntry]struct{}
	exports []Export
}

// NewState returns a State exporting the given static paths, with no
// client mounts recorded yet.
func NewState(exports []Export) *State {
	return &State{
		mounted: make(map[MountEntry]struct{}),
		exports: exports,
	}
}

// IsExported reports whether dirpath is one of this server's configured
// exports.
func (s *State) IsExported(dirpath string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.exports {
		if e.Dirpath == dirpath {
			return true
		}
	}
	return false
}

// RecordMount adds (hostname, dirpath) to the mount table. MNT calls this
// on every successful mount, including repeats from the same client; the
// table is a set keyed by (hostname, dirpath), so a repeat leaves a single
// entry and DUMP lists each pair once.
func (s *State) RecordMount(hostname, dirpath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted[MountEntry{Hostname: hostname, Dirpath: dirpath}] = struct{}{}
}

// Unmount removes the record of hostname having dirpath mounted.
func (s *State) Unmount(hostname, dirpath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mounted, MountEntry{Hostname: hostname, Dirpath: dirpath})
}

// UnmountAll removes every mount recorded for hostname.
func (s *State) UnmountAll(hostname string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for entry := range s.mounted {
		if entry.Hostname == hostname {
			delete(s.mounted, entry)
		}
	}
}

// DumpMounts returns every recorded mount in deterministic order.
func (s *State) DumpMounts() []MountEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MountEntry, 0, len(s.mounted))
	for entry := range s.mounted {
		out = append(out, entry)
	}
	slices.SortFunc(out, func(a, b MountEntry) int {
		if a.Hostname != b.Hostname {
			if a.Hostname < b.Hostname {
				return -1
			}
			return 1
		}
		if a.Dirpath < b.Dirpath {
			return -1
		}
		if a.Dirpath > b.Dirpath {
			return 1
		}
		return 0
	})
	return out
}

// Exports returns the configured export list, in the order it was
// configured.
func (s *State) Exports() []Export {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Export, len(s.exports))
	copy(out, s.exports)
	return out
}
