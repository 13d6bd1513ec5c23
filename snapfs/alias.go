package snapfs

import (
	"os"
	"path/filepath"
	"strings"
)

// AliasEntry maps a local directory the user is browsing to a remote
// directory where its snapshots actually live (a non-standard mount,
// or removable media), together with the remote's detected FsKind.
type AliasEntry struct {
	LocalDir  string
	RemoteDir string
	FsKind    FsKind
}

// AliasMap is an ordered, read-only set of alias entries, shared for
// the lifetime of a request.
type AliasMap struct {
	entries []AliasEntry
}

// Entries returns the alias entries in parse order.
func (m *AliasMap) Entries() []AliasEntry {
	return m.entries
}

// MatchLocal returns the alias entry whose LocalDir is path, if any.
func (m *AliasMap) MatchLocal(path string) (AliasEntry, bool) {
	clean := filepath.Clean(path)

	for _, e := range m.entries {
		if filepath.Clean(e.LocalDir) == clean {
			return e, true
		}
	}

	return AliasEntry{}, false
}

// ParseAliases parses "local:remote" pairs (one per string) plus an
// optional single global override pair, merged in as one last entry.
// Entries whose directories do not both exist, or whose remote
// cannot be probed for a known snapshot-dir convention, are dropped
// with a warning appended to warnings — never treated as fatal.
func ParseAliases(pairs []string, globalLocalDir, globalSnapDir string) (*AliasMap, []string) {
	var (
		entries  []AliasEntry
		warnings []string
	)

	for _, raw := range pairs {
		local, remote, ok := splitAliasPair(raw)
		if !ok {
			warnings = append(warnings, "malformed alias (want LOCAL:REMOTE): "+raw)
			continue
		}

		entry, warn := probeAlias(local, remote)
		if warn != "" {
			warnings = append(warnings, warn)
			continue
		}

		entries = append(entries, entry)
	}

	if globalLocalDir != "" || globalSnapDir != "" {
		entry, warn := probeAlias(globalLocalDir, globalSnapDir)
		if warn != "" {
			warnings = append(warnings, warn)
		} else {
			entries = append(entries, entry)
		}
	}

	return &AliasMap{entries: entries}, warnings
}

func splitAliasPair(raw string) (local, remote string, ok bool) {
	local, remote, found := strings.Cut(raw, ":")
	if !found || local == "" || remote == "" {
		return "", "", false
	}

	return local, remote, true
}

// probeAlias validates that both directories exist and detects the
// remote's FsKind by probing for .zfs then .snapshots.
func probeAlias(local, remote string) (AliasEntry, string) {
	if local == "" || remote == "" {
		return AliasEntry{}, "alias needs both a local and a remote dir, skipping: " + local + ":" + remote
	}

	if _, err := os.Stat(local); err != nil {
		return AliasEntry{}, "alias local dir missing, skipping: " + local
	}

	if _, err := os.Stat(remote); err != nil {
		return AliasEntry{}, "alias remote dir missing, skipping: " + remote
	}

	kind, ok := detectFsKind(remote)
	if !ok {
		return AliasEntry{}, "alias remote dir has no .zfs or .snapshots, skipping: " + remote
	}

	return AliasEntry{LocalDir: local, RemoteDir: remote, FsKind: kind}, ""
}

func detectFsKind(dir string) (FsKind, bool) {
	if _, err := os.Stat(filepath.Join(dir, ".zfs")); err == nil {
		return FsKindZfs, true
	}

	if _, err := os.Stat(filepath.Join(dir, ".snapshots")); err == nil {
		return FsKindBtrfs, true
	}

	return FsKindUnknown, false
}
