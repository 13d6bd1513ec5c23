package snapfs

import (
	"path/filepath"
	"sort"
)

// FsKind identifies which snapshot-directory convention a dataset
// follows.
type FsKind int

const (
	// FsKindUnknown falls back to the ZFS convention.
	FsKindUnknown FsKind = iota
	// FsKindZfs is a ZFS dataset: snapshots live under
	// <mount>/.zfs/snapshot/<name>/, each a ready-to-use mount.
	FsKindZfs
	// FsKindBtrfs is a Btrfs subvolume managed by snapper: snapshots
	// live under <mount>/.snapshots/<id>/, each containing a
	// snapshot/ subdirectory that mirrors the tree.
	FsKindBtrfs
)

func (k FsKind) String() string {
	switch k {
	case FsKindZfs:
		return "zfs"
	case FsKindBtrfs:
		return "btrfs"
	default:
		return "unknown"
	}
}

// snapshotRoot returns the directory under mount at which snapshot
// instances are listed. For Btrfs, each instance still requires a
// "snapshot/" suffix to reach the mirrored tree — that level is
// layered in by [EnumerateVersions] and [EnumerateDeleted], not here.
func (k FsKind) snapshotRoot(mount string) string {
	switch k {
	case FsKindBtrfs:
		return filepath.Join(mount, ".snapshots")
	default:
		return filepath.Join(mount, ".zfs", "snapshot")
	}
}

// MountEntry describes one mounted dataset.
type MountEntry struct {
	MountPoint  string
	DatasetName string
	FsKind      FsKind
}

// MountIndex is an immutable table mapping mount points to their
// dataset metadata, built once per invocation from the host mount
// table (or from an alias map) and frozen for the lifetime of the
// request.
type MountIndex struct {
	byMount      map[string]MountEntry
	snapsByMount map[string][]string
	altsByMount  map[string][]string
}

// NewMountIndex builds an immutable MountIndex from entries and the
// optional pre-known snapshot-instance and alternate-replica maps.
// snapsByMount and altsByMount may be nil; every key they do carry
// must also be a key of entries, or NewMountIndex panics — this is a
// construction-time invariant, not a recoverable runtime error,
// because the maps are built exclusively by this package's own
// callers (host ingestion code, tests).
func NewMountIndex(entries []MountEntry, snapsByMount, altsByMount map[string][]string) *MountIndex {
	byMount := make(map[string]MountEntry, len(entries))
	for _, e := range entries {
		byMount[e.MountPoint] = e
	}

	for k := range snapsByMount {
		if _, ok := byMount[k]; !ok {
			panic("snapfs: snapsByMount key " + k + " is not a known mount point")
		}
	}

	for k := range altsByMount {
		if _, ok := byMount[k]; !ok {
			panic("snapfs: altsByMount key " + k + " is not a known mount point")
		}
	}

	return &MountIndex{
		byMount:      byMount,
		snapsByMount: snapsByMount,
		altsByMount:  altsByMount,
	}
}

// WithAlternateReplicas returns a copy of idx with altsByMount
// precomputed per the suffix-match rule: for every mount M with
// dataset name N, its alternates are every other mount M' whose
// dataset name N' satisfies N' != N && strings.HasSuffix(N', N),
// sorted ascending by the byte length of M'.
//
// This is a separate, explicit step rather than always-on
// precomputation because alternate-replica search is an opt-in
// policy; computing it costs O(n^2) over mount count and need not run
// for invocations that never ask for it.
func (idx *MountIndex) WithAlternateReplicas() *MountIndex {
	alts := make(map[string][]string, len(idx.byMount))

	for mount, entry := range idx.byMount {
		var found []string

		for otherMount, otherEntry := range idx.byMount {
			if otherMount == mount {
				continue
			}

			if otherEntry.DatasetName == entry.DatasetName {
				continue
			}

			if hasProperSuffix(otherEntry.DatasetName, entry.DatasetName) {
				found = append(found, otherMount)
			}
		}

		if len(found) > 0 {
			sort.Slice(found, func(i, j int) bool { return len(found[i]) < len(found[j]) })
			alts[mount] = found
		}
	}

	return &MountIndex{
		byMount:      idx.byMount,
		snapsByMount: idx.snapsByMount,
		altsByMount:  alts,
	}
}

// hasProperSuffix reports whether name ends with suffix and is longer
// than it — a replicated dataset name typically prepends a pool
// prefix (tank/rpool/home replicates rpool/home), never appends, so
// suffix match on the dataset name (not the mount path) is the
// discriminator. This check is intentionally case-sensitive and
// substring-based (not component-boundary aware): it can over-match
// names like foo/home vs foo/myhome. Upstream accepts this tradeoff;
// see DESIGN.md.
func hasProperSuffix(name, suffix string) bool {
	if len(name) <= len(suffix) {
		return false
	}

	return name[len(name)-len(suffix):] == suffix
}

// Lookup returns the MountEntry for an exact mount point.
func (idx *MountIndex) Lookup(mountPoint string) (MountEntry, bool) {
	e, ok := idx.byMount[mountPoint]
	return e, ok
}

// Alternates returns the alternate-replica mount points for a
// proximate mount, or nil if none were computed or none exist.
func (idx *MountIndex) Alternates(mountPoint string) []string {
	return idx.altsByMount[mountPoint]
}

// ExplicitSnapshotMounts returns the pre-known snapshot instance mount
// points for a dataset mount, or nil if unknown (meaning the caller
// must discover them via directory listing).
func (idx *MountIndex) ExplicitSnapshotMounts(mountPoint string) []string {
	return idx.snapsByMount[mountPoint]
}

// isMount reports whether p is a key of the index, for the proximate
// resolver's ancestor walk.
func (idx *MountIndex) isMount(p string) bool {
	_, ok := idx.byMount[p]
	return ok
}
