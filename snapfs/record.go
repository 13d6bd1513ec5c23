// Package snapfs resolves historical versions of files and directories
// living on snapshot-capable local filesystems (ZFS's hidden
// .zfs/snapshot/<name>/ directories and the Btrfs/snapper
// .snapshots/<id>/snapshot/ layout).
//
// The package does not discover the host mount table or parse CLI
// arguments; it is handed an already-built [MountIndex] and answers
// lookup queries against it. Construction (MountIndex, AliasMap) is
// pure and cheap; lookups perform filesystem I/O and may be cancelled
// through the passed [context.Context].
package snapfs

import "time"

// FileKind classifies what a PathRecord refers to.
type FileKind int

const (
	// FileKindUnknown means the kind could not be determined.
	FileKindUnknown FileKind = iota
	// FileKindFile is a regular file.
	FileKindFile
	// FileKindDir is a directory.
	FileKindDir
	// FileKindSymlink is a symbolic link.
	FileKindSymlink
	// FileKindOther is a device, socket, pipe, or similar.
	FileKindOther
)

// Metadata is the observed state of a path that exists and could be
// stat'd. A PathRecord without Metadata is phantom.
type Metadata struct {
	ModTime time.Time
	Size    int64
	Kind    FileKind
}

// PathRecord is the canonical representation of a path plus its
// observed metadata. A record whose Metadata is nil is phantom: the
// path does not currently exist, or could not be stat'd. Phantom
// records are kept because callers can query versions of a file that
// no longer exists.
type PathRecord struct {
	Path     string
	Metadata *Metadata
}

// Phantom reports whether r has no observed metadata.
func (r PathRecord) Phantom() bool {
	return r.Metadata == nil
}

// DisplayModTime returns r's modification time, or the epoch if r is
// phantom. It exists only so display layers can pad columns; engine
// code must never use it for comparisons — check [PathRecord.Phantom]
// instead.
func (r PathRecord) DisplayModTime() time.Time {
	if r.Metadata == nil {
		return time.Unix(0, 0).UTC()
	}

	return r.Metadata.ModTime
}

// DisplaySize returns r's size, or 0 if r is phantom. Exists only for
// display padding; see [PathRecord.DisplayModTime].
func (r PathRecord) DisplaySize() int64 {
	if r.Metadata == nil {
		return 0
	}

	return r.Metadata.Size
}

// versionKey is the deduplication key for versions: two snapshots that
// captured a file with identical mtime and size collapse to one
// version.
type versionKey struct {
	modTime time.Time
	size    int64
}

func keyFor(m *Metadata) versionKey {
	return versionKey{modTime: m.ModTime, size: m.Size}
}
