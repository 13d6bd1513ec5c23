package snapfs

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an [Error] returned from the engine, matching
// the error taxonomy of the lookup engine: enumeration errors
// (ReadDirFailed, StatFailed) are data-plane noise that callers are
// expected to drop; planning and write-path errors are surfaced
// because they mean the caller's intent cannot be honoured.
type ErrorKind int

const (
	// ErrKindUnknown is the zero value; never produced by this package.
	ErrKindUnknown ErrorKind = iota
	// ErrKindNoDataset means no mount in the index is an ancestor of
	// the queried path.
	ErrKindNoDataset
	// ErrKindNoAltReplica means the proximate mount has no alternate
	// replicas.
	ErrKindNoAltReplica
	// ErrKindNoVersionsFound means every candidate dataset failed to
	// produce a SearchBundle or every bundle produced zero versions.
	ErrKindNoVersionsFound
	// ErrKindReadDirFailed means a directory listing failed. Failed
	// snapshot listings are skipped silently; [EnumerateDeleted]
	// returns this kind when the live directory itself cannot be listed.
	ErrKindReadDirFailed
	// ErrKindStatFailed means a stat call failed; silently skipped.
	ErrKindStatFailed
	// ErrKindNeedsPrivilege means the snapshot tool reported a
	// permission-denied condition.
	ErrKindNeedsPrivilege
	// ErrKindUnsupportedFilesystem means a mount's dataset is not ZFS.
	ErrKindUnsupportedFilesystem
	// ErrKindUnsupportedAlias means a mount originates from the alias
	// map and has no dataset name to snapshot.
	ErrKindUnsupportedAlias
	// ErrKindSnapshotToolFailure wraps a non-empty, unrecognized
	// stderr from the snapshot utility.
	ErrKindSnapshotToolFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrKindNoDataset:
		return "no dataset"
	case ErrKindNoAltReplica:
		return "no alternate replica"
	case ErrKindNoVersionsFound:
		return "no versions found"
	case ErrKindReadDirFailed:
		return "read dir failed"
	case ErrKindStatFailed:
		return "stat failed"
	case ErrKindNeedsPrivilege:
		return "needs privilege"
	case ErrKindUnsupportedFilesystem:
		return "unsupported filesystem"
	case ErrKindUnsupportedAlias:
		return "unsupported alias"
	case ErrKindSnapshotToolFailure:
		return "snapshot tool failure"
	default:
		return "unknown"
	}
}

// Error is the single concrete error type returned across the engine,
// replacing any trait-object-style error erasure with an exhaustively
// switchable [ErrorKind].
type Error struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
		}

		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}

	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}

	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, path string, err error) *Error {
	return &Error{Kind: kind, Path: path, Err: err}
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}

	return false
}
