package snapfs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// EnumerateVersions executes a SearchBundle: lists snapshot
// instances, stats the relative path inside each, and returns a
// time-sorted list of PathRecords, one per distinct (mtime, size)
// observed. Snapshot mounts are probed in parallel; ctx is the single
// cooperative abort signal — in-flight probes exit at their next
// syscall boundary once ctx is cancelled.
func EnumerateVersions(ctx context.Context, bundle SearchBundle) ([]PathRecord, error) {
	mounts, err := snapshotMounts(bundle)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		byKey   = make(map[versionKey]PathRecord)
		keyOrdr []versionKey
	)

	g, gctx := errgroup.WithContext(ctx)

	for _, mount := range mounts {
		mount := mount

		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}

			candidate := filepath.Join(mount, bundle.RelativePath)

			info, err := os.Lstat(candidate)
			if err != nil {
				// StatFailed: no such version in this snapshot, drop
				// silently.
				return nil
			}

			rec := PathRecord{
				Path: candidate,
				Metadata: &Metadata{
					ModTime: info.ModTime(),
					Size:    info.Size(),
					Kind:    fileKindOf(info),
				},
			}

			key := keyFor(rec.Metadata)

			mu.Lock()
			defer mu.Unlock()

			if _, exists := byKey[key]; !exists {
				byKey[key] = rec
				keyOrdr = append(keyOrdr, key)
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]PathRecord, 0, len(keyOrdr))
	for _, k := range keyOrdr {
		out = append(out, byKey[k])
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Metadata.ModTime.Before(out[j].Metadata.ModTime)
	})

	return out, nil
}

// snapshotMounts returns the candidate snapshot-mount list for a
// bundle: the explicit list when known, or a non-recursive directory
// listing of the snapshot root otherwise. Btrfs children are suffixed
// with "snapshot/" to reach the snapper-mirrored tree.
func snapshotMounts(bundle SearchBundle) ([]string, error) {
	if bundle.HasExplicitMounts {
		return bundle.ExplicitSnapMounts, nil
	}

	entries, err := os.ReadDir(bundle.SnapshotRoot)
	if err != nil {
		// ReadDirFailed: skipped, never fatal — return an empty
		// list rather than an error so a
		// missing snapshot root on one dataset does not poison a
		// multi-dataset search.
		return nil, nil
	}

	mounts := make([]string, 0, len(entries))

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}

		child := filepath.Join(bundle.SnapshotRoot, e.Name())

		if bundle.FsKind == FsKindBtrfs {
			child = filepath.Join(child, "snapshot")
		}

		mounts = append(mounts, child)
	}

	return mounts, nil
}

func fileKindOf(info os.FileInfo) FileKind {
	mode := info.Mode()

	switch {
	case mode&os.ModeSymlink != 0:
		return FileKindSymlink
	case mode.IsDir():
		return FileKindDir
	case mode.IsRegular():
		return FileKindFile
	default:
		return FileKindOther
	}
}
