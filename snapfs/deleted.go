package snapfs

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DeletedEntry is a filename that exists in at least one snapshot of a
// directory but not in its live listing, together with the most
// recent snapshot instance that held it.
type DeletedEntry struct {
	Name           string
	Representative PathRecord
}

// EnumerateDeleted computes, across the given bundles (one per
// candidate dataset for the same live directory), the set of
// filenames present in some snapshot but absent from the live
// directory. For each missing filename the representative is the
// instance with the maximum mtime across every (dataset x snapshot)
// observation — the most recently deleted incarnation.
//
// A snapshot directory listing that fails (permission, missing) is
// dropped silently; total absence of any snapshot listing returns an
// empty list, not an error.
func EnumerateDeleted(ctx context.Context, liveDir string, bundles []SearchBundle) ([]DeletedEntry, error) {
	live, err := liveNames(liveDir)
	if err != nil {
		return nil, err
	}

	var (
		mu   sync.Mutex
		best = make(map[string]PathRecord)
	)

	g, gctx := errgroup.WithContext(ctx)

	for _, bundle := range bundles {
		bundle := bundle

		mounts, err := snapshotMounts(bundle)
		if err != nil {
			continue
		}

		for _, mount := range mounts {
			mount := mount

			g.Go(func() error {
				if gctx.Err() != nil {
					return gctx.Err()
				}

				dir := filepath.Join(mount, bundle.RelativePath)

				entries, err := os.ReadDir(dir)
				if err != nil {
					// ReadDirFailed: dropped silently.
					return nil
				}

				mu.Lock()
				defer mu.Unlock()

				for _, e := range entries {
					if _, isLive := live[e.Name()]; isLive {
						continue
					}

					info, err := e.Info()
					if err != nil {
						continue
					}

					rec := PathRecord{
						Path: filepath.Join(dir, e.Name()),
						Metadata: &Metadata{
							ModTime: info.ModTime(),
							Size:    info.Size(),
							Kind:    fileKindOf(info),
						},
					}

					current, exists := best[e.Name()]
					if !exists || rec.Metadata.ModTime.After(current.Metadata.ModTime) {
						best[e.Name()] = rec
					}
				}

				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(best))
	for name := range best {
		names = append(names, name)
	}

	sort.Strings(names)

	out := make([]DeletedEntry, 0, len(names))
	for _, name := range names {
		out = append(out, DeletedEntry{Name: name, Representative: best[name]})
	}

	return out, nil
}

// liveNames returns the set of filenames currently present in a live
// directory listing.
func liveNames(dir string) (map[string]struct{}, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, newError(ErrKindReadDirFailed, dir, err)
	}

	names := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		names[e.Name()] = struct{}{}
	}

	return names, nil
}
