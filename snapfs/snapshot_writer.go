package snapfs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"
)

// snapshotTimestampLayout is human-sortable and avoids colons so the
// formatted timestamp is legal inside a dataset name.
const snapshotTimestampLayout = "2006-01-02T15-04-05"

// needsPrivilegeMarker is the stderr substring the reference snapshot
// utility emits on a permission failure.
const needsPrivilegeMarker = "cannot create snapshots : permission denied"

// SnapshotToolName is the default argv[0] of the host snapshot
// utility, discovered via PATH.
const SnapshotToolName = "snapshot"

// TakeSnapshot converts a path-to-mounts mapping into pool-grouped
// snapshot names sharing one wall-clock timestamp, and invokes the
// host snapshot utility once per pool. toolName overrides
// [SnapshotToolName] when non-empty. now is injected so callers (and
// tests) control the shared timestamp.
func TakeSnapshot(ctx context.Context, idx *MountIndex, mountsByPath map[string][]string, toolName string, now time.Time) error {
	if toolName == "" {
		toolName = SnapshotToolName
	}

	toolPath, err := exec.LookPath(toolName)
	if err != nil {
		return fmt.Errorf("snapfs: snapshot tool %q not found in PATH: %w", toolName, err)
	}

	timestamp := now.UTC().Format(snapshotTimestampLayout) + fmt.Sprintf(".%09d", now.UTC().Nanosecond())

	names, err := snapshotNamesByPool(idx, mountsByPath, timestamp)
	if err != nil {
		return err
	}

	pools := make([]string, 0, len(names))
	for pool := range names {
		pools = append(pools, pool)
	}

	sort.Strings(pools)

	for _, pool := range pools {
		if err := invokeSnapshotTool(ctx, toolPath, names[pool]); err != nil {
			return err
		}
	}

	return nil
}

// snapshotNamesByPool resolves every mount in mountsByPath's value set
// to its dataset name, builds the snapshot name, and groups the
// resulting set by pool (the dataset-name prefix before the first
// "/", or the whole name if there is none). Names within a pool are
// deduplicated and sorted.
func snapshotNamesByPool(idx *MountIndex, mountsByPath map[string][]string, timestamp string) (map[string][]string, error) {
	seen := make(map[string]map[string]struct{})

	for _, mounts := range mountsByPath {
		for _, mount := range mounts {
			entry, ok := idx.Lookup(mount)
			if !ok {
				continue
			}

			if entry.DatasetName == "" {
				return nil, newError(ErrKindUnsupportedAlias, mount, nil)
			}

			if entry.FsKind != FsKindZfs {
				return nil, newError(ErrKindUnsupportedFilesystem, mount, nil)
			}

			name := entry.DatasetName + "@snap_" + timestamp + "_httmSnapFileMount"
			pool := poolOf(entry.DatasetName)

			if seen[pool] == nil {
				seen[pool] = make(map[string]struct{})
			}

			seen[pool][name] = struct{}{}
		}
	}

	out := make(map[string][]string, len(seen))

	for pool, set := range seen {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}

		sort.Strings(names)
		out[pool] = names
	}

	return out, nil
}

func poolOf(dataset string) string {
	if i := strings.IndexByte(dataset, '/'); i >= 0 {
		return dataset[:i]
	}

	return dataset
}

func invokeSnapshotTool(ctx context.Context, toolPath string, names []string) error {
	argv := append([]string{}, names...)

	cmd := exec.CommandContext(ctx, toolPath, argv...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	runErr := cmd.Run()

	msg := stderr.String()
	if msg == "" {
		return runErr
	}

	if strings.Contains(msg, needsPrivilegeMarker) {
		return newError(ErrKindNeedsPrivilege, "", fmt.Errorf("%s", strings.TrimSpace(msg)))
	}

	return newError(ErrKindSnapshotToolFailure, "", fmt.Errorf("%s", strings.TrimSpace(msg)))
}
