// Package hostmounts reads the live mount table and turns it into the
// plain {mount_point, dataset_name, fs_kind} tuples snapfs.NewMountIndex
// consumes. snapfs itself never touches /proc or exec's a CLI tool to
// discover mounts — that I/O lives here, at the edge.
package hostmounts

import (
	"fmt"

	"github.com/moby/sys/mountinfo"

	"github.com/halimath/snapwalk/snapfs"
)

// zfsFSTypes and btrfsFSTypes list the mountinfo FSType values this
// package recognizes as ZFS and Btrfs filesystems respectively.
var (
	zfsFSTypes   = map[string]bool{"zfs": true}
	btrfsFSTypes = map[string]bool{"btrfs": true}
)

// Entries reads the current process's mount table via mountinfo and
// returns one snapfs.MountEntry per ZFS or Btrfs mount point. Mounts
// of any other filesystem type are skipped: snapfs.MountIndex only
// ever needs to reason about snapshot-capable filesystems.
func Entries() ([]snapfs.MountEntry, error) {
	infos, err := mountinfo.GetMounts(mountinfo.FSTypeFilter("zfs", "btrfs"))
	if err != nil {
		return nil, fmt.Errorf("hostmounts: reading mount table: %w", err)
	}

	entries := make([]snapfs.MountEntry, 0, len(infos))

	for _, info := range infos {
		kind, ok := classify(info.FSType)
		if !ok {
			continue
		}

		entries = append(entries, snapfs.MountEntry{
			MountPoint:  info.Mountpoint,
			DatasetName: info.Source,
			FsKind:      kind,
		})
	}

	return entries, nil
}

func classify(fsType string) (snapfs.FsKind, bool) {
	switch {
	case zfsFSTypes[fsType]:
		return snapfs.FsKindZfs, true
	case btrfsFSTypes[fsType]:
		return snapfs.FsKindBtrfs, true
	default:
		return 0, false
	}
}
