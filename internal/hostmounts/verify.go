package hostmounts

import (
	"fmt"
	"strings"

	"github.com/mistifyio/go-zfs/v3"
)

// VerifyDataset confirms that name is a real, currently-imported ZFS
// dataset on the host, by shelling out to zfs(8) via go-zfs. It is
// never called by snapfs itself, which stays host-state-agnostic and
// testable with plain directories; this is strictly an optional
// cross-check for cmd/snapwalk's --verify flag.
func VerifyDataset(name string) error {
	ds, err := zfs.GetDataset(name)
	if err != nil {
		return fmt.Errorf("hostmounts: verifying dataset %s: %w", name, err)
	}

	if ds.Type != zfs.DatasetFilesystem && ds.Type != zfs.DatasetVolume {
		return fmt.Errorf("hostmounts: %s is a %s, not a filesystem or volume", name, ds.Type)
	}

	return nil
}

// ListSnapshots lists the short snapshot names (the part after "@")
// go-zfs reports for a dataset, for cross-checking against the
// instance directories snapwalk itself discovers under
// <mount>/.zfs/snapshot.
func ListSnapshots(dataset string) ([]string, error) {
	ds, err := zfs.GetDataset(dataset)
	if err != nil {
		return nil, fmt.Errorf("hostmounts: loading dataset %s: %w", dataset, err)
	}

	snaps, err := ds.Snapshots()
	if err != nil {
		return nil, fmt.Errorf("hostmounts: listing snapshots of %s: %w", dataset, err)
	}

	names := make([]string, 0, len(snaps))
	for _, s := range snaps {
		// go-zfs reports the full "dataset@name" form; only the part
		// after "@" matches a .zfs/snapshot instance directory name.
		name := s.Name
		if idx := strings.LastIndex(name, "@"); idx >= 0 {
			name = name[idx+1:]
		}

		names = append(names, name)
	}

	return names, nil
}
