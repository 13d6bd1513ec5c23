package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/halimath/snapwalk/internal/hostmounts"
	"github.com/halimath/snapwalk/snapfs"
)

// MountsCmd shows which snapshot-bearing mounts cover each given path.
func MountsCmd() *Command {
	return &Command{
		Short: "Show which snapshot-bearing mounts cover each path",
		Long:  "Resolve each path's proximate dataset mount (and, with --verify, cross-check it against the live ZFS host).",
		Exec: func(_ context.Context, c *cmdContext, args []string) error {
			flags := flag.NewFlagSet("mounts", flag.ContinueOnError)
			flags.SetOutput(io.Discard)

			if err := flags.Parse(args); err != nil {
				return err
			}

			paths := flags.Args()
			if len(paths) == 0 {
				return fmt.Errorf("mounts: requires at least one path")
			}

			mounts, diagnostics := c.engine.MountsForFiles(paths)

			renderMounts(c.stdout, mounts, paths)
			renderDiagnostics(c.stderr, diagnostics)

			if c.verify {
				verifyMounts(c.stderr, c.idx, mounts)
			}

			return nil
		},
	}
}

// verifyMounts cross-checks each candidate mount's dataset name
// against the live host via go-zfs. Never required by the core
// engine; purely a diagnostic aid behind --verify. Mounts that came
// from an alias (no entry in idx) are skipped — they have no ZFS
// dataset name to verify.
func verifyMounts(out io.Writer, idx *snapfs.MountIndex, mounts map[string][]string) {
	seen := make(map[string]bool)

	for _, candidates := range mounts {
		for _, mountPoint := range candidates {
			entry, ok := idx.Lookup(mountPoint)
			if !ok || entry.FsKind != snapfs.FsKindZfs || seen[entry.DatasetName] {
				continue
			}

			seen[entry.DatasetName] = true

			if err := hostmounts.VerifyDataset(entry.DatasetName); err != nil {
				fmt.Fprintln(out, err)
				continue
			}

			verifySnapshots(out, entry)
		}
	}
}

// verifySnapshots cross-checks the snapshot names go-zfs reports for
// entry's dataset against the instance directories snapwalk itself
// would discover under <mount>/.zfs/snapshot, flagging any snapshot
// zfs(8) knows about that has no corresponding on-disk directory.
func verifySnapshots(out io.Writer, entry snapfs.MountEntry) {
	names, err := hostmounts.ListSnapshots(entry.DatasetName)
	if err != nil {
		fmt.Fprintln(out, err)
		return
	}

	snapDir := filepath.Join(entry.MountPoint, ".zfs", "snapshot")

	onDisk, err := os.ReadDir(snapDir)
	if err != nil {
		fmt.Fprintf(out, "hostmounts: listing %s: %v\n", snapDir, err)
		return
	}

	present := make(map[string]bool, len(onDisk))
	for _, d := range onDisk {
		present[d.Name()] = true
	}

	for _, name := range names {
		if !present[name] {
			fmt.Fprintf(out, "hostmounts: %s@%s reported by zfs(8) but missing from %s\n", entry.DatasetName, name, snapDir)
		}
	}
}
