package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/halimath/snapwalk/snapfs"
)

func writeFileAt(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatal(err)
	}
}

func newTestContext(t *testing.T, idx *snapfs.MountIndex) (*cmdContext, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	return &cmdContext{
		stdout: &stdout,
		stderr: &stderr,
		engine: snapfs.NewEngine(idx, nil),
		idx:    idx,
		log:    newLogger(&stderr, false),
	}, &stdout, &stderr
}

func Test_VersionsCmd_Lists_Live_And_Snapshot_Records(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	home := filepath.Join(root, "home")

	livePath := filepath.Join(home, "alice", "x.txt")
	writeFileAt(t, livePath, "new", time.Unix(200, 0))
	writeFileAt(t, filepath.Join(home, ".zfs", "snapshot", "s1", "alice", "x.txt"), "old", time.Unix(100, 0))

	idx := snapfs.NewMountIndex([]snapfs.MountEntry{
		{MountPoint: home, DatasetName: "rpool/home", FsKind: snapfs.FsKindZfs},
	}, nil, nil)

	c, stdout, _ := newTestContext(t, idx)

	cmd := VersionsCmd()
	if err := cmd.Exec(context.Background(), c, []string{livePath}); err != nil {
		t.Fatal(err)
	}

	out := stdout.String()
	if !strings.Contains(out, livePath) {
		t.Errorf("stdout = %q, want live path listed", out)
	}

	snapPath := filepath.Join(home, ".zfs", "snapshot", "s1", "alice", "x.txt")
	if !strings.Contains(out, snapPath) {
		t.Errorf("stdout = %q, want snapshot path %s listed", out, snapPath)
	}
}

func Test_VersionsCmd_Requires_A_Path(t *testing.T) {
	t.Parallel()

	idx := snapfs.NewMountIndex(nil, nil, nil)
	c, _, _ := newTestContext(t, idx)

	if err := VersionsCmd().Exec(context.Background(), c, nil); err == nil {
		t.Fatal("expected error for missing path argument")
	}
}

func Test_DeletedCmd_Lists_Missing_Filenames(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	home := filepath.Join(root, "home")
	liveDir := filepath.Join(home, "alice")

	writeFileAt(t, filepath.Join(liveDir, "keep.txt"), "live", time.Unix(1, 0))
	writeFileAt(t, filepath.Join(home, ".zfs", "snapshot", "s1", "alice", "gone.txt"), "old", time.Unix(1, 0))

	idx := snapfs.NewMountIndex([]snapfs.MountEntry{
		{MountPoint: home, DatasetName: "rpool/home", FsKind: snapfs.FsKindZfs},
	}, nil, nil)

	c, stdout, _ := newTestContext(t, idx)

	if err := DeletedCmd().Exec(context.Background(), c, []string{liveDir}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), "gone.txt") {
		t.Errorf("stdout = %q, want gone.txt listed", stdout.String())
	}
}

func Test_MountsCmd_Lists_Candidate_Mounts(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	home := filepath.Join(root, "home")
	livePath := filepath.Join(home, "alice", "x.txt")
	writeFileAt(t, livePath, "data", time.Unix(1, 0))

	idx := snapfs.NewMountIndex([]snapfs.MountEntry{
		{MountPoint: home, DatasetName: "rpool/home", FsKind: snapfs.FsKindZfs},
	}, nil, nil)

	c, stdout, _ := newTestContext(t, idx)

	if err := MountsCmd().Exec(context.Background(), c, []string{livePath}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), "  "+home+"\n") {
		t.Errorf("stdout = %q, want mount %s listed", stdout.String(), home)
	}
}

func Test_SnapCmd_Invokes_Tool_Once_Per_Pool(t *testing.T) {
	// Not parallel: installFakeSnapshotTool modifies PATH via t.Setenv.
	root := t.TempDir()
	home := filepath.Join(root, "home")
	livePath := filepath.Join(home, "alice", "x.txt")
	writeFileAt(t, livePath, "data", time.Unix(1, 0))

	idx := snapfs.NewMountIndex([]snapfs.MountEntry{
		{MountPoint: home, DatasetName: "rpool/home", FsKind: snapfs.FsKindZfs},
	}, nil, nil)

	c, stdout, _ := newTestContext(t, idx)

	recordPath := filepath.Join(t.TempDir(), "record.txt")
	installFakeSnapshotTool(t, recordPath)

	if err := SnapCmd().Exec(context.Background(), c, []string{livePath}); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(stdout.String(), "snapshot created") {
		t.Errorf("stdout = %q, want confirmation message", stdout.String())
	}

	record, err := os.ReadFile(recordPath)
	if err != nil {
		t.Fatal(err)
	}

	if lines := strings.Split(strings.TrimSpace(string(record)), "\n"); len(lines) != 1 || !strings.HasPrefix(lines[0], "rpool/home@snap_") {
		t.Errorf("recorded invocations = %q, want exactly one call for pool rpool", record)
	}
}
