package snapfs

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// fakeSnapshotTool writes a tiny shell script onto PATH that records
// its argv into a file so tests can assert on invocation grouping.
func fakeSnapshotTool(t *testing.T, recordPath string) string {
	t.Helper()

	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "snapshot")

	body := "#!/bin/sh\necho \"$@\" >> " + recordPath + "\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))

	return script
}

func Test_TakeSnapshot_S6_Grouped_By_Pool(t *testing.T) {
	// Not parallel: fakeSnapshotTool modifies PATH via t.Setenv.
	recordPath := filepath.Join(t.TempDir(), "record.txt")
	fakeSnapshotTool(t, recordPath)

	idx := NewMountIndex([]MountEntry{
		{MountPoint: "/home", DatasetName: "rpool/home", FsKind: FsKindZfs},
		{MountPoint: "/data", DatasetName: "tank/data", FsKind: FsKindZfs},
	}, nil, nil)

	mounts := map[string][]string{
		"/home/alice/x.txt": {"/home"},
		"/data/project/y":   {"/data"},
	}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if err := TakeSnapshot(context.Background(), idx, mounts, "", now); err != nil {
		t.Fatal(err)
	}

	content, err := os.ReadFile(recordPath)
	if err != nil {
		t.Fatal(err)
	}

	out := string(content)
	if !containsAll(out, "rpool/home@snap_", "tank/data@snap_") {
		t.Fatalf("recorded invocations = %q, want both pool snapshot names", out)
	}
}

func Test_SnapshotNamesByPool_Never_Mixes_Pools_And_Sorts_Within_Pool(t *testing.T) {
	t.Parallel()

	idx := NewMountIndex([]MountEntry{
		{MountPoint: "/a", DatasetName: "rpool/b", FsKind: FsKindZfs},
		{MountPoint: "/b", DatasetName: "rpool/a", FsKind: FsKindZfs},
		{MountPoint: "/c", DatasetName: "tank/x", FsKind: FsKindZfs},
	}, nil, nil)

	mounts := map[string][]string{
		"p1": {"/a", "/b"},
		"p2": {"/c"},
	}

	byPool, err := snapshotNamesByPool(idx, mounts, "2026-01-01T00-00-00.000000000")
	if err != nil {
		t.Fatal(err)
	}

	if len(byPool) != 2 {
		t.Fatalf("byPool = %+v, want 2 pools", byPool)
	}

	rpoolNames := byPool["rpool"]
	if len(rpoolNames) != 2 {
		t.Fatalf("rpool names = %v, want 2", rpoolNames)
	}

	if rpoolNames[0] > rpoolNames[1] {
		t.Errorf("rpool names not sorted: %v", rpoolNames)
	}

	for _, name := range rpoolNames {
		if !strings.HasPrefix(name, "rpool/") {
			t.Errorf("name %q leaked into wrong pool", name)
		}
	}
}

func Test_SnapshotNamesByPool_Unsupported_Filesystem(t *testing.T) {
	t.Parallel()

	idx := NewMountIndex([]MountEntry{
		{MountPoint: "/snaps", DatasetName: "pool/snaps", FsKind: FsKindBtrfs},
	}, nil, nil)

	_, err := snapshotNamesByPool(idx, map[string][]string{"p": {"/snaps"}}, "ts")
	if !IsKind(err, ErrKindUnsupportedFilesystem) {
		t.Fatalf("err = %v, want ErrKindUnsupportedFilesystem", err)
	}
}

func Test_SnapshotNamesByPool_Unsupported_Alias(t *testing.T) {
	t.Parallel()

	idx := NewMountIndex([]MountEntry{
		{MountPoint: "/alias", DatasetName: "", FsKind: FsKindZfs},
	}, nil, nil)

	_, err := snapshotNamesByPool(idx, map[string][]string{"p": {"/alias"}}, "ts")
	if !IsKind(err, ErrKindUnsupportedAlias) {
		t.Fatalf("err = %v, want ErrKindUnsupportedAlias", err)
	}
}

func Test_InvokeSnapshotTool_Classifies_Privilege_Error(t *testing.T) {
	t.Parallel()

	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		t.Skip("requires a POSIX shell")
	}

	dir := t.TempDir()
	script := filepath.Join(dir, "snapshot")
	body := "#!/bin/sh\necho 'cannot create snapshots : permission denied' 1>&2\nexit 1\n"

	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	err := invokeSnapshotTool(context.Background(), script, []string{"rpool/home@snap_x"})
	if !IsKind(err, ErrKindNeedsPrivilege) {
		t.Fatalf("err = %v, want ErrKindNeedsPrivilege", err)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}

	return true
}
