package snapfs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// writeFileAt writes content to path (creating parent dirs) and sets
// its mtime.
func writeFileAt(t *testing.T, path string, content string, mtime time.Time) {
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

func Test_EnumerateVersions_S3_Distinct_Versions_Sorted(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	zfsRoot := filepath.Join(root, ".zfs", "snapshot")

	writeFileAt(t, filepath.Join(zfsRoot, "snap-A", "home", "alice", "x.txt"), "0123456789", time.Unix(100, 0))
	writeFileAt(t, filepath.Join(zfsRoot, "snap-B", "home", "alice", "x.txt"), "AAAAAAAAAA", time.Unix(200, 0))

	bundle := SearchBundle{
		SnapshotRoot: zfsRoot,
		RelativePath: "home/alice/x.txt",
		FsKind:       FsKindZfs,
	}

	versions, err := EnumerateVersions(context.Background(), bundle)
	if err != nil {
		t.Fatal(err)
	}

	if len(versions) != 2 {
		t.Fatalf("len(versions) = %d, want 2", len(versions))
	}

	if !versions[0].Metadata.ModTime.Before(versions[1].Metadata.ModTime) {
		t.Errorf("versions not sorted ascending by mtime: %v", versions)
	}

	if versions[0].Metadata.ModTime.Unix() != 100 || versions[1].Metadata.ModTime.Unix() != 200 {
		t.Errorf("unexpected mtimes: %v", versions)
	}
}

func Test_EnumerateVersions_S4_Identical_Mtime_Size_Collapse(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	zfsRoot := filepath.Join(root, ".zfs", "snapshot")

	writeFileAt(t, filepath.Join(zfsRoot, "snap-A", "x.txt"), "0123456789", time.Unix(100, 0))
	writeFileAt(t, filepath.Join(zfsRoot, "snap-B", "x.txt"), "9876543210", time.Unix(100, 0))

	bundle := SearchBundle{SnapshotRoot: zfsRoot, RelativePath: "x.txt", FsKind: FsKindZfs}

	versions, err := EnumerateVersions(context.Background(), bundle)
	if err != nil {
		t.Fatal(err)
	}

	if len(versions) != 1 {
		t.Fatalf("len(versions) = %d, want 1 (same mtime+size collapse)", len(versions))
	}
}

func Test_EnumerateVersions_Missing_Version_Skipped_Silently(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	zfsRoot := filepath.Join(root, ".zfs", "snapshot")

	// snap-A has the file, snap-B does not.
	writeFileAt(t, filepath.Join(zfsRoot, "snap-A", "x.txt"), "data", time.Unix(50, 0))

	if err := os.MkdirAll(filepath.Join(zfsRoot, "snap-B"), 0o755); err != nil {
		t.Fatal(err)
	}

	bundle := SearchBundle{SnapshotRoot: zfsRoot, RelativePath: "x.txt", FsKind: FsKindZfs}

	versions, err := EnumerateVersions(context.Background(), bundle)
	if err != nil {
		t.Fatal(err)
	}

	if len(versions) != 1 {
		t.Fatalf("len(versions) = %d, want 1", len(versions))
	}
}

func Test_EnumerateVersions_Btrfs_Snapper_Layout(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	snapsRoot := filepath.Join(root, ".snapshots")

	writeFileAt(t, filepath.Join(snapsRoot, "1", "snapshot", "x.txt"), "data", time.Unix(10, 0))

	bundle := SearchBundle{SnapshotRoot: snapsRoot, RelativePath: "x.txt", FsKind: FsKindBtrfs}

	versions, err := EnumerateVersions(context.Background(), bundle)
	if err != nil {
		t.Fatal(err)
	}

	if len(versions) != 1 {
		t.Fatalf("len(versions) = %d, want 1", len(versions))
	}
}

func Test_EnumerateVersions_Uses_Explicit_Snap_Mounts_When_Present(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	explicit := filepath.Join(root, "elsewhere", "snapA")
	writeFileAt(t, filepath.Join(explicit, "x.txt"), "data", time.Unix(1, 0))

	bundle := SearchBundle{
		RelativePath:       "x.txt",
		FsKind:             FsKindZfs,
		ExplicitSnapMounts: []string{explicit},
		HasExplicitMounts:  true,
		// Deliberately bogus SnapshotRoot: must never be listed when
		// explicit mounts are present.
		SnapshotRoot: filepath.Join(root, "does-not-exist"),
	}

	versions, err := EnumerateVersions(context.Background(), bundle)
	if err != nil {
		t.Fatal(err)
	}

	if len(versions) != 1 {
		t.Fatalf("len(versions) = %d, want 1", len(versions))
	}
}
