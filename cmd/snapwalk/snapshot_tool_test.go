package main

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// installFakeSnapshotTool writes a tiny shell script onto PATH named
// "snapshot" (the default tool name) that records its argv into
// recordPath, so SnapCmd can be exercised without a real ZFS host.
func installFakeSnapshotTool(t *testing.T, recordPath string) {
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
}
