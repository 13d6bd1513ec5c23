package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/halimath/snapwalk/snapfs"
)

// renderVersions prints one line per PathRecord: modification time,
// size, and the path it was found at. A colour/interactive picker is
// out of scope here — this is a plain listing, analogous to `ls -l`.
func renderVersions(out io.Writer, records []snapfs.PathRecord) {
	for _, r := range records {
		if r.Phantom() {
			fmt.Fprintf(out, "%-30s %10s  %s (absent)\n", "-", "-", r.Path)
			continue
		}

		fmt.Fprintf(out, "%-30s %10d  %s\n", r.DisplayModTime().Format(timestampDisplayLayout), r.DisplaySize(), r.Path)
	}
}

func renderDeleted(out io.Writer, entries []snapfs.DeletedEntry) {
	for _, e := range entries {
		fmt.Fprintf(out, "%-30s %10d  %s\n",
			e.Representative.DisplayModTime().Format(timestampDisplayLayout),
			e.Representative.DisplaySize(),
			e.Name)
	}
}

const timestampDisplayLayout = "2006-01-02T15:04:05"

func renderMounts(out io.Writer, mounts map[string][]string, order []string) {
	for _, path := range order {
		list := mounts[path]
		fmt.Fprintf(out, "%s:\n", path)

		for _, m := range list {
			fmt.Fprintf(out, "  %s\n", m)
		}
	}
}

func renderDiagnostics(out io.Writer, diagnostics []string) {
	if len(diagnostics) == 0 {
		return
	}

	fmt.Fprintln(out, strings.Repeat("-", 40))

	for _, d := range diagnostics {
		fmt.Fprintln(out, d)
	}
}
