package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/halimath/snapwalk/snapfs"
)

// VersionsCmd lists historical and live versions of one or more paths.
func VersionsCmd() *Command {
	return &Command{
		Short: "List snapshot versions of one or more live paths",
		Long:  "Enumerate every distinct (mtime, size) version of the given paths found across snapshot mounts, plus the live record.",
		Exec: func(ctx context.Context, c *cmdContext, args []string) error {
			flags := flag.NewFlagSet("versions", flag.ContinueOnError)
			flags.SetOutput(io.Discard)
			noSnap := flags.Bool("no-snap", false, "Suppress snapshot versions")
			noLive := flags.Bool("no-live", false, "Suppress the live record")
			altReplicas := flags.Bool("alt-replicas", false, "Also search alternate-replica datasets (found only when the global --alt-replicas flag or config is set)")

			if err := flags.Parse(args); err != nil {
				return err
			}

			paths := flags.Args()
			if len(paths) == 0 {
				return fmt.Errorf("versions: requires at least one path")
			}

			policies := []snapfs.Policy{snapfs.MostProximate}
			if *altReplicas {
				policies = append(policies, snapfs.AltReplicated)
			}

			result, err := c.engine.LookupVersions(ctx, paths, snapfs.LookupOptions{
				Policies: policies,
				NoSnap:   *noSnap,
				NoLive:   *noLive,
			})
			if err != nil {
				return err
			}

			if !*noLive {
				renderVersions(c.stdout, result.Live)
			}

			if !*noSnap {
				renderVersions(c.stdout, result.Versions)
			}

			return nil
		},
	}
}
