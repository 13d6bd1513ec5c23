package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/halimath/snapwalk/snapfs"
)

// DeletedCmd lists files present in some snapshot of a directory but
// missing from its live listing.
func DeletedCmd() *Command {
	return &Command{
		Short: "List files present in snapshots but absent from a live directory",
		Long:  "For each filename found in any snapshot of the given directory but not currently present, report the most recently modified snapshot copy as the representative.",
		Exec: func(ctx context.Context, c *cmdContext, args []string) error {
			flags := flag.NewFlagSet("deleted", flag.ContinueOnError)
			flags.SetOutput(io.Discard)
			altReplicas := flags.Bool("alt-replicas", false, "Also search alternate-replica datasets (found only when the global --alt-replicas flag or config is set)")

			if err := flags.Parse(args); err != nil {
				return err
			}

			dirs := flags.Args()
			if len(dirs) != 1 {
				return fmt.Errorf("deleted: requires exactly one directory")
			}

			policies := []snapfs.Policy{snapfs.MostProximate}
			if *altReplicas {
				policies = append(policies, snapfs.AltReplicated)
			}

			entries, err := c.engine.LookupDeleted(ctx, dirs[0], policies)
			if err != nil {
				return err
			}

			renderDeleted(c.stdout, entries)

			return nil
		},
	}
}
