package main

import (
	"context"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// SnapCmd takes a fresh snapshot covering the given paths.
func SnapCmd() *Command {
	return &Command{
		Short: "Take a fresh snapshot covering the given paths",
		Long:  "Resolve each path to its most-proximate dataset mount and invoke the host snapshot utility once per pool.",
		Exec: func(ctx context.Context, c *cmdContext, args []string) error {
			flags := flag.NewFlagSet("snap", flag.ContinueOnError)
			flags.SetOutput(io.Discard)
			tool := flags.String("tool", "", "Override the PATH-discovered snapshot utility name")

			if err := flags.Parse(args); err != nil {
				return err
			}

			paths := flags.Args()
			if len(paths) == 0 {
				return fmt.Errorf("snap: requires at least one path")
			}

			if err := c.engine.TakeSnapshot(ctx, paths, *tool); err != nil {
				return err
			}

			fmt.Fprintln(c.stdout, "snapshot created")

			return nil
		},
	}
}
