package main

import "context"

// Command is one snapwalk subcommand. Exec receives the shared
// cmdContext (engine, logger, streams) and the subcommand's own
// argument list (flags already stripped by the caller's FlagSet).
type Command struct {
	Short string
	Long  string
	Exec  func(ctx context.Context, c *cmdContext, args []string) error
}

var commands = map[string]*Command{
	"versions": VersionsCmd(),
	"deleted":  DeletedCmd(),
	"mounts":   MountsCmd(),
	"snap":     SnapCmd(),
}
