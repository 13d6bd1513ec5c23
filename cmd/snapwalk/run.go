package main

import (
	"context"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/sirupsen/logrus"

	"github.com/halimath/snapwalk/internal/hostmounts"
	"github.com/halimath/snapwalk/snapfs"
)

const snapwalkExecutableName = "snapwalk"

// Run is the entry point with all ambient state (stdin/stdout/stderr,
// args, env) passed explicitly so the dispatcher stays testable.
// sigCh may be nil when signal handling is not needed (e.g. in tests).
// Returns the process exit code.
func Run(stdin io.Reader, stdout, stderr io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	flags := flag.NewFlagSet(snapwalkExecutableName, flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.Usage = func() {}
	flags.SetOutput(io.Discard)

	flagHelp := flags.BoolP("help", "h", false, "Show help")
	flagVersion := flags.BoolP("version", "v", false, "Show version and exit")
	flagDebug := flags.Bool("debug", false, "Log at debug level")
	flagConfig := flags.StringP("config", "c", "", "Use specified config `file`")

	flags.Bool("alt-replicas", false, "Precompute alternate-replica datasets (searched only when versions/deleted also get --alt-replicas)")
	flags.String("snapshot-tool", "", "Override the PATH-discovered snapshot utility name")
	flags.StringArray("alias", nil, "Add a LOCAL:REMOTE alias pair (repeatable)")
	flags.String("local-dir", "", "Global alias local directory override")
	flags.String("snap-dir", "", "Global alias remote directory override")
	flags.Bool("verify", false, "Cross-check candidate datasets against the live host via go-zfs")

	if err := flags.Parse(args); err != nil {
		fprintError(stderr, err)
		fprintln(stderr)
		printUsage(stderr)

		return 1
	}

	if *flagVersion {
		fprintf(stdout, "%s\n", formatVersion())
		return 0
	}

	rest := flags.Args()

	if *flagHelp || len(rest) == 0 {
		printUsage(stdout)
		return 0
	}

	log := newLogger(stderr, *flagDebug)

	cfg, err := LoadConfig(LoadConfigInput{
		ConfigPathOverride: *flagConfig,
		EnvVars:            env,
		CLIFlags:           flags,
	})
	if err != nil {
		fprintError(stderr, err)
		return 1
	}

	idx, err := buildMountIndex(cfg)
	if err != nil {
		fprintError(stderr, err)
		return 1
	}

	aliases, warnings := snapfs.ParseAliases(cfg.Aliases, cfg.GlobalLocalDir, cfg.GlobalSnapDir)
	for _, w := range warnings {
		log.Warn(w)
	}

	engine := snapfs.NewEngine(idx, aliases)

	ctx := context.Background()

	if sigCh != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)

		go func() {
			select {
			case <-sigCh:
				fprintln(stderr, "Interrupted.")
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	cmdName, cmdArgs := rest[0], rest[1:]

	// The configured snapshot tool becomes snap's default --tool; a
	// --tool given to the subcommand itself is parsed later and wins.
	if cmdName == "snap" && cfg.SnapshotTool != "" {
		cmdArgs = append([]string{"--tool", cfg.SnapshotTool}, cmdArgs...)
	}

	cmd, ok := commands[cmdName]
	if !ok {
		fprintError(stderr, fmt.Errorf("unknown command %q", cmdName))
		fprintln(stderr)
		printUsage(stderr)

		return 1
	}

	if err := cmd.Exec(ctx, &cmdContext{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		engine: engine,
		idx:    idx,
		log:    log,
		verify: mustGetBool(flags, "verify"),
	}, cmdArgs); err != nil {
		fprintError(stderr, err)
		return 1
	}

	return 0
}

func mustGetBool(flags *flag.FlagSet, name string) bool {
	v, _ := flags.GetBool(name)
	return v
}

func buildMountIndex(cfg Config) (*snapfs.MountIndex, error) {
	entries, err := hostmounts.Entries()
	if err != nil {
		return nil, fmt.Errorf("reading host mount table: %w", err)
	}

	idx := snapfs.NewMountIndex(entries, nil, nil)
	if cfg.AlternateReplicas {
		idx = idx.WithAlternateReplicas()
	}

	return idx, nil
}

// cmdContext bundles the dependencies every subcommand needs.
type cmdContext struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	engine *snapfs.Engine
	idx    *snapfs.MountIndex
	log    *logrus.Logger
	verify bool
}

const usageHelp = `snapwalk - discover historical file versions in ZFS and Btrfs/snapper snapshots (lookup and snapshot only; no preview or restore)

Usage: snapwalk [flags] <command> [args]

Commands:
  versions <path>...   List snapshot versions of one or more live paths
  deleted <dir>        List files present in snapshots but absent from a live directory
  mounts <path>...     Show which snapshot-bearing mounts cover each path
  snap <path>...       Take a fresh snapshot covering the given paths

Flags:
  -h, --help               Show help
  -v, --version             Show version and exit
      --debug               Log at debug level
  -c, --config <file>       Use specified config file
      --alt-replicas        Precompute alternate-replica datasets; versions/deleted
                            search them only with their own --alt-replicas
      --snapshot-tool <name> Override the PATH-discovered snapshot utility
      --alias <LOCAL:REMOTE> Add an alias pair (repeatable)
      --local-dir <dir>      Global alias local directory override
      --snap-dir <dir>       Global alias remote directory override
      --verify               Cross-check candidates against the live host via go-zfs

Examples:
  snapwalk versions ~/notes/todo.md
  snapwalk deleted ~/projects/site
  snapwalk mounts ~/notes/todo.md
  snapwalk snap ~/notes/todo.md`

func printUsage(out io.Writer) {
	fprintln(out, usageHelp)
}

func fprintln(out io.Writer, a ...any) {
	_, _ = fmt.Fprintln(out, a...)
}

func fprintf(out io.Writer, format string, a ...any) {
	_, _ = fmt.Fprintf(out, format, a...)
}

func fprintError(out io.Writer, err error) {
	if isTerminal() {
		fprintln(out, "\033[31msnapwalk: error:\033[0m", err)
	} else {
		fprintln(out, "snapwalk: error:", err)
	}
}

func isTerminal() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}

	return (stat.Mode() & os.ModeCharDevice) != 0
}

func formatVersion() string {
	if version == "source" {
		return fmt.Sprintf("snapwalk (built from source, %s)", date)
	}

	return fmt.Sprintf("snapwalk %s (%s, %s)", version, commit, date)
}
