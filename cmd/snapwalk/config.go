package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/pflag"
	"github.com/tailscale/hujson"
)

// Config holds the application configuration, layered from built-in
// defaults, an optional global config file, and CLI flags, in that
// order — later layers override earlier ones field by field, except
// Aliases, which accumulate across layers.
type Config struct {
	// AlternateReplicas precomputes, for every mount, the sibling
	// datasets whose name ends with that mount's dataset name. The
	// versions and deleted subcommands search them only when given
	// their own --alt-replicas flag.
	AlternateReplicas bool `json:"alternateReplicas,omitempty"`

	// SnapshotTool is the PATH-discovered binary the snap subcommand
	// invokes unless its own --tool flag names another.
	SnapshotTool string `json:"snapshotTool,omitempty"`

	// Aliases is a list of "local:remote" pairs routing lookups under
	// LocalDir to RemoteDir's snapshot tree instead.
	Aliases []string `json:"aliases,omitempty"`

	// GlobalLocalDir and GlobalSnapDir form one additional alias pair,
	// appended after Aliases. Lookups use the first matching alias, so
	// an entry in Aliases covering the same path takes precedence.
	GlobalLocalDir string `json:"globalLocalDir,omitempty"`
	GlobalSnapDir  string `json:"globalSnapDir,omitempty"`

	// LoadedConfigFile records which file, if any, supplied layer 2 —
	// for debug output only.
	LoadedConfigFile string `json:"-"`
}

// DefaultConfig returns the built-in baseline, layer 1 of the
// precedence chain.
func DefaultConfig() Config {
	return Config{
		AlternateReplicas: false,
		SnapshotTool:      "snapshot",
	}
}

// LoadConfigInput holds the inputs to LoadConfig.
type LoadConfigInput struct {
	ConfigPathOverride string
	EnvVars            map[string]string
	CLIFlags           *pflag.FlagSet
}

// LoadConfig loads configuration with the following precedence
// (later overrides earlier):
//  1. Built-in defaults
//  2. Global config file: $XDG_CONFIG_HOME/snapwalk/config.json or
//     config.jsonc (defaults to ~/.config/snapwalk/), or the path
//     given by --config; both .json and .jsonc support comments via
//     tailscale/hujson.
//  3. CLI flags
func LoadConfig(input LoadConfigInput) (Config, error) {
	cfg := DefaultConfig()

	configPath := input.ConfigPathOverride
	if configPath == "" {
		base, err := userConfigBasePath(input.EnvVars)
		if err != nil {
			return Config{}, err
		}

		if base != "" {
			found, findErr := findConfigFile(base)
			if findErr == nil {
				configPath = found
			} else if !errors.Is(findErr, os.ErrNotExist) {
				return Config{}, findErr
			}
		}
	}

	if configPath != "" {
		fileCfg, err := parseConfigFile(configPath)
		if err != nil {
			return Config{}, err
		}

		cfg = mergeConfig(cfg, fileCfg)
		cfg.LoadedConfigFile = configPath
	}

	if input.CLIFlags != nil {
		applyCLIFlags(&cfg, input.CLIFlags)
	}

	return cfg, nil
}

func userConfigBasePath(env map[string]string) (string, error) {
	if xdg := env["XDG_CONFIG_HOME"]; xdg != "" {
		return filepath.Join(xdg, "snapwalk", "config"), nil
	}

	home := env["HOME"]
	if home == "" {
		var err error

		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
	}

	return filepath.Join(home, ".config", "snapwalk", "config"), nil
}

// findConfigFile tries base+".json" then base+".jsonc", erroring with
// os.ErrNotExist if neither exists, and erroring distinctly if both do.
func findConfigFile(base string) (string, error) {
	jsonPath := base + ".json"
	jsoncPath := base + ".jsonc"

	_, jsonErr := os.Stat(jsonPath)
	_, jsoncErr := os.Stat(jsoncPath)

	switch {
	case jsonErr == nil && jsoncErr == nil:
		return "", fmt.Errorf("both %s and %s exist; remove one", jsonPath, jsoncPath)
	case jsonErr == nil:
		return jsonPath, nil
	case jsoncErr == nil:
		return jsoncPath, nil
	default:
		return "", os.ErrNotExist
	}
}

// parseConfigFile loads and parses a JSON/JSONC config file. hujson
// standardizes comments and trailing commas in both extensions before
// strict decoding.
func parseConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	var cfg Config

	decoder := json.NewDecoder(bytes.NewReader(standardized))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// mergeConfig merges override into base; zero values in override
// never clobber base.
func mergeConfig(base, override Config) Config {
	result := base

	if override.AlternateReplicas {
		result.AlternateReplicas = true
	}

	if override.SnapshotTool != "" {
		result.SnapshotTool = override.SnapshotTool
	}

	if len(override.Aliases) > 0 {
		result.Aliases = append(append([]string{}, result.Aliases...), override.Aliases...)
	}

	if override.GlobalLocalDir != "" {
		result.GlobalLocalDir = override.GlobalLocalDir
	}

	if override.GlobalSnapDir != "" {
		result.GlobalSnapDir = override.GlobalSnapDir
	}

	return result
}

func applyCLIFlags(cfg *Config, flags *pflag.FlagSet) {
	if alt, err := flags.GetBool("alt-replicas"); err == nil && alt {
		cfg.AlternateReplicas = true
	}

	if tool, err := flags.GetString("snapshot-tool"); err == nil && tool != "" {
		cfg.SnapshotTool = tool
	}

	if aliases, err := flags.GetStringArray("alias"); err == nil && len(aliases) > 0 {
		cfg.Aliases = append(append([]string{}, cfg.Aliases...), aliases...)
	}

	if local, err := flags.GetString("local-dir"); err == nil && local != "" {
		cfg.GlobalLocalDir = local
	}

	if remote, err := flags.GetString("snap-dir"); err == nil && remote != "" {
		cfg.GlobalSnapDir = remote
	}
}
