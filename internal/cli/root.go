package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/pageturn/internal/config"
	"github.com/rshade/pageturn/internal/logging"
)

// EnvConfig names a config overlay file when --config is not given.
const EnvConfig = "PAGETURN_CONFIG"

// annotationOwnsTerminal marks commands that run the full-screen TUI.
// Their logs never go to stderr, even with --debug.
const annotationOwnsTerminal = "pageturn.owns-terminal"

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// logger is the package-level logger for CLI operations.
var logger zerolog.Logger //nolint:gochecknoglobals // Required for zerolog context integration

// NewRootCmd creates the root Cobra command for the pageturn CLI.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithEnv(ver, os.LookupEnv)
}

// NewRootCmdWithEnv creates the root command with an explicit env lookup for testability.
func NewRootCmdWithEnv(ver string, lookupEnv func(string) (string, bool)) *cobra.Command {
	var logResult *logging.LogPathResult

	cmd := &cobra.Command{
		Use:           "pageturn",
		Short:         "Browse paginated HTML lists in the terminal",
		Long:          "pageturn: infinite scrolling and modal details for server-rendered HTML lists",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cacheTTL, _ := cmd.Flags().GetInt("cache-ttl")
			if cacheTTL < 0 {
				return fmt.Errorf("cache-ttl must be >= 0, got %d", cacheTTL)
			}

			cfg, err := resolveConfig(cmd, lookupEnv)
			if err != nil {
				return err
			}
			config.SetGlobalConfig(cfg)

			result := setupLogging(cmd)
			logResult = &result
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, logResult)
		},
	}

	cmd.PersistentFlags().String("config", "", "yaml file merged over the user config (env "+EnvConfig+")")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().Bool("no-cache", false, "disable the fragment cache for this run")
	cmd.PersistentFlags().
		Int("cache-ttl", 0, "cache TTL in seconds (0 = use config default, overrides config file and env var)")
	cmd.AddCommand(NewBrowseCmd(), NewDumpCmd())

	return cmd
}

// resolveConfig layers the configuration: defaults, the user file, the
// --config overlay, the environment, then flags.
func resolveConfig(cmd *cobra.Command, lookupEnv func(string) (string, bool)) (*config.Config, error) {
	cfg := config.New()

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if v, ok := lookupEnv(EnvConfig); ok {
			path = v
		}
	}
	if path != "" {
		if err := config.ShallowMergeYAML(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config %s: %w", path, err)
		}
		// The overlay must not win over the environment.
		cfg.ApplyEnv()
	}

	if ttl, _ := cmd.Flags().GetInt("cache-ttl"); ttl > 0 {
		cfg.Cache.TTLSeconds = ttl
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

const rootCmdExample = `  # Browse a paginated list with infinite scrolling
  pageturn browse https://example.com/locations/

  # Use custom selectors from a config overlay
  pageturn browse https://example.com/items/ --config ./selectors.yaml

  # Dump the first three pages as JSON
  pageturn dump https://example.com/locations/ --max-pages 3 --output json

  # Stream items as NDJSON, fetching only what is needed for 25 items
  pageturn dump https://example.com/locations/ --limit 25 --output ndjson

  # Reuse cached fragments for ten minutes
  PAGETURN_CACHE_ENABLED=true pageturn browse https://example.com/locations/ --cache-ttl 600`
