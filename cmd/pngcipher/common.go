package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/pngcipher/internal/config"
	"github.com/nao1215/pngcipher/internal/database"
	"github.com/nao1215/pngcipher/internal/log"
	"github.com/nao1215/pngcipher/internal/rsa"
)

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// hasFlag reports whether cmd defines the named flag, directly or through a
// parent's persistent flags.
func hasFlag(cmd *cobra.Command, name string) bool {
	return cmd.Flags().Lookup(name) != nil
}

// stringFlag returns the named flag, or "" when cmd does not define it.
func stringFlag(cmd *cobra.Command, name string) string {
	if !hasFlag(cmd, name) {
		return ""
	}
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}
	return v
}

// buildConfig creates a Config from defaults, the configuration file and
// the flags of cmd. Flags win over the file only when they were set on the
// command line.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Inputs = args
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.ConfigFilePath = stringFlag(cmd, "config")
	cfg.Profile = stringFlag(cmd, "profile")
	if dir := stringFlag(cmd, "db-dir"); dir != "" {
		cfg.DBDir = dir
	}

	if err := applyConfigFile(cfg); err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	var err error

	if flags.Changed("mode") {
		mode, err := flags.GetString("mode")
		if err != nil {
			return nil, err
		}
		cfg.Mode = rsa.Mode(strings.ToLower(mode))
	}
	if flags.Changed("key-bits") {
		if cfg.KeyBits, err = flags.GetInt("key-bits"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("workers") {
		if cfg.Workers, err = flags.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("level") {
		if cfg.CompressionLevel, err = flags.GetInt("level"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("strip") {
		if cfg.Strip, err = flags.GetBool("strip"); err != nil {
			return nil, err
		}
	}

	if hasFlag(cmd, "batch") {
		if cfg.BatchSize, err = flags.GetInt("batch"); err != nil {
			return nil, err
		}
	}
	if hasFlag(cmd, "no-journal") {
		if cfg.NoJournal, err = flags.GetBool("no-journal"); err != nil {
			return nil, err
		}
	}
	if hasFlag(cmd, "json") {
		if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
			return nil, err
		}
	}
	if hasFlag(cmd, "markdown") {
		if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
			return nil, err
		}
	}
	if hasFlag(cmd, "output") {
		if cfg.Output, err = flags.GetString("output"); err != nil {
			return nil, err
		}
		cfg.ReportFile = cfg.Output
	}

	return cfg, nil
}

// applyConfigFile loads the configuration file, if any, and applies the
// selected profile. A missing file is only an error when it was named
// explicitly.
func applyConfigFile(cfg *config.Config) error {
	explicit := cfg.ConfigFilePath != ""
	path := config.FindConfigFile(cfg.ConfigFilePath)

	if path == "" {
		if explicit {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		if cfg.Profile != "" {
			return fmt.Errorf("%w: %s (no configuration file found)", config.ErrUnknownProfile, cfg.Profile)
		}
		return nil
	}

	cf, err := config.LoadConfigFile(path)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	profile, err := cf.GetProfile(cfg.Profile)
	if err != nil {
		return err
	}
	cfg.ApplyProfile(profile)
	return nil
}

// setupLogger creates the structured logger for a command run. It writes
// to the command's error stream and is passed to every component.
func setupLogger(cmd *cobra.Command, verbose bool) *slog.Logger {
	return log.NewSecureLogger(cmd.ErrOrStderr(), verbose)
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// openStore opens the key store in cfg.DBDir.
func openStore(cfg *config.Config, logger *slog.Logger) (*database.Store, error) {
	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", store.Path())
	return store, nil
}

// createOutputFile creates path and its parent directories. The file is
// only readable by its owner.
func createOutputFile(path string) (*os.File, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, nil
}
