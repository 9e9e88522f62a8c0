package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ringjudge/internal/config"
	"ringjudge/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	workspace  string

	// Logger
	logger *zap.Logger
)

// newRootCmd builds the command tree. Each call yields fresh flag state.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ringjudge",
		Short: "Interactive judge for ring-and-coat grid path finders",
		Long: `ringjudge launches candidate path-finding programs, plays the line protocol
with them over stdin/stdout, and checks every move against the hazard model.

Each run ends in exactly one verdict. Verdicts are compared against an exact
0-1 BFS oracle, recorded in a local SQLite ledger, and summarized per suite.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := zap.NewProductionConfig()
			if verbose {
				cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			var err error
			logger, err = cfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
			logging.CloseAll()
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "ringjudge.yaml", "Configuration file")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "Workspace directory (default: current)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newSolveCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newDumpConfigCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// resolveWorkspace returns the absolute workspace directory.
func resolveWorkspace() (string, error) {
	ws := workspace
	if ws == "" {
		var err error
		if ws, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("failed to determine workspace: %w", err)
		}
	}
	return filepath.Abs(ws)
}

// inWorkspace anchors relative paths at the workspace.
func inWorkspace(ws, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(ws, path)
}

// loadConfig reads the configuration and starts the category logger.
func loadConfig() (*config.Config, string, error) {
	ws, err := resolveWorkspace()
	if err != nil {
		return nil, "", err
	}
	cfg, err := config.Load(inWorkspace(ws, configPath))
	if err != nil {
		return nil, "", err
	}
	if err := logging.Initialize(ws, cfg.LoggingSettings()); err != nil {
		logger.Warn("category logging disabled", zap.Error(err))
	}
	logging.Boot("Workspace %s, config %s", ws, configPath)
	if _, err := os.Stat(inWorkspace(ws, configPath)); os.IsNotExist(err) {
		logging.BootWarn("No config at %s, using defaults", configPath)
	}
	return cfg, ws, nil
}
