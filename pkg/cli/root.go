package cli

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const (
	// Version is the current version of typoflow
	Version = "1.0.0"

	// configDirEnv overrides the configuration directory.
	configDirEnv = "TYPOFLOW_CONFIG_DIR"
)

// Config holds the global configuration for the typoflow CLI
type Config struct {
	ConfigDir string
	Debug     bool
}

// GlobalConfig is the shared configuration instance
var GlobalConfig = &Config{}

// NewRootCommand creates the root cobra command for typoflow
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "typoflow",
		Short: "typoflow - run AI text and image pipelines built as node graphs",
		Long: `typoflow executes workflow graphs of Input, Processor, ImageGen and Display nodes.
Data flows from every Input node along its edges; processors transform text through a
language model, image nodes generate pictures and display nodes collect the results.
Every run is recorded in history and can be restored later.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(); err != nil {
				return fmt.Errorf("failed to initialize configuration: %w", err)
			}

			if GlobalConfig.Debug {
				log.SetOutput(os.Stderr)
				log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
			} else {
				log.SetOutput(io.Discard)
			}

			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&GlobalConfig.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&GlobalConfig.ConfigDir, "config-dir", "", "Configuration directory (default: ~/.typoflow)")

	cmd.AddCommand(NewInitCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewRunCommand())
	cmd.AddCommand(NewImportCommand())
	cmd.AddCommand(NewExportCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewCredentialCommand())
	cmd.AddCommand(NewServeCommand())

	return cmd
}

// initConfig creates the configuration directory and writes a default
// config.yaml if none exists.
func initConfig() error {
	GlobalConfig.ConfigDir = GetConfigDir()

	if err := os.MkdirAll(GlobalConfig.ConfigDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	for _, dir := range []string{"workflows", "exports"} {
		if err := os.MkdirAll(filepath.Join(GlobalConfig.ConfigDir, dir), 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if _, err := LoadSettings(GlobalConfig.ConfigDir); err != nil {
		return err
	}
	return nil
}

// GetConfigDir returns the configuration directory path
// Priority order: 1) TYPOFLOW_CONFIG_DIR env var, 2) --config-dir, 3) ~/.typoflow
func GetConfigDir() string {
	if envDir := os.Getenv(configDirEnv); envDir != "" {
		return envDir
	}
	if GlobalConfig.ConfigDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".typoflow"
		}
		return filepath.Join(homeDir, ".typoflow")
	}
	return GlobalConfig.ConfigDir
}

// GetWorkflowsDir returns the workflows directory path
func GetWorkflowsDir() string {
	return filepath.Join(GetConfigDir(), "workflows")
}

// Execute runs the root command
func Execute() error {
	return NewRootCommand().Execute()
}
