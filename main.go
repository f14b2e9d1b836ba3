package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhitsian/claude-session-manager/config"
	"github.com/abhitsian/claude-session-manager/log"
	"github.com/abhitsian/claude-session-manager/server"
)

var (
	configPath string
	claudeDir  string
	jsonOutput bool
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "claude-sessions",
	Short:         "Browse, search and resume Claude Code sessions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default $"+config.EnvPrefix+"_CONFIG)")
	flags.StringVar(&claudeDir, "claude-dir", "", "Claude data directory (default ~/.claude)")
	flags.BoolVar(&jsonOutput, "json", false, "print JSON instead of tables")
	flags.BoolVarP(&verbose, "verbose", "v", false, "log at the configured level instead of warnings only")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration and sets up logging. Commands other
// than serve stay quiet unless --verbose is given.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if claudeDir != "" {
		cfg.ClaudeDir = claudeDir
	}

	level := cfg.LogLevel
	if cmd.Name() != "serve" && !verbose {
		level = "warn"
	}
	log.Configure(cfg.Env, level)
	return cfg, nil
}

// newServer loads the configuration and wires every component.
func newServer(cmd *cobra.Command) (*server.Server, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return server.New(cfg), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
