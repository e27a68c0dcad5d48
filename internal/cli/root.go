package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tessro/skyplay/internal/config"
	apperr "github.com/tessro/skyplay/internal/errors"
	"github.com/tessro/skyplay/internal/logging"
)

var (
	cfgFile string
	jsonOut bool
	verbose bool

	cfg      *config.Config
	logger   = zerolog.Nop()
	closeLog = func() error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "skyplay",
	Short: "Weather and Spotify tools for MCP clients",
	Long: `Skyplay is an MCP server exposing weather forecasts and Spotify playback
as tools. Run 'skyplay serve' from your MCP client; the other commands call
the same tools from the terminal.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ~/.skyplayrc)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOut, "json", "j", false, "output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

func initConfig() error {
	var err error
	if cfgFile != "" {
		cfg, err = config.LoadFrom(cfgFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return apperr.WithSuggestion(fmt.Errorf("%w: %w", apperr.ErrInvalidConfig, err),
			"Fix the config file or run 'skyplay config show' to inspect it")
	}

	logger, closeLog, err = logging.New(cfg.Log, verbose)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, apperr.Format(err))
		os.Exit(1)
	}
}

// Config returns the loaded configuration.
func Config() *config.Config {
	return cfg
}

// JSONOutput returns true if JSON output is requested.
func JSONOutput() bool {
	return jsonOut
}

// Verbose returns true if verbose output is requested.
func Verbose() bool {
	return verbose
}
