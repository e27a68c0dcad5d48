package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tessro/skyplay/internal/lifecycle"
	"github.com/tessro/skyplay/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server on stdin/stdout",
	Long: `Serves the weather and playback tools over the Model Context Protocol.
Requests are read from stdin and responses written to stdout; logs go to
stderr or the configured log file.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	runCtx, stopSignals := signal.NotifyContext(cmd.Context(), lifecycle.TerminationSignals()...)
	defer stopSignals()

	if isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd()) {
		fmt.Fprintln(os.Stderr, "skyplay serve speaks MCP on stdin/stdout and is meant to be launched by an MCP client.")
	}

	registry, err := newRegistry(cfg)
	if err != nil {
		return err
	}

	logger.Info().
		Str("server", cfg.Server.Name).
		Str("version", Version).
		Strs("tools", registry.Names()).
		Msg("mcp_server_start")

	srv := mcpserver.New(os.Stdin, os.Stdout, mcpserver.Config{
		ServerName:    cfg.Server.Name,
		ServerVersion: Version,
		Instructions:  cfg.Server.Instructions,
		Logger:        logger,
		Registry:      registry,
	})

	runErrCh := make(chan error, 1)
	go func() {
		runErrCh <- srv.Run(runCtx)
	}()

	var runErr error
	select {
	case runErr = <-runErrCh:
	case <-runCtx.Done():
		runErr = runCtx.Err()
	}
	if runErr != nil {
		logger.Warn().Str("reason", runErr.Error()).Msg("mcp_server_stopping")
	} else {
		logger.Info().Str("reason", "clean_eof").Msg("mcp_server_stopping")
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
