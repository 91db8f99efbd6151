package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/bobmcallan/fidash/internal/app"
)

func newMCPCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the dashboard MCP tools over stdio for desktop assistants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runMCPStdio(ctx, opts.configPath, os.Stdin, os.Stdout)
		},
	}
}

// runMCPStdio serves newline-delimited JSON-RPC on in/out. Logs must never
// reach out, so the app logger is expected to write to stderr.
func runMCPStdio(ctx context.Context, configPath string, in io.Reader, out io.Writer) error {
	a, err := app.NewApp(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer a.Close()

	a.StartScheduler()

	stdio := server.NewStdioServer(a.MCPServer)
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stdio server failed: %w", err)
	}
	return nil
}
