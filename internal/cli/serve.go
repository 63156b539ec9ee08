package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgetmcp"
	"github.com/goliatone/go-widgetmcp/pkg/orchestrator"
)

// NewServeCmd creates the "serve" subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose every widget definition as an MCP tool",
		RunE:  runServe,
	}

	cmd.Flags().String("http", "", "Serve streamable HTTP on this address instead of stdio")
	cmd.Flags().Bool("require-widgets", false, "Fail when the directory yields no definitions")
	cmd.Flags().Bool("strip-markup", false, "Strip HTML markup from string arguments before rendering")
	cmd.Flags().Bool("fail-on-schema-error", false, "Fail when a definition schema does not compile")
	cmd.Flags().Duration("shutdown-timeout", 10*time.Second, "HTTP graceful shutdown timeout")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, _ := cmd.Flags().GetString("http")
	requireWidgets, _ := cmd.Flags().GetBool("require-widgets")
	stripMarkup, _ := cmd.Flags().GetBool("strip-markup")
	failOnSchema, _ := cmd.Flags().GetBool("fail-on-schema-error")
	shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

	dir, err := widgetsDir(cmd)
	if err != nil {
		return err
	}
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, catalog, err := widgetmcp.NewServer(ctx, dir,
		orchestrator.WithLogger(logger),
		templateGlobals(cmd),
		orchestrator.WithRequireDefinitions(requireWidgets),
		orchestrator.WithStripMarkup(stripMarkup),
		orchestrator.WithFailOnSchemaError(failOnSchema),
	)
	if err != nil {
		return classify(err)
	}
	logger.Info("widget tools registered", "dir", catalog.Dir, "tools", len(catalog.Usable()))

	if addr == "" {
		if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
			return exitError(exitFailure, "stdio server: %v", err)
		}
		return nil
	}
	return serveHTTP(ctx, cmd, server, addr, shutdownTimeout)
}

func serveHTTP(ctx context.Context, cmd *cobra.Command, server *mcp.Server, addr string, shutdownTimeout time.Duration) error {
	handler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, nil)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(cmd.ErrOrStderr(), "widgetmcp listening on %s\n", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return exitError(exitFailure, "shutdown error: %v", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return exitError(exitFailure, "server error: %v", err)
		}
		return nil
	}
}
