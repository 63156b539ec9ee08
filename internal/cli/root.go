package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgetmcp/pkg/orchestrator"
	"github.com/goliatone/go-widgetmcp/pkg/render/template/gotemplate"
)

// NewRootCmd builds the widgetmcp command tree.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "widgetmcp",
		Short: "Serve widget definitions as MCP tools",
		Long:  "widgetmcp loads widget definitions from a directory and exposes each one as an MCP tool that renders a UI component tree.",
		// SilenceUsage prevents printing usage on every error
		SilenceUsage:      true,
		PersistentPreRunE: configureLogging,
	}

	root.PersistentFlags().String("widgets-dir", "", "Directory holding widget definitions (required)")
	root.PersistentFlags().String("log-level", "info", "Log level: debug | info | warn | error")
	root.PersistentFlags().String("log-format", "text", "Log format: text | json")
	root.PersistentFlags().StringToString("global", nil, "Template global available to every widget, as key=value (repeatable)")

	root.Version = version
	root.SetVersionTemplate(fmt.Sprintf("widgetmcp version %s\n", version))

	root.AddCommand(NewServeCmd())
	root.AddCommand(NewListCmd())
	root.AddCommand(NewRenderCmd())
	root.AddCommand(NewCheckCmd())
	return root
}

// configureLogging installs the default logger on stderr. Stdout is reserved
// for MCP stdio traffic and command output.
func configureLogging(cmd *cobra.Command, _ []string) error {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	logger, err := newLogger(cmd.ErrOrStderr(), levelName, format)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

func newLogger(w io.Writer, levelName, format string) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(levelName))); err != nil {
		return nil, exitError(exitConfig, "invalid --log-level %q", levelName)
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, exitError(exitConfig, "invalid --log-format %q (want text or json)", format)
	}
}

// widgetsDir returns the mandatory --widgets-dir value.
func widgetsDir(cmd *cobra.Command) (string, error) {
	dir, _ := cmd.Flags().GetString("widgets-dir")
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return "", exitError(exitConfig, "--widgets-dir is required")
	}
	return dir, nil
}

// templateGlobals exposes the --global pairs to every widget template.
func templateGlobals(cmd *cobra.Command) orchestrator.Option {
	pairs, _ := cmd.Flags().GetStringToString("global")
	globals := make(map[string]any, len(pairs))
	for key, value := range pairs {
		globals[key] = value
	}
	return orchestrator.WithTemplateOptions(gotemplate.WithGlobalData(globals))
}

// loadCatalog builds an orchestrator from the shared flags and loads the
// widgets directory.
func loadCatalog(cmd *cobra.Command, options ...orchestrator.Option) (*orchestrator.Orchestrator, *orchestrator.Catalog, error) {
	dir, err := widgetsDir(cmd)
	if err != nil {
		return nil, nil, err
	}
	options = append([]orchestrator.Option{
		orchestrator.WithLogger(slog.Default()),
		templateGlobals(cmd),
	}, options...)
	orch := orchestrator.New(options...)
	catalog, err := orch.Load(cmd.Context(), dir)
	if err != nil {
		return nil, nil, classify(err)
	}
	return orch, catalog, nil
}
