package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgetmcp/pkg/orchestrator"
	"github.com/goliatone/go-widgetmcp/pkg/prompt"
	"github.com/goliatone/go-widgetmcp/pkg/tools"
	"github.com/goliatone/go-widgetmcp/pkg/uitree"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// NewRenderCmd creates the "render" subcommand.
func NewRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <tool>",
		Short: "Render one widget and print its component tree",
		Long:  "Render validates arguments against the widget schema, renders the template and prints the resulting component tree as JSON. The tool may be named by its tool identifier or its display name.",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}

	cmd.Flags().String("args", "", "Arguments as a JSON object")
	cmd.Flags().String("args-file", "", "Read arguments from a JSON file")
	cmd.Flags().Bool("interactive", false, "Prompt for every argument")
	cmd.Flags().Bool("compare-preview", false, "Fail when the tree does not match the definition's output preview")
	cmd.Flags().Bool("strip-markup", false, "Strip HTML markup from string arguments before rendering")

	return cmd
}

func runRender(cmd *cobra.Command, args []string) error {
	rawArgs, _ := cmd.Flags().GetString("args")
	argsFile, _ := cmd.Flags().GetString("args-file")
	interactive, _ := cmd.Flags().GetBool("interactive")
	comparePreview, _ := cmd.Flags().GetBool("compare-preview")
	stripMarkup, _ := cmd.Flags().GetBool("strip-markup")

	sources := 0
	for _, set := range []bool{rawArgs != "", argsFile != "", interactive} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return exitError(exitConfig, "--args, --args-file and --interactive are mutually exclusive")
	}

	orch, catalog, err := loadCatalog(cmd, orchestrator.WithStripMarkup(stripMarkup))
	if err != nil {
		return err
	}
	def, err := findTool(catalog.Usable(), args[0])
	if err != nil {
		return err
	}

	var input map[string]any
	switch {
	case rawArgs != "":
		input, err = tools.DecodeArguments(json.RawMessage(rawArgs))
	case argsFile != "":
		input, err = readArgsFile(argsFile)
	case interactive:
		input, err = collectInteractive(cmd, orch, def)
	default:
		input = map[string]any{}
	}
	if err != nil {
		if errors.Is(err, prompt.ErrAborted) {
			return exitError(exitFailure, "aborted")
		}
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return err
		}
		return exitError(exitConfig, "arguments: %v", err)
	}

	tree, err := orch.Render(cmd.Context(), def, input)
	if err != nil {
		return classify(err)
	}

	payload, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return exitError(exitRender, "encode tree: %v", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))

	if comparePreview {
		preview := def.OutputPreview()
		if preview == nil {
			return exitError(exitPreview, "widget %q has no output preview", def.Name())
		}
		if err := uitree.MatchPreview(tree, preview); err != nil {
			return exitError(exitPreview, "preview mismatch: %v", err)
		}
	}
	return nil
}

// findTool resolves a tool identifier or display name.
func findTool(defs []*widget.Definition, name string) (*widget.Definition, error) {
	if def, ok := widget.FindByName(defs, name); ok {
		return def, nil
	}
	wanted := widget.ToolName(name)
	available := make([]string, 0, len(defs))
	for _, def := range defs {
		toolName := widget.ToolName(def.Name())
		if toolName == wanted {
			return def, nil
		}
		available = append(available, toolName)
	}
	return nil, exitError(exitConfig, "unknown tool %q (available: %s)", name, strings.Join(available, ", "))
}

func readArgsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return tools.DecodeArguments(json.RawMessage(bytes.TrimSpace(data)))
}

func collectInteractive(cmd *cobra.Command, orch *orchestrator.Orchestrator, def *widget.Definition) (map[string]any, error) {
	m, err := orch.Models().Get(def)
	if err != nil {
		return nil, classify(err)
	}
	return prompt.New().Collect(cmd.Context(), m)
}
