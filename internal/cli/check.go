package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgetmcp/pkg/tools"
	"github.com/goliatone/go-widgetmcp/pkg/widget"
)

// NewCheckCmd creates the "check" subcommand.
func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Load and compile every definition and report problems",
		Args:  cobra.NoArgs,
		RunE:  runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	_, catalog, err := loadCatalog(cmd)
	if err != nil {
		return err
	}

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, skipped := range catalog.Skipped {
		reason := skipped.Reason
		if skipped.Err != nil {
			reason += ": " + skipped.Err.Error()
		}
		fmt.Fprintf(out, "skip\t%s\t%s\n", skipped.Path, reason)
	}
	for _, failure := range catalog.Failed {
		fmt.Fprintf(out, "fail\t%s\t%v\n", failure.Definition.SourcePath(), failure.Err)
	}
	usable := catalog.Usable()
	for _, def := range usable {
		fmt.Fprintf(out, "ok\t%s\t%s\n", def.SourcePath(), widget.ToolName(def.Name()))
	}
	if err := out.Flush(); err != nil {
		return err
	}

	if _, err := tools.Names(usable); err != nil {
		return classify(err)
	}
	if problems := len(catalog.Skipped) + len(catalog.Failed); problems > 0 {
		return exitError(exitFailure, "check failed: %d skipped, %d failed", len(catalog.Skipped), len(catalog.Failed))
	}
	return nil
}
