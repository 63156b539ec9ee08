package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-widgetmcp/pkg/tools"
)

// NewListCmd creates the "list" subcommand.
func NewListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the tools a widgets directory exposes",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
}

func runList(cmd *cobra.Command, _ []string) error {
	_, catalog, err := loadCatalog(cmd)
	if err != nil {
		return err
	}
	defs := catalog.Usable()
	names, err := tools.Names(defs)
	if err != nil {
		return classify(err)
	}

	out := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for i, def := range defs {
		summary, _, _ := strings.Cut(tools.Description(def), "\n")
		fmt.Fprintf(out, "%s\t%s\n", names[i], summary)
	}
	return out.Flush()
}
