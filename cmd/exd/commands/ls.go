package commands

import (
	"exdir/pkg/exporter"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List the children of a group",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireApp(); err != nil {
			return err
		}
		exp := exporter.NewExporter(EXD.Browser)
		return exp.PrintListing(contextOf(cmd), pathArg(args), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(lsCmd)
}
