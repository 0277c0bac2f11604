package commands

import (
	"exdir/pkg/exporter"

	"github.com/spf13/cobra"
)

var attrsCmd = &cobra.Command{
	Use:   "attrs [path]",
	Short: "List the attributes of an object",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireApp(); err != nil {
			return err
		}
		exp := exporter.NewExporter(EXD.Browser)
		return exp.PrintAttributes(contextOf(cmd), pathArg(args), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(attrsCmd)
}
