package commands

import (
	"exdir/pkg/exporter"

	"github.com/spf13/cobra"
)

var (
	showAll   bool
	showLimit int
)

var showCmd = &cobra.Command{
	Use:   "show <dataset>",
	Short: "Print the contents of a dataset",
	Long:  `Print a dataset in logical row-major order. Large arrays are truncated unless --all is given.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireApp(); err != nil {
			return err
		}
		limit := showLimit
		if showAll {
			limit = 0
		}
		exp := exporter.NewExporter(EXD.Browser)
		return exp.PrintArray(contextOf(cmd), args[0], cmd.OutOrStdout(), limit)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showAll, "all", false, "print every element")
	showCmd.Flags().IntVar(&showLimit, "limit", 100, "maximum number of elements to print")
	rootCmd.AddCommand(showCmd)
}
