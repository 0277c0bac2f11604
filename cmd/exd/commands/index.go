package commands

import (
	"fmt"

	"exdir/pkg/app"
	"exdir/pkg/catalog"

	"github.com/spf13/cobra"
)

var indexPrune bool

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Record every dataset in the catalog database",
	Long: `Walk the store (or a subtree) and upsert one catalog row per dataset:
dtype, shape, attributes and a digest of data.npy. With --prune, rows for
datasets that no longer exist are removed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireApp(); err != nil {
			return err
		}
		ctx := contextOf(cmd)

		n, err := EXD.File.ResolveString(ctx, pathArg(args))
		if err != nil {
			return err
		}
		matcher, err := EXD.Matcher(ctx)
		if err != nil {
			return err
		}

		db, err := app.OpenCatalog(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		ix := catalog.NewIndexer(catalog.NewRepository(db), matcher)
		stats, err := ix.Index(ctx, n, indexPrune)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d datasets", stats.Indexed)
		if indexPrune {
			fmt.Fprintf(cmd.OutOrStdout(), ", pruned %d", stats.Pruned)
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	indexCmd.Flags().BoolVar(&indexPrune, "prune", false, "remove catalog rows for datasets that are gone")
	rootCmd.AddCommand(indexCmd)
}
