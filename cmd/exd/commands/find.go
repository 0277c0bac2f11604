package commands

import (
	"fmt"

	"exdir/pkg/app"
	"exdir/pkg/catalog"
	"exdir/pkg/dtype"
	"exdir/pkg/exporter"
	"exdir/pkg/types"

	"github.com/spf13/cobra"
)

var (
	findDtype string
	findRank  int
	findUnder string
	findLimit int
)

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Query the catalog built by 'exd index'",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := contextOf(cmd)

		db, err := app.OpenCatalog(ctx)
		if err != nil {
			return err
		}
		defer db.Close()
		repo := catalog.NewRepository(db)

		var recs []catalog.DatasetRecord
		switch {
		case findDtype != "":
			dt, err := dtype.Parse(findDtype)
			if err != nil {
				return err
			}
			recs, err = repo.FindByDtype(ctx, dt.Descr(), findLimit)
			if err != nil {
				return err
			}
		case cmd.Flags().Changed("rank"):
			recs, err = repo.FindByRank(ctx, findRank, findLimit)
			if err != nil {
				return err
			}
		default:
			prefix, err := types.ParsePath(findUnder)
			if err != nil {
				return err
			}
			recs, err = repo.FindUnder(ctx, prefix, findLimit)
			if err != nil {
				return err
			}
		}

		if err := exporter.PrintRecords(recs, cmd.OutOrStdout()); err != nil {
			return fmt.Errorf("failed to print results: %w", err)
		}
		return nil
	},
}

func init() {
	findCmd.Flags().StringVar(&findDtype, "dtype", "", "match datasets of this dtype (e.g. float64 or <f8)")
	findCmd.Flags().IntVar(&findRank, "rank", 0, "match datasets of this rank")
	findCmd.Flags().StringVar(&findUnder, "under", "/", "match datasets below this group")
	findCmd.Flags().IntVar(&findLimit, "limit", 50, "maximum number of results")
	// find 只读目录数据库，不需要打开仓库
	findCmd.Annotations = map[string]string{skipAppAnnotation: "true"}
	rootCmd.AddCommand(findCmd)
}
