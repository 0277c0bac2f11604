package commands

import (
	"fmt"

	"exdir/pkg/app"

	"github.com/spf13/cobra"
)

var createCmd = &cobra.Command{
	Use:         "create",
	Short:       "Initialize an exdir store",
	Long:        `Create an empty exdir store at the configured root, or do nothing if one already exists.`,
	Args:        cobra.NoArgs,
	Annotations: map[string]string{skipAppAnnotation: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := app.CreateApp(contextOf(cmd))
		if err != nil {
			return err
		}
		EXD = a
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized exdir store in %s\n", a.Location)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
}
