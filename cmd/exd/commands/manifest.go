package commands

import (
	"fmt"

	"exdir/pkg/exporter"
	"exdir/pkg/manifest"

	"github.com/spf13/cobra"
)

var manifestQuiet bool

var manifestCmd = &cobra.Command{
	Use:   "manifest [path]",
	Short: "Compute the content hash of a subtree",
	Long: `Compute a deterministic Merkle manifest of a group or dataset.
Identical subtrees produce identical hashes. Paths matched by .exdignore are skipped.`,
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

		tree, err := manifest.NewBuilder(manifest.WithMatcher(matcher)).Build(ctx, n)
		if err != nil {
			return fmt.Errorf("manifest failed: %w", err)
		}

		if manifestQuiet {
			fmt.Fprintln(cmd.OutOrStdout(), tree.Hash)
			return nil
		}
		return exporter.PrintManifest(tree, cmd.OutOrStdout())
	},
}

func init() {
	manifestCmd.Flags().BoolVarP(&manifestQuiet, "quiet", "q", false, "only print the root hash")
	rootCmd.AddCommand(manifestCmd)
}
