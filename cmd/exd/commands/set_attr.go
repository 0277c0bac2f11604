package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var setAttrCmd = &cobra.Command{
	Use:   "set-attr <path> <name> <number>",
	Short: "Set a numeric attribute",
	Long: `Set a numeric attribute on an object. If the attribute is a {value, unit}
mapping only the value is replaced. Writing the current value is a no-op.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireApp(); err != nil {
			return err
		}
		value, err := strconv.ParseFloat(args[2], 64)
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", args[2], err)
		}

		changed, err := EXD.Browser.SetAttributeValue(contextOf(cmd), args[0], args[1], value)
		if err != nil {
			return err
		}
		if !changed {
			fmt.Fprintf(cmd.OutOrStdout(), "%s.%s unchanged\n", args[0], args[1])
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s.%s = %s\n", args[0], args[1], args[2])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(setAttrCmd)
}
