package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var mkgrpCmd = &cobra.Command{
	Use:   "mkgrp <path>",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireApp(); err != nil {
			return err
		}
		info, err := EXD.Browser.CreateGroup(contextOf(cmd), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created group %s\n", info.Path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mkgrpCmd)
}
