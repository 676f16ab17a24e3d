package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/tomb/internal/tomb"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the tomb version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(stdout, "tomb", tomb.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
