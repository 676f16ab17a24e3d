package main

import (
	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <path>",
	Aliases: []string{"rm"},
	Short:   "Remove a secret",
	Long:    "Remove a secret. No key is needed, the tomb only stores ciphertext under clear paths.",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	store, err := loadStore(cmd.Context())
	if err != nil {
		return err
	}
	if err := store.DeleteSecret(args[0]); err != nil {
		return err
	}
	if _, err := store.Save(); err != nil {
		return err
	}

	printSuccess("deleted secret: %s", args[0])
	return nil
}
