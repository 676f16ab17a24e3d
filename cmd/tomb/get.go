package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var getBase64 bool

var getCmd = &cobra.Command{
	Use:     "get <path>",
	Short:   "Print a decrypted secret",
	Example: "  tomb get email/password\n  tomb get --base64 tls/key",
	Args:    cobra.ExactArgs(1),
	RunE:    runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)
	getCmd.Flags().BoolVar(&getBase64, "base64", false, "Print the secret base64 encoded (for binary values)")
}

func runGet(cmd *cobra.Command, args []string) error {
	key, store, err := loadKeyAndStore(cmd.Context())
	if err != nil {
		return err
	}

	var value string
	if getBase64 {
		value, err = store.GetBase64String(args[0], key)
	} else {
		value, err = store.GetString(args[0], key)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, value)
	return nil
}
