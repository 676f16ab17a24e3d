package main

import (
	"github.com/spf13/cobra"

	"github.com/TheMichaelB/tomb/internal/events"
)

var copySound bool

var copyCmd = &cobra.Command{
	Use:   "copy <path>",
	Short: "Copy a decrypted secret to the clipboard",
	Args:  cobra.ExactArgs(1),
	RunE:  runCopy,
}

func init() {
	rootCmd.AddCommand(copyCmd)
	copyCmd.Flags().BoolVarP(&copySound, "sound", "S", false, "Play a sound once copied (not supported, ignored)")
}

func runCopy(cmd *cobra.Command, args []string) error {
	path := args[0]

	key, store, err := loadKeyAndStore(cmd.Context())
	if err != nil {
		return err
	}
	value, err := store.GetString(path, key)
	if err != nil {
		return err
	}

	cb, err := clipboardFactory()
	if err != nil {
		return err
	}
	if err := cb.WriteAll(value); err != nil {
		return err
	}
	if copySound {
		events.FromContext(cmd.Context()).Debug("Sound notifications are not supported")
	}

	printInfo("%s secret copied to clipboard", path)
	return nil
}
