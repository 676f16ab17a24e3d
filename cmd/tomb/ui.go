package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TheMichaelB/tomb/internal/events"
	"github.com/TheMichaelB/tomb/internal/platform"
	"github.com/TheMichaelB/tomb/internal/shell"
)

var uiTickInterval uint

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open an interactive shell over the tomb",
	Long: `Open an interactive shell over the tomb. Type "help" for the list of
commands. Tab completes commands and secret paths.

The tomb is reloaded from disk before a command that reads it when at least
--tick-interval milliseconds have passed since the last reload.`,
	Args: cobra.NoArgs,
	RunE: runUI,
}

func init() {
	rootCmd.AddCommand(uiCmd)
	uiCmd.Flags().UintVarP(&uiTickInterval, "tick-interval", "T", uint(shell.DefaultTickInterval/time.Millisecond),
		"Minimum milliseconds between reloads of the tomb file")
}

func runUI(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := events.FromContext(ctx)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return fmt.Errorf("ui needs an interactive terminal")
	}

	key, store, err := loadKeyAndStore(ctx)
	if err != nil {
		return err
	}
	// Writes the file back in the current format before the session starts.
	if _, err := store.Save(); err != nil {
		return err
	}

	// The shell still works without a clipboard, copy then reports the error.
	var cb platform.Clipboard
	if c, err := clipboardFactory(); err == nil {
		cb = c
	} else {
		logger.WithError(err).Warn("Clipboard unavailable")
		cb = &platform.MemoryClipboard{}
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("enter raw mode: %w", err)
	}
	defer func() {
		_ = term.Restore(fd, state)
	}()

	sh := shell.New(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout}, shell.Options{
		Store:        store,
		Key:          key,
		Clipboard:    cb,
		Logger:       logger,
		Color:        cfg.UIColor,
		TickInterval: time.Duration(uiTickInterval) * time.Millisecond,
	})
	return sh.Run(ctx)
}
