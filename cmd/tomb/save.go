package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/tomb/internal/tomb"
)

var (
	saveNotes    string
	saveUsername string
	saveURL      string
	saveAttrs    []string
	stdin        io.Reader = os.Stdin
)

var saveCmd = &cobra.Command{
	Use:   "save <path> <value>",
	Short: "Encrypt and store a secret",
	Long: `Encrypt value and store it under path, replacing any secret already
stored there. A value of "-" reads the secret from standard input.`,
	Example: `  tomb save email/password hunter2
  tomb save --username me@example.com --url https://mail.example.com email/password hunter2
  cat cert.pem | tomb save tls/cert -`,
	Args: cobra.ExactArgs(2),
	RunE: runSave,
}

func init() {
	rootCmd.AddCommand(saveCmd)

	saveCmd.Flags().StringVar(&saveNotes, "notes", "", "Free text notes")
	saveCmd.Flags().StringVar(&saveUsername, "username", "", "Username stored with the secret")
	saveCmd.Flags().StringVar(&saveURL, "url", "", "URL stored with the secret")
	saveCmd.Flags().StringArrayVar(&saveAttrs, "attr", nil, "Extra attribute as name=value (repeatable)")
}

func runSave(cmd *cobra.Command, args []string) error {
	path, value := args[0], []byte(args[1])
	if args[1] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read secret from stdin: %w", err)
		}
		value = data
	}

	meta, err := saveMetadata(cmd)
	if err != nil {
		return err
	}

	key, store, err := loadKeyAndStore(cmd.Context())
	if err != nil {
		return err
	}
	if err := store.AddSecretWithMeta(path, value, key, meta); err != nil {
		return err
	}
	if _, err := store.Save(); err != nil {
		return err
	}

	printSuccess("added secret: %s", path)
	return nil
}

func saveMetadata(cmd *cobra.Command) (tomb.Metadata, error) {
	var meta tomb.Metadata
	if cmd.Flags().Changed("notes") {
		meta.Notes = &saveNotes
	}
	if cmd.Flags().Changed("username") {
		meta.Username = &saveUsername
	}
	if cmd.Flags().Changed("url") {
		meta.URL = &saveURL
	}
	for _, attr := range saveAttrs {
		name, value, ok := strings.Cut(attr, "=")
		if !ok || name == "" {
			return tomb.Metadata{}, fmt.Errorf("invalid attribute %q, expected name=value", attr)
		}
		if meta.Attributes == nil {
			meta.Attributes = make(map[string]string)
		}
		meta.Attributes[name] = value
	}
	return meta, nil
}
