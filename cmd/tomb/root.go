package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/tomb/internal/config"
	"github.com/TheMichaelB/tomb/internal/creds"
	"github.com/TheMichaelB/tomb/internal/events"
	"github.com/TheMichaelB/tomb/internal/platform"
)

var (
	// Global state, set up in PersistentPreRunE
	cfg    *config.Config
	logger *events.Logger

	// Global flags
	configFile     string
	keyFilename    string
	tombFilename   string
	password       string
	askPassword    bool
	passwordSecret string
	logLevel       string
	jsonOutput     bool

	// Replaced in tests
	stdout           io.Writer = os.Stdout
	stderr           io.Writer = os.Stderr
	prompter         creds.Prompter
	secretsAPI       creds.SecretsAPI
	clipboardFactory = systemClipboard
)

var rootCmd = &cobra.Command{
	Use:   "tomb",
	Short: "Password manager backed by an encrypted local file",
	Long: `Tomb keeps secrets in a YAML file, each value encrypted with AES-256-CBC
under a key derived from a password or generated at random.

The key is derived from --password, --ask-password, --password-secret or
TOMB_PASSWORD when one of them is given, and read from the key file otherwise.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Close()
		}
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFile, "config", "",
		"Config file (default $TOMB_CONFIG or ~/.tombconfig)")
	flags.StringVarP(&keyFilename, "key-filename", "k", "",
		"Key file (default $TOMB_KEY or ~/.tomb.key)")
	flags.StringVarP(&tombFilename, "tomb", "t", "",
		"Tomb file (default $TOMB_FILE or ~/.tomb.yaml)")
	flags.StringVarP(&password, "password", "P", "",
		"Derive the key from this password")
	flags.BoolVarP(&askPassword, "ask-password", "p", false,
		"Prompt for the password")
	flags.StringVar(&passwordSecret, "password-secret", "",
		"Read the password from this AWS Secrets Manager secret")
	flags.StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default $TOMB_LOG_LEVEL or info)")
	flags.BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")
}

func systemClipboard() (platform.Clipboard, error) {
	cb, err := platform.NewSystemClipboard()
	if err != nil {
		return nil, err
	}
	return cb, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// setup loads the config and logger shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	stdout = cmd.OutOrStdout()
	stderr = cmd.ErrOrStderr()

	loader := config.NewLoader(configFile)
	bindings := map[string]string{
		"key_filename":    "key-filename",
		"tomb_filename":   "tomb",
		"password":        "password",
		"password_secret": "password-secret",
		"log.level":       "log-level",
	}
	for key, flag := range bindings {
		if err := loader.BindFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	loaded, err := loader.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg = loaded

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	events.SetDefault(logger)

	ctx := events.WithLogger(cmd.Context(), logger)
	ctx = events.WithCommand(ctx, cmd.Name())
	ctx = events.WithTomb(ctx, cfg.TombFilename)
	cmd.SetContext(ctx)

	events.FromContext(ctx).WithField("config", cfg.ConfigFilename).Debug("Configuration loaded")
	return nil
}
