package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/tomb/internal/creds"
	"github.com/TheMichaelB/tomb/internal/crypto"
	"github.com/TheMichaelB/tomb/internal/events"
	"github.com/TheMichaelB/tomb/internal/storage"
	"github.com/TheMichaelB/tomb/internal/tomb"
)

var (
	initKeyCycles  uint32
	initSaltCycles uint32
	initIVCycles   uint32
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the key file and an empty tomb",
	Long: `Create the key file and an empty tomb file.

When the key file does not exist it is derived from the password (see
--password, --ask-password and --password-secret) with the given PBKDF2
cycles, or generated at random when no password source is configured. An
existing key file is reused. An existing tomb file is left untouched.`,
	Example: `  tomb init
  tomb init -p --key 200000 --salt 200000 --iv 200000
  tomb init -k ./work.key -t ./work.yaml`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().Uint32VarP(&initKeyCycles, "key", "K", crypto.KeyCycles,
		"PBKDF2 cycles for the key material")
	initCmd.Flags().Uint32VarP(&initSaltCycles, "salt", "S", crypto.SaltCycles,
		"PBKDF2 cycles for the salt")
	initCmd.Flags().Uint32VarP(&initIVCycles, "iv", "I", crypto.IVCycles,
		"PBKDF2 cycles for the iv")
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := events.FromContext(ctx)

	cfg.Cycles = crypto.CyclesConfig{Key: initKeyCycles, Salt: initSaltCycles, IV: initIVCycles}
	cfg.Version = tomb.Version
	cryptoCfg := cfg.CryptoConfig()
	if err := cryptoCfg.Validate(); err != nil {
		return err
	}

	configPath, err := cfg.Save()
	if err != nil {
		return err
	}
	logger.WithField("config", configPath).Debug("Config saved")

	keyPath := storage.ExpandPath(cfg.KeyFilename)
	var key crypto.Key
	if storage.Exists(keyPath) {
		key, err = crypto.ImportKey(keyPath)
		if err != nil {
			return fmt.Errorf("load key file: %w", err)
		}
		if cycles, ok := key.Cycles(); ok {
			cryptoCfg.Cycles = cycles
		}
		printInfo("using existing key file %s", keyPath)
	} else {
		key, err = newKey(cmd, cryptoCfg)
		if err != nil {
			return err
		}
		if _, err := key.Export(keyPath); err != nil {
			return fmt.Errorf("write key file: %w", err)
		}
		printSuccess("wrote key file %s", keyPath)
	}

	tombPath := storage.ExpandPath(cfg.TombFilename)
	if storage.Exists(tombPath) {
		printWarning("file already exists: %s", tombPath)
		return nil
	}

	store := tomb.New(tombPath, key, cryptoCfg)
	store.SetLogger(logger.WithField("component", "tomb"))
	if _, err := store.Save(); err != nil {
		return err
	}

	printSuccess("initialized tomb file %s", tombPath)
	return nil
}

// newKey derives a key from the configured password, or generates one when
// there is no password source.
func newKey(cmd *cobra.Command, cryptoCfg crypto.Config) (crypto.Key, error) {
	password, err := passwordResolver().ResolveNew(cmd.Context())
	if errors.Is(err, creds.ErrNoPassword) {
		return crypto.Generate()
	}
	if err != nil {
		return crypto.Key{}, err
	}
	if password == "" {
		return crypto.Key{}, errors.New("password must not be empty")
	}
	return crypto.FromPassword(password, cryptoCfg), nil
}
