package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/tomb/internal/services/totp"
)

var (
	totpDigits    uint
	totpPeriod    uint
	totpAlgorithm string

	now = time.Now
)

var totpCmd = &cobra.Command{
	Use:   "totp <path>",
	Short: "Print the current one-time code for a stored TOTP seed",
	Long: `Decrypt the secret at path and print the current TOTP code.

The secret is either a base32 seed, generated with --digits, --period and
--algorithm, or an otpauth://totp/ URI, which carries its own parameters.`,
	Example: `  tomb save otp/github JBSWY3DPEHPK3PXP
  tomb totp otp/github`,
	Args: cobra.ExactArgs(1),
	RunE: runTOTP,
}

func init() {
	rootCmd.AddCommand(totpCmd)
	totpCmd.Flags().UintVar(&totpDigits, "digits", 6, "Code length (6 or 8)")
	totpCmd.Flags().UintVar(&totpPeriod, "period", 30, "Time step in seconds")
	totpCmd.Flags().StringVar(&totpAlgorithm, "algorithm", "SHA1", "HMAC algorithm: SHA1, SHA256 or SHA512")
}

func runTOTP(cmd *cobra.Command, args []string) error {
	svc, err := totp.NewServiceWithConfig(totpPeriod, totpDigits, totpAlgorithm)
	if err != nil {
		return err
	}

	key, store, err := loadKeyAndStore(cmd.Context())
	if err != nil {
		return err
	}
	seed, err := store.GetString(args[0], key)
	if err != nil {
		return err
	}

	code, err := svc.CodeFor(seed, now())
	if err != nil {
		return fmt.Errorf("totp for %s: %w", args[0], err)
	}

	if jsonOutput {
		return printJSON(map[string]interface{}{
			"code":      code.Value,
			"issuer":    code.Issuer,
			"account":   code.Account,
			"remaining": int(code.Remaining / time.Second),
		})
	}

	fmt.Fprintln(stdout, code.Value)
	printInfo("valid for %ds", int(code.Remaining/time.Second))
	return nil
}
