// Package totp generates one-time codes from TOTP seeds kept in a tomb.
package totp

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Service provides TOTP (Time-based One-Time Password) functionality.
type Service interface {
	// GenerateCode generates a TOTP code from a secret.
	GenerateCode(secret string) (string, error)

	// ValidateCode validates a TOTP code against a secret.
	ValidateCode(secret, code string) bool

	// GenerateCodeAtTime generates a TOTP code for a specific time.
	GenerateCodeAtTime(secret string, t time.Time) (string, error)

	// CodeFor generates the code for a stored value: a bare base32 seed or an
	// otpauth:// URI.
	CodeFor(stored string, t time.Time) (Code, error)
}

// Code is a generated one-time code.
type Code struct {
	Value     string
	Issuer    string
	Account   string
	Remaining time.Duration
}

// DefaultService implements TOTP operations.
type DefaultService struct {
	period    uint          // Time step in seconds (default: 30)
	digits    otp.Digits    // Number of digits (default: 6)
	algorithm otp.Algorithm // Hash algorithm (default: SHA1)
}

var _ Service = (*DefaultService)(nil)

// NewService creates a new TOTP service with default settings.
func NewService() *DefaultService {
	return &DefaultService{
		period:    30,
		digits:    otp.DigitsSix,
		algorithm: otp.AlgorithmSHA1,
	}
}

// NewServiceWithConfig creates a TOTP service with custom configuration.
func NewServiceWithConfig(period, digits uint, algorithm string) (*DefaultService, error) {
	alg, err := parseAlgorithm(algorithm)
	if err != nil {
		return nil, err
	}
	if period == 0 {
		return nil, fmt.Errorf("totp: period must be positive")
	}
	if digits != 6 && digits != 8 {
		return nil, fmt.Errorf("totp: digits must be 6 or 8, got %d", digits)
	}
	return &DefaultService{
		period:    period,
		digits:    otp.Digits(digits),
		algorithm: alg,
	}, nil
}

func (s *DefaultService) opts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    s.period,
		Skew:      1,
		Digits:    s.digits,
		Algorithm: s.algorithm,
	}
}

// GenerateCode generates a TOTP code from a secret string.
func (s *DefaultService) GenerateCode(secret string) (string, error) {
	return s.GenerateCodeAtTime(secret, time.Now())
}

// ValidateCode validates a TOTP code against a secret, allowing one period
// of clock skew either way.
func (s *DefaultService) ValidateCode(secret, code string) bool {
	if secret == "" || code == "" {
		return false
	}

	valid, err := totp.ValidateCustom(code, normalizeSeed(secret), time.Now().UTC(), s.opts())
	return err == nil && valid
}

// GenerateCodeAtTime generates a TOTP code for a specific time.
func (s *DefaultService) GenerateCodeAtTime(secret string, t time.Time) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("totp: secret cannot be empty")
	}

	code, err := totp.GenerateCodeCustom(normalizeSeed(secret), t, s.opts())
	if err != nil {
		return "", fmt.Errorf("totp: failed to generate code: %w", err)
	}

	return code, nil
}

// CodeFor generates a code for a stored seed. otpauth:// URIs carry their own
// period, digits and algorithm; bare seeds use the service settings.
func (s *DefaultService) CodeFor(stored string, t time.Time) (Code, error) {
	stored = strings.TrimSpace(stored)
	if !strings.HasPrefix(stored, "otpauth://") {
		value, err := s.GenerateCodeAtTime(stored, t)
		if err != nil {
			return Code{}, err
		}
		return Code{Value: value, Remaining: remaining(t, s.period)}, nil
	}

	key, err := otp.NewKeyFromURL(stored)
	if err != nil {
		return Code{}, fmt.Errorf("totp: parse otpauth uri: %w", err)
	}
	if key.Type() != "totp" {
		return Code{}, fmt.Errorf("totp: unsupported otpauth type %q", key.Type())
	}

	svc := &DefaultService{
		period:    uint(key.Period()),
		digits:    key.Digits(),
		algorithm: key.Algorithm(),
	}
	value, err := svc.GenerateCodeAtTime(key.Secret(), t)
	if err != nil {
		return Code{}, err
	}

	return Code{
		Value:     value,
		Issuer:    key.Issuer(),
		Account:   key.AccountName(),
		Remaining: remaining(t, svc.period),
	}, nil
}

// GetTimeWindow returns the current TOTP time window information.
func (s *DefaultService) GetTimeWindow() (current int64, remaining time.Duration) {
	now := time.Now()
	current = now.Unix() / int64(s.period)

	// Calculate time remaining in current window
	nextWindow := (current + 1) * int64(s.period)
	remaining = time.Unix(nextWindow, 0).Sub(now)

	return current, remaining
}

// IsValidSecret checks if a secret string is valid for TOTP.
func (s *DefaultService) IsValidSecret(secret string) error {
	if secret == "" {
		return fmt.Errorf("totp: secret cannot be empty")
	}

	// Try to generate a code to validate the secret
	_, err := totp.GenerateCodeCustom(normalizeSeed(secret), time.Now(), s.opts())
	if err != nil {
		return fmt.Errorf("totp: invalid secret format: %w", err)
	}

	return nil
}

// normalizeSeed drops the spaces many sites insert for readability.
func normalizeSeed(secret string) string {
	return strings.ReplaceAll(strings.TrimSpace(secret), " ", "")
}

func remaining(t time.Time, period uint) time.Duration {
	p := int64(period)
	next := (t.Unix()/p + 1) * p
	return time.Unix(next, 0).Sub(t)
}

func parseAlgorithm(name string) (otp.Algorithm, error) {
	switch strings.ToUpper(name) {
	case "", "SHA1":
		return otp.AlgorithmSHA1, nil
	case "SHA256":
		return otp.AlgorithmSHA256, nil
	case "SHA512":
		return otp.AlgorithmSHA512, nil
	case "MD5":
		return otp.AlgorithmMD5, nil
	default:
		return otp.AlgorithmSHA1, fmt.Errorf("totp: unknown algorithm %q", name)
	}
}
