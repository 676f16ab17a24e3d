package totp_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/tomb/internal/services/totp"
)

// RFC 6238 test seed: ASCII "12345678901234567890" in base32.
const rfcSeed = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestTOTPService_GenerateCode(t *testing.T) {
	service := totp.NewService()

	tests := []struct {
		name    string
		secret  string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid secret",
			secret:  "JBSWY3DPEHPK3PXP", // "Hello!\xde\xad\xbe\xef" in base32
			wantErr: false,
		},
		{
			name:    "rfc seed",
			secret:  rfcSeed,
			wantErr: false,
		},
		{
			name:    "seed with spaces",
			secret:  "JBSW Y3DP EHPK 3PXP",
			wantErr: false,
		},
		{
			name:    "empty secret",
			secret:  "",
			wantErr: true,
			errMsg:  "secret cannot be empty",
		},
		{
			name:    "invalid base32 secret",
			secret:  "invalid-secret-123!@#",
			wantErr: true,
			errMsg:  "failed to generate code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := service.GenerateCode(tt.secret)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.Empty(t, code)
			} else {
				assert.NoError(t, err)
				assert.Regexp(t, `^\d{6}$`, code)
			}
		})
	}
}

func TestTOTPService_KnownVectors(t *testing.T) {
	tests := []struct {
		name    string
		service func() (*totp.DefaultService, error)
		secret  string
		at      int64
		want    string
	}{
		{
			name:    "sha1 six digits",
			service: func() (*totp.DefaultService, error) { return totp.NewService(), nil },
			secret:  rfcSeed,
			at:      59,
			want:    "287082",
		},
		{
			name:    "sha1 eight digits",
			service: func() (*totp.DefaultService, error) { return totp.NewServiceWithConfig(30, 8, "SHA1") },
			secret:  rfcSeed,
			at:      1111111109,
			want:    "07081804",
		},
		{
			name:    "sha256 eight digits",
			service: func() (*totp.DefaultService, error) { return totp.NewServiceWithConfig(30, 8, "sha256") },
			secret:  "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQGEZA",
			at:      59,
			want:    "46119246",
		},
		{
			name:    "sixty second period",
			service: func() (*totp.DefaultService, error) { return totp.NewServiceWithConfig(60, 6, "SHA1") },
			secret:  "JBSWY3DPEHPK3PXP",
			at:      1234567890,
			want:    "997474",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, err := tt.service()
			require.NoError(t, err)

			code, err := service.GenerateCodeAtTime(tt.secret, time.Unix(tt.at, 0).UTC())
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestTOTPService_ValidateCode(t *testing.T) {
	service := totp.NewService()
	secret := "JBSWY3DPEHPK3PXP"

	t.Run("validate current code", func(t *testing.T) {
		code, err := service.GenerateCode(secret)
		require.NoError(t, err)

		assert.True(t, service.ValidateCode(secret, code))
	})

	t.Run("empty inputs", func(t *testing.T) {
		assert.False(t, service.ValidateCode("", "123456"))
		assert.False(t, service.ValidateCode(secret, ""))
		assert.False(t, service.ValidateCode("", ""))
	})

	t.Run("wrong length code", func(t *testing.T) {
		assert.False(t, service.ValidateCode(secret, "12345"))
		assert.False(t, service.ValidateCode(secret, "1234567"))
	})
}

func TestTOTPService_GenerateCodeAtTime(t *testing.T) {
	service := totp.NewService()
	secret := "JBSWY3DPEHPK3PXP"

	t.Run("different windows", func(t *testing.T) {
		code1, err := service.GenerateCodeAtTime(secret, time.Unix(1234567890, 0))
		require.NoError(t, err)
		assert.Equal(t, "742275", code1)

		code2, err := service.GenerateCodeAtTime(secret, time.Unix(1234567920, 0))
		require.NoError(t, err)
		assert.NotEqual(t, code1, code2)
	})

	t.Run("same time window produces same code", func(t *testing.T) {
		code1, err := service.GenerateCodeAtTime(secret, time.Unix(1234567890, 0))
		require.NoError(t, err)

		code2, err := service.GenerateCodeAtTime(secret, time.Unix(1234567900, 0))
		require.NoError(t, err)

		assert.Equal(t, code1, code2)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := service.GenerateCodeAtTime("", time.Now())
		assert.ErrorContains(t, err, "secret cannot be empty")
	})
}

func TestTOTPService_CodeFor(t *testing.T) {
	service := totp.NewService()
	at := time.Unix(1234567890, 0)

	t.Run("bare seed", func(t *testing.T) {
		code, err := service.CodeFor("  JBSWY3DPEHPK3PXP\n", at)
		require.NoError(t, err)
		assert.Equal(t, "742275", code.Value)
		assert.Empty(t, code.Issuer)
		assert.Equal(t, 30*time.Second, code.Remaining)
	})

	t.Run("otpauth uri", func(t *testing.T) {
		uri := "otpauth://totp/Example:alice@example.com?secret=JBSWY3DPEHPK3PXP&issuer=Example&period=60"
		code, err := service.CodeFor(uri, at)
		require.NoError(t, err)
		assert.Equal(t, "997474", code.Value)
		assert.Equal(t, "Example", code.Issuer)
		assert.Equal(t, "alice@example.com", code.Account)
		assert.Equal(t, 30*time.Second, code.Remaining)
	})

	t.Run("otpauth uri with eight digits", func(t *testing.T) {
		uri := "otpauth://totp/RFC?secret=" + rfcSeed + "&digits=8"
		code, err := service.CodeFor(uri, time.Unix(59, 0))
		require.NoError(t, err)
		assert.Equal(t, "94287082", code.Value)
		assert.Equal(t, time.Second, code.Remaining)
	})

	t.Run("hotp uri", func(t *testing.T) {
		_, err := service.CodeFor("otpauth://hotp/x?secret=JBSWY3DPEHPK3PXP&counter=1", at)
		assert.ErrorContains(t, err, "unsupported otpauth type")
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := service.CodeFor("not a seed!", at)
		assert.Error(t, err)
	})
}

func TestTOTPService_GetTimeWindow(t *testing.T) {
	service := totp.NewService()

	current, remaining := service.GetTimeWindow()

	assert.Greater(t, current, int64(0))
	assert.GreaterOrEqual(t, remaining, time.Duration(0))
	assert.LessOrEqual(t, remaining, 30*time.Second)
}

func TestTOTPService_IsValidSecret(t *testing.T) {
	service := totp.NewService()

	tests := []struct {
		name    string
		secret  string
		wantErr bool
		errMsg  string
	}{
		{"valid base32 secret", "JBSWY3DPEHPK3PXP", false, ""},
		{"valid long secret", rfcSeed, false, ""},
		{"empty secret", "", true, "secret cannot be empty"},
		{"invalid characters", "invalid123!@#", true, "invalid secret format"},
		{"lowercase base32", "jbswy3dpehpk3pxp", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.IsValidSecret(tt.secret)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewServiceWithConfig_Invalid(t *testing.T) {
	_, err := totp.NewServiceWithConfig(30, 7, "SHA1")
	assert.Error(t, err)

	_, err = totp.NewServiceWithConfig(0, 6, "SHA1")
	assert.Error(t, err)

	_, err = totp.NewServiceWithConfig(30, 6, "CRC32")
	assert.Error(t, err)
}

func BenchmarkTOTPService_GenerateCode(b *testing.B) {
	service := totp.NewService()
	secret := "JBSWY3DPEHPK3PXP"

	b.ResetTimer()
	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		if _, err := service.GenerateCode(secret); err != nil {
			b.Fatal(err)
		}
	}
}
