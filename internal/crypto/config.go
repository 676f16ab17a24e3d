package crypto

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	// Algo identifies the cipher suite in key files.
	Algo = "aes-256-cbc"

	// Builtin PBKDF2 iteration counts.
	KeyCycles  uint32 = 16000
	SaltCycles uint32 = 16000
	IVCycles   uint32 = 16000

	// KeyMaterialSize is the length of the derived (or generated) buffer that is
	// split into the encryption and MAC halves.
	KeyMaterialSize = 256

	// KeySize is the AES-256 key length taken from the encryption half.
	KeySize = 32

	// IVSize is the CBC initialization vector length.
	IVSize = 16

	// BlockSize is the chunk size the cipher engine streams through.
	BlockSize = 4096
)

// Slicing of the key material. Bytes 127 and 255 are never used; the layout is
// kept so existing key files keep decrypting their tombs.
const (
	encKeyStart = 0
	encKeyEnd   = 127
	macKeyStart = 128
	macKeyEnd   = 255
)

// CyclesConfig holds the PBKDF2 iteration counts for key, salt and iv derivation.
type CyclesConfig struct {
	Key  uint32 `yaml:"key" mapstructure:"key"`
	Salt uint32 `yaml:"salt" mapstructure:"salt"`
	IV   uint32 `yaml:"iv" mapstructure:"iv"`
}

// CyclesFromSlice builds a CyclesConfig from [key, salt, iv].
func CyclesFromSlice(v [3]uint32) CyclesConfig {
	return CyclesConfig{Key: v[0], Salt: v[1], IV: v[2]}
}

// Slice returns the cycles as [key, salt, iv].
func (c CyclesConfig) Slice() []uint32 {
	return []uint32{c.Key, c.Salt, c.IV}
}

// Config is the key derivation configuration stored alongside a tomb.
type Config struct {
	Cycles         CyclesConfig `yaml:"cycles"`
	DefaultKeyPath *string      `yaml:"default_key_path"`
}

// Builtin returns the builtin derivation config.
func Builtin(defaultKeyPath *string) Config {
	return Config{
		Cycles: CyclesConfig{
			Key:  KeyCycles,
			Salt: SaltCycles,
			IV:   IVCycles,
		},
		DefaultKeyPath: defaultKeyPath,
	}
}

// FromSlice returns a config with the given [key, salt, iv] cycles and no default key path.
func FromSlice(v [3]uint32) Config {
	return Config{Cycles: CyclesFromSlice(v)}
}

// Validate checks that every iteration count is positive.
func (c Config) Validate() error {
	if c.Cycles.Key == 0 || c.Cycles.Salt == 0 || c.Cycles.IV == 0 {
		return errors.New("cycles: key, salt and iv must be positive")
	}
	return nil
}

// String implements fmt.Stringer.
func (c Config) String() string {
	return fmt.Sprintf("cycles(key=%d salt=%d iv=%d)", c.Cycles.Key, c.Cycles.Salt, c.Cycles.IV)
}

// DeriveIV derives the initialization vector from the password alone.
func (c Config) DeriveIV(password string) []byte {
	return pbkdf2.Key([]byte(password), []byte(password), int(c.Cycles.IV), IVSize, sha256.New)
}

// DeriveSalt derives a salt from the password alone. No random salt is stored,
// so the same password and config always produce the same key.
func (c Config) DeriveSalt(password string) []byte {
	return pbkdf2.Key([]byte(password), []byte(password), int(c.Cycles.Salt), KeyMaterialSize, sha256.New)
}

// DeriveKey derives the key material from the password and salt.
func (c Config) DeriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, int(c.Cycles.Key), KeyMaterialSize, sha256.New)
}
