package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/TheMichaelB/tomb/internal/models"
)

// Key holds the encryption key, MAC key and IV, each base64 encoded.
// A Key is never mutated after construction and is safe to copy.
type Key struct {
	Algo   string   `yaml:"algo"`
	EncKey string   `yaml:"key"`
	MAC    string   `yaml:"mac"`
	IV     string   `yaml:"iv"`
	Magic  []uint32 `yaml:"magic,omitempty"`
}

// FromPassword derives a Key from a password. The result is deterministic.
func FromPassword(password string, cfg Config) Key {
	iv := cfg.DeriveIV(password)
	salt := cfg.DeriveSalt(password)
	material := cfg.DeriveKey(password, salt)

	key := newKey(material, iv)
	key.Magic = cfg.Cycles.Slice()
	return key
}

// Generate creates a Key from random material. No password is involved.
func Generate() (Key, error) {
	material := make([]byte, KeyMaterialSize)
	if _, err := io.ReadFull(rand.Reader, material); err != nil {
		return Key{}, fmt.Errorf("generate key material: %w", err)
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return Key{}, fmt.Errorf("generate iv: %w", err)
	}
	return newKey(material, iv), nil
}

func newKey(material, iv []byte) Key {
	return Key{
		Algo:   Algo,
		EncKey: base64.StdEncoding.EncodeToString(material[encKeyStart:encKeyEnd]),
		MAC:    base64.StdEncoding.EncodeToString(material[macKeyStart:macKeyEnd]),
		IV:     base64.StdEncoding.EncodeToString(iv),
	}
}

// Validate checks that the key fields decode and have usable lengths.
func (k Key) Validate() error {
	if k.Algo != "" && k.Algo != Algo {
		return models.NewError(models.ErrDecode, "validate key", "", fmt.Errorf("unsupported algorithm %q", k.Algo))
	}
	enc, err := base64.StdEncoding.DecodeString(k.EncKey)
	if err != nil {
		return models.NewError(models.ErrDecode, "parse base64 key", "", err)
	}
	if len(enc) < KeySize {
		return models.NewError(models.ErrDecode, "validate key", "", fmt.Errorf("key is %d bytes, need at least %d", len(enc), KeySize))
	}
	mac, err := base64.StdEncoding.DecodeString(k.MAC)
	if err != nil {
		return models.NewError(models.ErrDecode, "parse base64 mac", "", err)
	}
	if len(mac) == 0 {
		return models.NewError(models.ErrDecode, "validate key", "", errors.New("mac is empty"))
	}
	iv, err := base64.StdEncoding.DecodeString(k.IV)
	if err != nil {
		return models.NewError(models.ErrDecode, "parse base64 iv", "", err)
	}
	if len(iv) != IVSize {
		return models.NewError(models.ErrDecode, "validate key", "", fmt.Errorf("iv is %d bytes, want %d", len(iv), IVSize))
	}
	return nil
}

// Digest returns HMAC-SHA256(mac, iv), the key fingerprint embedded in every ciphertext.
func (k Key) Digest() models.Digest {
	h := hmac.New(sha256.New, k.macBytes())
	h.Write(k.ivBytes())

	var d models.Digest
	copy(d[:], h.Sum(nil))
	return d
}

// CheckDigest reports whether candidate equals the key digest.
func (k Key) CheckDigest(candidate []byte) bool {
	d := k.Digest()
	return models.BytesMatch(candidate, d[:])
}

// OwnsCiphertext reports whether blob starts with this key's digest.
func (k Key) OwnsCiphertext(blob []byte) bool {
	if len(blob) < models.DigestSize {
		return false
	}
	return k.CheckDigest(blob[:models.DigestSize])
}

// OwnsFile reports whether the file at path starts with this key's digest, i.e.
// whether decrypting it with this key is expected to work.
func (k Key) OwnsFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, models.NewError(models.ErrIO, "open file", path, err)
	}
	defer f.Close()

	buf := make([]byte, models.DigestSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, models.NewError(models.ErrIO, "read digest from file", path, err)
	}
	return k.CheckDigest(buf), nil
}

// Equal reports whether both keys have identical fields.
func (k Key) Equal(other Key) bool {
	if k.Algo != other.Algo || k.EncKey != other.EncKey || k.MAC != other.MAC || k.IV != other.IV {
		return false
	}
	if len(k.Magic) != len(other.Magic) {
		return false
	}
	for i := range k.Magic {
		if k.Magic[i] != other.Magic[i] {
			return false
		}
	}
	return true
}

// Cycles returns the derivation cycles recorded in the key, if any.
func (k Key) Cycles() (CyclesConfig, bool) {
	if len(k.Magic) != 3 {
		return CyclesConfig{}, false
	}
	return CyclesFromSlice([3]uint32{k.Magic[0], k.Magic[1], k.Magic[2]}), true
}

func (k Key) encKeyBytes() []byte {
	b := mustDecode("key", k.EncKey)
	if len(b) < KeySize {
		panic(fmt.Sprintf("crypto: corrupted key: key field is %d bytes", len(b)))
	}
	return b[:KeySize]
}

func (k Key) macBytes() []byte {
	return mustDecode("mac", k.MAC)
}

func (k Key) ivBytes() []byte {
	b := mustDecode("iv", k.IV)
	if len(b) != IVSize {
		panic(fmt.Sprintf("crypto: corrupted key: iv field is %d bytes", len(b)))
	}
	return b
}

// mustDecode decodes a field of the key itself. A failure means the Key was
// corrupted after construction.
func mustDecode(field, value string) []byte {
	b, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		panic(fmt.Sprintf("crypto: corrupted key: parse base64 %s: %v", field, err))
	}
	return b
}
