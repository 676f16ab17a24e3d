package models

import (
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"
	"unicode/utf8"
)

// Sealer encrypts plaintext and identifies itself by digest.
type Sealer interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Digest() Digest
}

// Opener decrypts ciphertext produced by a Sealer with the same digest.
type Opener interface {
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Secret is one named, encrypted value plus metadata.
type Secret struct {
	Digest     Digest            `yaml:"digest"`
	Path       string            `yaml:"path"`
	Value      string            `yaml:"value"` // base64(digest || ciphertext)
	Notes      *string           `yaml:"notes,omitempty"`
	Username   *string           `yaml:"username,omitempty"`
	URL        *string           `yaml:"url,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	CreatedAt  time.Time         `yaml:"created_at"`
	UpdatedAt  time.Time         `yaml:"updated_at"`
}

// KeyID returns the store identifier of a path: the hex MD5 of the path.
// It is a lookup handle only; collisions are not defended against.
func KeyID(path string) string {
	sum := md5.Sum([]byte(path))
	return hex.EncodeToString(sum[:])
}

// NewSecret creates a record holding ciphertext produced by the key with the given digest.
func NewSecret(path string, ciphertext []byte, digest Digest) *Secret {
	now := time.Now().UTC()
	return &Secret{
		Digest:     digest,
		Path:       path,
		Value:      base64.StdEncoding.EncodeToString(ciphertext),
		Attributes: make(map[string]string),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// ID returns the store identifier of the record.
func (s *Secret) ID() string {
	return KeyID(s.Path)
}

// SetNotes replaces the free-form notes.
func (s *Secret) SetNotes(notes *string) {
	s.Notes = notes
}

// SetUsername replaces the username.
func (s *Secret) SetUsername(username *string) {
	s.Username = username
}

// SetURL replaces the url.
func (s *Secret) SetURL(url *string) {
	s.URL = url
}

// SetAttribute sets a single attribute.
func (s *Secret) SetAttribute(name, value string) {
	if s.Attributes == nil {
		s.Attributes = make(map[string]string)
	}
	s.Attributes[name] = value
}

// ValueBytes decodes the stored ciphertext.
func (s *Secret) ValueBytes() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s.Value)
	if err != nil {
		return nil, NewError(ErrDecode, "decode value of", s.Path, err)
	}
	return b, nil
}

// Update re-encrypts plaintext with key and stores it under path.
func (s *Secret) Update(path string, plaintext []byte, key Sealer) error {
	ciphertext, err := key.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("encrypt data for path %s: %w", path, err)
	}
	s.Digest = key.Digest()
	s.Path = path
	s.Value = base64.StdEncoding.EncodeToString(ciphertext)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// GetBytes decrypts the record. path must be the record's own path.
func (s *Secret) GetBytes(path string, key Opener) ([]byte, error) {
	if path != s.Path {
		return nil, NewError(ErrPathMismatch, "get", path, fmt.Errorf("path %s does not match %s", path, s.Path))
	}
	ciphertext, err := s.ValueBytes()
	if err != nil {
		return nil, err
	}
	plaintext, err := key.Decrypt(ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypt value from secret %s: %w", path, err)
	}
	return plaintext, nil
}

// GetString decrypts the record and requires the plaintext to be valid UTF-8.
func (s *Secret) GetString(path string, key Opener) (string, error) {
	plaintext, err := s.GetBytes(path, key)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", NewError(ErrDecode, "convert value of", path, fmt.Errorf("not a valid utf-8 string"))
	}
	return string(plaintext), nil
}

// GetBase64String decrypts the record and returns the plaintext base64 encoded.
func (s *Secret) GetBase64String(path string, key Opener) (string, error) {
	plaintext, err := s.GetBytes(path, key)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(plaintext), nil
}

// Clone returns a deep copy of the record.
func (s *Secret) Clone() *Secret {
	c := *s
	c.Notes = cloneString(s.Notes)
	c.Username = cloneString(s.Username)
	c.URL = cloneString(s.URL)
	if s.Attributes != nil {
		c.Attributes = make(map[string]string, len(s.Attributes))
		for k, v := range s.Attributes {
			c.Attributes[k] = v
		}
	}
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
