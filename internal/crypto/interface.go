package crypto

import "github.com/TheMichaelB/tomb/internal/models"

// Cipher defines the operations a tomb needs from a key.
type Cipher interface {
	// Encrypt returns digest || ciphertext.
	Encrypt(plaintext []byte) ([]byte, error)

	// Decrypt checks the digest prefix and decrypts the rest.
	Decrypt(blob []byte) ([]byte, error)

	// Digest returns the key fingerprint.
	Digest() models.Digest
}

var (
	_ Cipher        = Key{}
	_ models.Sealer = Key{}
	_ models.Opener = Key{}
)
