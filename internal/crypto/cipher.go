package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/TheMichaelB/tomb/internal/models"
)

// Encrypt encrypts plaintext with AES-256-CBC and PKCS#7 padding.
// Returns: digest || ciphertext
func (k Key) Encrypt(plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(k.encKeyBytes())
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	padded := pkcs7Pad(plaintext, aes.BlockSize)

	// The digest goes first so a reader can tell whether it holds the right
	// key before touching the cipher.
	digest := k.Digest()
	result := make([]byte, models.DigestSize+len(padded))
	copy(result[:models.DigestSize], digest[:])

	mode := cipher.NewCBCEncrypter(block, k.ivBytes())
	cryptChunks(mode, result[models.DigestSize:], padded)

	return result, nil
}

// Decrypt verifies the leading digest and decrypts the remainder.
func (k Key) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < models.DigestSize {
		return nil, models.NewError(models.ErrDecode, "decrypt", "",
			fmt.Errorf("ciphertext is %d bytes, shorter than the %d byte digest", len(blob), models.DigestSize))
	}
	if !k.CheckDigest(blob[:models.DigestSize]) {
		return nil, models.NewError(models.ErrKeyMismatch, "decrypt", "", nil)
	}

	ciphertext := blob[models.DigestSize:]
	if len(ciphertext) == 0 || len(ciphertext)%aes.BlockSize != 0 {
		return nil, models.NewError(models.ErrDecrypt, "decrypt", "",
			fmt.Errorf("ciphertext length %d is not a positive multiple of %d", len(ciphertext), aes.BlockSize))
	}

	block, err := aes.NewCipher(k.encKeyBytes())
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	padded := make([]byte, len(ciphertext))
	mode := cipher.NewCBCDecrypter(block, k.ivBytes())
	cryptChunks(mode, padded, ciphertext)

	plaintext, err := pkcs7Unpad(padded, aes.BlockSize)
	if err != nil {
		return nil, models.NewError(models.ErrDecrypt, "decrypt", "", err)
	}
	return plaintext, nil
}

// cryptChunks runs mode over src in BlockSize chunks. The block mode carries
// the chaining state from one chunk to the next.
func cryptChunks(mode cipher.BlockMode, dst, src []byte) {
	for off := 0; off < len(src); off += BlockSize {
		end := off + BlockSize
		if end > len(src) {
			end = len(src)
		}
		mode.CryptBlocks(dst[off:end], src[off:end])
	}
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data), len(data)+n)
	copy(padded, data)
	return append(padded, bytes.Repeat([]byte{byte(n)}, n)...)
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-n], nil
}
