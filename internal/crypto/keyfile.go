package crypto

import (
	"github.com/TheMichaelB/tomb/internal/storage"
)

// ImportKey loads and validates a key file.
func ImportKey(path string) (Key, error) {
	var key Key
	if err := storage.Import(path, &key); err != nil {
		return Key{}, err
	}
	if err := key.Validate(); err != nil {
		return Key{}, err
	}
	return key, nil
}

// Export writes the key file and returns the path written.
func (k Key) Export(path string) (string, error) {
	return storage.Export(path, k)
}

// ParseKey decodes and validates a key from YAML bytes.
func ParseKey(data []byte) (Key, error) {
	var key Key
	if err := storage.Unmarshal(data, &key); err != nil {
		return Key{}, err
	}
	if err := key.Validate(); err != nil {
		return Key{}, err
	}
	return key, nil
}
