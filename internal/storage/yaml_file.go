package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/TheMichaelB/tomb/internal/models"
)

// FileMode is the permission used for key, tomb and config files.
const FileMode os.FileMode = 0600

// ExpandPath replaces a leading "~" with the current user's home directory.
func ExpandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Exists reports whether path (after tilde expansion) exists.
func Exists(path string) bool {
	_, err := os.Stat(ExpandPath(path))
	return err == nil
}

// Marshal encodes v as YAML.
func Marshal(v any) ([]byte, error) {
	data, err := yaml.Marshal(v)
	if err != nil {
		return nil, models.NewError(models.ErrDecode, "encode yaml", "", err)
	}
	return data, nil
}

// Unmarshal decodes YAML data into v.
func Unmarshal(data []byte, v any) error {
	if err := yaml.Unmarshal(data, v); err != nil {
		return models.NewError(models.ErrDecode, "decode yaml", "", err)
	}
	return nil
}

// Import reads the YAML file at path into v.
func Import(path string, v any) error {
	path = ExpandPath(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return models.NewError(models.ErrIO, "read file", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return models.NewError(models.ErrDecode, "parse yaml file", path, err)
	}
	return nil
}

// Export writes v as YAML to path and returns the expanded path written.
func Export(path string, v any) (string, error) {
	path = ExpandPath(path)
	data, err := Marshal(v)
	if err != nil {
		return "", err
	}
	if err := WriteAtomic(path, data, FileMode); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAtomic writes data next to path and renames it into place.
func WriteAtomic(path string, data []byte, mode os.FileMode) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return models.NewError(models.ErrIO, "create parent directory of", path, err)
		}
	}

	tempPath := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	file, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, mode)
	if err != nil {
		return models.NewError(models.ErrIO, "create temp file for", path, err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		_ = os.Remove(tempPath)
		return models.NewError(models.ErrIO, "write temp file for", path, err)
	}
	// Sync to disk
	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tempPath)
		return models.NewError(models.ErrIO, "sync temp file for", path, err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tempPath)
		return models.NewError(models.ErrIO, "close temp file for", path, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		_ = os.Remove(tempPath)
		return models.NewError(models.ErrIO, "rename temp file to", path, err)
	}
	return nil
}
