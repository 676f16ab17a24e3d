// Package tomb implements the persisted, path addressed collection of
// encrypted secrets.
package tomb

import (
	"fmt"
	"os"
	"sort"

	"github.com/TheMichaelB/tomb/internal/config"
	"github.com/TheMichaelB/tomb/internal/crypto"
	"github.com/TheMichaelB/tomb/internal/events"
	"github.com/TheMichaelB/tomb/internal/models"
	"github.com/TheMichaelB/tomb/internal/storage"
)

// Version is stamped into every tomb file this build creates.
var Version = "0.3.0"

// Store is a tomb: secrets keyed by the MD5 id of their path. Older files may
// key a secret by its literal path; those are still listed and returned by
// GetByID. Concurrent writers are not coordinated, the last Save wins.
type Store struct {
	Digest   models.Digest             `yaml:"digest"`
	Config   crypto.Config             `yaml:"config"`
	Filepath *string                   `yaml:"filepath"`
	Data     map[string]*models.Secret `yaml:"data"`
	Version  *string                   `yaml:"version"`

	logger *events.Logger
}

// Metadata holds the optional descriptive fields of a secret.
type Metadata struct {
	Notes      *string
	Username   *string
	URL        *string
	Attributes map[string]string
}

// DefaultPath returns TOMB_FILE or ~/.tomb.yaml, tilde expanded.
func DefaultPath() string {
	if path := os.Getenv(config.EnvFile); path != "" {
		return storage.ExpandPath(path)
	}
	return storage.ExpandPath(config.DefaultTombPath)
}

// New creates an empty tomb bound to filepath and owned by key.
func New(filepath string, key crypto.Key, cfg crypto.Config) *Store {
	version := Version
	return &Store{
		Digest:   key.Digest(),
		Config:   cfg,
		Filepath: &filepath,
		Data:     make(map[string]*models.Secret),
		Version:  &version,
		logger:   events.Default().WithField("component", "tomb"),
	}
}

// Import reads a tomb file. The filepath recorded inside the file is kept.
func Import(path string) (*Store, error) {
	s := &Store{}
	if err := storage.Import(path, s); err != nil {
		return nil, fmt.Errorf("import tomb: %w", err)
	}
	if s.Data == nil {
		s.Data = make(map[string]*models.Secret)
	}
	for id, secret := range s.Data {
		if secret == nil {
			return nil, fmt.Errorf("import tomb: %w",
				models.NewError(models.ErrDecode, "parse tomb", path, fmt.Errorf("record %q is empty", id)))
		}
	}
	s.logger = events.Default().WithField("component", "tomb")
	return s, nil
}

// Open reads a tomb file and binds the result to the path it was read from.
func Open(path string) (*Store, error) {
	s, err := Import(path)
	if err != nil {
		return nil, err
	}
	s.SetFilepath(storage.ExpandPath(path))
	return s, nil
}

// SetLogger replaces the logger used for store operations.
func (s *Store) SetLogger(logger *events.Logger) {
	s.logger = logger.WithField("component", "tomb")
}

func (s *Store) log() *events.Logger {
	if s.logger == nil {
		return events.Default()
	}
	return s.logger
}

// SetFilepath binds the store to a file.
func (s *Store) SetFilepath(path string) {
	s.Filepath = &path
}

// WithFilepath returns a copy of the store bound to path.
func (s *Store) WithFilepath(path string) *Store {
	c := s.Clone()
	c.SetFilepath(path)
	return c
}

// Clone returns a deep copy of the store.
func (s *Store) Clone() *Store {
	c := *s
	if s.Filepath != nil {
		path := *s.Filepath
		c.Filepath = &path
	}
	if s.Version != nil {
		version := *s.Version
		c.Version = &version
	}
	if s.Config.DefaultKeyPath != nil {
		keyPath := *s.Config.DefaultKeyPath
		c.Config.DefaultKeyPath = &keyPath
	}
	c.Data = make(map[string]*models.Secret, len(s.Data))
	for id, secret := range s.Data {
		c.Data[id] = secret.Clone()
	}
	return &c
}

// Len returns the number of stored secrets.
func (s *Store) Len() int {
	return len(s.Data)
}

// Paths returns the path of every stored secret, sorted.
func (s *Store) Paths() []string {
	paths := make([]string, 0, len(s.Data))
	for _, secret := range s.Data {
		paths = append(paths, secret.Path)
	}
	sort.Strings(paths)
	return paths
}

// DeriveKey derives a key from password with the cycles this tomb was created with.
func (s *Store) DeriveKey(password string) crypto.Key {
	return crypto.FromPassword(password, s.Config)
}

// OwnedBy reports whether key is the key the tomb was created with.
func (s *Store) OwnedBy(key crypto.Key) bool {
	digest := key.Digest()
	return models.BytesMatch(s.Digest[:], digest[:])
}

// AddSecret encrypts a string under path, replacing any existing secret. A
// replaced secret keeps its creation time and gets a new update time.
func (s *Store) AddSecret(path, plaintext string, key models.Sealer) error {
	return s.AddSecretBytes(path, []byte(plaintext), key)
}

// AddSecretBytes encrypts bytes under path, replacing any existing secret.
func (s *Store) AddSecretBytes(path string, plaintext []byte, key models.Sealer) error {
	return s.AddSecretWithMeta(path, plaintext, key, Metadata{})
}

// AddSecretWithMeta encrypts plaintext under path together with its metadata,
// replacing any existing secret. A replaced secret keeps its creation time.
func (s *Store) AddSecretWithMeta(path string, plaintext []byte, key models.Sealer, meta Metadata) error {
	ciphertext, err := key.Encrypt(plaintext)
	if err != nil {
		return fmt.Errorf("cannot encrypt data for path %q with the provided key: %w", path, err)
	}

	secret := models.NewSecret(path, ciphertext, key.Digest())
	secret.SetNotes(meta.Notes)
	secret.SetUsername(meta.Username)
	secret.SetURL(meta.URL)
	for name, value := range meta.Attributes {
		secret.SetAttribute(name, value)
	}

	id := secret.ID()
	if existing, ok := s.Data[id]; ok {
		secret.CreatedAt = existing.CreatedAt
	}
	if s.Data == nil {
		s.Data = make(map[string]*models.Secret)
	}
	s.Data[id] = secret

	s.log().WithFields(map[string]interface{}{
		"path": path,
		"id":   id,
	}).Debug("Secret stored")

	return nil
}

// DeleteSecret removes the secret stored under path.
func (s *Store) DeleteSecret(path string) error {
	id := models.KeyID(path)
	if _, ok := s.Data[id]; !ok {
		return models.NewError(models.ErrNotFound, "delete secret", path, nil)
	}
	delete(s.Data, id)

	s.log().WithField("path", path).Debug("Secret deleted")
	return nil
}

// Get returns a copy of the secret stored under path.
func (s *Store) Get(path string) (*models.Secret, error) {
	secret, ok := s.Data[models.KeyID(path)]
	if !ok {
		return nil, models.NewError(models.ErrNotFound, "get secret", path, nil)
	}
	return secret.Clone(), nil
}

// GetByID returns a copy of the secret stored under the map key id.
func (s *Store) GetByID(id string) (*models.Secret, error) {
	secret, ok := s.Data[id]
	if !ok {
		return nil, models.NewError(models.ErrNotFound, "get secret by id", id, nil)
	}
	return secret.Clone(), nil
}

// GetBytes decrypts the secret stored under path.
func (s *Store) GetBytes(path string, key models.Opener) ([]byte, error) {
	secret, err := s.Get(path)
	if err != nil {
		return nil, err
	}
	return secret.GetBytes(path, key)
}

// GetString decrypts the secret stored under path as UTF-8 text.
func (s *Store) GetString(path string, key models.Opener) (string, error) {
	secret, err := s.Get(path)
	if err != nil {
		return "", err
	}
	return secret.GetString(path, key)
}

// GetBase64String decrypts the secret stored under path and base64 encodes it.
func (s *Store) GetBase64String(path string, key models.Opener) (string, error) {
	secret, err := s.Get(path)
	if err != nil {
		return "", err
	}
	return secret.GetBase64String(path, key)
}

// List returns copies of the secrets whose path matches the glob pattern, in
// map key order. A secret is only listed when its map key is the id of its
// path or the path itself.
func (s *Store) List(pattern string) ([]*models.Secret, error) {
	re, err := CompileGlob(pattern)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(s.Data))
	for id := range s.Data {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var result []*models.Secret
	for _, id := range ids {
		secret := s.Data[id]
		if !re.MatchString(secret.Path) {
			continue
		}
		if id == secret.ID() || id == secret.Path {
			result = append(result, secret.Clone())
		}
	}
	return result, nil
}

// Save writes the tomb to its filepath, reads it back and adopts the data
// that was read. Returns the path written.
func (s *Store) Save() (string, error) {
	if s.Filepath == nil {
		return "", models.ErrNoFilepath
	}

	path, err := storage.Export(*s.Filepath, s)
	if err != nil {
		return "", fmt.Errorf("save tomb to %s: %w", *s.Filepath, err)
	}

	fresh, err := Import(path)
	if err != nil {
		return "", fmt.Errorf("failed to save tomb to path %s: %w", path, err)
	}
	s.Data = fresh.Data

	s.log().WithFields(map[string]interface{}{
		"path":    path,
		"secrets": len(s.Data),
	}).Debug("Tomb saved")

	return path, nil
}

// Reload replaces the in-memory data with what is on disk. Without a
// filepath the default tomb path is used.
func (s *Store) Reload() error {
	path := DefaultPath()
	if s.Filepath != nil {
		path = *s.Filepath
	} else {
		s.log().WithField("fallback", path).Warn("Reloading tomb that has no filepath")
	}

	fresh, err := Import(path)
	if err != nil {
		return fmt.Errorf("failed to reload tomb from path %s: %w", path, err)
	}
	s.Data = fresh.Data

	s.log().WithField("path", path).Debug("Tomb reloaded")
	return nil
}
