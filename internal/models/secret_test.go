package models_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/TheMichaelB/tomb/internal/crypto"
	"github.com/TheMichaelB/tomb/internal/models"
)

var testConfig = crypto.FromSlice([3]uint32{100, 200, 300})

func newTestSecret(t *testing.T, key crypto.Key, path string, plaintext []byte) *models.Secret {
	t.Helper()
	ciphertext, err := key.Encrypt(plaintext)
	require.NoError(t, err)
	return models.NewSecret(path, ciphertext, key.Digest())
}

func TestKeyID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"my-secret", "935571b8f79add9eacb3b622f95ad3a6"},
		{"another-secret", "c19dfbc5c54d43a2d8913e8516fd8bf7"},
		{"email/password", "ad6b6ca876b2c318863432305fd957a9"},
		{"", "d41d8cd98f00b204e9800998ecf8427e"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, models.KeyID(tt.path))
		})
	}
}

func TestNewSecret(t *testing.T) {
	key := crypto.FromPassword("123456", testConfig)
	secret := newTestSecret(t, key, "my-secret", []byte("hunter2"))

	assert.Equal(t, "my-secret", secret.Path)
	assert.Equal(t, key.Digest(), secret.Digest)
	assert.Equal(t, "935571b8f79add9eacb3b622f95ad3a6", secret.ID())
	assert.NotNil(t, secret.Attributes)
	assert.False(t, secret.CreatedAt.IsZero())
	assert.Equal(t, secret.CreatedAt, secret.UpdatedAt)

	raw, err := secret.ValueBytes()
	require.NoError(t, err)
	assert.True(t, key.CheckDigest(raw[:models.DigestSize]))
}

func TestSecret_Get(t *testing.T) {
	key := crypto.FromPassword("123456", testConfig)

	t.Run("string", func(t *testing.T) {
		secret := newTestSecret(t, key, "email/password", []byte("This is a secret"))
		value, err := secret.GetString("email/password", key)
		require.NoError(t, err)
		assert.Equal(t, "This is a secret", value)
	})

	t.Run("bytes", func(t *testing.T) {
		data := []byte{0x00, 0xfe, 0xff}
		secret := newTestSecret(t, key, "blob", data)
		value, err := secret.GetBytes("blob", key)
		require.NoError(t, err)
		assert.Equal(t, data, value)
	})

	t.Run("base64", func(t *testing.T) {
		data := []byte{0xde, 0xad, 0xbe, 0xef}
		secret := newTestSecret(t, key, "blob", data)
		value, err := secret.GetBase64String("blob", key)
		require.NoError(t, err)
		assert.Equal(t, base64.StdEncoding.EncodeToString(data), value)
	})

	t.Run("invalid utf-8", func(t *testing.T) {
		secret := newTestSecret(t, key, "blob", []byte{0xff, 0xfe})
		_, err := secret.GetString("blob", key)
		assert.ErrorIs(t, err, models.ErrDecode)
	})

	t.Run("path mismatch", func(t *testing.T) {
		secret := newTestSecret(t, key, "my-secret", []byte("x"))
		_, err := secret.GetBytes("other", key)
		assert.ErrorIs(t, err, models.ErrPathMismatch)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("wrong key", func(t *testing.T) {
		secret := newTestSecret(t, key, "my-secret", []byte("x"))
		other := crypto.FromPassword("654321", testConfig)
		_, err := secret.GetString("my-secret", other)
		assert.ErrorIs(t, err, models.ErrKeyMismatch)
	})

	t.Run("corrupt value", func(t *testing.T) {
		secret := newTestSecret(t, key, "my-secret", []byte("x"))
		secret.Value = "***"
		_, err := secret.GetBytes("my-secret", key)
		assert.ErrorIs(t, err, models.ErrDecode)
	})
}

func TestSecret_Update(t *testing.T) {
	oldKey := crypto.FromPassword("123456", testConfig)
	newKey := crypto.FromPassword("654321", testConfig)

	secret := newTestSecret(t, oldKey, "my-secret", []byte("old"))
	created := secret.CreatedAt

	require.NoError(t, secret.Update("my-secret", []byte("new"), newKey))

	assert.Equal(t, newKey.Digest(), secret.Digest)
	assert.Equal(t, created, secret.CreatedAt)
	assert.False(t, secret.UpdatedAt.Before(created))

	value, err := secret.GetString("my-secret", newKey)
	require.NoError(t, err)
	assert.Equal(t, "new", value)

	_, err = secret.GetString("my-secret", oldKey)
	assert.ErrorIs(t, err, models.ErrKeyMismatch)
}

func TestSecret_Metadata(t *testing.T) {
	key := crypto.FromPassword("123456", testConfig)
	secret := newTestSecret(t, key, "site", []byte("pw"))

	notes := "rotate monthly"
	user := "alice"
	secret.SetNotes(&notes)
	secret.SetUsername(&user)
	secret.SetAttribute("env", "prod")

	data, err := yaml.Marshal(secret)
	require.NoError(t, err)
	assert.Contains(t, string(data), "notes: rotate monthly")
	assert.NotContains(t, string(data), "url:")

	var decoded models.Secret
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, secret.Digest, decoded.Digest)
	assert.Equal(t, "alice", *decoded.Username)
	assert.Nil(t, decoded.URL)
	assert.Equal(t, "prod", decoded.Attributes["env"])

	value, err := decoded.GetString("site", key)
	require.NoError(t, err)
	assert.Equal(t, "pw", value)
}

func TestSecret_Clone(t *testing.T) {
	key := crypto.FromPassword("123456", testConfig)
	secret := newTestSecret(t, key, "site", []byte("pw"))
	notes := "a"
	secret.SetNotes(&notes)
	secret.SetAttribute("k", "v")

	clone := secret.Clone()
	*clone.Notes = "b"
	clone.Attributes["k"] = "changed"

	assert.Equal(t, "a", *secret.Notes)
	assert.Equal(t, "v", secret.Attributes["k"])
}

func TestBytesMatch(t *testing.T) {
	tests := []struct {
		name string
		a, b []byte
		want bool
	}{
		{"equal", []byte{1, 2, 3}, []byte{1, 2, 3}, true},
		{"both empty", nil, []byte{}, true},
		{"differ", []byte{1, 2, 3}, []byte{1, 2, 4}, false},
		{"prefix", []byte{1, 2}, []byte{1, 2, 3}, false},
		{"longer", []byte{1, 2, 3}, []byte{1, 2}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, models.BytesMatch(tt.a, tt.b))
		})
	}
}
