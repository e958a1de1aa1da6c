package infra

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileKeyProvider(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T, dataDir string)
		testFn func(t *testing.T, provider *FileKeyProvider)
	}{
		{
			name: "KeyExists is false without a key file",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				assert.False(t, provider.KeyExists())
			},
		},
		{
			name: "StoreKey writes an owner-only file",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				key, err := GenerateKey()
				require.NoError(t, err)
				require.NoError(t, provider.StoreKey(key))

				assert.True(t, provider.KeyExists())
				info, err := os.Stat(provider.Path())
				require.NoError(t, err)
				assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
			},
		},
		{
			name: "GetKey round-trips a stored key",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				key, err := GenerateKey()
				require.NoError(t, err)
				require.NoError(t, provider.StoreKey(key))

				got, err := provider.GetKey()
				require.NoError(t, err)
				assert.Equal(t, key, got)
			},
		},
		{
			name: "StoreKey rejects the wrong size",
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				assert.Error(t, provider.StoreKey([]byte("short")))
				assert.False(t, provider.KeyExists())
			},
		},
		{
			name: "GetKey rejects garbage",
			setup: func(t *testing.T, dataDir string) {
				require.NoError(t, os.WriteFile(filepath.Join(dataDir, keyFileName), []byte("!!not base64!!"), 0600))
			},
			testFn: func(t *testing.T, provider *FileKeyProvider) {
				_, err := provider.GetKey()
				assert.Error(t, err)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dataDir := t.TempDir()
			if tt.setup != nil {
				tt.setup(t, dataDir)
			}
			tt.testFn(t, NewFileKeyProvider(dataDir))
		})
	}
}

func TestEnsureKey_GeneratesOnceThenReuses(t *testing.T) {
	provider := NewFileKeyProvider(filepath.Join(t.TempDir(), "nested"))

	first, err := EnsureKey(provider)
	require.NoError(t, err)
	assert.Len(t, first, keySize)

	second, err := EnsureKey(provider)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
