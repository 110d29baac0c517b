package client

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lox/blackjack/internal/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdentityRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "identity.json")

	ident, err := LoadIdentity(path)
	require.NoError(t, err)
	assert.Empty(t, ident.ClientID)

	want := Identity{ClientID: id.New()}
	require.NoError(t, SaveIdentity(path, want))

	got, err := LoadIdentity(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadIdentityIgnoresMalformedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"client_id":"undefined"}`), 0o600))

	ident, err := LoadIdentity(path)
	require.NoError(t, err)
	assert.Empty(t, ident.ClientID)

	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
	_, err = LoadIdentity(path)
	assert.Error(t, err)
}
