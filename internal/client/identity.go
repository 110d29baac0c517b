package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lox/blackjack/internal/fileutil"
	"github.com/lox/blackjack/internal/id"
)

// Identity is what a player keeps between runs to reclaim its account.
type Identity struct {
	ClientID string `json:"client_id"`
}

// LoadIdentity reads the identity file at path. A missing file, or one
// holding a malformed id, yields an empty identity.
func LoadIdentity(path string) (Identity, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Identity{}, nil
	}
	if err != nil {
		return Identity{}, fmt.Errorf("read identity: %w", err)
	}
	var ident Identity
	if err := json.Unmarshal(data, &ident); err != nil {
		return Identity{}, fmt.Errorf("decode identity %s: %w", path, err)
	}
	if !id.Valid(ident.ClientID) {
		return Identity{}, nil
	}
	return ident, nil
}

// SaveIdentity writes ident to path, creating the directory if needed.
func SaveIdentity(path string, ident Identity) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create identity directory: %w", err)
	}
	return fileutil.WriteJSONAtomic(path, ident, 0o600)
}

// DefaultIdentityPath returns the identity file under the user config dir.
func DefaultIdentityPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "blackjack", "identity.json")
}
