package global

import (
	"os"
	"path/filepath"
	"strings"
)

const databaseFileName = "butler.db"

// DefaultConfigDir returns ~/.config/butler.
func DefaultConfigDir() (string, error) {
	if override := strings.TrimSpace(os.Getenv("BUTLER_CONFIG_DIR")); override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "butler"), nil
}

// DatabasePath is the local sqlite file holding the token and preferences.
func DatabasePath(dir string) string {
	return filepath.Join(dir, databaseFileName)
}
