package config

import (
	"os"
	"path/filepath"

	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
)

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	libraryDir := filepath.Join(homeDir, ".enjoy")
	return domain.Settings{
		Service:    domain.ServiceLocal,
		LibraryDir: libraryDir,
		ModelsDir:  filepath.Join(libraryDir, "whisper", "models"),
		CacheDir:   filepath.Join(libraryDir, "cache"),
	}
}
