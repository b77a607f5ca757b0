package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
)

// TestJSONStoreLoadMissingReturnsDefaults checks first-launch behavior.
func TestJSONStoreLoadMissingReturnsDefaults(t *testing.T) {
	store := NewJSONStore(filepath.Join(t.TempDir(), "settings.json"))

	cfg, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Service != domain.ServiceLocal {
		t.Fatalf("default service = %q, want local", cfg.Service)
	}
	if cfg.ModelsDir == "" || cfg.CacheDir == "" {
		t.Fatalf("default paths missing: %+v", cfg)
	}
}

// TestJSONStoreSaveThenLoadRoundTrip checks persistence of all fields.
func TestJSONStoreSaveThenLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	store := NewJSONStore(filepath.Join(root, "nested", "settings.json"))

	saved := domain.Settings{
		Service:    domain.ServiceOpenAI,
		Model:      "ggml-base.en.bin",
		LibraryDir: filepath.Join(root, "library"),
		AvailableModels: []domain.ModelDescriptor{
			{Name: "ggml-base.en.bin", SavePath: filepath.Join(root, "m", "ggml-base.en.bin")},
		},
	}
	if err := store.Save(saved); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Service != domain.ServiceOpenAI {
		t.Fatalf("service = %q, want openai", loaded.Service)
	}
	if loaded.Model != "ggml-base.en.bin" {
		t.Fatalf("model = %q", loaded.Model)
	}
	if len(loaded.AvailableModels) != 1 || loaded.AvailableModels[0].Name != "ggml-base.en.bin" {
		t.Fatalf("available models = %+v", loaded.AvailableModels)
	}
}

// TestJSONStoreLoadRejectsCorruptFile checks malformed JSON handling.
func TestJSONStoreLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	if _, err := NewJSONStore(path).Load(); err == nil {
		t.Fatal("expected error for corrupt settings file")
	}
}

// TestNormalizeDerivesPathsFromLibraryDir checks derived directory defaults.
func TestNormalizeDerivesPathsFromLibraryDir(t *testing.T) {
	cfg := Normalize(domain.Settings{LibraryDir: "/tmp/enjoy"})
	if cfg.ModelsDir != filepath.Join("/tmp/enjoy", "whisper", "models") {
		t.Fatalf("models dir = %q", cfg.ModelsDir)
	}
	if cfg.CacheDir != filepath.Join("/tmp/enjoy", "cache") {
		t.Fatalf("cache dir = %q", cfg.CacheDir)
	}
	if cfg.Service != domain.ServiceLocal {
		t.Fatalf("service = %q, want local", cfg.Service)
	}
}
