// Package catalog matches downloaded model files against the static table of
// supported whisper.cpp models and tracks the active selection in settings.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sarnaz1304/everyone-can-use-english/internal/config"
	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
)

// DefaultModelName is used when no model has been resolved or selected.
const DefaultModelName = "ggml-base.en.bin"

// supportedModels is the static table of models the app knows how to use.
// Models from: https://huggingface.co/ggerganov/whisper.cpp
var supportedModels = []domain.ModelDescriptor{
	{
		Name:        "ggml-tiny.en.bin",
		Label:       "Tiny (English)",
		SizeLabel:   "~75 MB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.en.bin",
		Description: "Fastest, English-only model.",
	},
	{
		Name:        "ggml-tiny.bin",
		Label:       "Tiny (Multilingual)",
		SizeLabel:   "~75 MB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin",
		Description: "Fastest multilingual model.",
	},
	{
		Name:        "ggml-base.en.bin",
		Label:       "Base (English)",
		SizeLabel:   "~142 MB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin",
		Description: "Balanced speed/quality, English-only.",
	},
	{
		Name:        "ggml-base.bin",
		Label:       "Base (Multilingual)",
		SizeLabel:   "~142 MB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin",
		Description: "Balanced speed/quality, multilingual.",
	},
	{
		Name:        "ggml-small.en.bin",
		Label:       "Small (English)",
		SizeLabel:   "~466 MB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.en.bin",
		Description: "Higher quality, English-only.",
	},
	{
		Name:        "ggml-small.bin",
		Label:       "Small (Multilingual)",
		SizeLabel:   "~466 MB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin",
		Description: "Higher quality multilingual model.",
	},
	{
		Name:        "ggml-medium.en.bin",
		Label:       "Medium (English)",
		SizeLabel:   "~1.5 GB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.en.bin",
		Description: "High quality, English-only.",
	},
	{
		Name:        "ggml-medium.bin",
		Label:       "Medium (Multilingual)",
		SizeLabel:   "~1.5 GB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin",
		Description: "High quality multilingual model.",
	},
	{
		Name:        "ggml-large-v2.bin",
		Label:       "Large v2",
		SizeLabel:   "~2.9 GB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v2.bin",
		Description: "Very high quality multilingual model.",
	},
	{
		Name:        "ggml-large-v3.bin",
		Label:       "Large v3",
		SizeLabel:   "~2.9 GB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin",
		Description: "Latest large multilingual model.",
	},
	{
		Name:        "ggml-large-v3-turbo.bin",
		Label:       "Large v3 Turbo",
		SizeLabel:   "~1.6 GB",
		URL:         "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3-turbo.bin",
		Description: "Faster large-v3 variant.",
	},
}

// SupportedModels returns a copy of the static model table.
func SupportedModels() []domain.ModelDescriptor {
	out := make([]domain.ModelDescriptor, len(supportedModels))
	copy(out, supportedModels)
	return out
}

// LookupSupported returns static metadata for a model filename.
func LookupSupported(name string) (domain.ModelDescriptor, bool) {
	for _, m := range supportedModels {
		if m.Name == name {
			return m, true
		}
	}
	return domain.ModelDescriptor{}, false
}

// Resolver scans the models directory and keeps settings in sync with what
// is actually on disk.
type Resolver struct {
	store   config.Store
	readDir func(string) ([]os.DirEntry, error)
}

// NewResolver creates a resolver backed by the real filesystem.
func NewResolver(store config.Store) *Resolver {
	return &Resolver{store: store, readDir: os.ReadDir}
}

// NewResolverForTests creates a resolver with an injectable directory lister.
func NewResolverForTests(store config.Store, readDir func(string) ([]os.DirEntry, error)) *Resolver {
	return &Resolver{store: store, readDir: readDir}
}

// ResolveModels lists modelsDir, keeps files whose name appears in the
// supported-model table, and persists the resulting list plus the directory
// into settings. Order follows directory listing order. A missing directory
// resolves to an empty list rather than an error.
func (r *Resolver) ResolveModels(modelsDir string) ([]domain.ModelDescriptor, error) {
	entries, err := r.readDir(modelsDir)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read models directory %s: %w", modelsDir, err)
	}

	models := make([]domain.ModelDescriptor, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		meta, ok := LookupSupported(entry.Name())
		if !ok {
			continue
		}
		meta.SavePath = filepath.Join(modelsDir, entry.Name())
		models = append(models, meta)
	}

	settings, err := r.store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	settings.AvailableModels = models
	settings.ModelsDir = modelsDir
	if err := r.store.Save(settings); err != nil {
		return nil, fmt.Errorf("save settings: %w", err)
	}

	return models, nil
}

// CurrentModel returns the save path of the active model. With no available
// models it returns "". With models available but no explicit selection it
// selects the first resolved model, persists that choice, and returns its
// path. A configured selection that no longer matches any resolved model
// (stale or deleted) also returns "".
func (r *Resolver) CurrentModel() (string, error) {
	settings, err := r.store.Load()
	if err != nil {
		return "", fmt.Errorf("load settings: %w", err)
	}

	if len(settings.AvailableModels) == 0 {
		return "", nil
	}

	if settings.Model == "" {
		first := settings.AvailableModels[0]
		settings.Model = first.Name
		if err := r.store.Save(settings); err != nil {
			return "", fmt.Errorf("persist model selection: %w", err)
		}
		return first.SavePath, nil
	}

	for _, m := range settings.AvailableModels {
		if m.Name == settings.Model {
			return m.SavePath, nil
		}
	}
	return "", nil
}
