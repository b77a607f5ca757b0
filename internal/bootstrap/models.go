package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sarnaz1304/everyone-can-use-english/internal/catalog"
	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
)

// modelDownloadTimeout bounds one model download. Large models on slow links
// take a while; the ceiling only guards against wedged connections.
const modelDownloadTimeout = 2 * time.Hour

// DownloadModel fetches a supported model into the models directory and
// refreshes the resolved model list. A model already on disk is not fetched
// again. The selection is untouched; callers switch with SetModel.
func (a *App) DownloadModel(name string) (domain.Configuration, error) {
	meta, ok := catalog.LookupSupported(name)
	if !ok {
		return domain.Configuration{}, fmt.Errorf("unsupported model: %s", name)
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("load settings: %w", err)
	}

	dest := filepath.Join(settings.ModelsDir, meta.Name)
	if _, statErr := os.Stat(dest); statErr != nil {
		a.log.Info("downloading model", "model", meta.Name, "url", meta.URL)
		if err := a.download(meta.URL, dest); err != nil {
			a.notifyError(err.Error())
			return domain.Configuration{}, fmt.Errorf("download model %s: %w", meta.Name, err)
		}
	}

	if _, err := a.Catalog.ResolveModels(settings.ModelsDir); err != nil {
		return domain.Configuration{}, fmt.Errorf("refresh models: %w", err)
	}

	return a.GetConfiguration(), nil
}

// downloadURLToFile streams a URL into destinationPath through a temp file so
// an interrupted download never leaves a partial model behind.
func downloadURLToFile(sourceURL, destinationPath string) error {
	if err := os.MkdirAll(filepath.Dir(destinationPath), 0o755); err != nil {
		return fmt.Errorf("prepare destination directory: %w", err)
	}

	tmpPath := destinationPath + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), modelDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "enjoy-transcriber")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	_, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write destination file: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close destination file: %w", closeErr)
	}

	if err := os.Remove(destinationPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace existing file: %w", err)
	}
	if err := os.Rename(tmpPath, destinationPath); err != nil {
		return fmt.Errorf("finalize downloaded file: %w", err)
	}
	return nil
}
