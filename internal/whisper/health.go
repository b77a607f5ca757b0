package whisper

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"

	"github.com/sarnaz1304/everyone-can-use-english/internal/config"
	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
	"github.com/sarnaz1304/everyone-can-use-english/internal/logging"
)

// helpTimeout bounds the --help smoke test. The check is deliberately cheap
// because it runs before most externally invoked operations.
const helpTimeout = 10 * time.Second

// catalogResolver refreshes the on-disk model list.
type catalogResolver interface {
	ResolveModels(modelsDir string) ([]domain.ModelDescriptor, error)
}

// transcriber runs one transcription job; implemented by Runner.
type transcriber interface {
	Transcribe(ctx context.Context, req Request, opts Options) (Transcript, error)
	OutputPathFor(inputPath string) string
}

// Health verifies the executable is runnable and, on request, validates the
// whole command pipeline against a bundled sample recording.
type Health struct {
	exePath    string
	samplePath string
	store      config.Store
	catalog    catalogResolver
	jobs       transcriber
	runner     commandRunner
	remove     func(string) error
	now        func() time.Time
	log        *charmlog.Logger
}

// NewHealth builds a health checker over real OS dependencies.
func NewHealth(exePath, samplePath string, store config.Store, cat catalogResolver, jobs transcriber) *Health {
	return &Health{
		exePath:    exePath,
		samplePath: samplePath,
		store:      store,
		catalog:    cat,
		jobs:       jobs,
		runner:     &execRunner{},
		remove:     os.Remove,
		now:        time.Now,
		log:        logging.For("health"),
	}
}

// Initialize refreshes the model catalog and smoke-tests the executable by
// running it with --help under a short timeout. It succeeds only when the
// captured output (stdout, or stderr when stdout is empty) begins with
// "usage:"; every other outcome is an executable-not-usable error.
func (h *Health) Initialize(ctx context.Context) error {
	settings, err := h.store.Load()
	if err != nil {
		return &Error{Kind: KindUnavailable, Message: "executable not usable: " + err.Error(), Err: err}
	}
	if _, err := h.catalog.ResolveModels(settings.ModelsDir); err != nil {
		return &Error{Kind: KindUnavailable, Message: "executable not usable: " + err.Error(), Err: err}
	}

	runCtx, cancel := context.WithTimeout(ctx, helpTimeout)
	defer cancel()

	args := []string{"--help"}
	result, runErr := h.runner.Run(runCtx, h.exePath, args, nil)

	output := result.Stdout
	if strings.TrimSpace(output) == "" {
		output = result.Stderr
	}
	if strings.HasPrefix(strings.TrimSpace(output), "usage:") {
		return nil
	}

	return &Error{
		Kind:    KindUnavailable,
		Message: "executable not usable",
		CommandLog: CommandLog{
			Command:  h.exePath,
			Args:     args,
			ExitCode: result.ExitCode,
			Stdout:   result.Stdout,
			Stderr:   result.Stderr,
		},
		Err: runErr,
	}
}

// Check runs Initialize and then pushes the bundled sample recording through
// the full transcription command into its fixed cache path, deleting any
// stale artifact first. It always produces a report and never returns an
// error; Log combines the captured error message, stderr, and stdout.
func (h *Health) Check(ctx context.Context) domain.HealthReport {
	report := domain.HealthReport{GeneratedAt: h.now().UTC()}

	if err := h.Initialize(ctx); err != nil {
		report.Log = combinedLog(err)
		return report
	}

	stale := h.jobs.OutputPathFor(h.samplePath)
	if err := h.remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		h.log.Warn("remove stale sample artifact", "path", stale, "err", err)
	}

	transcript, err := h.jobs.Transcribe(ctx, Request{FilePath: h.samplePath}, Options{})
	if err != nil {
		report.Log = combinedLog(err)
		return report
	}

	report.Success = true
	report.Log = transcript.Text()
	return report
}

// combinedLog flattens an error and any captured command output into one
// displayable string.
func combinedLog(err error) string {
	parts := []string{err.Error()}

	var typed *Error
	if errors.As(err, &typed) {
		if s := strings.TrimSpace(typed.CommandLog.Stderr); s != "" {
			parts = append(parts, s)
		}
		if s := strings.TrimSpace(typed.CommandLog.Stdout); s != "" {
			parts = append(parts, s)
		}
	}

	return strings.Join(parts, "\n")
}

// NewHealthForTests builds a health checker with injectable dependencies.
func NewHealthForTests(
	exePath string,
	samplePath string,
	store config.Store,
	cat catalogResolver,
	jobs transcriber,
	runner commandRunner,
	remove func(string) error,
) *Health {
	return &Health{
		exePath:    exePath,
		samplePath: samplePath,
		store:      store,
		catalog:    cat,
		jobs:       jobs,
		runner:     runner,
		remove:     remove,
		now:        time.Now,
		log:        logging.For("health"),
	}
}
