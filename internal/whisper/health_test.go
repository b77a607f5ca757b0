package whisper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sarnaz1304/everyone-can-use-english/internal/config"
	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
)

// fakeCatalog records ResolveModels invocations.
type fakeCatalog struct {
	calls int
	dir   string
	err   error
}

func (f *fakeCatalog) ResolveModels(modelsDir string) ([]domain.ModelDescriptor, error) {
	f.calls++
	f.dir = modelsDir
	return nil, f.err
}

// fakeTranscriber simulates the job runner for sample checks.
type fakeTranscriber struct {
	transcript Transcript
	err        error
	calls      int
	lastReq    Request
	outputPath string
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, req Request, opts Options) (Transcript, error) {
	f.calls++
	f.lastReq = req
	return f.transcript, f.err
}

func (f *fakeTranscriber) OutputPathFor(inputPath string) string {
	return f.outputPath
}

// newHealthStore creates a settings store with a models dir configured.
func newHealthStore(t *testing.T, modelsDir string) config.Store {
	t.Helper()
	store := config.NewJSONStore(filepath.Join(t.TempDir(), "settings.json"))
	settings, err := store.Load()
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	settings.ModelsDir = modelsDir
	if err := store.Save(settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	return store
}

// TestInitializeSucceedsOnUsageStdout checks the stdout smoke-test path.
func TestInitializeSucceedsOnUsageStdout(t *testing.T) {
	cat := &fakeCatalog{}
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args []string, onStderrLine func(string)) (commandResult, error) {
			if len(args) != 1 || args[0] != "--help" {
				t.Fatalf("args = %v, want [--help]", args)
			}
			return commandResult{Stdout: "usage: whisper [options] file ..."}, nil
		},
	}

	modelsDir := filepath.Join(t.TempDir(), "models")
	h := NewHealthForTests("whisper", "sample.wav", newHealthStore(t, modelsDir), cat, &fakeTranscriber{}, runner, os.Remove)
	if err := h.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if cat.calls != 1 || cat.dir != modelsDir {
		t.Fatalf("catalog refresh calls = %d dir = %q", cat.calls, cat.dir)
	}
}

// TestInitializeAcceptsUsageOnStderr checks the stderr fallback capture.
func TestInitializeAcceptsUsageOnStderr(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args []string, onStderrLine func(string)) (commandResult, error) {
			return commandResult{Stderr: "usage: whisper [options]", ExitCode: 1}, errors.New("exit status 1")
		},
	}

	h := NewHealthForTests("whisper", "sample.wav", newHealthStore(t, t.TempDir()), &fakeCatalog{}, &fakeTranscriber{}, runner, os.Remove)
	if err := h.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
}

// TestInitializeFailsOnUnexpectedOutput checks the not-usable error.
func TestInitializeFailsOnUnexpectedOutput(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args []string, onStderrLine func(string)) (commandResult, error) {
			return commandResult{Stdout: "segmentation fault"}, nil
		},
	}

	h := NewHealthForTests("whisper", "sample.wav", newHealthStore(t, t.TempDir()), &fakeCatalog{}, &fakeTranscriber{}, runner, os.Remove)
	err := h.Initialize(context.Background())
	var typed *Error
	if !errors.As(err, &typed) || typed.Kind != KindUnavailable {
		t.Fatalf("err = %v, want executable_unavailable", err)
	}
	if !strings.Contains(typed.Message, "executable not usable") {
		t.Fatalf("message = %q", typed.Message)
	}
}

// TestCheckReportsSuccessAndDeletesStaleArtifact checks the sample run.
func TestCheckReportsSuccessAndDeletesStaleArtifact(t *testing.T) {
	stale := filepath.Join(t.TempDir(), "jfk.json")
	mustWriteFile(t, stale, "{}")

	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args []string, onStderrLine func(string)) (commandResult, error) {
			return commandResult{Stdout: "usage: whisper"}, nil
		},
	}
	transcript, err := ParseTranscript([]byte(sampleArtifact))
	if err != nil {
		t.Fatalf("parse sample artifact: %v", err)
	}
	jobs := &fakeTranscriber{transcript: transcript, outputPath: stale}

	var removed string
	remove := func(path string) error {
		removed = path
		return os.Remove(path)
	}

	h := NewHealthForTests("whisper", "/samples/jfk.wav", newHealthStore(t, t.TempDir()), &fakeCatalog{}, jobs, runner, remove)
	report := h.Check(context.Background())

	if !report.Success {
		t.Fatalf("report = %+v, want success", report)
	}
	if removed != stale {
		t.Fatalf("removed = %q, want stale artifact %q", removed, stale)
	}
	if jobs.calls != 1 || jobs.lastReq.FilePath != "/samples/jfk.wav" {
		t.Fatalf("sample transcribe calls = %d req = %+v", jobs.calls, jobs.lastReq)
	}
	if report.Log != "And so" {
		t.Fatalf("log = %q", report.Log)
	}
}

// TestCheckNeverFailsWithError checks the always-resolve contract.
func TestCheckNeverFailsWithError(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args []string, onStderrLine func(string)) (commandResult, error) {
			return commandResult{Stdout: "usage: whisper"}, nil
		},
	}
	jobs := &fakeTranscriber{
		err: &Error{
			Kind:    KindIncomplete,
			Message: "transcription failed",
			CommandLog: CommandLog{
				Command: "whisper",
				Stderr:  "model load failed",
				Stdout:  "whisper banner",
			},
		},
		outputPath: filepath.Join(t.TempDir(), "jfk.json"),
	}

	h := NewHealthForTests("whisper", "/samples/jfk.wav", newHealthStore(t, t.TempDir()), &fakeCatalog{}, jobs, runner, os.Remove)
	report := h.Check(context.Background())

	if report.Success {
		t.Fatal("expected failed report")
	}
	for _, want := range []string{"transcription failed", "model load failed", "whisper banner"} {
		if !strings.Contains(report.Log, want) {
			t.Fatalf("log %q missing %q", report.Log, want)
		}
	}
}

// TestCheckFailedInitializeShortCircuits checks the smoke-test gate.
func TestCheckFailedInitializeShortCircuits(t *testing.T) {
	runner := &fakeRunner{
		run: func(ctx context.Context, name string, args []string, onStderrLine func(string)) (commandResult, error) {
			return commandResult{}, errors.Join(errSpawn, errors.New("no such file"))
		},
	}
	jobs := &fakeTranscriber{outputPath: "unused.json"}

	h := NewHealthForTests("missing-binary", "sample.wav", newHealthStore(t, t.TempDir()), &fakeCatalog{}, jobs, runner, os.Remove)
	report := h.Check(context.Background())

	if report.Success {
		t.Fatal("expected failed report")
	}
	if jobs.calls != 0 {
		t.Fatalf("sample transcribe calls = %d, want 0", jobs.calls)
	}
	if !strings.Contains(report.Log, "executable not usable") {
		t.Fatalf("log = %q", report.Log)
	}
}
