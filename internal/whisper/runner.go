// Package whisper shells out to a local whisper.cpp executable: it locates
// the binary, smoke-tests it, builds transcription command lines, streams
// progress from stderr, and caches JSON artifacts by output filename.
package whisper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-audio/wav"

	"github.com/sarnaz1304/everyone-can-use-english/internal/logging"
)

// progressMarker prefixes stderr lines carrying a completion percentage.
const progressMarker = "whisper_print_progress_callback"

// defaultJobTimeout bounds one transcription process end to end.
const defaultJobTimeout = 30 * time.Minute

var progressPattern = regexp.MustCompile(`(\d+)%`)

// Request describes one transcription input. Exactly one of FilePath and
// Buffer must be set. Buffers must be wav; MimeType is the declared type and
// is sniffed from content when empty. OnProgress is best effort — a missed
// callback never affects the job outcome.
type Request struct {
	FilePath   string
	Buffer     []byte
	MimeType   string
	OnProgress func(percent int)
	// OnStage receives "validating", "spawning", and "running" as the job
	// moves; a cache hit never reaches "spawning".
	OnStage func(stage string)
}

// Options tunes one transcription run.
type Options struct {
	// Force skips the output-filename cache and always spawns a process.
	Force bool
	// ExtraArgs are appended after the fixed flags; they may override or
	// duplicate them, subject to the executable's own argument parsing.
	ExtraArgs []string
}

// modelResolver supplies the active model path.
type modelResolver interface {
	CurrentModel() (string, error)
}

// Runner executes transcription jobs against the whisper.cpp executable.
// It does not queue or limit concurrent jobs; each call is one linear
// sequence of steps writing to its own derived output path.
type Runner struct {
	exePath          string
	cacheDir         string
	defaultModelPath string
	models           modelResolver
	timeout          time.Duration
	runner           commandRunner
	stat             func(string) (os.FileInfo, error)
	readFile         func(string) ([]byte, error)
	writeFile        func(string, []byte, os.FileMode) error
	mkdirAll         func(string, os.FileMode) error
	now              func() time.Time
	log              *charmlog.Logger
}

// NewRunner constructs the production runner with OS dependencies.
func NewRunner(exePath, cacheDir, defaultModelPath string, models modelResolver) *Runner {
	return &Runner{
		exePath:          exePath,
		cacheDir:         cacheDir,
		defaultModelPath: defaultModelPath,
		models:           models,
		timeout:          defaultJobTimeout,
		runner:           &execRunner{},
		stat:             os.Stat,
		readFile:         os.ReadFile,
		writeFile:        os.WriteFile,
		mkdirAll:         os.MkdirAll,
		now:              time.Now,
		log:              logging.For("whisper"),
	}
}

// Transcribe runs one job: validate, resolve the model, materialize buffer
// input, consult the artifact cache, and otherwise spawn the executable.
// Presence of the output artifact is the sole success signal; the exit code
// is only logged.
func (r *Runner) Transcribe(ctx context.Context, req Request, opts Options) (Transcript, error) {
	emitStage(req.OnStage, "validating")

	hasFile := strings.TrimSpace(req.FilePath) != ""
	hasBuffer := len(req.Buffer) > 0
	if !hasFile && !hasBuffer {
		return Transcript{}, newError(KindInvalidRequest, "no input provided")
	}
	if hasFile && hasBuffer {
		return Transcript{}, newError(KindInvalidRequest, "exactly one of file and buffer must be provided")
	}

	modelPath, err := r.models.CurrentModel()
	if err != nil {
		return Transcript{}, fmt.Errorf("resolve model: %w", err)
	}
	if modelPath == "" {
		modelPath = r.defaultModelPath
		r.log.Warn("no model resolved, using bundled default", "model", modelPath)
	}

	if err := r.mkdirAll(r.cacheDir, 0o755); err != nil {
		return Transcript{}, fmt.Errorf("create cache directory: %w", err)
	}

	inputPath := req.FilePath
	if hasBuffer {
		inputPath, err = r.materializeBuffer(req)
		if err != nil {
			return Transcript{}, err
		}
	}

	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	outputBase := filepath.Join(r.cacheDir, base)
	outputFile := outputBase + ".json"

	// Cache keys purely on the derived output filename, not input content.
	// Two different inputs sharing a basename collide here; a caller that
	// renamed its input must pass Force.
	if !opts.Force {
		if _, statErr := r.stat(outputFile); statErr == nil {
			r.log.Debug("cache hit, skipping process", "artifact", outputFile)
			return r.readArtifact(outputFile)
		}
	}

	args := buildArgs(inputPath, modelPath, outputBase, opts.ExtraArgs)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	emitStage(req.OnStage, "spawning")
	started := false
	result, runErr := r.runner.Run(runCtx, r.exePath, args, func(line string) {
		if !started {
			started = true
			emitStage(req.OnStage, "running")
		}
		percent, ok := parseProgressLine(line)
		if ok && req.OnProgress != nil {
			req.OnProgress(percent)
		}
	})
	if !started && !errors.Is(runErr, errSpawn) {
		// The process started but produced no stderr output; it still ran.
		emitStage(req.OnStage, "running")
	}
	cmdLog := CommandLog{
		Command:  r.exePath,
		Args:     args,
		ExitCode: result.ExitCode,
		Stdout:   result.Stdout,
		Stderr:   result.Stderr,
	}
	if result.Stdout != "" {
		r.log.Debug("executable stdout", "output", result.Stdout)
	}

	if runErr != nil {
		if errors.Is(runErr, errSpawn) {
			return Transcript{}, &Error{
				Kind:       KindSpawn,
				Message:    "failed to launch transcription process",
				CommandLog: cmdLog,
				Err:        runErr,
			}
		}
		// Non-zero exit alone does not determine failure.
		r.log.Warn("process exited with error", "exitCode", result.ExitCode, "err", runErr)
	}

	if _, statErr := r.stat(outputFile); statErr != nil {
		return Transcript{}, &Error{
			Kind:       KindIncomplete,
			Message:    "transcription failed",
			CommandLog: cmdLog,
			Err:        runErr,
		}
	}

	return r.readArtifact(outputFile)
}

// OutputPathFor returns the cache artifact path derived from an input path.
func (r *Runner) OutputPathFor(inputPath string) string {
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(r.cacheDir, base+".json")
}

// readArtifact loads and parses a JSON artifact from the cache directory.
func (r *Runner) readArtifact(path string) (Transcript, error) {
	data, err := r.readFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return ParseTranscript(data)
}

// materializeBuffer validates a wav buffer and writes it into the cache
// directory named by the current timestamp.
func (r *Runner) materializeBuffer(req Request) (string, error) {
	declared := strings.TrimSpace(req.MimeType)
	if declared == "" {
		declared = mimetype.Detect(req.Buffer).String()
	}
	if mimeSubtype(declared) != "wav" {
		return "", newError(KindInvalidRequest, fmt.Sprintf("unsupported format: %s", declared))
	}

	decoder := wav.NewDecoder(bytes.NewReader(req.Buffer))
	if !decoder.IsValidFile() {
		return "", newError(KindInvalidRequest, "unsupported format: buffer does not contain a wav stream")
	}

	path := filepath.Join(r.cacheDir, fmt.Sprintf("%d.wav", r.now().UnixMilli()))
	if err := r.writeFile(path, req.Buffer, 0o644); err != nil {
		return "", fmt.Errorf("write buffer to %s: %w", path, err)
	}
	return path, nil
}

// emitStage forwards stage updates when a callback is configured.
func emitStage(cb func(stage string), stage string) {
	if cb != nil {
		cb(stage)
	}
}

// mimeSubtype extracts the subtype from a MIME string, ignoring parameters.
func mimeSubtype(value string) string {
	parsed, _, err := mime.ParseMediaType(value)
	if err != nil {
		parsed = value
	}
	_, subtype, found := strings.Cut(parsed, "/")
	if !found {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(subtype))
}

// buildArgs builds the executable argument vector. The output path is passed
// without extension; the executable appends its own ".json". Caller extras
// go last so they can override the fixed flags.
func buildArgs(inputPath, modelPath, outputBase string, extra []string) []string {
	args := []string{
		"--file", inputPath,
		"--model", modelPath,
		"--output-json",
		"--output-file", outputBase,
		"-pp",
		"--split-on-word",
		"--max-len", "1",
	}
	return append(args, extra...)
}

// parseProgressLine reports the percentage embedded in a progress line.
// Lines without the marker are ignored; a marker line with no parseable
// percentage reports 0.
func parseProgressLine(line string) (int, bool) {
	if !strings.HasPrefix(line, progressMarker) {
		return 0, false
	}

	match := progressPattern.FindStringSubmatch(line)
	if match == nil {
		return 0, true
	}
	percent, err := strconv.Atoi(match[1])
	if err != nil || percent < 0 {
		return 0, true
	}
	if percent > 100 {
		percent = 100
	}
	return percent, true
}

// NewRunnerForTests constructs a runner with injectable dependencies.
func NewRunnerForTests(
	exePath string,
	cacheDir string,
	defaultModelPath string,
	models modelResolver,
	runner commandRunner,
	now func() time.Time,
) *Runner {
	return &Runner{
		exePath:          exePath,
		cacheDir:         cacheDir,
		defaultModelPath: defaultModelPath,
		models:           models,
		timeout:          defaultJobTimeout,
		runner:           runner,
		stat:             os.Stat,
		readFile:         os.ReadFile,
		writeFile:        os.WriteFile,
		mkdirAll:         os.MkdirAll,
		now:              now,
		log:              logging.For("whisper"),
	}
}
