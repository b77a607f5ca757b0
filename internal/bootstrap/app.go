// Package bootstrap wires the settings store, model catalog, health checker,
// and transcription runner together and exposes them to the host UI as Wails
// bound methods plus push events.
package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	charmlog "github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"github.com/sarnaz1304/everyone-can-use-english/internal/catalog"
	"github.com/sarnaz1304/everyone-can-use-english/internal/cloud"
	"github.com/sarnaz1304/everyone-can-use-english/internal/config"
	"github.com/sarnaz1304/everyone-can-use-english/internal/domain"
	"github.com/sarnaz1304/everyone-can-use-english/internal/jobs"
	"github.com/sarnaz1304/everyone-can-use-english/internal/logging"
	"github.com/sarnaz1304/everyone-can-use-english/internal/whisper"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var audioDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Audio files",
		Pattern:     "*.wav;*.mp3;*.m4a;*.flac;*.aac;*.ogg;*.webm",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

// transcriber runs one local transcription job; implemented by whisper.Runner.
type transcriber interface {
	Transcribe(ctx context.Context, req whisper.Request, opts whisper.Options) (whisper.Transcript, error)
}

// healthChecker smoke-tests the executable and runs full pipeline checks.
type healthChecker interface {
	Initialize(ctx context.Context) error
	Check(ctx context.Context) domain.HealthReport
}

// catalogResolver refreshes the on-disk model list.
type catalogResolver interface {
	ResolveModels(modelsDir string) ([]domain.ModelDescriptor, error)
}

// App exposes configuration, health, and transcription operations to the UI.
type App struct {
	Store   config.Store
	Catalog catalogResolver
	Jobs    *jobs.Manager
	Runner  transcriber
	Health  healthChecker

	assets     fs.FS
	events     *jobs.EventBus
	backendFor func(domain.Settings) (cloud.Backend, error)
	download   func(url, dest string) error
	log        *charmlog.Logger

	mu         sync.Mutex
	runtimeCtx context.Context
}

// TranscribeRequest is one transcription call from the UI. Exactly one of
// FilePath and Buffer must be set.
type TranscribeRequest struct {
	FilePath  string   `json:"filePath,omitempty"`
	Buffer    []byte   `json:"buffer,omitempty"`
	MimeType  string   `json:"mimeType,omitempty"`
	Force     bool     `json:"force,omitempty"`
	ExtraArgs []string `json:"extraArgs,omitempty"`
}

// TranscribeResponse carries the finished transcript back to the caller.
// Progress arrives out of band on the transcribe:progress event channel.
type TranscribeResponse struct {
	JobID    string            `json:"jobId"`
	Text     string            `json:"text"`
	Language string            `json:"language,omitempty"`
	Segments []whisper.Segment `json:"segments,omitempty"`
}

// New builds the application against the user's library directory.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded
// frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve user home: %w", err)
	}

	store := config.NewJSONStore(filepath.Join(homeDir, ".enjoy", "settings.json"))
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	resolver := catalog.NewResolver(store)
	exePath := whisper.ResolveExecutable(settings.LibraryDir, bundledExecutablePath())
	defaultModel := filepath.Join(settings.ModelsDir, catalog.DefaultModelName)
	runner := whisper.NewRunner(exePath, settings.CacheDir, defaultModel, resolver)
	samplePath := filepath.Join(settings.LibraryDir, "samples", "jfk.wav")
	health := whisper.NewHealth(exePath, samplePath, store, resolver, runner)

	return &App{
		Store:      store,
		Catalog:    resolver,
		Jobs:       jobs.NewManager(),
		Runner:     runner,
		Health:     health,
		assets:     assets,
		events:     jobs.NewEventBus(1000),
		backendFor: cloud.ForService,
		download:   downloadURLToFile,
		log:        logging.For("bootstrap"),
	}, nil
}

// Run starts the Wails desktop application and binds backend methods.
func (a *App) Run() error {
	assetOptions := &assetserver.Options{}
	if a.assets != nil {
		assetOptions.Assets = a.assets
	} else {
		assetOptions.Handler = http.FileServer(http.Dir("./frontend"))
	}

	return wails.Run(&options.App{
		Title:       "Enjoy Transcriber",
		Width:       1180,
		Height:      780,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown: func(ctx context.Context) {
			a.mu.Lock()
			defer a.mu.Unlock()
			a.runtimeCtx = nil
		},
		Bind: []interface{}{a},
	})
}

// Startup stores the Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// GetConfiguration reinitializes the local engine and returns the persisted
// settings plus readiness. It never returns an error: a broken executable or
// unreadable settings file reports as not ready with defaults.
func (a *App) GetConfiguration() domain.Configuration {
	ctx := context.Background()

	ready := true
	if err := a.Health.Initialize(ctx); err != nil {
		ready = false
		a.log.Warn("initialization failed", "err", err)
	}

	settings, err := a.Store.Load()
	if err != nil {
		a.log.Error("load settings", "err", err)
		settings = config.DefaultSettings()
		ready = false
	}

	return domain.Configuration{Settings: settings, Ready: ready}
}

// ListSupportedModels returns the static table of downloadable models.
func (a *App) ListSupportedModels() []domain.ModelDescriptor {
	return catalog.SupportedModels()
}

// SetModel persists a new model selection and validates it with a full
// health check. A failed check reverts the selection to its previous value
// before reporting the error.
func (a *App) SetModel(name string) (domain.Configuration, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("load settings: %w", err)
	}

	previous := settings.Model
	settings.Model = name
	if err := a.Store.Save(settings); err != nil {
		return domain.Configuration{}, fmt.Errorf("save settings: %w", err)
	}

	report := a.Health.Check(context.Background())
	if !report.Success {
		if rollbackErr := a.saveModel(previous); rollbackErr != nil {
			a.log.Error("roll back model selection", "model", previous, "err", rollbackErr)
		}
		err := fmt.Errorf("model %s failed health check: %s", name, report.Log)
		a.notifyError(err.Error())
		return domain.Configuration{}, err
	}

	return a.GetConfiguration(), nil
}

// SetService switches the transcription backend. Unknown names are rejected
// against the service allow-list; switching to local reinitializes the
// engine and reverts on failure.
func (a *App) SetService(name string) (domain.Configuration, error) {
	if !domain.IsKnownService(name) {
		return domain.Configuration{}, fmt.Errorf("unknown transcription service: %s", name)
	}

	settings, err := a.Store.Load()
	if err != nil {
		return domain.Configuration{}, fmt.Errorf("load settings: %w", err)
	}

	previous := settings.Service
	settings.Service = domain.Service(name)
	if err := a.Store.Save(settings); err != nil {
		return domain.Configuration{}, fmt.Errorf("save settings: %w", err)
	}

	if settings.Service == domain.ServiceLocal {
		if err := a.Health.Initialize(context.Background()); err != nil {
			if rollbackErr := a.saveService(previous); rollbackErr != nil {
				a.log.Error("roll back service selection", "service", previous, "err", rollbackErr)
			}
			a.notifyError(err.Error())
			return domain.Configuration{}, fmt.Errorf("local service unavailable: %w", err)
		}
	}

	return a.GetConfiguration(), nil
}

// RunHealthCheck validates the executable and the full sample pipeline.
func (a *App) RunHealthCheck() domain.HealthReport {
	return a.Health.Check(context.Background())
}

// Transcribe runs one transcription job through the configured service and
// blocks until it finishes. Progress and failures are also pushed out of
// band so the UI can render them while the returned promise is pending.
func (a *App) Transcribe(req TranscribeRequest) (TranscribeResponse, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return TranscribeResponse{}, fmt.Errorf("load settings: %w", err)
	}

	jobID := uuid.NewString()
	if _, err := a.Jobs.Create(jobID); err != nil {
		return TranscribeResponse{}, err
	}

	ctx := context.Background()
	if settings.Service == domain.ServiceLocal {
		return a.runLocalJob(ctx, jobID, req)
	}
	return a.runCloudJob(ctx, jobID, req, settings)
}

// GetJob returns a snapshot of one job.
func (a *App) GetJob(jobID string) (domain.Job, error) {
	job, ok := a.Jobs.Get(jobID)
	if !ok {
		return domain.Job{}, jobs.ErrUnknownJob
	}
	return job, nil
}

// ClearJob drops a finished job from the registry. Jobs still in flight are
// left alone, so the UI can call this unconditionally after rendering a
// result. History in the event bus is unaffected.
func (a *App) ClearJob(jobID string) {
	a.Jobs.Remove(jobID)
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// PickAudioFile opens a native file dialog for audio selection.
func (a *App) PickAudioFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select audio file",
		Filters: audioDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// runLocalJob drives the whisper.cpp runner and maps its stages onto the job
// state machine.
func (a *App) runLocalJob(ctx context.Context, jobID string, req TranscribeRequest) (TranscribeResponse, error) {
	whisperReq := whisper.Request{
		FilePath: req.FilePath,
		Buffer:   req.Buffer,
		MimeType: req.MimeType,
		OnStage: func(stage string) {
			status, ok := mapStageToStatus(stage)
			if !ok {
				return
			}
			if err := a.Jobs.Transition(jobID, status); err == nil {
				a.publishStatus(jobID, status)
			}
		},
		OnProgress: func(percent int) {
			a.Jobs.SetProgress(jobID, percent)
			a.publishProgress(jobID, percent)
		},
	}

	transcript, err := a.Runner.Transcribe(ctx, whisperReq, whisper.Options{
		Force:     req.Force,
		ExtraArgs: req.ExtraArgs,
	})
	if err != nil {
		status := failureStatus(err)
		if transitionErr := a.Jobs.Transition(jobID, status); transitionErr == nil {
			a.publishStatus(jobID, status)
		}
		a.publishJobError(jobID, status, err)
		return TranscribeResponse{JobID: jobID}, err
	}

	return a.finishJob(jobID, transcript.Text(), transcript.Result.Language, transcript.Transcription)
}

// runCloudJob forwards the audio file to the configured cloud backend. Cloud
// services accept file inputs only; the job still walks the same state
// machine so the UI renders both paths identically.
func (a *App) runCloudJob(ctx context.Context, jobID string, req TranscribeRequest, settings domain.Settings) (TranscribeResponse, error) {
	a.transition(jobID, domain.JobStatusValidating)

	fail := func(status domain.JobStatus, err error) (TranscribeResponse, error) {
		a.transition(jobID, status)
		a.publishJobError(jobID, status, err)
		return TranscribeResponse{JobID: jobID}, err
	}

	if strings.TrimSpace(req.FilePath) == "" {
		return fail(domain.JobStatusRejected, fmt.Errorf("%s service requires a file input", settings.Service))
	}

	backend, err := a.backendFor(settings)
	if err != nil {
		return fail(domain.JobStatusRejected, err)
	}

	a.transition(jobID, domain.JobStatusSpawning)
	a.transition(jobID, domain.JobStatusRunning)

	result, err := backend.Transcribe(ctx, req.FilePath)
	if err != nil {
		return fail(domain.JobStatusFailed, err)
	}

	return a.finishJob(jobID, result.Text, result.Language, nil)
}

// finishJob marks a job done and publishes its result event.
func (a *App) finishJob(jobID, text, language string, segments []whisper.Segment) (TranscribeResponse, error) {
	a.Jobs.SetProgress(jobID, 100)
	a.transition(jobID, domain.JobStatusDone)
	a.publishEvent(jobs.Event{
		JobID:    jobID,
		Type:     jobs.EventTypeResult,
		Status:   domain.JobStatusDone,
		Text:     text,
		Language: language,
	}, "")

	return TranscribeResponse{
		JobID:    jobID,
		Text:     text,
		Language: language,
		Segments: segments,
	}, nil
}

// transition applies a job transition and publishes it when accepted.
func (a *App) transition(jobID string, status domain.JobStatus) {
	if err := a.Jobs.Transition(jobID, status); err == nil {
		a.publishStatus(jobID, status)
	}
}

// publishStatus records and pushes one status event.
func (a *App) publishStatus(jobID string, status domain.JobStatus) {
	a.publishEvent(jobs.Event{
		JobID:  jobID,
		Type:   jobs.EventTypeStatus,
		Status: status,
	}, "")
}

// publishProgress records and pushes one progress event.
func (a *App) publishProgress(jobID string, percent int) {
	a.publishEvent(jobs.Event{
		JobID:    jobID,
		Type:     jobs.EventTypeProgress,
		Progress: percent,
	}, "transcribe:progress")
}

// publishJobError records the failure in job history and raises an app-level
// error notification.
func (a *App) publishJobError(jobID string, status domain.JobStatus, err error) {
	a.publishEvent(jobs.Event{
		JobID:   jobID,
		Type:    jobs.EventTypeError,
		Status:  status,
		Message: err.Error(),
	}, "app:error")
}

// publishEvent stores the event in history and, when an event channel is
// given, pushes it to the UI through the Wails runtime.
func (a *App) publishEvent(event jobs.Event, channel string) {
	published := a.events.Publish(event)

	if channel == "" {
		return
	}
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, channel, published)
	}
}

// notifyError raises an app-level error notification unrelated to a job.
func (a *App) notifyError(message string) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, "app:error", message)
	}
}

// saveModel persists only the model field of settings.
func (a *App) saveModel(name string) error {
	settings, err := a.Store.Load()
	if err != nil {
		return err
	}
	settings.Model = name
	return a.Store.Save(settings)
}

// saveService persists only the service field of settings.
func (a *App) saveService(service domain.Service) error {
	settings, err := a.Store.Load()
	if err != nil {
		return err
	}
	settings.Service = service
	return a.Store.Save(settings)
}

// runtimeContext returns the current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// mapStageToStatus maps runner stage names to job statuses.
func mapStageToStatus(stage string) (domain.JobStatus, bool) {
	switch stage {
	case "validating":
		return domain.JobStatusValidating, true
	case "spawning":
		return domain.JobStatusSpawning, true
	case "running":
		return domain.JobStatusRunning, true
	default:
		return "", false
	}
}

// failureStatus maps a transcription error onto its terminal job status.
func failureStatus(err error) domain.JobStatus {
	switch whisper.KindOf(err) {
	case whisper.KindInvalidRequest:
		return domain.JobStatusRejected
	case whisper.KindSpawn:
		return domain.JobStatusErrored
	case whisper.KindIncomplete:
		return domain.JobStatusFailed
	default:
		return domain.JobStatusErrored
	}
}

// bundledExecutablePath locates the whisper.cpp binary shipped next to the
// application executable.
func bundledExecutablePath() string {
	name := "main"
	if goruntime.GOOS == "windows" {
		name = "main.exe"
	}

	exe, err := os.Executable()
	if err != nil {
		return filepath.Join("lib", "whisper", name)
	}
	return filepath.Join(filepath.Dir(exe), "lib", "whisper", name)
}
