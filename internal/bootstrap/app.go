package bootstrap

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	goruntime "runtime"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"

	"ocr-studio/internal/config"
	"ocr-studio/internal/diagnostics"
	"ocr-studio/internal/domain"
	"ocr-studio/internal/jobs"
	"ocr-studio/internal/logging"
	"ocr-studio/internal/ocr"

	wailsruntime "github.com/wailsapp/wails/v2/pkg/runtime"
)

var pdfDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "PDF files",
		Pattern:     "*.pdf",
	},
	{
		DisplayName: "All files",
		Pattern:     "*",
	},
}

var textDialogFilter = []wailsruntime.FileFilter{
	{
		DisplayName: "Text files",
		Pattern:     "*.txt",
	},
}

// JobRequest is the per-run input collected by the UI.
type JobRequest struct {
	SourcePath    string `json:"sourcePath"`
	OutputPath    string `json:"outputPath"`
	Language      string `json:"language"`
	CleanupImages bool   `json:"cleanupImages"`
}

// App wires configuration, jobs, pipeline, and UI runtime callbacks.
type App struct {
	Settings    domain.Settings
	Store       config.Store
	Jobs        *jobs.Manager
	Diagnostics domain.DiagnosticReport
	Logger      zerolog.Logger
	assets      fs.FS
	checker     *diagnostics.Checker
	listLangs   diagnostics.LanguageLister
	newPipeline func(domain.Settings) jobs.Pipeline

	mu         sync.Mutex
	task       *jobs.Task
	events     *jobs.EventBus
	runtimeCtx context.Context
	baseCtx    context.Context
	stop       context.CancelFunc
}

// New builds the application with persisted settings and startup diagnostics.
func New() (*App, error) {
	return NewWithAssets(nil)
}

// NewWithAssets builds the application and optionally configures embedded frontend assets.
func NewWithAssets(assets fs.FS) (*App, error) {
	store := config.NewYAMLStore(config.DefaultPath())
	settings, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	logger := logging.New(logging.Config{Level: settings.LogLevel, Format: "console"})
	checker := diagnostics.NewChecker(logger)
	report := checker.Run(context.Background(), settings)

	baseCtx, stop := context.WithCancel(context.Background())
	app := &App{
		Settings:    settings,
		Store:       store,
		Jobs:        jobs.NewManager(),
		Diagnostics: report,
		Logger:      logger,
		assets:      assets,
		checker:     checker,
		listLangs:   diagnostics.TesseractLanguages(logger),
		newPipeline: func(s domain.Settings) jobs.Pipeline {
			return ocr.NewPipeline(ocr.OptionsFromSettings(s, logger))
		},
		events:  jobs.NewEventBus(1000),
		baseCtx: baseCtx,
		stop:    stop,
	}

	if err := store.Watch(app.applySettings); err != nil {
		logger.Warn().Err(err).Str("path", store.Path()).Msg("settings hot reload disabled")
	}
	return app, nil
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
		Title:       "PDF OCR Processor",
		Width:       900,
		Height:      720,
		AssetServer: assetOptions,
		OnStartup:   a.Startup,
		OnShutdown:  a.Shutdown,
		Bind:        []interface{}{a},
	})
}

// Startup stores Wails runtime context for push events.
func (a *App) Startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.runtimeCtx = ctx
}

// Shutdown stops a running job at its next poll point and waits for it.
func (a *App) Shutdown(context.Context) {
	a.mu.Lock()
	a.runtimeCtx = nil
	task := a.task
	stop := a.stop
	a.mu.Unlock()

	if stop != nil {
		stop()
	}
	if task != nil {
		task.Cancel()
		<-task.Done()
	}
}

// GetDiagnostics returns the latest cached diagnostics report.
func (a *App) GetDiagnostics() domain.DiagnosticReport {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.Diagnostics
}

// GetSettings loads and returns the latest persisted settings.
func (a *App) GetSettings() (domain.Settings, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	return settings, nil
}

// SaveSettings normalizes and persists settings, then refreshes diagnostics.
func (a *App) SaveSettings(settings domain.Settings) (domain.Settings, error) {
	normalized := config.Normalize(settings)
	if err := a.Store.Save(normalized); err != nil {
		return domain.Settings{}, fmt.Errorf("save settings: %w", err)
	}

	a.refreshDiagnosticsFromSettings(normalized)
	return normalized, nil
}

// applySettings handles settings reloaded from disk.
func (a *App) applySettings(settings domain.Settings) {
	a.Logger.Info().Str("language", settings.Language).Msg("settings reloaded")
	report := a.refreshDiagnosticsFromSettings(settings)
	a.emit("settings:changed", settings)
	a.emit("diagnostics:changed", report)
}

func (a *App) refreshDiagnosticsFromSettings(settings domain.Settings) domain.DiagnosticReport {
	var report domain.DiagnosticReport
	if a.checker != nil {
		report = a.checker.Run(a.context(), settings)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Settings = settings
	if a.checker != nil {
		a.Diagnostics = report
	}
	return a.Diagnostics
}

// RefreshDiagnostics reloads settings and reruns dependency checks.
func (a *App) RefreshDiagnostics() (domain.DiagnosticReport, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.DiagnosticReport{}, fmt.Errorf("load settings: %w", err)
	}
	return a.refreshDiagnosticsFromSettings(settings), nil
}

// PickInputFile opens a native file dialog for PDF selection.
func (a *App) PickInputFile() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenFileDialog(ctx, wailsruntime.OpenDialogOptions{
		Title:   "Select PDF file",
		Filters: pdfDialogFilter,
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputFile opens a native save dialog prefilled from the source PDF.
func (a *App) PickOutputFile(sourcePath string) (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	opts := wailsruntime.SaveDialogOptions{
		Title:   "Save extracted text as",
		Filters: textDialogFilter,
	}
	if src := strings.TrimSpace(sourcePath); src != "" {
		def := a.defaultOutputPath(src)
		opts.DefaultDirectory = filepath.Dir(def)
		opts.DefaultFilename = filepath.Base(def)
	}

	path, err := wailsruntime.SaveFileDialog(ctx, opts)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// PickOutputDirectory opens a native directory picker for text exports.
func (a *App) PickOutputDirectory() (string, error) {
	ctx, err := a.runtimeContext()
	if err != nil {
		return "", err
	}

	path, err := wailsruntime.OpenDirectoryDialog(ctx, wailsruntime.OpenDialogOptions{
		Title: "Select output directory",
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(path), nil
}

// DefaultOutputPath suggests the output file for a selected PDF.
func (a *App) DefaultOutputPath(sourcePath string) string {
	return a.defaultOutputPath(strings.TrimSpace(sourcePath))
}

func (a *App) defaultOutputPath(sourcePath string) string {
	out := ocr.DefaultOutputPath(sourcePath)

	a.mu.Lock()
	dir := a.Settings.OutputDir
	a.mu.Unlock()
	if dir != "" {
		out = filepath.Join(dir, filepath.Base(out))
	}
	return out
}

// OpenResult opens the extracted text file with the system default application.
func (a *App) OpenResult(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.Jobs.Current().OutputPath
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}
	if _, err := os.Stat(target); err != nil {
		return fmt.Errorf("resolve output file: %w", err)
	}
	return openWithSystem(target)
}

// OpenOutputFolder opens the folder containing path in the file manager.
func (a *App) OpenOutputFolder(path string) error {
	target := strings.TrimSpace(path)
	if target == "" {
		target = a.Jobs.Current().OutputPath
	}
	if target == "" {
		return fmt.Errorf("output path is empty")
	}

	info, err := os.Stat(target)
	if err != nil {
		return fmt.Errorf("resolve output path: %w", err)
	}

	openPath := target
	if !info.IsDir() {
		openPath = filepath.Dir(target)
	}

	return openWithSystem(openPath)
}

// StartOCR validates the request and runs the job on a background goroutine.
func (a *App) StartOCR(req JobRequest) (domain.Job, error) {
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Job{}, fmt.Errorf("load settings: %w", err)
	}
	settings = config.Normalize(settings)

	a.mu.Lock()
	a.Settings = settings
	a.mu.Unlock()

	output := strings.TrimSpace(req.OutputPath)
	if output == "" && strings.TrimSpace(req.SourcePath) != "" {
		output = a.defaultOutputPath(strings.TrimSpace(req.SourcePath))
	}
	language := req.Language
	if strings.TrimSpace(language) == "" {
		language = settings.Language
	}

	job := ocr.NewJob(req.SourcePath, output, language, req.CleanupImages)
	if err := job.Validate(); err != nil {
		return domain.Job{}, err
	}
	if a.checker != nil {
		if err := a.checker.RequireTools(settings); err != nil {
			a.Logger.Warn().Err(err).Msg("ocr job not started")
			return domain.Job{}, err
		}
	}
	if err := a.Jobs.Start(job); err != nil {
		return domain.Job{}, err
	}

	stream := jobs.NewStream(256, a.deliver)
	pipeline := a.pipelineFor(settings)
	logger := a.Logger.With().Str("job_id", job.ID).Logger()
	logger.Info().Str("source", job.SourcePath).Str("output", job.OutputPath).Str("language", job.Language).Msg("ocr job started")

	ctx := a.context()

	// Hold mu so clearActiveTask in the finish callback runs only after a.task is set.
	a.mu.Lock()
	a.task = jobs.StartTask(ctx, pipeline, job, stream, func(out ocr.Outcome) {
		stream.Publish(jobs.OutcomeEvent(out))
		stream.Close()
		if err := a.Jobs.Transition(out.State); err != nil {
			logger.Warn().Err(err).Msg("job status out of sync")
		}
		a.clearActiveTask(job.ID)
		a.showNotice(out.Notice)
	})
	a.mu.Unlock()

	return a.Jobs.Current(), nil
}

// CancelOCR requests cooperative cancellation of the running job.
func (a *App) CancelOCR() error {
	if err := a.Jobs.Cancel(); err != nil {
		return err
	}
	current := a.Jobs.Current()
	a.Logger.Info().Str("job_id", current.ID).Msg("cancellation requested")
	return nil
}

// CurrentJob returns current job metadata and status.
func (a *App) CurrentJob() domain.Job {
	return a.Jobs.Current()
}

// JobEvents returns all events with sequence greater than sinceSeq.
func (a *App) JobEvents(sinceSeq int64) []jobs.Event {
	return a.events.Since(sinceSeq)
}

// deliver runs on the stream consumer goroutine, in emission order.
func (a *App) deliver(event jobs.Event) {
	if event.Type == jobs.EventTypeStatus {
		if err := a.Jobs.Transition(event.Status); err != nil {
			a.Logger.Debug().Err(err).Msg("ignored status event")
		}
	}
	a.publishEvent(event)
}

// publishEvent stores event history and emits runtime push notifications.
func (a *App) publishEvent(event jobs.Event) {
	published := a.events.Publish(event)
	a.emit("job:event", published)
}

func (a *App) emit(name string, payload interface{}) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx != nil {
		wailsruntime.EventsEmit(ctx, name, payload)
	}
}

// showNotice presents the job's final message without blocking the worker.
func (a *App) showNotice(notice ocr.Notice) {
	a.mu.Lock()
	ctx := a.runtimeCtx
	a.mu.Unlock()
	if ctx == nil || notice.Message == "" {
		return
	}

	dialogType := wailsruntime.InfoDialog
	switch notice.Severity {
	case ocr.SeverityError:
		dialogType = wailsruntime.ErrorDialog
	case ocr.SeverityWarning:
		dialogType = wailsruntime.WarningDialog
	}
	go func() {
		_, _ = wailsruntime.MessageDialog(ctx, wailsruntime.MessageDialogOptions{
			Type:    dialogType,
			Title:   notice.Title,
			Message: notice.Message,
		})
	}()
}

// clearActiveTask drops the task handle once its job has finished.
func (a *App) clearActiveTask(jobID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.task != nil && a.task.Job().ID == jobID {
		a.task = nil
	}
}

func (a *App) pipelineFor(settings domain.Settings) jobs.Pipeline {
	if a.newPipeline != nil {
		return a.newPipeline(settings)
	}
	return ocr.NewPipeline(ocr.OptionsFromSettings(settings, a.Logger))
}

// context is the parent for job runs; it is cancelled on shutdown.
func (a *App) context() context.Context {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.baseCtx == nil {
		return context.Background()
	}
	return a.baseCtx
}

// runtimeContext returns current Wails runtime context for dialog APIs.
func (a *App) runtimeContext() (context.Context, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runtimeCtx == nil {
		return nil, fmt.Errorf("runtime context is not initialized")
	}
	return a.runtimeCtx, nil
}

// openWithSystem hands path to the platform's default opener.
func openWithSystem(path string) error {
	var cmd *exec.Cmd
	switch goruntime.GOOS {
	case "darwin":
		cmd = exec.Command("open", path)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", filepath.Clean(path))
	default:
		cmd = exec.Command("xdg-open", path)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("launch system opener: %w", err)
	}
	return nil
}
