package bootstrap

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ocr-studio/internal/diagnostics"
	"ocr-studio/internal/domain"
	"ocr-studio/internal/jobs"
	"ocr-studio/internal/ocr"
)

// fakeStore returns deterministic settings for App tests.
type fakeStore struct {
	settings domain.Settings
	saved    []domain.Settings
}

// Load returns preconfigured settings.
func (s *fakeStore) Load() (domain.Settings, error) {
	return s.settings, nil
}

// Save records settings for assertions.
func (s *fakeStore) Save(cfg domain.Settings) error {
	s.saved = append(s.saved, cfg)
	s.settings = cfg
	return nil
}

// fakeRunner answers tool invocations with an injected function.
type fakeRunner struct {
	run func(name string, args ...string) (ocr.CommandResult, error)
}

// Run delegates to injected function.
func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) (ocr.CommandResult, error) {
	return r.run(name, args...)
}

// fakePipeline allows injecting custom run behavior per test.
type fakePipeline struct {
	run func(ctx context.Context, job *ocr.Job, sink ocr.Sink) ocr.Outcome
}

// Run delegates to injected function.
func (p *fakePipeline) Run(ctx context.Context, job *ocr.Job, sink ocr.Sink) ocr.Outcome {
	return p.run(ctx, job, sink)
}

func newTestApp(t *testing.T, runner ocr.Runner) *App {
	t.Helper()
	return &App{
		Store:  &fakeStore{settings: domain.Settings{Language: "eng"}},
		Jobs:   jobs.NewManager(),
		Logger: zerolog.Nop(),
		checker: diagnostics.NewCheckerForTests(
			func(name string) (string, error) { return "/usr/bin/" + name, nil },
			os.MkdirAll, os.CreateTemp, os.Remove, nil,
		),
		newPipeline: func(s domain.Settings) jobs.Pipeline {
			opts := ocr.OptionsFromSettings(s, zerolog.Nop())
			opts.TempDir = t.TempDir()
			return ocr.NewPipelineWithRunner(opts, runner)
		},
		events: jobs.NewEventBus(100),
	}
}

func writePDF(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scan.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("write pdf: %v", err)
	}
	return path
}

// TestStartOCREnforcesSingleRunningJob checks single-job guard and cooperative cancel.
func TestStartOCREnforcesSingleRunningJob(t *testing.T) {
	app := newTestApp(t, nil)
	app.newPipeline = func(domain.Settings) jobs.Pipeline {
		return &fakePipeline{run: func(ctx context.Context, job *ocr.Job, sink ocr.Sink) ocr.Outcome {
			for !job.CancelRequested() {
				time.Sleep(5 * time.Millisecond)
			}
			return ocr.Outcome{JobID: job.ID, State: domain.JobStatusCancelled}
		}}
	}
	source := writePDF(t)

	if _, err := app.StartOCR(JobRequest{SourcePath: source, CleanupImages: true}); err != nil {
		t.Fatalf("start first job: %v", err)
	}
	if _, err := app.StartOCR(JobRequest{SourcePath: source}); !errors.Is(err, jobs.ErrJobAlreadyRunning) {
		t.Fatalf("second start error = %v, want %v", err, jobs.ErrJobAlreadyRunning)
	}

	if err := app.CancelOCR(); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	waitForStatus(t, app, domain.JobStatusCancelled)

	if err := app.CancelOCR(); !errors.Is(err, jobs.ErrNoRunningJob) {
		t.Fatalf("cancel after finish = %v, want %v", err, jobs.ErrNoRunningJob)
	}
}

// TestStartOCRPublishesProgressAndResultEvents runs the real pipeline against fake tools.
func TestStartOCRPublishesProgressAndResultEvents(t *testing.T) {
	runner := &fakeRunner{run: func(name string, args ...string) (ocr.CommandResult, error) {
		if name == "pdftoppm" {
			prefix := args[len(args)-1]
			for _, n := range []string{"1", "2"} {
				if err := os.WriteFile(prefix+"-"+n+".png", []byte("png"), 0o644); err != nil {
					t.Errorf("write page: %v", err)
				}
			}
			return ocr.CommandResult{}, nil
		}
		return ocr.CommandResult{Stdout: "text"}, nil
	}}
	app := newTestApp(t, runner)
	source := writePDF(t)

	job, err := app.StartOCR(JobRequest{SourcePath: source, CleanupImages: true})
	if err != nil {
		t.Fatalf("start job: %v", err)
	}
	if job.OutputPath != filepath.Join(filepath.Dir(source), "scan_extracted.txt") {
		t.Fatalf("output path = %q", job.OutputPath)
	}

	waitForStatus(t, app, domain.JobStatusDone)
	events := waitForEventType(t, app, jobs.EventTypeResult)

	assertEventTypeExists(t, events, jobs.EventTypeStatus)
	assertEventTypeExists(t, events, jobs.EventTypeProgress)
	assertEventTypeExists(t, events, jobs.EventTypeLog)

	for i := 1; i < len(events); i++ {
		if events[i].Seq <= events[i-1].Seq {
			t.Fatalf("events out of order at %d: %+v", i, events)
		}
	}
	last := events[len(events)-1]
	if last.Type != jobs.EventTypeResult || last.TotalPages != 2 {
		t.Fatalf("last event = %+v", last)
	}

	data, err := os.ReadFile(job.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "\n\n--- Page 1 ---\ntext\n\n--- Page 2 ---\ntext" {
		t.Fatalf("output = %q", data)
	}
}

// TestStartOCRPublishesFailureEvents checks error path emissions.
func TestStartOCRPublishesFailureEvents(t *testing.T) {
	runner := &fakeRunner{run: func(name string, args ...string) (ocr.CommandResult, error) {
		return ocr.CommandResult{ExitCode: 1, Stderr: "May not be a PDF file"}, nil
	}}
	app := newTestApp(t, runner)

	if _, err := app.StartOCR(JobRequest{SourcePath: writePDF(t), CleanupImages: true}); err != nil {
		t.Fatalf("start job: %v", err)
	}

	waitForStatus(t, app, domain.JobStatusFailed)
	events := waitForEventType(t, app, jobs.EventTypeError)
	assertEventTypeExists(t, events, jobs.EventTypeStatus)
	assertEventTypeExists(t, events, jobs.EventTypeLog)
}

// TestStartOCRRejectsInvalidRequest checks validation happens before a job starts.
func TestStartOCRRejectsInvalidRequest(t *testing.T) {
	app := newTestApp(t, nil)

	if _, err := app.StartOCR(JobRequest{}); !errors.Is(err, ocr.ErrInvalidJob) {
		t.Fatalf("err = %v, want invalid job", err)
	}
	if _, err := app.StartOCR(JobRequest{SourcePath: writePDF(t), Language: "xx"}); !errors.Is(err, ocr.ErrInvalidJob) {
		t.Fatalf("err = %v, want invalid job", err)
	}
	if app.Jobs.IsRunning() {
		t.Fatal("no job should be running")
	}
}

// TestStartOCRRequiresTools checks a missing tool is reported before any stage runs.
func TestStartOCRRequiresTools(t *testing.T) {
	app := newTestApp(t, nil)
	app.checker = diagnostics.NewCheckerForTests(
		func(name string) (string, error) { return "", exec.ErrNotFound },
		os.MkdirAll, os.CreateTemp, os.Remove, nil,
	)
	ran := false
	app.newPipeline = func(domain.Settings) jobs.Pipeline {
		return &fakePipeline{run: func(ctx context.Context, job *ocr.Job, sink ocr.Sink) ocr.Outcome {
			ran = true
			return ocr.Outcome{JobID: job.ID, State: domain.JobStatusDone}
		}}
	}

	_, err := app.StartOCR(JobRequest{SourcePath: writePDF(t), CleanupImages: true})
	if !errors.Is(err, diagnostics.ErrToolsMissing) {
		t.Fatalf("err = %v, want %v", err, diagnostics.ErrToolsMissing)
	}
	if app.Jobs.Current().Status != domain.JobStatusIdle {
		t.Fatalf("job state = %+v", app.Jobs.Current())
	}
	if events := app.JobEvents(0); len(events) != 0 {
		t.Fatalf("unexpected events: %+v", events)
	}
	if ran {
		t.Fatal("pipeline must not run without tools")
	}
}

// TestStartOCRClearsFinishedTask checks a task that finishes immediately is not left registered.
func TestStartOCRClearsFinishedTask(t *testing.T) {
	app := newTestApp(t, nil)
	app.newPipeline = func(domain.Settings) jobs.Pipeline {
		return &fakePipeline{run: func(ctx context.Context, job *ocr.Job, sink ocr.Sink) ocr.Outcome {
			return ocr.Outcome{JobID: job.ID, State: domain.JobStatusCancelled}
		}}
	}

	if _, err := app.StartOCR(JobRequest{SourcePath: writePDF(t)}); err != nil {
		t.Fatalf("start job: %v", err)
	}
	waitForEventType(t, app, jobs.EventTypeResult)

	deadline := time.Now().Add(2 * time.Second)
	for {
		app.mu.Lock()
		task := app.task
		app.mu.Unlock()
		if task == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("finished task still registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// TestDefaultOutputPathUsesOutputDir checks the configured output directory wins.
func TestDefaultOutputPathUsesOutputDir(t *testing.T) {
	app := newTestApp(t, nil)
	app.Settings.OutputDir = "/exports"

	if got := app.DefaultOutputPath("/docs/a.pdf"); got != filepath.Join("/exports", "a_extracted.txt") {
		t.Fatalf("DefaultOutputPath() = %q", got)
	}
}

// waitForStatus polls until job reaches desired status or times out.
func waitForStatus(t *testing.T, app *App, want domain.JobStatus) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if app.CurrentJob().Status == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("status = %s, want %s", app.CurrentJob().Status, want)
}

// waitForEventType polls the event history until an event of type want arrives.
func waitForEventType(t *testing.T, app *App, want jobs.EventType) []jobs.Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		events := app.JobEvents(0)
		for _, event := range events {
			if event.Type == want {
				return events
			}
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("event type %s not published", want)
	return nil
}

// assertEventTypeExists verifies at least one event of given type exists.
func assertEventTypeExists(t *testing.T, events []jobs.Event, want jobs.EventType) {
	t.Helper()
	for _, event := range events {
		if event.Type == want {
			return
		}
	}
	t.Fatalf("event type %s not found", want)
}
