package ocr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocr-studio/internal/domain"
)

// StateSink is optionally implemented by a Sink that tracks job states.
type StateSink interface {
	State(jobID string, status domain.JobStatus)
}

// Notice is the single user-facing message summarizing a finished job.
type Notice struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

// Outcome is the final result of one pipeline run.
type Outcome struct {
	JobID      string           `json:"jobId"`
	State      domain.JobStatus `json:"state"`
	TotalPages int              `json:"totalPages"`
	Pages      []PageResult     `json:"pages"`
	OutputPath string           `json:"outputPath"`
	WorkArea   string           `json:"workArea,omitempty"`
	Err        error            `json:"-"`
	Notice     Notice           `json:"notice"`
}

// RecognizedPages counts pages whose text reached the output.
func (o Outcome) RecognizedPages() int {
	n := 0
	for _, page := range o.Pages {
		if page.Recognized() {
			n++
		}
	}
	return n
}

// FailedPages lists indexes of pages skipped after a recognition failure.
func (o Outcome) FailedPages() []int {
	var failed []int
	for _, page := range o.Pages {
		if page.Failed {
			failed = append(failed, page.Index)
		}
	}
	return failed
}

// Options configures a production pipeline.
type Options struct {
	RasterizerPath string
	OCRPath        string
	DPI            int
	TessdataDir    string
	PSM            *int
	OEM            *int
	TempDir        string
	ToolTimeout    time.Duration
	Logger         zerolog.Logger
}

// OptionsFromSettings maps persisted settings onto pipeline options.
func OptionsFromSettings(s domain.Settings, logger zerolog.Logger) Options {
	return Options{
		RasterizerPath: s.RasterizerPath,
		OCRPath:        s.OCRPath,
		DPI:            s.DPI,
		TessdataDir:    s.TessdataDir,
		PSM:            engineOption(s.PSM),
		OEM:            engineOption(s.OEM),
		TempDir:        s.TempDir,
		ToolTimeout:    s.ToolTimeout,
		Logger:         logger,
	}
}

// engineOption maps a settings value to an optional tesseract flag value.
func engineOption(v int) *int {
	if v < 0 {
		return nil
	}
	return &v
}

// Pipeline orchestrates page rasterization and per-page recognition.
type Pipeline struct {
	rasterizer *Rasterizer
	recognizer *Recognizer
	logger     zerolog.Logger
	tempRoot   string

	mkdirTemp  func(dir, pattern string) (string, error)
	removeAll  func(path string) error
	mkdirAll   func(path string, perm os.FileMode) error
	createFile func(name string) (io.WriteCloser, error)
	pageCount  func(path string) (int, error)
	now        func() time.Time

	cleanupAttempts uint
	cleanupDelay    time.Duration
}

// NewPipeline constructs the production pipeline with OS dependencies.
func NewPipeline(opts Options) *Pipeline {
	runner := NewExecRunner(opts.Logger)
	runner.Timeout = opts.ToolTimeout
	return NewPipelineWithRunner(opts, runner)
}

// NewPipelineWithRunner constructs a pipeline that launches tools through runner.
func NewPipelineWithRunner(opts Options, runner Runner) *Pipeline {
	recognizer := NewRecognizer(opts.OCRPath, runner)
	recognizer.TessdataDir = opts.TessdataDir
	recognizer.PSM = opts.PSM
	recognizer.OEM = opts.OEM

	return &Pipeline{
		rasterizer: NewRasterizer(opts.RasterizerPath, opts.DPI, runner),
		recognizer: recognizer,
		logger:     opts.Logger,
		tempRoot:   opts.TempDir,
		mkdirTemp:  os.MkdirTemp,
		removeAll:  os.RemoveAll,
		mkdirAll:   os.MkdirAll,
		createFile: func(name string) (io.WriteCloser, error) {
			return os.Create(name)
		},
		pageCount:       pdfPageCount,
		now:             time.Now,
		cleanupAttempts: defaultCleanupAttempts,
		cleanupDelay:    defaultCleanupDelay,
	}
}

// Run executes job to a terminal state and reports every step to sink.
// It never returns before the output file is closed and cleanup has been
// attempted.
func (p *Pipeline) Run(ctx context.Context, job *Job, sink Sink) Outcome {
	r := &run{
		p:     p,
		job:   job,
		ctx:   ctx,
		sink:  sink,
		emit:  newEmitter(job.ID, sink, p.now),
		state: domain.JobStatusIdle,
		log:   p.logger.With().Str("job_id", job.ID).Logger(),
	}
	r.outcome = Outcome{JobID: job.ID, OutputPath: job.OutputPath, State: domain.JobStatusIdle}
	return r.execute()
}

// run holds the mutable state of one controller execution.
type run struct {
	p       *Pipeline
	job     *Job
	ctx     context.Context
	sink    Sink
	emit    *emitter
	state   domain.JobStatus
	log     zerolog.Logger
	outcome Outcome

	workArea string
	out      io.WriteCloser
}

func (r *run) execute() Outcome {
	if err := r.job.Validate(); err != nil {
		return r.fail(err)
	}

	r.emit.log(SeverityInfo, 0, "Starting OCR processing...")
	if err := r.transition(domain.JobStatusRasterizing); err != nil {
		return r.fail(err)
	}
	r.emit.progress(PhaseConverting, 10, "Converting PDF to images...")

	dir, err := r.p.mkdirTemp(r.p.tempRoot, workAreaPattern)
	if err != nil {
		return r.fail(&Error{
			Kind:    KindInternal,
			Stage:   StageRasterization,
			Message: "failed to create temporary workspace",
			Err:     err,
		})
	}
	r.workArea = dir
	r.outcome.WorkArea = dir
	r.log.Debug().Str("work_area", dir).Msg("work area created")

	expected := r.preflightPageCount()

	if r.cancelRequested() {
		return r.cancel()
	}

	pages, _, err := r.p.rasterizer.Rasterize(r.ctx, r.job.SourcePath, dir)
	if err != nil {
		if r.aborted() {
			return r.cancel()
		}
		return r.fail(err)
	}
	total := len(pages)
	r.outcome.TotalPages = total
	r.emit.log(SeveritySuccess, 0, fmt.Sprintf("Generated %d images from PDF", total))
	if expected > 0 && expected != total {
		r.emit.log(SeverityWarning, 0, fmt.Sprintf("PDF reports %d pages but %d images were generated", expected, total))
	}

	if r.cancelRequested() {
		return r.cancel()
	}

	if err := r.transition(domain.JobStatusRecognizing); err != nil {
		return r.fail(err)
	}
	if err := r.openOutput(); err != nil {
		return r.fail(err)
	}

	for _, page := range pages {
		if r.cancelRequested() {
			return r.cancel()
		}

		r.emit.progress(PhaseRecognizing, pagePercent(page.Index, total),
			fmt.Sprintf("Processing page %d of %d", page.Index, total))

		result, err := r.p.recognizer.Recognize(r.ctx, page, r.job.Language)
		if (err != nil || result.Failed) && r.aborted() {
			return r.cancel()
		}
		if err != nil {
			return r.fail(err)
		}
		r.outcome.Pages = append(r.outcome.Pages, result)

		if result.Failed {
			r.log.Warn().Int("page", page.Index).Str("reason", result.Reason).Msg("page recognition failed")
			r.emit.log(SeverityWarning, page.Index, fmt.Sprintf("OCR failed for page %d: %s", page.Index, result.Reason))
			continue
		}

		if err := r.appendPage(result); err != nil {
			return r.fail(err)
		}
		r.emit.log(SeverityInfo, page.Index, fmt.Sprintf("Processed page %d", page.Index))
	}

	if err := r.closeOutput(); err != nil {
		return r.fail(err)
	}

	if err := r.transition(domain.JobStatusCleanup); err != nil {
		return r.fail(err)
	}
	r.emit.progress(PhaseCleanup, 95, "Cleaning up temporary files...")
	r.cleanup()

	if err := r.transition(domain.JobStatusDone); err != nil {
		return r.fail(err)
	}
	r.emit.progress(PhaseCompleted, 100, "Processing complete!")
	r.emit.log(SeveritySuccess, 0, "OCR processing completed successfully!")
	r.emit.log(SeveritySuccess, 0, fmt.Sprintf("Output saved to: %s", r.job.OutputPath))

	r.outcome.Notice = Notice{
		Severity: SeveritySuccess,
		Title:    "Success",
		Message:  fmt.Sprintf("OCR completed!\nOutput saved to:\n%s", r.job.OutputPath),
	}
	if failed := r.outcome.FailedPages(); len(failed) > 0 {
		r.outcome.Notice.Message += fmt.Sprintf("\n\n%d of %d pages could not be recognized.", len(failed), total)
	}
	r.log.Info().
		Int("pages", total).
		Int("failed_pages", len(r.outcome.FailedPages())).
		Str("output", r.job.OutputPath).
		Msg("ocr job completed")
	return r.outcome
}

// cancelRequested polls the job flag and the process-level context.
func (r *run) cancelRequested() bool {
	return r.job.CancelRequested() || r.ctx.Err() != nil
}

// aborted reports whether the context ended while a tool was running, in
// which case the tool's failure is a consequence of the abort.
func (r *run) aborted() bool {
	return r.ctx.Err() != nil
}

func (r *run) transition(to domain.JobStatus) error {
	if !domain.CanTransition(r.state, to) {
		return &Error{
			Kind:    KindInternal,
			Stage:   string(r.state),
			Message: fmt.Sprintf("invalid job transition %s -> %s", r.state, to),
		}
	}
	r.log.Debug().Str("from", string(r.state)).Str("to", string(to)).Msg("job transition")
	r.state = to
	r.outcome.State = to
	if ss, ok := r.sink.(StateSink); ok {
		ss.State(r.job.ID, to)
	}
	return nil
}

// preflightPageCount asks pdfcpu for the page count. Zero means unknown.
func (r *run) preflightPageCount() int {
	if r.p.pageCount == nil {
		return 0
	}
	n, err := r.p.pageCount(r.job.SourcePath)
	if err != nil {
		r.log.Debug().Err(err).Msg("pdf page count unavailable")
		return 0
	}
	return n
}

func (r *run) openOutput() error {
	if dir := filepath.Dir(r.job.OutputPath); dir != "" {
		if err := r.p.mkdirAll(dir, 0o755); err != nil {
			return &Error{
				Kind:    KindInternal,
				Stage:   StageRecognition,
				Message: fmt.Sprintf("cannot create output directory: %s", dir),
				Err:     err,
			}
		}
	}
	out, err := r.p.createFile(r.job.OutputPath)
	if err != nil {
		return &Error{
			Kind:    KindInternal,
			Stage:   StageRecognition,
			Message: fmt.Sprintf("cannot create output file: %s", r.job.OutputPath),
			Err:     err,
		}
	}
	r.out = out
	return nil
}

func (r *run) appendPage(page PageResult) error {
	if _, err := fmt.Fprintf(r.out, "\n\n--- Page %d ---\n", page.Index); err != nil {
		return writeFailure(r.job.OutputPath, err)
	}
	if _, err := io.WriteString(r.out, page.Text); err != nil {
		return writeFailure(r.job.OutputPath, err)
	}
	return nil
}

func writeFailure(path string, err error) error {
	return &Error{
		Kind:    KindInternal,
		Stage:   StageRecognition,
		Message: fmt.Sprintf("cannot write output file: %s", path),
		Err:     err,
	}
}

// closeOutput closes the output file at most once.
func (r *run) closeOutput() error {
	if r.out == nil {
		return nil
	}
	out := r.out
	r.out = nil
	if err := out.Close(); err != nil {
		return writeFailure(r.job.OutputPath, err)
	}
	return nil
}

// cleanup removes the work area when the job asks for it. Failure is a warning.
func (r *run) cleanup() {
	if !r.job.Cleanup || r.workArea == "" {
		return
	}
	if err := r.p.removeWorkArea(r.workArea); err != nil {
		r.log.Warn().Err(err).Str("work_area", r.workArea).Msg("work area cleanup failed")
		cleanupErr := &Error{
			Kind:    KindCleanupFailure,
			Stage:   "cleanup",
			Message: fmt.Sprintf("Failed to remove temporary files: %v", err),
			Err:     err,
		}
		r.emit.log(SeverityWarning, 0, cleanupErr.Message)
		return
	}
	r.outcome.WorkArea = ""
	r.emit.log(SeverityInfo, 0, "Temporary files cleaned up")
}

func (r *run) cancel() Outcome {
	_ = r.transition(domain.JobStatusCancelled)
	r.emit.log(SeverityWarning, 0, "Processing cancelled by user")
	if err := r.closeOutput(); err != nil {
		r.log.Warn().Err(err).Msg("closing output after cancel")
	}
	r.cleanup()

	r.outcome.Notice = Notice{
		Severity: SeverityWarning,
		Title:    "Cancelled",
		Message:  "Processing cancelled by user",
	}
	r.log.Info().Int("pages_done", len(r.outcome.Pages)).Msg("ocr job cancelled")
	return r.outcome
}

func (r *run) fail(err error) Outcome {
	msg := err.Error()
	var pErr *Error
	if errors.As(err, &pErr) && pErr.Message != "" {
		msg = pErr.Message
	}
	msg = strings.TrimSpace(msg)

	r.log.Error().Err(err).Str("kind", string(KindOf(err))).Msg("ocr job failed")
	r.emit.log(SeverityError, 0, fmt.Sprintf("Error: %s", msg))

	if !domain.CanTransition(r.state, domain.JobStatusFailed) {
		r.log.Error().Str("state", string(r.state)).Msg("forcing failed state")
	}
	r.state = domain.JobStatusFailed
	r.outcome.State = domain.JobStatusFailed
	if ss, ok := r.sink.(StateSink); ok {
		ss.State(r.job.ID, domain.JobStatusFailed)
	}

	if cerr := r.closeOutput(); cerr != nil {
		r.log.Warn().Err(cerr).Msg("closing output after failure")
	}
	r.cleanup()

	r.outcome.Err = err
	r.outcome.Notice = Notice{
		Severity: SeverityError,
		Title:    "Error",
		Message:  msg,
	}
	return r.outcome
}
