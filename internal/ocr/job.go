package ocr

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"ocr-studio/internal/domain"
)

// Job is one requested PDF-to-text conversion.
type Job struct {
	ID         string
	SourcePath string
	OutputPath string
	Language   string
	Cleanup    bool

	cancelled atomic.Bool
}

// NewJob creates a job with a fresh ID. Empty language falls back to the default.
func NewJob(sourcePath, outputPath, language string, cleanup bool) *Job {
	sourcePath = strings.TrimSpace(sourcePath)
	outputPath = strings.TrimSpace(outputPath)
	if outputPath == "" && sourcePath != "" {
		outputPath = DefaultOutputPath(sourcePath)
	}
	language = strings.TrimSpace(language)
	if language == "" {
		language = domain.DefaultLanguage
	}
	return &Job{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		OutputPath: outputPath,
		Language:   language,
		Cleanup:    cleanup,
	}
}

// RequestCancel asks the worker to stop at its next poll point.
func (j *Job) RequestCancel() {
	j.cancelled.Store(true)
}

// CancelRequested reports whether cancellation was requested.
func (j *Job) CancelRequested() bool {
	return j.cancelled.Load()
}

// Validate checks the job boundary: existing source, output path, known language.
func (j *Job) Validate() error {
	if j.SourcePath == "" {
		return invalidJob("source PDF path is required", nil)
	}
	info, err := os.Stat(j.SourcePath)
	if err != nil {
		return invalidJob(fmt.Sprintf("cannot access source PDF: %s", j.SourcePath), err)
	}
	if info.IsDir() {
		return invalidJob(fmt.Sprintf("source PDF is a directory: %s", j.SourcePath), nil)
	}
	if j.OutputPath == "" {
		return invalidJob("output text path is required", nil)
	}
	if !domain.IsSupportedLanguage(j.Language) {
		return invalidJob(fmt.Sprintf("unsupported language code: %q", j.Language), nil)
	}
	return nil
}

// DefaultOutputPath places "<stem>_extracted.txt" next to the source PDF.
func DefaultOutputPath(sourcePath string) string {
	base := filepath.Base(sourcePath)
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		stem = "document"
	}
	return filepath.Join(filepath.Dir(sourcePath), stem+"_extracted.txt")
}

func invalidJob(msg string, err error) *Error {
	return &Error{Kind: KindInvalidJob, Stage: "validation", Message: msg, Err: err}
}
