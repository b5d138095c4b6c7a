package domain

import "time"

// JobStatus tracks each pipeline state for a single OCR job.
type JobStatus string

const (
	JobStatusIdle        JobStatus = "idle"
	JobStatusRasterizing JobStatus = "rasterizing"
	JobStatusRecognizing JobStatus = "recognizing"
	JobStatusCleanup     JobStatus = "cleanup"
	JobStatusDone        JobStatus = "done"
	JobStatusFailed      JobStatus = "failed"
	JobStatusCancelled   JobStatus = "cancelled"
)

// IsActive reports whether the status is a running pipeline state.
func (s JobStatus) IsActive() bool {
	switch s {
	case JobStatusRasterizing, JobStatusRecognizing, JobStatusCleanup:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends a job.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusDone, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// CanTransition enforces the allowed job state machine edges.
func CanTransition(from, to JobStatus) bool {
	switch from {
	case JobStatusIdle:
		return to == JobStatusRasterizing || to == JobStatusFailed
	case JobStatusRasterizing:
		return to == JobStatusRecognizing || to == JobStatusFailed || to == JobStatusCancelled
	case JobStatusRecognizing:
		return to == JobStatusCleanup || to == JobStatusFailed || to == JobStatusCancelled
	case JobStatusCleanup:
		return to == JobStatusDone || to == JobStatusFailed
	case JobStatusDone, JobStatusFailed, JobStatusCancelled:
		return to == JobStatusRasterizing || to == JobStatusIdle
	default:
		return false
	}
}

// EngineDefault marks an unset tesseract --psm or --oem value. Zero is a
// real mode for both flags.
const EngineDefault = -1

// Settings contains user-selectable runtime configuration.
type Settings struct {
	Language       string        `json:"language" mapstructure:"language" yaml:"language"`
	CleanupImages  bool          `json:"cleanupImages" mapstructure:"cleanup_images" yaml:"cleanup_images"`
	TempDir        string        `json:"tempDir" mapstructure:"temp_dir" yaml:"temp_dir"`
	OutputDir      string        `json:"outputDir" mapstructure:"output_dir" yaml:"output_dir"`
	RasterizerPath string        `json:"rasterizerPath" mapstructure:"rasterizer_path" yaml:"rasterizer_path"`
	OCRPath        string        `json:"ocrPath" mapstructure:"ocr_path" yaml:"ocr_path"`
	DPI            int           `json:"dpi" mapstructure:"dpi" yaml:"dpi"`
	TessdataDir    string        `json:"tessdataDir,omitempty" mapstructure:"tessdata_dir" yaml:"tessdata_dir,omitempty"`
	PSM            int           `json:"psm" mapstructure:"psm" yaml:"psm"`
	OEM            int           `json:"oem" mapstructure:"oem" yaml:"oem"`
	ToolTimeout    time.Duration `json:"toolTimeout,omitempty" mapstructure:"tool_timeout" yaml:"tool_timeout,omitempty"`
	LogLevel       string        `json:"logLevel" mapstructure:"log_level" yaml:"log_level"`
}

// Job stores the current job identity and lifecycle status.
type Job struct {
	ID         string    `json:"id"`
	Status     JobStatus `json:"status"`
	SourcePath string    `json:"sourcePath,omitempty"`
	OutputPath string    `json:"outputPath,omitempty"`
}
