package ocr

import "time"

// Phase names the pipeline step a progress event belongs to.
type Phase string

const (
	PhaseConverting  Phase = "converting"
	PhaseRecognizing Phase = "recognizing"
	PhaseCleanup     Phase = "cleanup"
	PhaseCompleted   Phase = "completed"
)

// Severity grades a log event for display.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// ProgressEvent reports overall job completion in percent.
type ProgressEvent struct {
	JobID   string  `json:"jobId"`
	Phase   Phase   `json:"phase"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

// LogEvent is one entry of the job's user-facing log.
type LogEvent struct {
	JobID     string    `json:"jobId"`
	Timestamp time.Time `json:"timestamp"`
	Severity  Severity  `json:"severity"`
	Message   string    `json:"message"`
	Page      int       `json:"page,omitempty"`
}

// Sink receives pipeline events in emission order.
type Sink interface {
	Progress(ProgressEvent)
	Log(LogEvent)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Progress(ProgressEvent) {}
func (NopSink) Log(LogEvent)           {}

// emitter stamps events with the job ID and keeps progress non-decreasing.
type emitter struct {
	jobID string
	sink  Sink
	now   func() time.Time
	last  float64
}

func newEmitter(jobID string, sink Sink, now func() time.Time) *emitter {
	if sink == nil {
		sink = NopSink{}
	}
	if now == nil {
		now = time.Now
	}
	return &emitter{jobID: jobID, sink: sink, now: now}
}

func (e *emitter) progress(phase Phase, percent float64, message string) {
	if percent > 100 {
		percent = 100
	}
	if percent < e.last {
		percent = e.last
	}
	e.last = percent
	e.sink.Progress(ProgressEvent{
		JobID:   e.jobID,
		Phase:   phase,
		Percent: percent,
		Message: message,
	})
}

func (e *emitter) log(severity Severity, page int, message string) {
	e.sink.Log(LogEvent{
		JobID:     e.jobID,
		Timestamp: e.now().UTC(),
		Severity:  severity,
		Message:   message,
		Page:      page,
	})
}

// pagePercent is the progress reported when page i of n starts.
func pagePercent(i, n int) float64 {
	return 20 + 70*float64(i-1)/float64(n)
}
