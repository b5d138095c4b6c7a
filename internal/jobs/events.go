package jobs

import (
	"sync"
	"time"

	"ocr-studio/internal/domain"
	"ocr-studio/internal/ocr"
)

// EventType classifies messages emitted during job execution.
type EventType string

const (
	EventTypeStatus   EventType = "status"
	EventTypeProgress EventType = "progress"
	EventTypeLog      EventType = "log"
	EventTypeResult   EventType = "result"
	EventTypeError    EventType = "error"
)

// Event is a sequenced payload consumed by UI subscribers.
type Event struct {
	Seq         int64            `json:"seq"`
	Timestamp   time.Time        `json:"timestamp"`
	JobID       string           `json:"jobId"`
	Type        EventType        `json:"type"`
	Status      domain.JobStatus `json:"status,omitempty"`
	Phase       ocr.Phase        `json:"phase,omitempty"`
	Percent     float64          `json:"percent,omitempty"`
	Severity    ocr.Severity     `json:"severity,omitempty"`
	Page        int              `json:"page,omitempty"`
	Message     string           `json:"message,omitempty"`
	OutputPath  string           `json:"outputPath,omitempty"`
	TotalPages  int              `json:"totalPages,omitempty"`
	FailedPages []int            `json:"failedPages,omitempty"`
}

// ProgressEvent converts a pipeline progress update.
func ProgressEvent(ev ocr.ProgressEvent) Event {
	return Event{
		JobID:   ev.JobID,
		Type:    EventTypeProgress,
		Phase:   ev.Phase,
		Percent: ev.Percent,
		Message: ev.Message,
	}
}

// LogEvent converts a pipeline log entry, keeping its timestamp.
func LogEvent(ev ocr.LogEvent) Event {
	return Event{
		Timestamp: ev.Timestamp,
		JobID:     ev.JobID,
		Type:      EventTypeLog,
		Severity:  ev.Severity,
		Page:      ev.Page,
		Message:   ev.Message,
	}
}

// OutcomeEvent converts a finished run into a result or error event.
func OutcomeEvent(out ocr.Outcome) Event {
	ev := Event{
		JobID:       out.JobID,
		Type:        EventTypeResult,
		Status:      out.State,
		Severity:    out.Notice.Severity,
		Message:     out.Notice.Message,
		OutputPath:  out.OutputPath,
		TotalPages:  out.TotalPages,
		FailedPages: out.FailedPages(),
	}
	if out.State == domain.JobStatusFailed {
		ev.Type = EventTypeError
	}
	return ev
}

// EventBus stores recent events and provides incremental reads.
type EventBus struct {
	mu        sync.RWMutex
	nextSeq   int64
	maxEvents int
	events    []Event
}

// NewEventBus creates a bounded in-memory event buffer.
func NewEventBus(maxEvents int) *EventBus {
	if maxEvents <= 0 {
		maxEvents = 500
	}

	return &EventBus{
		maxEvents: maxEvents,
		events:    make([]Event, 0, maxEvents),
	}
}

// Publish appends one event and assigns sequence and timestamp.
func (b *EventBus) Publish(event Event) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextSeq++
	event.Seq = b.nextSeq
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.events = append(b.events, event)
	if len(b.events) > b.maxEvents {
		trim := len(b.events) - b.maxEvents
		b.events = append([]Event(nil), b.events[trim:]...)
	}

	return event
}

// Since returns events with sequence strictly greater than seq.
func (b *EventBus) Since(seq int64) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.events) == 0 {
		return nil
	}

	out := make([]Event, 0, len(b.events))
	for _, event := range b.events {
		if event.Seq > seq {
			out = append(out, event)
		}
	}
	return out
}
