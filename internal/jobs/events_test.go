package jobs

import (
	"errors"
	"testing"

	"ocr-studio/internal/domain"
	"ocr-studio/internal/ocr"
)

// TestEventBusSince verifies incremental event reads by sequence.
func TestEventBusSince(t *testing.T) {
	bus := NewEventBus(3)
	bus.Publish(Event{Type: EventTypeStatus, Message: "1"})
	bus.Publish(Event{Type: EventTypeStatus, Message: "2"})
	bus.Publish(Event{Type: EventTypeStatus, Message: "3"})

	events := bus.Since(1)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Seq != 2 || events[1].Seq != 3 {
		t.Fatalf("unexpected seqs: %+v", events)
	}
}

// TestEventBusCapsHistory verifies buffer limit trimming behavior.
func TestEventBusCapsHistory(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Message: "1"})
	bus.Publish(Event{Message: "2"})
	bus.Publish(Event{Message: "3"})

	events := bus.Since(0)
	if len(events) != 2 {
		t.Fatalf("len = %d, want 2", len(events))
	}
	if events[0].Message != "2" || events[1].Message != "3" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

// TestOutcomeEvent checks failed outcomes become error events.
func TestOutcomeEvent(t *testing.T) {
	ev := OutcomeEvent(ocr.Outcome{
		JobID: "job-1",
		State: domain.JobStatusFailed,
		Err:   errors.New("boom"),
		Notice: ocr.Notice{
			Severity: ocr.SeverityError,
			Message:  "No images generated from PDF",
		},
	})
	if ev.Type != EventTypeError || ev.Message != "No images generated from PDF" {
		t.Fatalf("event = %+v", ev)
	}

	ok := OutcomeEvent(ocr.Outcome{
		State: domain.JobStatusDone,
		Pages: []ocr.PageResult{{Index: 1}, {Index: 2, Failed: true}},
	})
	if ok.Type != EventTypeResult || len(ok.FailedPages) != 1 || ok.FailedPages[0] != 2 {
		t.Fatalf("event = %+v", ok)
	}
}
