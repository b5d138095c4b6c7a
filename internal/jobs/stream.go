package jobs

import (
	"sync"

	"ocr-studio/internal/domain"
	"ocr-studio/internal/ocr"
)

// Stream is an ocr.Sink that hands events to one consumer goroutine in
// emission order. Publishing blocks while the buffer is full; events are
// never dropped.
type Stream struct {
	mu      sync.RWMutex
	closed  bool
	ch      chan Event
	done    chan struct{}
	deliver func(Event)
	once    sync.Once
}

// NewStream starts the consumer goroutine.
func NewStream(buffer int, deliver func(Event)) *Stream {
	if buffer <= 0 {
		buffer = 64
	}
	s := &Stream{
		ch:      make(chan Event, buffer),
		done:    make(chan struct{}),
		deliver: deliver,
	}
	go s.consume()
	return s
}

func (s *Stream) consume() {
	defer close(s.done)
	for ev := range s.ch {
		if s.deliver != nil {
			s.deliver(ev)
		}
	}
}

// Publish queues one event. Events published after Close are discarded.
func (s *Stream) Publish(ev Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.ch <- ev
}

// Progress implements ocr.Sink.
func (s *Stream) Progress(ev ocr.ProgressEvent) {
	s.Publish(ProgressEvent(ev))
}

// Log implements ocr.Sink.
func (s *Stream) Log(ev ocr.LogEvent) {
	s.Publish(LogEvent(ev))
}

// State implements ocr.StateSink.
func (s *Stream) State(jobID string, status domain.JobStatus) {
	s.Publish(Event{JobID: jobID, Type: EventTypeStatus, Status: status})
}

// Close stops accepting events and waits until queued ones are delivered.
func (s *Stream) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
	<-s.done
}
