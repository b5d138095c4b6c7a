package jobs

import (
	"context"
	"fmt"
	"sync"

	"ocr-studio/internal/domain"
	"ocr-studio/internal/ocr"
)

// Pipeline runs one job to a terminal state.
type Pipeline interface {
	Run(ctx context.Context, job *ocr.Job, sink ocr.Sink) ocr.Outcome
}

// Task is one job executing on its own goroutine.
type Task struct {
	job     *ocr.Job
	done    chan struct{}
	outcome ocr.Outcome
}

// StartTask runs job on a new goroutine. finish is called exactly once with
// the outcome, after the pipeline returns or panics.
func StartTask(ctx context.Context, pipeline Pipeline, job *ocr.Job, sink ocr.Sink, finish func(ocr.Outcome)) *Task {
	t := &Task{job: job, done: make(chan struct{})}

	var once sync.Once
	complete := func(out ocr.Outcome) {
		once.Do(func() {
			t.outcome = out
			if finish != nil {
				finish(out)
			}
			close(t.done)
		})
	}

	go func() {
		defer func() {
			if r := recover(); r != nil {
				err := &ocr.Error{
					Kind:    ocr.KindInternal,
					Message: fmt.Sprintf("worker panic: %v", r),
				}
				complete(ocr.Outcome{
					JobID:      job.ID,
					State:      domain.JobStatusFailed,
					OutputPath: job.OutputPath,
					Err:        err,
					Notice: ocr.Notice{
						Severity: ocr.SeverityError,
						Title:    "Error",
						Message:  err.Message,
					},
				})
			}
		}()
		complete(pipeline.Run(ctx, job, sink))
	}()

	return t
}

// Job returns the job being executed.
func (t *Task) Job() *ocr.Job {
	return t.job
}

// Cancel requests cooperative cancellation.
func (t *Task) Cancel() {
	t.job.RequestCancel()
}

// Done is closed after the finish callback returns.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes and returns its outcome.
func (t *Task) Wait() ocr.Outcome {
	<-t.done
	return t.outcome
}
