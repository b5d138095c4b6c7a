package ocr

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures by scope and origin.
type ErrorKind string

const (
	KindLaunchFailure         ErrorKind = "launch_failure"
	KindToolExitFailure       ErrorKind = "tool_exit_failure"
	KindRasterizationFailed   ErrorKind = "rasterization_failed"
	KindNoPagesProduced       ErrorKind = "no_pages_produced"
	KindPageRecognitionFailed ErrorKind = "page_recognition_failed"
	KindCleanupFailure        ErrorKind = "cleanup_failure"
	KindInvalidJob            ErrorKind = "invalid_job"
	KindInternal              ErrorKind = "internal"
)

// Sentinels for errors.Is matching against an *Error kind.
var (
	ErrLaunchFailure         = &Error{Kind: KindLaunchFailure}
	ErrToolExitFailure       = &Error{Kind: KindToolExitFailure}
	ErrRasterizationFailed   = &Error{Kind: KindRasterizationFailed}
	ErrNoPagesProduced       = &Error{Kind: KindNoPagesProduced}
	ErrPageRecognitionFailed = &Error{Kind: KindPageRecognitionFailed}
	ErrCleanupFailure        = &Error{Kind: KindCleanupFailure}
	ErrInvalidJob            = &Error{Kind: KindInvalidJob}
)

// Error is a stage-aware pipeline error with optional command context.
type Error struct {
	Kind       ErrorKind  `json:"kind"`
	Stage      string     `json:"stage"`
	Message    string     `json:"message"`
	CommandLog CommandLog `json:"commandLog"`
	Err        error      `json:"-"`
}

// Error formats pipeline failures for logs and UI.
func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.CommandLog.Command == "" {
		if e.Stage == "" {
			return msg
		}
		return fmt.Sprintf("%s: %s", e.Stage, msg)
	}

	return fmt.Sprintf(
		"%s: %s (cmd=%s exit=%d)",
		e.Stage,
		msg,
		e.CommandLog.Command,
		e.CommandLog.ExitCode,
	)
}

// Unwrap exposes underlying error for errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches any *Error with the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Kind
	}
	if err == nil {
		return ""
	}
	return KindInternal
}

// IsJobFatal reports whether err aborts the whole job rather than one page.
func IsJobFatal(err error) bool {
	switch KindOf(err) {
	case "", KindPageRecognitionFailed, KindCleanupFailure:
		return false
	case KindToolExitFailure:
		var pErr *Error
		errors.As(err, &pErr)
		return pErr.Stage != StageRecognition
	default:
		return true
	}
}
