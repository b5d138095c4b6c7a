package domain

import (
	"strings"
	"time"
)

// DiagnosticStatus indicates whether a single preflight check passed.
type DiagnosticStatus string

const (
	DiagnosticStatusPass DiagnosticStatus = "pass"
	DiagnosticStatusWarn DiagnosticStatus = "warn"
	DiagnosticStatusFail DiagnosticStatus = "fail"
)

// DiagnosticItem is one preflight check result with optional hint.
type DiagnosticItem struct {
	ID      string           `json:"id" yaml:"id"`
	Name    string           `json:"name" yaml:"name"`
	Status  DiagnosticStatus `json:"status" yaml:"status"`
	Message string           `json:"message" yaml:"message"`
	Hint    string           `json:"hint,omitempty" yaml:"hint,omitempty"`
}

// DiagnosticReport aggregates preflight checks for UI and CLI output.
type DiagnosticReport struct {
	GeneratedAt time.Time        `json:"generatedAt" yaml:"generated_at"`
	HasFailures bool             `json:"hasFailures" yaml:"has_failures"`
	Items       []DiagnosticItem `json:"items" yaml:"items"`
}

// Failed returns the items whose status is fail.
func (r DiagnosticReport) Failed() []DiagnosticItem {
	var out []DiagnosticItem
	for _, item := range r.Items {
		if item.Status == DiagnosticStatusFail {
			out = append(out, item)
		}
	}
	return out
}

// Summary joins failed item messages into one line.
func (r DiagnosticReport) Summary() string {
	failed := r.Failed()
	msgs := make([]string, 0, len(failed))
	for _, item := range failed {
		msgs = append(msgs, item.Message)
	}
	return strings.Join(msgs, "; ")
}
