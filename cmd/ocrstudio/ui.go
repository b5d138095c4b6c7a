package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"ocr-studio/internal/domain"
	"ocr-studio/internal/jobs"
	"ocr-studio/internal/ocr"
)

// consoleUI renders job events on a terminal: a spinner while the PDF is
// rasterized, a percent bar while pages are recognized, and colored log lines.
type consoleUI struct {
	mu          sync.Mutex
	out         io.Writer
	progressOut io.Writer
	interactive bool

	spinner *spinner.Spinner
	bar     *progressbar.ProgressBar
	result  *jobs.Event
}

func newConsoleUI(out, progressOut io.Writer, interactive bool) *consoleUI {
	return &consoleUI{out: out, progressOut: progressOut, interactive: interactive}
}

// handle consumes one event. It is the deliver callback of a jobs.Stream.
func (u *consoleUI) handle(ev jobs.Event) {
	u.mu.Lock()
	defer u.mu.Unlock()

	switch ev.Type {
	case jobs.EventTypeProgress:
		u.progress(ev)
	case jobs.EventTypeLog:
		u.clearProgress()
		u.printLine(ev.Severity, ev.Message)
	case jobs.EventTypeResult, jobs.EventTypeError:
		u.stopProgress(ev.Status == domain.JobStatusDone)
		result := ev
		u.result = &result
		u.printSummary(ev)
	}
}

// warn prints an out-of-band message, e.g. an interrupt acknowledgement.
func (u *consoleUI) warn(message string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.clearProgress()
	u.printLine(ocr.SeverityWarning, message)
}

// Result returns the final event, if one was delivered.
func (u *consoleUI) Result() (jobs.Event, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.result == nil {
		return jobs.Event{}, false
	}
	return *u.result, true
}

func (u *consoleUI) progress(ev jobs.Event) {
	if !u.interactive {
		return
	}

	switch ev.Phase {
	case ocr.PhaseConverting:
		if u.spinner == nil {
			u.spinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
			u.spinner.Writer = u.progressOut
			u.spinner.Suffix = " " + ev.Message
			u.spinner.Start()
			return
		}
		u.spinner.Lock()
		u.spinner.Suffix = " " + ev.Message
		u.spinner.Unlock()
	default:
		u.stopSpinner()
		if u.bar == nil {
			u.bar = progressbar.NewOptions(100,
				progressbar.OptionSetWriter(u.progressOut),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetPredictTime(false),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "█",
					SaucerHead:    "█",
					SaucerPadding: "░",
					BarStart:      "│",
					BarEnd:        "│",
				}),
			)
		}
		u.bar.Describe(ev.Message)
		_ = u.bar.Set(int(ev.Percent))
	}
}

func (u *consoleUI) clearProgress() {
	if u.spinner != nil {
		u.spinner.Stop()
		u.spinner.Start()
	}
	if u.bar != nil {
		_ = u.bar.Clear()
	}
}

func (u *consoleUI) stopSpinner() {
	if u.spinner != nil {
		u.spinner.Stop()
		u.spinner = nil
	}
}

func (u *consoleUI) stopProgress(completed bool) {
	u.stopSpinner()
	if u.bar == nil {
		return
	}
	if completed {
		_ = u.bar.Finish()
		fmt.Fprintln(u.progressOut)
	} else {
		_ = u.bar.Clear()
	}
	u.bar = nil
}

func (u *consoleUI) printLine(severity ocr.Severity, message string) {
	switch severity {
	case ocr.SeveritySuccess:
		color.New(color.FgGreen).Fprintf(u.out, "✓ %s\n", message)
	case ocr.SeverityWarning:
		color.New(color.FgYellow).Fprintf(u.out, "⚠ %s\n", message)
	case ocr.SeverityError:
		color.New(color.FgRed).Fprintf(u.out, "✗ %s\n", message)
	default:
		fmt.Fprintf(u.out, "  %s\n", message)
	}
}

func (u *consoleUI) printSummary(ev jobs.Event) {
	if ev.Status != domain.JobStatusDone {
		return
	}
	recognized := ev.TotalPages - len(ev.FailedPages)
	line := fmt.Sprintf("%d of %d pages recognized", recognized, ev.TotalPages)
	if len(ev.FailedPages) > 0 {
		line += fmt.Sprintf(" (skipped: %s)", joinPages(ev.FailedPages))
		color.New(color.FgYellow).Fprintln(u.out, line)
		return
	}
	color.New(color.FgGreen, color.Bold).Fprintln(u.out, line)
}

func joinPages(pages []int) string {
	parts := make([]string, 0, len(pages))
	for _, page := range pages {
		parts = append(parts, fmt.Sprint(page))
	}
	return strings.Join(parts, ", ")
}

// isTerminal reports whether f is attached to a character device.
func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
