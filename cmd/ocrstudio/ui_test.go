package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"

	"ocr-studio/internal/domain"
	"ocr-studio/internal/jobs"
	"ocr-studio/internal/ocr"
)

func withoutColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

// TestConsoleUIInteractiveProgress verifies the spinner and bar write to the progress writer only.
func TestConsoleUIInteractiveProgress(t *testing.T) {
	var out, progress bytes.Buffer
	ui := newConsoleUI(&out, &progress, true)

	ui.handle(jobs.Event{Type: jobs.EventTypeProgress, Phase: ocr.PhaseConverting, Percent: 10, Message: "Converting PDF to images..."})
	ui.handle(jobs.Event{Type: jobs.EventTypeProgress, Phase: ocr.PhaseRecognizing, Percent: 20, Message: "Processing page 1 of 2"})
	ui.handle(jobs.Event{Type: jobs.EventTypeProgress, Phase: ocr.PhaseRecognizing, Percent: 55, Message: "Processing page 2 of 2"})
	ui.handle(jobs.Event{Type: jobs.EventTypeProgress, Phase: ocr.PhaseCompleted, Percent: 100, Message: "Processing complete!"})
	ui.handle(jobs.Event{Type: jobs.EventTypeResult, Status: domain.JobStatusDone, TotalPages: 2})

	if ui.spinner != nil || ui.bar != nil {
		t.Fatal("progress widgets should be stopped after the result")
	}
	if !strings.Contains(progress.String(), "Processing page 2 of 2") {
		t.Fatalf("progress output missing page description: %q", progress.String())
	}
	if strings.Contains(out.String(), "Processing page") {
		t.Fatalf("progress leaked into main output: %q", out.String())
	}
	if !strings.Contains(out.String(), "2 of 2 pages recognized") {
		t.Fatalf("summary missing: %q", out.String())
	}
}

// TestConsoleUIFailureHasNoSummary verifies only the pipeline's error line is shown on failure.
func TestConsoleUIFailureHasNoSummary(t *testing.T) {
	withoutColor(t)
	var out bytes.Buffer
	ui := newConsoleUI(&out, &bytes.Buffer{}, false)

	ui.handle(jobs.Event{Type: jobs.EventTypeLog, Severity: ocr.SeverityError, Message: "Error: PDF conversion failed: bad file"})
	ui.handle(jobs.Event{Type: jobs.EventTypeError, Status: domain.JobStatusFailed})

	if got := out.String(); got != "✗ Error: PDF conversion failed: bad file\n" {
		t.Fatalf("output = %q", got)
	}
	if result, ok := ui.Result(); !ok || result.Type != jobs.EventTypeError {
		t.Fatalf("result = %+v, %v", result, ok)
	}
}

// TestPrintLanguages verifies the table marks installed packs and the configured default.
func TestPrintLanguages(t *testing.T) {
	var out bytes.Buffer
	langs := domain.CatalogWithInstalled([]string{"eng"})
	if err := printLanguages(&out, langs[:2], "eng"); err != nil {
		t.Fatalf("printLanguages: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %q", lines)
	}
	if fields := strings.Fields(lines[1]); fields[0] != "eng*" || fields[len(fields)-1] != "yes" {
		t.Fatalf("eng row = %q", lines[1])
	}
	if fields := strings.Fields(lines[2]); fields[0] != "deu" || fields[len(fields)-1] != "no" {
		t.Fatalf("deu row = %q", lines[2])
	}
}

// TestPrintReport verifies hints are shown for failing checks only.
func TestPrintReport(t *testing.T) {
	withoutColor(t)
	var out bytes.Buffer
	printReport(&out, domain.DiagnosticReport{Items: []domain.DiagnosticItem{
		{ID: "tool_pdftoppm", Name: "pdftoppm", Status: domain.DiagnosticStatusPass, Message: "Found at /usr/bin/pdftoppm", Hint: "unused"},
		{ID: "tool_tesseract", Name: "tesseract", Status: domain.DiagnosticStatusFail, Message: "Tool not found in PATH: tesseract", Hint: "Install tesseract-ocr"},
	}})

	text := out.String()
	if strings.Contains(text, "unused") {
		t.Fatalf("hint printed for passing check:\n%s", text)
	}
	if !strings.Contains(text, "✗ tesseract") || !strings.Contains(text, "Install tesseract-ocr") {
		t.Fatalf("failing check not rendered:\n%s", text)
	}
}
