package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ocr-studio/internal/diagnostics"
	"ocr-studio/internal/domain"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check that pdftoppm, tesseract and the configured directories are usable",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		report := diagnostics.NewChecker(newLogger(cmd, settings)).Run(cmd.Context(), settings)
		printReport(cmd.OutOrStdout(), report)
		if report.HasFailures {
			return &exitError{code: 1, err: fmt.Errorf("diagnostics failed: %s", report.Summary())}
		}
		return nil
	},
}

func printReport(w io.Writer, report domain.DiagnosticReport) {
	for _, item := range report.Items {
		switch item.Status {
		case domain.DiagnosticStatusPass:
			color.New(color.FgGreen).Fprintf(w, "✓ %-22s %s\n", item.Name, item.Message)
		case domain.DiagnosticStatusWarn:
			color.New(color.FgYellow).Fprintf(w, "⚠ %-22s %s\n", item.Name, item.Message)
		default:
			color.New(color.FgRed).Fprintf(w, "✗ %-22s %s\n", item.Name, item.Message)
		}
		if item.Hint != "" && item.Status != domain.DiagnosticStatusPass {
			fmt.Fprintf(w, "  %-22s %s\n", "", item.Hint)
		}
	}
}
