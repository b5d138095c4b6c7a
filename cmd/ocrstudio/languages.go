package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"ocr-studio/internal/diagnostics"
	"ocr-studio/internal/domain"
)

var languagesCmd = &cobra.Command{
	Use:   "languages",
	Short: "List OCR languages and whether their tesseract data is installed",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := loadSettings()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		installed, err := diagnostics.TesseractLanguages(newLogger(cmd, settings))(ctx, settings)
		if err != nil {
			color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(), "⚠ could not query installed languages: %v\n", err)
		}
		return printLanguages(cmd.OutOrStdout(), domain.CatalogWithInstalled(installed), settings.Language)
	},
}

func printLanguages(w io.Writer, langs []domain.Language, current string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tLANGUAGE\tINSTALLED\t")
	for _, lang := range langs {
		installed := "no"
		if lang.Installed {
			installed = "yes"
		}
		code := lang.Code
		if code == current {
			code += "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t\n", code, lang.Name, installed)
	}
	return tw.Flush()
}
