package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ocr-studio/internal/config"
	"ocr-studio/internal/domain"
	"ocr-studio/internal/logging"
	"ocr-studio/internal/version"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
)

var rootCmd = &cobra.Command{
	Use:   "ocrstudio",
	Short: "Extract text from scanned PDFs with pdftoppm and tesseract",
	Long: `ocrstudio converts each page of a PDF to an image with pdftoppm, runs
tesseract on every page in order, and writes the recognized text to a
single file with a "--- Page N ---" header per page.

Pages that tesseract cannot read are reported and skipped. Press Ctrl-C
once to stop after the current page, twice to abort immediately.`,
	Version:       version.GitRelease,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ~/.ocr-studio/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "diagnostic log level: debug, info, warn, error (default from settings)",
	)
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(runCmd, checkCmd, languagesCmd, configCmd, versionCmd)
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	return config.DefaultPath()
}

func loadSettings() (domain.Settings, error) {
	settings, err := config.NewYAMLStore(configPath()).Load()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// newLogger uses the settings log level unless --log-level was given.
func newLogger(cmd *cobra.Command, settings domain.Settings) zerolog.Logger {
	return logging.New(logging.Config{Level: effectiveLogLevel(cmd, settings), Format: "console"})
}

func effectiveLogLevel(cmd *cobra.Command, settings domain.Settings) string {
	if cmd.Flags().Changed("log-level") {
		return logLevel
	}
	return settings.LogLevel
}
