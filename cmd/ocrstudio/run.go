package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"ocr-studio/internal/diagnostics"
	"ocr-studio/internal/domain"
	"ocr-studio/internal/jobs"
	"ocr-studio/internal/ocr"
)

var (
	runOutput     string
	runLanguage   string
	runKeepImages bool
	runDPI        int
)

var runCmd = &cobra.Command{
	Use:   "run <pdf>",
	Short: "Recognize every page of a PDF and write the text to a file",
	Example: `  ocrstudio run scan.pdf
  ocrstudio run scan.pdf -o notes.txt -l deu
  ocrstudio run scan.pdf --keep-images --dpi 400`,
	Args: cobra.ExactArgs(1),
	RunE: runOCR,
}

func init() {
	runCmd.Flags().StringVarP(&runOutput, "output", "o", "", "output text file (default: <name>_extracted.txt)")
	runCmd.Flags().StringVarP(&runLanguage, "lang", "l", "", "tesseract language code (default from settings)")
	runCmd.Flags().BoolVar(&runKeepImages, "keep-images", false, "keep the rasterized page images")
	runCmd.Flags().IntVar(&runDPI, "dpi", 0, "rasterization resolution (default from settings)")
}

func runOCR(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if runDPI > 0 {
		settings.DPI = runDPI
	}

	logger := newLogger(cmd, settings)
	job, err := prepareJob(diagnostics.NewChecker(logger), settings, args[0])
	if err != nil {
		return err
	}

	pipeline := ocr.NewPipeline(ocr.OptionsFromSettings(settings, logger))
	ui := newConsoleUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), isTerminal(os.Stderr))

	ctx, abort := context.WithCancel(cmd.Context())
	defer abort()

	out := runJob(ctx, pipeline, job, ui, abort)
	return outcomeError(out)
}

// prepareJob builds and validates the job, then checks the tools are
// installed. Nothing is created on disk when it fails.
func prepareJob(checker *diagnostics.Checker, settings domain.Settings, source string) (*ocr.Job, error) {
	language := runLanguage
	if language == "" {
		language = settings.Language
	}
	output := runOutput
	if output == "" {
		output = outputPathFor(source, settings.OutputDir)
	}

	job := ocr.NewJob(source, output, language, settings.CleanupImages && !runKeepImages)
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if err := checker.RequireTools(settings); err != nil {
		return nil, err
	}
	return job, nil
}

// runJob executes job on a background task and blocks until its events are drained.
// The first interrupt requests a cooperative cancel, the second aborts the tool in flight.
func runJob(ctx context.Context, pipeline jobs.Pipeline, job *ocr.Job, ui *consoleUI, abort context.CancelFunc) ocr.Outcome {
	stream := jobs.NewStream(256, ui.handle)
	task := jobs.StartTask(ctx, pipeline, job, stream, func(out ocr.Outcome) {
		stream.Publish(jobs.OutcomeEvent(out))
		stream.Close()
	})

	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go handleInterrupts(sigs, task.Done(), job, abort, ui.warn)

	return task.Wait()
}

func handleInterrupts(sigs <-chan os.Signal, done <-chan struct{}, job *ocr.Job, abort context.CancelFunc, warn func(string)) {
	interrupts := 0
	for {
		select {
		case <-done:
			return
		case <-sigs:
			interrupts++
			if interrupts == 1 {
				warn("Stopping after the current page (press Ctrl-C again to abort)")
				job.RequestCancel()
				continue
			}
			warn("Aborting")
			abort()
			return
		}
	}
}

func outputPathFor(sourcePath, outputDir string) string {
	out := ocr.DefaultOutputPath(sourcePath)
	if outputDir != "" {
		out = filepath.Join(outputDir, filepath.Base(out))
	}
	return out
}

func outcomeError(out ocr.Outcome) error {
	switch out.State {
	case domain.JobStatusDone:
		return nil
	case domain.JobStatusCancelled:
		return &exitError{code: 130, err: errors.New("processing cancelled")}
	default:
		return &exitError{code: 1, err: out.Err}
	}
}
