package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Recognizer runs tesseract over one page image at a time.
type Recognizer struct {
	Path        string
	TessdataDir string
	PSM         *int // nil leaves tesseract's default
	OEM         *int
	runner      Runner
}

// NewRecognizer builds a recognizer that invokes path through runner.
func NewRecognizer(path string, runner Runner) *Recognizer {
	if strings.TrimSpace(path) == "" {
		path = "tesseract"
	}
	return &Recognizer{Path: path, runner: runner}
}

// Recognize OCRs one page. A non-zero exit yields a failed PageResult and a
// nil error; only a launch failure is returned as an error.
func (r *Recognizer) Recognize(ctx context.Context, page PageImage, language string) (PageResult, error) {
	args := r.args(page.Path, language)

	res, err := r.runner.Run(ctx, r.Path, args...)
	log := res.Log(r.Path, args)
	if err != nil {
		return PageResult{Index: page.Index, Failed: true, Reason: err.Error(), Log: log}, &Error{
			Kind:       KindLaunchFailure,
			Stage:      StageRecognition,
			Message:    fmt.Sprintf("cannot launch OCR engine %s", r.Path),
			CommandLog: log,
			Err:        err,
		}
	}
	if !res.OK() {
		reason := strings.TrimSpace(res.Stderr)
		if reason == "" {
			reason = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return PageResult{Index: page.Index, Failed: true, Reason: reason, Log: log}, nil
	}

	return PageResult{Index: page.Index, Text: res.Stdout, Log: log}, nil
}

// InstalledLanguages lists language packs reported by tesseract --list-langs.
func (r *Recognizer) InstalledLanguages(ctx context.Context) ([]string, error) {
	args := []string{"--list-langs"}
	if r.TessdataDir != "" {
		args = append(args, "--tessdata-dir", r.TessdataDir)
	}

	res, err := r.runner.Run(ctx, r.Path, args...)
	if err != nil {
		return nil, err
	}
	if !res.OK() {
		return nil, exitFailure(StageRecognition, res.Log(r.Path, args))
	}

	// older tesseract builds print the list on stderr
	return parseLanguageList(res.Stdout + "\n" + res.Stderr), nil
}

func (r *Recognizer) args(imagePath, language string) []string {
	args := []string{imagePath, "stdout", "-l", language}
	if r.TessdataDir != "" {
		args = append(args, "--tessdata-dir", r.TessdataDir)
	}
	if r.PSM != nil {
		args = append(args, "--psm", strconv.Itoa(*r.PSM))
	}
	if r.OEM != nil {
		args = append(args, "--oem", strconv.Itoa(*r.OEM))
	}
	return args
}

// parseLanguageList extracts codes from tesseract --list-langs output.
func parseLanguageList(out string) []string {
	seen := map[string]bool{}
	var langs []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, " ") || strings.HasSuffix(line, ":") {
			continue
		}
		if !seen[line] {
			seen[line] = true
			langs = append(langs, line)
		}
	}
	return langs
}
