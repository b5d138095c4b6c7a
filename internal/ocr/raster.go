package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	StageRasterization = "rasterization"
	StageRecognition   = "recognition"

	pagePrefix = "page"
)

// Rasterizer converts a whole PDF into page images with one pdftoppm call.
type Rasterizer struct {
	Path    string
	DPI     int
	runner  Runner
	readDir func(name string) ([]os.DirEntry, error)
}

// NewRasterizer builds a rasterizer that invokes path through runner.
func NewRasterizer(path string, dpi int, runner Runner) *Rasterizer {
	if strings.TrimSpace(path) == "" {
		path = "pdftoppm"
	}
	return &Rasterizer{Path: path, DPI: dpi, runner: runner, readDir: os.ReadDir}
}

// Rasterize renders sourcePath into workDir and returns pages in page order.
func (r *Rasterizer) Rasterize(ctx context.Context, sourcePath, workDir string) ([]PageImage, CommandLog, error) {
	args := buildRasterizerArgs(sourcePath, filepath.Join(workDir, pagePrefix), r.DPI)

	res, err := r.runner.Run(ctx, r.Path, args...)
	log := res.Log(r.Path, args)
	if err != nil {
		return nil, log, &Error{
			Kind:       KindLaunchFailure,
			Stage:      StageRasterization,
			Message:    fmt.Sprintf("cannot launch rasterizer %s", r.Path),
			CommandLog: log,
			Err:        err,
		}
	}
	if !res.OK() {
		return nil, log, &Error{
			Kind:       KindRasterizationFailed,
			Stage:      StageRasterization,
			Message:    fmt.Sprintf("PDF conversion failed: %s", strings.TrimSpace(res.Stderr)),
			CommandLog: log,
			Err:        exitFailure(StageRasterization, log),
		}
	}

	entries, err := r.readDir(workDir)
	if err != nil {
		return nil, log, &Error{
			Kind:       KindInternal,
			Stage:      StageRasterization,
			Message:    fmt.Sprintf("cannot list work area: %s", workDir),
			CommandLog: log,
			Err:        err,
		}
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".png") {
			images = append(images, filepath.Join(workDir, entry.Name()))
		}
	}
	if len(images) == 0 {
		return nil, log, &Error{
			Kind:       KindNoPagesProduced,
			Stage:      StageRasterization,
			Message:    "No images generated from PDF",
			CommandLog: log,
		}
	}

	return sortPageImages(images), log, nil
}

// buildRasterizerArgs builds pdftoppm args for PNG output under prefix.
func buildRasterizerArgs(sourcePath, prefix string, dpi int) []string {
	var args []string
	if dpi > 0 {
		args = append(args, "-r", strconv.Itoa(dpi))
	}
	return append(args, "-png", sourcePath, prefix)
}
