package diagnostics

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"ocr-studio/internal/domain"
	"ocr-studio/internal/ocr"
)

// LanguageLister reports the OCR language packs installed for settings.
type LanguageLister func(ctx context.Context, settings domain.Settings) ([]string, error)

// Checker validates external tools and required filesystem paths.
type Checker struct {
	lookPath   func(string) (string, error)
	mkdirAll   func(string, os.FileMode) error
	createTemp func(string, string) (*os.File, error)
	remove     func(string) error
	listLangs  LanguageLister
}

// NewChecker builds a checker using real OS dependencies.
func NewChecker(logger zerolog.Logger) *Checker {
	return &Checker{
		lookPath:   exec.LookPath,
		mkdirAll:   os.MkdirAll,
		createTemp: os.CreateTemp,
		remove:     os.Remove,
		listLangs:  TesseractLanguages(logger),
	}
}

// TesseractLanguages lists installed packs by asking the configured OCR engine.
func TesseractLanguages(logger zerolog.Logger) LanguageLister {
	return func(ctx context.Context, settings domain.Settings) ([]string, error) {
		recognizer := ocr.NewRecognizer(settings.OCRPath, ocr.NewExecRunner(logger))
		recognizer.TessdataDir = settings.TessdataDir
		return recognizer.InstalledLanguages(ctx)
	}
}

// Run executes all preflight checks and returns a combined report.
func (c *Checker) Run(ctx context.Context, settings domain.Settings) domain.DiagnosticReport {
	items := []domain.DiagnosticItem{
		c.checkTool("pdftoppm", settings.RasterizerPath),
		c.checkTool("tesseract", settings.OCRPath),
		c.checkTempDir(settings.TempDir),
		c.checkOutputDir(settings.OutputDir),
		c.checkLanguage(ctx, settings),
	}

	hasFailures := false
	for _, item := range items {
		if item.Status == domain.DiagnosticStatusFail {
			hasFailures = true
			break
		}
	}

	return domain.DiagnosticReport{
		GeneratedAt: time.Now().UTC(),
		HasFailures: hasFailures,
		Items:       items,
	}
}

// ErrToolsMissing is returned by RequireTools when a required tool cannot be resolved.
var ErrToolsMissing = errors.New("required tools are not available")

// RequireTools checks that pdftoppm and tesseract resolve. Jobs must not
// start when it fails.
func (c *Checker) RequireTools(settings domain.Settings) error {
	var missing []string
	for _, item := range []domain.DiagnosticItem{
		c.checkTool("pdftoppm", settings.RasterizerPath),
		c.checkTool("tesseract", settings.OCRPath),
	} {
		if item.Status == domain.DiagnosticStatusFail {
			missing = append(missing, item.Message)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrToolsMissing, strings.Join(missing, "; "))
}

// checkTool verifies a required CLI executable is on PATH.
func (c *Checker) checkTool(name, configured string) domain.DiagnosticItem {
	bin := strings.TrimSpace(configured)
	if bin == "" {
		bin = name
	}

	path, err := c.lookPath(bin)
	if err != nil {
		message := fmt.Sprintf("Tool not found in PATH: %s", bin)
		if errors.Is(err, fs.ErrPermission) {
			message = fmt.Sprintf("Tool is not executable: %s", bin)
		} else if IsNotExist(err) {
			message = fmt.Sprintf("Tool not found: %s", bin)
		}
		return domain.DiagnosticItem{
			ID:      "tool_" + name,
			Name:    name,
			Status:  domain.DiagnosticStatusFail,
			Message: message,
			Hint:    toolHint(name),
		}
	}

	return domain.DiagnosticItem{
		ID:      "tool_" + name,
		Name:    name,
		Status:  domain.DiagnosticStatusPass,
		Message: fmt.Sprintf("Found at %s", path),
	}
}

func toolHint(name string) string {
	switch name {
	case "pdftoppm":
		return "Install poppler-utils (apt install poppler-utils, brew install poppler) and ensure pdftoppm is on PATH."
	case "tesseract":
		return "Install tesseract-ocr (apt install tesseract-ocr, brew install tesseract) and ensure it is on PATH."
	default:
		return "Install it and ensure the binary is available on PATH before starting an OCR job."
	}
}

// checkTempDir validates the work area root is writable.
func (c *Checker) checkTempDir(tempDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "temp_dir",
		Name: "Temporary directory",
	}

	dir := strings.TrimSpace(tempDir)
	if dir == "" {
		dir = os.TempDir()
	}
	if err := c.writeCheck(dir); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Temporary directory is not writable: %s", dir)
		item.Hint = "Page images are rendered here. Choose a writable location with free space."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", dir)
	return item
}

// checkOutputDir validates output directory existence and write access.
func (c *Checker) checkOutputDir(outputDir string) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "output_dir",
		Name: "Output directory",
	}

	if strings.TrimSpace(outputDir) == "" {
		item.Status = domain.DiagnosticStatusPass
		item.Message = "Text files are written next to the source PDF."
		return item
	}

	if err := c.mkdirAll(outputDir, 0o755); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Cannot create output directory: %s", outputDir)
		item.Hint = "Choose a writable location or adjust filesystem permissions."
		return item
	}

	if err := c.writeCheck(outputDir); err != nil {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Output directory is not writable: %s", outputDir)
		item.Hint = "Choose a writable directory for extracted text."
		return item
	}

	item.Status = domain.DiagnosticStatusPass
	item.Message = fmt.Sprintf("Writable directory: %s", outputDir)
	return item
}

func (c *Checker) writeCheck(dir string) error {
	tmpFile, err := c.createTemp(dir, ".write-check-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	_ = tmpFile.Close()
	_ = c.remove(tmpPath)
	return nil
}

// checkLanguage verifies the configured language is known and installed.
func (c *Checker) checkLanguage(ctx context.Context, settings domain.Settings) domain.DiagnosticItem {
	item := domain.DiagnosticItem{
		ID:   "language",
		Name: "OCR language",
	}

	lang, ok := domain.LookupLanguage(settings.Language)
	if !ok {
		item.Status = domain.DiagnosticStatusFail
		item.Message = fmt.Sprintf("Unsupported language code: %q", settings.Language)
		item.Hint = fmt.Sprintf("Use one of: %s.", strings.Join(domain.LanguageCodes(), ", "))
		return item
	}

	if c.listLangs == nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = fmt.Sprintf("%s (%s) selected; installed packs not checked.", lang.Name, lang.Code)
		return item
	}

	installed, err := c.listLangs(ctx, settings)
	if err != nil {
		item.Status = domain.DiagnosticStatusWarn
		item.Message = "Cannot list installed tesseract languages."
		item.Hint = err.Error()
		return item
	}

	for _, code := range installed {
		if code == lang.Code {
			item.Status = domain.DiagnosticStatusPass
			item.Message = fmt.Sprintf("%s (%s) is installed.", lang.Name, lang.Code)
			return item
		}
	}

	item.Status = domain.DiagnosticStatusFail
	item.Message = fmt.Sprintf("Language pack not installed: %s (%s)", lang.Name, lang.Code)
	item.Hint = fmt.Sprintf("Install the tesseract-ocr-%s package or place %s.traineddata in the tessdata directory.", lang.Code, lang.Code)
	return item
}

// NewCheckerForTests creates checker with injectable dependencies.
func NewCheckerForTests(
	lookPath func(string) (string, error),
	mkdirAll func(string, os.FileMode) error,
	createTemp func(string, string) (*os.File, error),
	remove func(string) error,
	listLangs LanguageLister,
) *Checker {
	return &Checker{
		lookPath:   lookPath,
		mkdirAll:   mkdirAll,
		createTemp: createTemp,
		remove:     remove,
		listLangs:  listLangs,
	}
}

// IsNotExist reports whether error represents file-not-found.
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
