package ocr

import (
	"os"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

const workAreaPattern = "ocr_*"

// removeWorkArea deletes the job's temp directory, retrying transient errors.
func (p *Pipeline) removeWorkArea(dir string) error {
	if dir == "" {
		return nil
	}
	return retry.Do(
		func() error { return p.removeAll(dir) },
		retry.Attempts(p.cleanupAttempts),
		retry.Delay(p.cleanupDelay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// pdfPageCount reads the page count from the PDF's page tree.
func pdfPageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return api.PageCount(f, nil)
}

const (
	defaultCleanupAttempts = 3
	defaultCleanupDelay    = 200 * time.Millisecond
)
