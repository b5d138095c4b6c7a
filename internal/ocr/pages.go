package ocr

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// PageImage is one rasterized page awaiting recognition.
type PageImage struct {
	Index int    `json:"index"`
	Path  string `json:"path"`
}

// PageResult is the recognition outcome for one page.
type PageResult struct {
	Index  int        `json:"index"`
	Text   string     `json:"text,omitempty"`
	Failed bool       `json:"failed"`
	Reason string     `json:"reason,omitempty"`
	Log    CommandLog `json:"log"`
}

// Recognized reports whether the page produced text.
func (r PageResult) Recognized() bool {
	return !r.Failed
}

var pageNumberPattern = regexp.MustCompile(`-(\d+)\.png$`)

// sortPageImages orders rasterizer output by numeric page suffix and assigns
// dense 1-based indexes. pdftoppm only zero-pads to the width of the page
// count, so lexical order is not trusted. Names without a suffix sort first.
func sortPageImages(paths []string) []PageImage {
	sorted := make([]string, len(paths))
	copy(sorted, paths)

	sort.SliceStable(sorted, func(i, j int) bool {
		ni, iok := pageNumber(sorted[i])
		nj, jok := pageNumber(sorted[j])

		if iok && jok {
			if ni != nj {
				return ni < nj
			}
			return sorted[i] < sorted[j]
		}
		if iok {
			return false
		}
		if jok {
			return true
		}
		return sorted[i] < sorted[j]
	})

	pages := make([]PageImage, len(sorted))
	for i, path := range sorted {
		pages[i] = PageImage{Index: i + 1, Path: path}
	}
	return pages
}

func pageNumber(path string) (int, bool) {
	m := pageNumberPattern.FindStringSubmatch(strings.ToLower(filepath.Base(path)))
	if len(m) < 2 {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}
