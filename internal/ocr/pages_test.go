package ocr

import "testing"

// TestSortPageImagesNumeric checks unpadded page numbers sort numerically.
func TestSortPageImagesNumeric(t *testing.T) {
	pages := sortPageImages([]string{
		"/w/page-10.png",
		"/w/page-2.png",
		"/w/page-1.png",
		"/w/page-9.png",
	})

	want := []string{"/w/page-1.png", "/w/page-2.png", "/w/page-9.png", "/w/page-10.png"}
	for i, page := range pages {
		if page.Path != want[i] {
			t.Fatalf("pages[%d] = %q, want %q", i, page.Path, want[i])
		}
		if page.Index != i+1 {
			t.Fatalf("pages[%d].Index = %d, want %d", i, page.Index, i+1)
		}
	}
}

// TestSortPageImagesUnnumberedFirst checks names without a suffix keep lexical order up front.
func TestSortPageImagesUnnumberedFirst(t *testing.T) {
	pages := sortPageImages([]string{"page-01.png", "b.png", "a.png", "page-002.png"})

	want := []string{"a.png", "b.png", "page-01.png", "page-002.png"}
	for i, page := range pages {
		if page.Path != want[i] {
			t.Fatalf("pages[%d] = %q, want %q", i, page.Path, want[i])
		}
	}
}

// TestPageResultRecognized covers the page-scoped outcome helper.
func TestPageResultRecognized(t *testing.T) {
	if !(PageResult{Index: 1, Text: ""}).Recognized() {
		t.Fatal("empty text from a clean exit is still recognized")
	}
	if (PageResult{Index: 1, Failed: true}).Recognized() {
		t.Fatal("failed page must not be recognized")
	}
}
