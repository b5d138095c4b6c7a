package domain

import "testing"

// TestLookupLanguage checks catalog lookups and rejection of unknown codes.
func TestLookupLanguage(t *testing.T) {
	lang, ok := LookupLanguage(" deu ")
	if !ok {
		t.Fatal("expected deu to be supported")
	}
	if lang.Name != "German" {
		t.Fatalf("name = %q, want German", lang.Name)
	}

	if IsSupportedLanguage("klingon") {
		t.Fatal("unexpected support for klingon")
	}
	if len(LanguageCodes()) != len(Languages) {
		t.Fatalf("codes = %d, want %d", len(LanguageCodes()), len(Languages))
	}
}

// TestCanTransition verifies the job state machine edges.
func TestCanTransition(t *testing.T) {
	allowed := [][2]JobStatus{
		{JobStatusIdle, JobStatusRasterizing},
		{JobStatusRasterizing, JobStatusRecognizing},
		{JobStatusRasterizing, JobStatusCancelled},
		{JobStatusRecognizing, JobStatusCleanup},
		{JobStatusRecognizing, JobStatusCancelled},
		{JobStatusCleanup, JobStatusDone},
		{JobStatusCleanup, JobStatusFailed},
		{JobStatusDone, JobStatusRasterizing},
	}
	for _, edge := range allowed {
		if !CanTransition(edge[0], edge[1]) {
			t.Fatalf("expected %s -> %s to be allowed", edge[0], edge[1])
		}
	}

	rejected := [][2]JobStatus{
		{JobStatusIdle, JobStatusDone},
		{JobStatusRasterizing, JobStatusCleanup},
		{JobStatusCleanup, JobStatusCancelled},
		{JobStatusCancelled, JobStatusRecognizing},
	}
	for _, edge := range rejected {
		if CanTransition(edge[0], edge[1]) {
			t.Fatalf("expected %s -> %s to be rejected", edge[0], edge[1])
		}
	}
}

// TestCatalogWithInstalled verifies installed flags and that the shared catalog is untouched.
func TestCatalogWithInstalled(t *testing.T) {
	langs := CatalogWithInstalled([]string{"deu", " eng ", "osd"})

	if len(langs) != len(Languages) {
		t.Fatalf("expected %d languages, got %d", len(Languages), len(langs))
	}
	for _, lang := range langs {
		want := lang.Code == "eng" || lang.Code == "deu"
		if lang.Installed != want {
			t.Fatalf("language %s installed=%v, want %v", lang.Code, lang.Installed, want)
		}
	}
	for _, lang := range Languages {
		if lang.Installed {
			t.Fatalf("catalog entry %s was modified", lang.Code)
		}
	}
}
