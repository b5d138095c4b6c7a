package bootstrap

import (
	"context"
	"errors"
	"testing"

	"ocr-studio/internal/domain"
)

// TestGetLanguagesMarksInstalled verifies installed packs are flagged.
func TestGetLanguagesMarksInstalled(t *testing.T) {
	app := newTestApp(t, nil)
	app.listLangs = func(context.Context, domain.Settings) ([]string, error) {
		return []string{"eng", "osd", "jpn"}, nil
	}

	langs := app.GetLanguages()
	if len(langs) != len(domain.Languages) {
		t.Fatalf("languages = %d, want %d", len(langs), len(domain.Languages))
	}
	for _, lang := range langs {
		want := lang.Code == "eng" || lang.Code == "jpn"
		if lang.Installed != want {
			t.Fatalf("%s installed = %v, want %v", lang.Code, lang.Installed, want)
		}
	}
	if domain.Languages[0].Installed {
		t.Fatal("catalog must not be mutated")
	}
}

// TestGetLanguagesListFailure returns the catalog unmarked when listing fails.
func TestGetLanguagesListFailure(t *testing.T) {
	app := newTestApp(t, nil)
	app.listLangs = func(context.Context, domain.Settings) ([]string, error) {
		return nil, errors.New("tesseract missing")
	}

	for _, lang := range app.GetLanguages() {
		if lang.Installed {
			t.Fatalf("%s unexpectedly installed", lang.Code)
		}
	}
}

// TestSetLanguagePersists checks the default language is validated and saved.
func TestSetLanguagePersists(t *testing.T) {
	app := newTestApp(t, nil)
	store := app.Store.(*fakeStore)

	if _, err := app.SetLanguage("klingon"); err == nil {
		t.Fatal("expected unknown language error")
	}
	settings, err := app.SetLanguage(" fra ")
	if err != nil {
		t.Fatalf("SetLanguage() error = %v", err)
	}
	if settings.Language != "fra" || len(store.saved) != 1 || store.saved[0].Language != "fra" {
		t.Fatalf("settings = %+v saved = %+v", settings, store.saved)
	}
}
