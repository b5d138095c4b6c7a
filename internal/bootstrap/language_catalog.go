package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ocr-studio/internal/config"
	"ocr-studio/internal/domain"
)

const languageListTimeout = 10 * time.Second

// GetLanguages returns the selectable OCR languages, marking installed packs.
func (a *App) GetLanguages() []domain.Language {
	langs := make([]domain.Language, len(domain.Languages))
	copy(langs, domain.Languages)

	settings, err := a.loadSettingsForCatalog()
	if err != nil || a.listLangs == nil {
		return langs
	}

	ctx, cancel := context.WithTimeout(a.context(), languageListTimeout)
	defer cancel()
	installed, err := a.listLangs(ctx, settings)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("list installed languages")
		return langs
	}

	return domain.CatalogWithInstalled(installed)
}

// SetLanguage persists the default OCR language.
func (a *App) SetLanguage(code string) (domain.Settings, error) {
	lang, ok := domain.LookupLanguage(code)
	if !ok {
		return domain.Settings{}, fmt.Errorf("unknown language code: %s", strings.TrimSpace(code))
	}

	settings, err := a.loadSettingsForCatalog()
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	settings.Language = lang.Code
	return a.SaveSettings(settings)
}

func (a *App) loadSettingsForCatalog() (domain.Settings, error) {
	if a.Store == nil {
		return domain.Settings{}, fmt.Errorf("settings store is not configured")
	}
	settings, err := a.Store.Load()
	if err != nil {
		return domain.Settings{}, err
	}
	return config.Normalize(settings), nil
}
