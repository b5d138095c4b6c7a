package config

import (
	"os"
	"path/filepath"
	"strings"

	"ocr-studio/internal/domain"
)

// DefaultDPI is the rasterization resolution used when none is configured.
const DefaultDPI = 300

// DefaultSettings returns baseline local configuration for first launch.
func DefaultSettings() domain.Settings {
	return domain.Settings{
		Language:       domain.DefaultLanguage,
		CleanupImages:  true,
		RasterizerPath: "pdftoppm",
		OCRPath:        "tesseract",
		DPI:            DefaultDPI,
		PSM:            domain.EngineDefault,
		OEM:            domain.EngineDefault,
		LogLevel:       "info",
	}
}

// DefaultPath is the settings file location under the user's home directory.
func DefaultPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return filepath.Join(homeDir, ".ocr-studio", "config.yaml")
}

// Normalize trims user input and restores defaults for blank required fields.
func Normalize(settings domain.Settings) domain.Settings {
	defaults := DefaultSettings()

	settings.Language = strings.TrimSpace(settings.Language)
	if settings.Language == "" {
		settings.Language = defaults.Language
	}
	settings.TempDir = strings.TrimSpace(settings.TempDir)
	settings.OutputDir = strings.TrimSpace(settings.OutputDir)
	settings.TessdataDir = strings.TrimSpace(settings.TessdataDir)

	settings.RasterizerPath = strings.TrimSpace(settings.RasterizerPath)
	if settings.RasterizerPath == "" {
		settings.RasterizerPath = defaults.RasterizerPath
	}
	settings.OCRPath = strings.TrimSpace(settings.OCRPath)
	if settings.OCRPath == "" {
		settings.OCRPath = defaults.OCRPath
	}
	if settings.DPI <= 0 {
		settings.DPI = defaults.DPI
	}
	if settings.PSM < 0 {
		settings.PSM = domain.EngineDefault
	}
	if settings.OEM < 0 {
		settings.OEM = domain.EngineDefault
	}
	if settings.ToolTimeout < 0 {
		settings.ToolTimeout = 0
	}
	settings.LogLevel = strings.ToLower(strings.TrimSpace(settings.LogLevel))
	if settings.LogLevel == "" {
		settings.LogLevel = defaults.LogLevel
	}
	return settings
}
