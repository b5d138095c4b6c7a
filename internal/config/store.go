package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"ocr-studio/internal/domain"
)

// EnvPrefix prefixes environment overrides, e.g. OCRSTUDIO_LANGUAGE=deu.
const EnvPrefix = "OCRSTUDIO"

// Store defines persistence operations for app settings.
type Store interface {
	Load() (domain.Settings, error)
	Save(domain.Settings) error
}

// YAMLStore persists settings in a YAML file read through viper, so
// environment variables override file values.
type YAMLStore struct {
	path string

	mu        sync.Mutex
	watcher   *viper.Viper
	callbacks []func(domain.Settings)
}

// NewYAMLStore creates a YAML-backed settings store.
func NewYAMLStore(path string) *YAMLStore {
	return &YAMLStore{path: path}
}

// Path returns the settings file location.
func (s *YAMLStore) Path() string {
	return s.path
}

// Load reads settings from disk or returns defaults when missing.
func (s *YAMLStore) Load() (domain.Settings, error) {
	v := s.newViper()
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return domain.Settings{}, fmt.Errorf("read config %s: %w", s.path, err)
		}
	}
	return decode(v)
}

// Save writes settings as YAML and creates parent directories.
func (s *YAMLStore) Save(cfg domain.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(Normalize(cfg))
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	header := []byte("# OCR Studio settings\n# Environment variables with the " + EnvPrefix + "_ prefix override these values.\n\n")
	return os.WriteFile(s.path, append(header, data...), 0o644)
}

// Watch reloads settings whenever the file changes and passes them to fn.
// A missing file is created from the current settings first.
func (s *YAMLStore) Watch(fn func(domain.Settings)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.callbacks = append(s.callbacks, fn)
	if s.watcher != nil {
		return nil
	}

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		current, err := s.Load()
		if err != nil {
			return err
		}
		if err := s.Save(current); err != nil {
			return fmt.Errorf("create config %s: %w", s.path, err)
		}
	}

	v := s.newViper()
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", s.path, err)
	}
	v.OnConfigChange(func(fsnotify.Event) {
		cfg, err := decode(v)
		if err != nil {
			return
		}

		s.mu.Lock()
		callbacks := make([]func(domain.Settings), len(s.callbacks))
		copy(callbacks, s.callbacks)
		s.mu.Unlock()

		for _, cb := range callbacks {
			cb(cfg)
		}
	})
	v.WatchConfig()
	s.watcher = v
	return nil
}

func (s *YAMLStore) newViper() *viper.Viper {
	v := viper.New()
	defaults := DefaultSettings()
	v.SetDefault("language", defaults.Language)
	v.SetDefault("cleanup_images", defaults.CleanupImages)
	v.SetDefault("temp_dir", defaults.TempDir)
	v.SetDefault("output_dir", defaults.OutputDir)
	v.SetDefault("rasterizer_path", defaults.RasterizerPath)
	v.SetDefault("ocr_path", defaults.OCRPath)
	v.SetDefault("dpi", defaults.DPI)
	v.SetDefault("tessdata_dir", defaults.TessdataDir)
	v.SetDefault("psm", defaults.PSM)
	v.SetDefault("oem", defaults.OEM)
	v.SetDefault("tool_timeout", defaults.ToolTimeout)
	v.SetDefault("log_level", defaults.LogLevel)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	return v
}

func decode(v *viper.Viper) (domain.Settings, error) {
	var cfg domain.Settings
	if err := v.Unmarshal(&cfg); err != nil {
		return domain.Settings{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return Normalize(cfg), nil
}
