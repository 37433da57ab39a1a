package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	httpc "imagedl/internal/http"
	"imagedl/internal/transform"
)

// Settings holds all configuration options. The CLI layer populates it
// from flags (optionally on top of a JSON settings file) and calls
// Validate once before anything enters the core.
type Settings struct {
	// Portal
	BaseURL   string `json:"base_url"`
	UserAgent string `json:"user_agent"`

	// Selection
	Extensions []string `json:"extensions"`

	// URL rewriting
	RemoveWidthHeight bool     `json:"remove_width_height"`
	RemoveWatermark   bool     `json:"remove_watermark"`
	RemoveParams      []string `json:"remove_params"`

	// Output
	OutputDir string `json:"output_dir"`

	// Scheduling
	Parallel bool `json:"parallel"`
	Workers  int  `json:"workers"`

	// Retry / timeout
	MaxAttempts       int     `json:"max_attempts"`
	RetryCooldownSec  float64 `json:"retry_cooldown_sec"`
	RetryExponent     float64 `json:"retry_exponent"`
	RequestTimeoutSec float64 `json:"request_timeout_sec"`

	// Logging
	LogEnabled bool   `json:"log_enabled"`
	LogFile    string `json:"log_file"`
	Verbose    bool   `json:"verbose"`
}

// DefaultSettings returns settings with default values matching the
// portal's historical client.
func DefaultSettings() *Settings {
	return &Settings{
		BaseURL:           "https://portal.diakrit.com",
		UserAgent:         httpc.DefaultUserAgent,
		Extensions:        []string{".jpg"},
		OutputDir:         "downloaded_images",
		Parallel:          false,
		Workers:           5,
		MaxAttempts:       3,
		RetryCooldownSec:  2,
		RetryExponent:     2.0,
		RequestTimeoutSec: 10,
		LogFile:           "image_downloader.log",
	}
}

// Load reads settings from a JSON file, layered over the defaults.
// A missing file yields the defaults.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSettings(), nil
		}
		return nil, err
	}

	settings := DefaultSettings()
	if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return settings, nil
}

// Save writes settings to a JSON file.
func (s *Settings) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate normalizes and checks the settings in place. It is called
// once at the boundary; the core packages assume a valid configuration.
func (s *Settings) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || !u.IsAbs() || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("base URL %q must be an absolute http(s) URL", s.BaseURL)
	}

	if len(s.Extensions) == 0 {
		return fmt.Errorf("at least one file extension is required")
	}
	for i, ext := range s.Extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			return fmt.Errorf("empty file extension")
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		s.Extensions[i] = ext
	}

	if s.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	if s.Workers < 1 {
		s.Workers = 1
	}
	if s.MaxAttempts < 1 {
		s.MaxAttempts = 1
	}
	if s.RetryCooldownSec < 0 {
		s.RetryCooldownSec = 0
	}
	if s.RetryExponent < 1 {
		s.RetryExponent = 1
	}
	if s.RequestTimeoutSec <= 0 {
		s.RequestTimeoutSec = 10
	}
	if s.LogEnabled && s.LogFile == "" {
		s.LogFile = "image_downloader.log"
	}
	return nil
}

// WorkerCount returns the scheduler concurrency: Workers in parallel
// mode, otherwise the sequential degenerate case of 1.
func (s *Settings) WorkerCount() int {
	if !s.Parallel {
		return 1
	}
	return s.Workers
}

// TransformConfig converts the settings to the URL rewrite config.
func (s *Settings) TransformConfig() transform.Config {
	return transform.Config{
		RemoveWidthHeight: s.RemoveWidthHeight,
		RemoveWatermark:   s.RemoveWatermark,
		ExtraParams:       s.RemoveParams,
	}
}

// RetryPolicy converts the settings to the shared retry policy.
func (s *Settings) RetryPolicy() httpc.RetryPolicy {
	return httpc.RetryPolicy{
		MaxAttempts: s.MaxAttempts,
		Cooldown:    time.Duration(s.RetryCooldownSec * float64(time.Second)),
		Exponent:    s.RetryExponent,
		MaxBackoff:  30 * time.Second,
	}
}

// HTTPOptions converts the settings to HTTP client options.
func (s *Settings) HTTPOptions() httpc.Options {
	return httpc.Options{
		Timeout:   time.Duration(s.RequestTimeoutSec * float64(time.Second)),
		UserAgent: s.UserAgent,
	}
}
