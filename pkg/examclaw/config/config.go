// Package config defines the examclaw configuration and loads it from YAML,
// .env files and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jholhewres/examclaw/pkg/examclaw/gemini"
	"github.com/jholhewres/examclaw/pkg/examclaw/media"
)

// Config is the top-level configuration.
type Config struct {
	// API configures the generation endpoint and the model candidates.
	API APIConfig `yaml:"api"`

	// Logging configures log output.
	Logging LoggingConfig `yaml:"logging"`

	// Media configures photo ingestion limits.
	Media media.Config `yaml:"media"`

	// Export configures where answer files are written.
	Export ExportConfig `yaml:"export"`

	// Vault configures the encrypted credential file.
	Vault VaultConfig `yaml:"vault"`

	// Shell configures the interactive REPL.
	Shell ShellConfig `yaml:"shell"`
}

// APIConfig configures the Gemini API.
type APIConfig struct {
	// Endpoint is the generateContent URL template with a {model} placeholder.
	Endpoint string `yaml:"endpoint"`

	// APIKey is the least preferred credential source. Prefer the keyring,
	// the vault or ${GEMINI_API_KEY}.
	APIKey string `yaml:"api_key"`

	// Models are tried in order; the first is the primary.
	Models []string `yaml:"models"`

	// Timeout bounds a single request. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	// Level is the log level ("debug", "info", "warn", "error").
	Level string `yaml:"level"`

	// Format is the log format ("json", "text").
	Format string `yaml:"format"`
}

// ExportConfig configures exported files.
type ExportConfig struct {
	// Dir receives TXT, DOCX and HTML exports.
	Dir string `yaml:"dir"`
}

// VaultConfig configures the encrypted vault.
type VaultConfig struct {
	// Path is the vault file location.
	Path string `yaml:"path"`
}

// ShellConfig configures the REPL.
type ShellConfig struct {
	// HistoryFile keeps command history between sessions. Empty disables it.
	HistoryFile string `yaml:"history_file"`
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	dir := DefaultDir()
	return &Config{
		API: APIConfig{
			Endpoint: gemini.DefaultEndpoint,
			Models:   append([]string(nil), gemini.DefaultModels...),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Media:  media.DefaultConfig(),
		Export: ExportConfig{Dir: "."},
		Vault:  VaultConfig{Path: filepath.Join(dir, "examclaw.vault")},
		Shell:  ShellConfig{HistoryFile: filepath.Join(dir, "history")},
	}
}

// DefaultDir is the per-user config directory (~/.config/examclaw on Linux).
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".examclaw"
	}
	return filepath.Join(base, "examclaw")
}

// DefaultPath is where `config init` writes the file.
func DefaultPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Validate checks the settings the invoker depends on.
func (c *Config) Validate() error {
	var errs []error
	if len(c.API.Models) == 0 {
		errs = append(errs, errors.New("api.models: at least one model is required"))
	}
	for i, m := range c.API.Models {
		if strings.TrimSpace(m) == "" {
			errs = append(errs, fmt.Errorf("api.models[%d]: empty model name", i))
		}
	}
	if !strings.Contains(c.API.Endpoint, "{model}") {
		errs = append(errs, fmt.Errorf("api.endpoint: %q has no {model} placeholder", c.API.Endpoint))
	}
	if c.API.Timeout < 0 {
		errs = append(errs, errors.New("api.timeout: must not be negative"))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format: unknown format %q", c.Logging.Format))
	}
	return errors.Join(errs...)
}
