package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR}, ${VAR:-default}, ${VAR:?error} and $VAR.
//
// Groups: 1=name in braces, 2=modifier ("-" or "?"), 3=default or message,
// 4=bare name.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::(-|\?)([^}]*))?\}|\$([A-Z_][A-Z0-9_]*)`)

// Load reads the config at path. An empty path falls back to Find and then
// to defaults. .env files are loaded first so that ${VAR} references in the
// YAML can use them.
func Load(path string) (*Config, string, error) {
	LoadEnvFiles()

	if path == "" {
		path = Find()
	}
	if path == "" {
		cfg := DefaultConfig()
		return cfg, "", cfg.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("reading config file: %w", err)
	}

	expanded, err := ExpandEnv(string(data))
	if err != nil {
		return nil, path, fmt.Errorf("expanding environment variables: %w", err)
	}

	cfg, err := Parse([]byte(expanded))
	if err != nil {
		return nil, path, err
	}
	resolveRelativePaths(cfg, path)

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, path, nil
}

// Parse overlays YAML onto DefaultConfig. Unknown keys are rejected so a
// foreign file is never mistaken for ours. An empty models list in the file
// keeps the default candidates.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	defaults := cfg.API.Models

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}
	if len(cfg.API.Models) == 0 {
		cfg.API.Models = defaults
	}
	return cfg, nil
}

// Save writes cfg as YAML with owner-only permissions, keeping the previous
// file as path.bak.
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	var check Config
	if err := yaml.Unmarshal(data, &check); err != nil {
		return fmt.Errorf("config validation failed (refusing to write corrupt data): %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if existing, err := os.ReadFile(path); err == nil {
		_ = os.WriteFile(path+".bak", existing, 0o600)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Find returns the first examclaw config present in the working directory
// or the user config directory, or "" if there is none. A generic
// config.yaml in the working directory is not ours and is never picked up.
func Find() string {
	candidates := []string{
		"examclaw.yaml",
		"examclaw.yml",
		DefaultPath(),
	}
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadEnvFiles loads .env and .env.local. Existing variables are not
// overwritten.
func LoadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

// ExpandEnv replaces environment references in input. Unset ${VAR} and $VAR
// are left as is; an unset ${VAR:?msg} is an error.
func ExpandEnv(input string) (string, error) {
	var firstErr error
	out := envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		name, mod, arg, bare := sub[1], sub[2], sub[3], sub[4]

		if bare != "" {
			if val, ok := os.LookupEnv(bare); ok {
				return val
			}
			return match
		}

		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		switch mod {
		case "-":
			return arg
		case "?":
			if firstErr == nil {
				if arg == "" {
					arg = "required environment variable not set"
				}
				firstErr = fmt.Errorf("%s: %s", name, arg)
			}
		}
		return match
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// IsEnvReference reports whether s is an unexpanded ${VAR} reference.
func IsEnvReference(s string) bool {
	return strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}")
}

func resolveRelativePaths(cfg *Config, configPath string) {
	dir := filepath.Dir(configPath)
	cfg.Vault.Path = resolvePath(cfg.Vault.Path, dir)
	cfg.Shell.HistoryFile = resolvePath(cfg.Shell.HistoryFile, dir)
	cfg.Export.Dir = expandHome(cfg.Export.Dir)
}

// resolvePath expands ~ and makes relative paths relative to dir.
func resolvePath(path, dir string) string {
	if path == "" {
		return path
	}
	path = expandHome(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
