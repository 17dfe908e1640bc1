package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseOverlaysDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte(`
api:
  timeout: 45s
logging:
  format: json
media:
  max_dimension: 2048
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cfg.API.Models) != 3 || cfg.API.Models[0] != "gemini-2.5-flash" {
		t.Errorf("Models = %v, want defaults", cfg.API.Models)
	}
	if cfg.API.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", cfg.API.Timeout)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "info" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
	if cfg.Media.MaxDimension != 2048 || cfg.Media.MaxSize != 20*1024*1024 {
		t.Errorf("Media = %+v", cfg.Media)
	}
	if !strings.Contains(cfg.API.Endpoint, "{model}") {
		t.Errorf("Endpoint = %q", cfg.API.Endpoint)
	}
}

func TestParseModelsReplaceDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Parse([]byte("api:\n  models: [a, b]\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(cfg.API.Models) != 2 || cfg.API.Models[0] != "a" || cfg.API.Models[1] != "b" {
		t.Errorf("Models = %v, want [a b]", cfg.API.Models)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v", err)
	}

	bad := DefaultConfig()
	bad.API.Models = nil
	bad.API.Endpoint = "https://example.com/generate"
	bad.Logging.Format = "xml"
	err := bad.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}
	for _, want := range []string{"api.models", "api.endpoint", "logging.format"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q missing %q", err, want)
		}
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("EXAMCLAW_TEST_KEY", "abc")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"key: ${EXAMCLAW_TEST_KEY}", "key: abc", false},
		{"key: $EXAMCLAW_TEST_KEY", "key: abc", false},
		{"key: ${EXAMCLAW_UNSET_VAR}", "key: ${EXAMCLAW_UNSET_VAR}", false},
		{"key: ${EXAMCLAW_UNSET_VAR:-fallback}", "key: fallback", false},
		{"key: ${EXAMCLAW_UNSET_VAR:?set it}", "", true},
		{"no refs", "no refs", false},
	}

	for _, tt := range tests {
		got, err := ExpandEnv(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ExpandEnv(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadAndSave(t *testing.T) {
	t.Setenv("EXAMCLAW_TEST_MODEL", "gemini-test")

	dir := t.TempDir()
	path := filepath.Join(dir, "examclaw.yaml")
	content := `
api:
  models: ["${EXAMCLAW_TEST_MODEL}", gemini-2.0-flash]
vault:
  path: secrets/examclaw.vault
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, used, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if used != path {
		t.Errorf("used path = %q, want %q", used, path)
	}
	if cfg.API.Models[0] != "gemini-test" {
		t.Errorf("Models[0] = %q, want expanded env value", cfg.API.Models[0])
	}
	if want := filepath.Join(dir, "secrets", "examclaw.vault"); cfg.Vault.Path != want {
		t.Errorf("Vault.Path = %q, want %q", cfg.Vault.Path, want)
	}

	cfg.API.Models = []string{"only-one"}
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := os.Stat(path + ".bak"); err != nil {
		t.Errorf("backup not written: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	reloaded, _, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save error = %v", err)
	}
	if len(reloaded.API.Models) != 1 || reloaded.API.Models[0] != "only-one" {
		t.Errorf("reloaded Models = %v", reloaded.API.Models)
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of a missing explicit path should fail")
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
	}{
		{"foreign top level", "server:\n  port: 8080\n"},
		{"misspelled key", "api:\n  modles: [a]\n"},
		{"unknown media key", "media:\n  max_width: 10\n"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse([]byte(tt.in)); err == nil {
				t.Errorf("Parse(%q) error = nil, want unknown field error", tt.in)
			}
		})
	}

	cfg, err := Parse([]byte("# only a comment\n"))
	if err != nil {
		t.Fatalf("Parse(comment only) error = %v", err)
	}
	if len(cfg.API.Models) == 0 {
		t.Error("comment-only file dropped the default models")
	}
}

func TestFindIgnoresGenericConfigName(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("AppData", filepath.Join(home, "AppData"))

	wd := t.TempDir()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(wd); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(orig) })
	if err := os.WriteFile("config.yaml", []byte("server:\n  port: 8080\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	if got := Find(); got != "" {
		t.Errorf("Find() = %q, want none with only config.yaml present", got)
	}

	if err := os.WriteFile("examclaw.yaml", []byte("api:\n  models: [a]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got := Find(); got != "examclaw.yaml" {
		t.Errorf("Find() = %q, want examclaw.yaml", got)
	}
}
