// Package credential stores the single Gemini API key the program needs.
//
// Resolution order when the key is needed:
//  1. Explicit value (--api-key flag)
//  2. Environment variable (GEMINI_API_KEY, GOOGLE_API_KEY)
//  3. OS keyring (Secret Service / Keychain / Credential Manager)
//  4. Encrypted vault file (AES-256-GCM + Argon2id)
//  5. api.api_key in the config file (plaintext on disk)
package credential

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Name is the fixed key under which the API key is stored.
const Name = "gemini_api_key"

var (
	// ErrNotFound means the store has no key.
	ErrNotFound = errors.New("credential not found")

	// ErrReadOnly is returned by stores that cannot be written.
	ErrReadOnly = errors.New("credential store is read-only")
)

// Store reads and writes the API key.
type Store interface {
	// Name identifies the store in logs and messages.
	Name() string
	// Get returns the key or ErrNotFound.
	Get() (string, error)
	// Set replaces the key.
	Set(value string) error
	// Delete removes the key; deleting a missing key is not an error.
	Delete() error
}

// EnvVars are the environment variables checked, in order.
var EnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// EnvStore reads the key from the environment. It cannot be written.
type EnvStore struct {
	Vars []string
}

// NewEnvStore returns a store over EnvVars.
func NewEnvStore() *EnvStore {
	return &EnvStore{Vars: EnvVars}
}

func (s *EnvStore) Name() string { return "env" }

func (s *EnvStore) Get() (string, error) {
	for _, v := range s.Vars {
		if val := strings.TrimSpace(os.Getenv(v)); val != "" {
			return val, nil
		}
	}
	return "", ErrNotFound
}

func (s *EnvStore) Set(string) error { return fmt.Errorf("env: %w", ErrReadOnly) }

func (s *EnvStore) Delete() error { return fmt.Errorf("env: %w", ErrReadOnly) }

// Resolution is a found key and where it came from.
type Resolution struct {
	Key    string
	Source string
}

// Resolver walks stores in priority order.
type Resolver struct {
	stores []Store
	logger *slog.Logger
}

// NewResolver creates a resolver over stores, highest priority first.
func NewResolver(logger *slog.Logger, stores ...Store) *Resolver {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Resolver{stores: stores, logger: logger.With("component", "credential")}
}

// Resolve returns the first available key. explicit wins over every store;
// configValue is used only when no store has a key. Store failures other
// than ErrNotFound are logged and skipped, so a missing keyring daemon does
// not hide a key in the vault.
func (r *Resolver) Resolve(explicit, configValue string) (Resolution, error) {
	if v := strings.TrimSpace(explicit); v != "" {
		return Resolution{Key: v, Source: "flag"}, nil
	}

	for _, s := range r.stores {
		val, err := s.Get()
		if err == nil && val != "" {
			r.logger.Debug("API key loaded", "source", s.Name())
			return Resolution{Key: val, Source: s.Name()}, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			r.logger.Warn("credential store unavailable", "source", s.Name(), "error", err)
		}
	}

	if v := strings.TrimSpace(configValue); v != "" && !strings.HasPrefix(v, "${") {
		r.logger.Debug("API key loaded", "source", "config")
		return Resolution{Key: v, Source: "config"}, nil
	}

	return Resolution{}, ErrNotFound
}

// Save writes the key to the first store that accepts it and returns that
// store's name.
func (r *Resolver) Save(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("empty API key")
	}

	var errs []error
	for _, s := range r.stores {
		err := s.Set(value)
		if err == nil {
			r.logger.Info("API key saved", "store", s.Name())
			return s.Name(), nil
		}
		if !errors.Is(err, ErrReadOnly) {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	if len(errs) == 0 {
		return "", ErrReadOnly
	}
	return "", errors.Join(errs...)
}

// Forget deletes the key from every writable store.
func (r *Resolver) Forget() error {
	var errs []error
	for _, s := range r.stores {
		if err := s.Delete(); err != nil && !errors.Is(err, ErrReadOnly) {
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}
