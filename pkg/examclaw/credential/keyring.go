package credential

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// KeyringService is the service name used in the OS keyring.
const KeyringService = "examclaw"

// KeyringStore keeps the key in the operating system's keyring.
type KeyringStore struct {
	service string
}

// NewKeyringStore returns a store under KeyringService.
func NewKeyringStore() *KeyringStore {
	return &KeyringStore{service: KeyringService}
}

func (s *KeyringStore) Name() string { return "keyring" }

func (s *KeyringStore) Get() (string, error) {
	val, err := keyring.Get(s.service, Name)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("keyring: %w", err)
	}
	if val == "" {
		return "", ErrNotFound
	}
	return val, nil
}

func (s *KeyringStore) Set(value string) error {
	if err := keyring.Set(s.service, Name, value); err != nil {
		return fmt.Errorf("keyring: %w", err)
	}
	return nil
}

func (s *KeyringStore) Delete() error {
	err := keyring.Delete(s.service, Name)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keyring: %w", err)
	}
	return nil
}

// Available checks whether the OS keyring accepts writes.
func (s *KeyringStore) Available() bool {
	check := "__examclaw_check__"
	if err := keyring.Set(s.service, check, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(s.service, check)
	return true
}
