package credential

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/term"
)

const (
	// VaultPasswordEnv unlocks the vault without a prompt.
	VaultPasswordEnv = "EXAMCLAW_VAULT_PASSWORD"

	// Argon2id parameters.
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
	argonKeyLen  = 32 // AES-256

	saltLen = 16

	vaultVersion = 1
	verifyEntry  = "__verify__"
	verifyValue  = "examclaw-vault-ok"
)

var (
	// ErrVaultLocked is returned when no password is available.
	ErrVaultLocked = errors.New("vault is locked")

	// ErrWrongPassword is returned when the password does not decrypt the vault.
	ErrWrongPassword = errors.New("wrong vault password")
)

type sealedValue struct {
	Nonce      string `json:"nonce"`
	Ciphertext string `json:"ciphertext"`
}

type vaultFile struct {
	Version int                    `json:"version"`
	Salt    string                 `json:"salt"`
	Entries map[string]sealedValue `json:"entries"`
}

// Vault is a password-protected file of named secrets. The password is never
// stored; only the derived key is kept in memory while unlocked.
type Vault struct {
	path string

	mu   sync.Mutex
	file *vaultFile
	key  []byte
}

// NewVault returns a locked vault at path.
func NewVault(path string) *Vault {
	return &Vault{path: path}
}

// Path returns the vault file path.
func (v *Vault) Path() string { return v.path }

// Exists reports whether the vault file is present.
func (v *Vault) Exists() bool {
	_, err := os.Stat(v.path)
	return err == nil
}

// Unlocked reports whether a key is held in memory.
func (v *Vault) Unlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.key != nil
}

// Create writes a new empty vault sealed with password.
func (v *Vault) Create(password string) error {
	if v.Exists() {
		return fmt.Errorf("vault already exists at %s", v.path)
	}
	if password == "" {
		return errors.New("vault password is empty")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	key := deriveKey(password, salt)
	check, err := seal(key, []byte(verifyValue))
	if err != nil {
		return err
	}
	v.key = key
	v.file = &vaultFile{
		Version: vaultVersion,
		Salt:    base64.StdEncoding.EncodeToString(salt),
		Entries: map[string]sealedValue{verifyEntry: check},
	}
	return v.writeLocked()
}

// Unlock reads the vault and checks password against the verification entry.
func (v *Vault) Unlock(password string) error {
	raw, err := os.ReadFile(v.path)
	if err != nil {
		return fmt.Errorf("reading vault: %w", err)
	}

	var f vaultFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parsing vault: %w", err)
	}
	salt, err := base64.StdEncoding.DecodeString(f.Salt)
	if err != nil {
		return fmt.Errorf("decoding salt: %w", err)
	}
	if f.Entries == nil {
		f.Entries = make(map[string]sealedValue)
	}

	key := deriveKey(password, salt)
	if check, ok := f.Entries[verifyEntry]; ok {
		if _, err := open(key, check); err != nil {
			return ErrWrongPassword
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.key = key
	v.file = &f
	return nil
}

// Lock zeroes and drops the derived key.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i := range v.key {
		v.key[i] = 0
	}
	v.key = nil
	v.file = nil
}

// Get decrypts the secret called name; ErrNotFound when absent.
func (v *Vault) Get(name string) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return "", ErrVaultLocked
	}
	entry, ok := v.file.Entries[name]
	if !ok {
		return "", ErrNotFound
	}
	plain, err := open(v.key, entry)
	if err != nil {
		return "", fmt.Errorf("decrypting %s: %w", name, err)
	}
	return string(plain), nil
}

// Set encrypts value under name and rewrites the file.
func (v *Vault) Set(name, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return ErrVaultLocked
	}
	entry, err := seal(v.key, []byte(value))
	if err != nil {
		return fmt.Errorf("encrypting %s: %w", name, err)
	}
	v.file.Entries[name] = entry
	return v.writeLocked()
}

// Delete removes name and rewrites the file.
func (v *Vault) Delete(name string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.key == nil {
		return ErrVaultLocked
	}
	if _, ok := v.file.Entries[name]; !ok {
		return nil
	}
	delete(v.file.Entries, name)
	return v.writeLocked()
}

func (v *Vault) writeLocked() error {
	data, err := json.MarshalIndent(v.file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling vault: %w", err)
	}
	if dir := filepath.Dir(v.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating vault dir: %w", err)
		}
	}
	if err := os.WriteFile(v.path, data, 0o600); err != nil {
		return fmt.Errorf("writing vault: %w", err)
	}
	return nil
}

func deriveKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func seal(key, plaintext []byte) (sealedValue, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return sealedValue{}, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return sealedValue{}, err
	}
	return sealedValue{
		Nonce:      base64.StdEncoding.EncodeToString(nonce),
		Ciphertext: base64.StdEncoding.EncodeToString(gcm.Seal(nil, nonce, plaintext, nil)),
	}, nil
}

func open(key []byte, sv sealedValue) ([]byte, error) {
	nonce, err := base64.StdEncoding.DecodeString(sv.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decoding nonce: %w", err)
	}
	ct, err := base64.StdEncoding.DecodeString(sv.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decoding ciphertext: %w", err)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, errors.New("bad nonce length")
	}
	plain, err := gcm.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, errors.New("decryption failed")
	}
	return plain, nil
}

// ---------- Store adapter ----------

// PasswordFunc supplies the vault password on demand.
type PasswordFunc func() (string, error)

// VaultStore exposes the vault as a Store holding the single API key.
// The vault is unlocked lazily on first use.
type VaultStore struct {
	vault    *Vault
	password PasswordFunc
}

// NewVaultStore returns a store over the vault at path. A nil password func
// uses DefaultPassword.
func NewVaultStore(path string, password PasswordFunc) *VaultStore {
	if password == nil {
		password = DefaultPassword
	}
	return &VaultStore{vault: NewVault(path), password: password}
}

func (s *VaultStore) Name() string { return "vault" }

func (s *VaultStore) unlock() error {
	if s.vault.Unlocked() {
		return nil
	}
	pass, err := s.password()
	if err != nil {
		return err
	}
	return s.vault.Unlock(pass)
}

func (s *VaultStore) Get() (string, error) {
	if !s.vault.Exists() {
		return "", ErrNotFound
	}
	if err := s.unlock(); err != nil {
		return "", err
	}
	return s.vault.Get(Name)
}

// Set stores the key, creating the vault when it does not exist yet.
func (s *VaultStore) Set(value string) error {
	if !s.vault.Exists() {
		pass, err := s.password()
		if err != nil {
			return err
		}
		if err := s.vault.Create(pass); err != nil {
			return err
		}
	} else if err := s.unlock(); err != nil {
		return err
	}
	return s.vault.Set(Name, value)
}

func (s *VaultStore) Delete() error {
	if !s.vault.Exists() {
		return nil
	}
	if err := s.unlock(); err != nil {
		return err
	}
	return s.vault.Delete(Name)
}

// DefaultPassword reads VaultPasswordEnv, then prompts on the terminal. It
// returns ErrVaultLocked when neither is available.
func DefaultPassword() (string, error) {
	if p := os.Getenv(VaultPasswordEnv); p != "" {
		return p, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", ErrVaultLocked
	}
	return ReadPassword("Vault password: ")
}

// ReadPassword reads a line from the terminal without echo.
func ReadPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return strings.TrimRight(string(pass), "\r\n"), nil
}
