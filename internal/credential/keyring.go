package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
	"github.com/google/uuid"
)

const serviceName = "atlassify"

// refPrefix marks values that point into the keyring.
const refPrefix = "keyring:"

// Vault encrypts API tokens at rest by moving them into the OS keyring.
// The "ciphertext" handed back to callers is an opaque reference that is
// useless without access to the keyring.
type Vault struct {
	ring keyring.Keyring
}

// Open returns a Vault backed by the system keyring. fileDir is used by
// the encrypted-file fallback backend.
func Open(fileDir string) (*Vault, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  fileDir,
		FilePasswordFunc:         keyring.FixedStringPrompt("atlassify-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return &Vault{ring: ring}, nil
}

// NewVault wraps an existing keyring, e.g. keyring.NewArrayKeyring in tests.
func NewVault(ring keyring.Keyring) *Vault {
	return &Vault{ring: ring}
}

// Encrypt stores plain in the keyring and returns its reference.
func (v *Vault) Encrypt(plain string) (string, error) {
	key := uuid.New().String()

	err := v.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(plain),
		Label:       "Atlassify API token",
		Description: "Atlassian API token used by atlassify",
	})
	if err != nil {
		return "", fmt.Errorf("storing credential: %w", err)
	}

	return refPrefix + key, nil
}

// Decrypt resolves a reference produced by Encrypt.
func (v *Vault) Decrypt(ref string) (string, error) {
	key, err := keyFromRef(ref)
	if err != nil {
		return "", err
	}

	item, err := v.ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Forget removes the secret behind ref. Unknown references are ignored.
func (v *Vault) Forget(ref string) error {
	key, err := keyFromRef(ref)
	if err != nil {
		return err
	}

	err = v.ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}

func keyFromRef(ref string) (string, error) {
	key, ok := strings.CutPrefix(ref, refPrefix)
	if !ok || key == "" {
		return "", fmt.Errorf("malformed credential reference %q", ref)
	}
	return key, nil
}
