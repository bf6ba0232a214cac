package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/99designs/keyring"
	"github.com/windoze95/nickate-skill/internal/config"
)

const keyringService = "nickate-skill"

// KeyringStore keeps secrets in the OS keyring, or in an encrypted file
// keyring when KEYRING_DIR is set. Meant for running the skill locally.
type KeyringStore struct {
	ring   keyring.Keyring
	prefix string
}

// OpenKeyringStore opens the keyring described by the app config.
func OpenKeyringStore(cfg *config.Config) (*KeyringStore, error) {
	kc := keyring.Config{
		ServiceName: keyringService,
	}
	if cfg.EnvVars.KeyringDir != "" {
		kc.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
		kc.FileDir = cfg.EnvVars.KeyringDir
		kc.FilePasswordFunc = keyring.FixedStringPrompt(cfg.EnvVars.KeyringPassword)
	}

	ring, err := keyring.Open(kc)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}
	return NewKeyringStore(ring, cfg.EnvVars.SecretsPrefix), nil
}

// NewKeyringStore wraps an already opened keyring.
func NewKeyringStore(ring keyring.Keyring, prefix string) *KeyringStore {
	return &KeyringStore{ring: ring, prefix: prefix}
}

// Get reads a secret from the keyring.
func (s *KeyringStore) Get(ctx context.Context, name string) (string, error) {
	item, err := s.ring.Get(s.prefix + name)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return "", NotFoundError{Name: name}
		}
		return "", fmt.Errorf("keyring get: %w", err)
	}
	return string(item.Data), nil
}

// Put stores a secret in the keyring.
func (s *KeyringStore) Put(ctx context.Context, name, value string) error {
	err := s.ring.Set(keyring.Item{
		Key:   s.prefix + name,
		Data:  []byte(value),
		Label: name,
	})
	if err != nil {
		return fmt.Errorf("keyring set: %w", err)
	}
	return nil
}
