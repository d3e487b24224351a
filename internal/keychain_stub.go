//go:build !darwin

package internal

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend is the non-macOS fallback: the blob is AES-GCM encrypted
// with a key from the FEDCTL_SECRET environment variable and written to a
// file under the operator's home directory.
type FileBackend struct {
	path string
	key  []byte
}

// DefaultBackend returns the platform secure-storage backend.
func DefaultBackend() (SecretBackend, error) {
	secret := os.Getenv("FEDCTL_SECRET")
	if len(secret) < 32 {
		return nil, fmt.Errorf("FEDCTL_SECRET must be set to at least 32 characters on this platform")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return &FileBackend{
		path: filepath.Join(home, ".fedctl", "store.enc"),
		key:  []byte(secret),
	}, nil
}

func (b *FileBackend) Load() ([]byte, bool, error) {
	encrypted, err := os.ReadFile(b.path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	data, err := Decrypt(encrypted, b.key)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decrypt store (wrong FEDCTL_SECRET?): %w", err)
	}
	return data, true, nil
}

func (b *FileBackend) Save(data []byte) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0700); err != nil {
		return err
	}
	encrypted, err := Encrypt(data, b.key)
	if err != nil {
		return err
	}
	return os.WriteFile(b.path, encrypted, 0600)
}

func (b *FileBackend) Delete() error {
	err := os.Remove(b.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
