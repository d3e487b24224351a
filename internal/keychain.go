//go:build darwin

package internal

import (
	"fmt"

	"github.com/keybase/go-keychain"
)

// KeychainBackend stores the blob as a single generic-password item in the
// macOS keychain.
type KeychainBackend struct {
	service string
	account string
}

// DefaultBackend returns the platform secure-storage backend.
func DefaultBackend() (SecretBackend, error) {
	return &KeychainBackend{service: StoreService, account: StoreAccount}, nil
}

func (b *KeychainBackend) Load() ([]byte, bool, error) {
	query := keychain.NewItem()
	query.SetSecClass(keychain.SecClassGenericPassword)
	query.SetService(b.service)
	query.SetAccount(b.account)
	query.SetMatchLimit(keychain.MatchLimitOne)
	query.SetReturnData(true)

	results, err := keychain.QueryItem(query)
	if err != nil {
		if err == keychain.ErrorItemNotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("keychain query failed: %w", err)
	}
	if len(results) == 0 {
		return nil, false, nil
	}
	return results[0].Data, true, nil
}

func (b *KeychainBackend) Save(data []byte) error {
	item := keychain.NewItem()
	item.SetSecClass(keychain.SecClassGenericPassword)
	item.SetService(b.service)
	item.SetAccount(b.account)
	item.SetLabel("fedctl credential store")
	item.SetData(data)
	item.SetSynchronizable(keychain.SynchronizableNo)
	item.SetAccessible(keychain.AccessibleWhenUnlocked)

	// Keychain items cannot be replaced in place.
	keychain.DeleteItem(item)

	if err := keychain.AddItem(item); err != nil {
		return fmt.Errorf("failed to save to keychain: %w", err)
	}
	return nil
}

func (b *KeychainBackend) Delete() error {
	err := keychain.DeleteGenericPasswordItem(b.service, b.account)
	if err != nil && err != keychain.ErrorItemNotFound {
		return fmt.Errorf("failed to delete keychain item: %w", err)
	}
	return nil
}
