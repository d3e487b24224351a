package internal

const (
	// StoreService and StoreAccount key the single secure-storage entry
	// that holds the whole cache blob.
	StoreService = "fedctl"
	StoreAccount = "store"
)

// SecretBackend persists the opaque store blob in OS secure storage. Load
// reports ok=false when no blob exists yet; Delete on a missing entry is
// not an error.
type SecretBackend interface {
	Load() (data []byte, ok bool, err error)
	Save(data []byte) error
	Delete() error
}
