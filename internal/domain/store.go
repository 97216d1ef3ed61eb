package domain

// Store is the process-wide key-value persistence surface.
// Values are opaque bytes; the ledger owns their encoding.
type Store interface {
	// Load returns the value for key, or nil if absent
	Load(key string) ([]byte, error)

	// Update runs an atomic read-modify-write of key.
	// fn receives the current value (nil if absent); a nil result deletes the key.
	Update(key string, fn func(current []byte) ([]byte, error)) error

	// Delete removes key
	Delete(key string) error

	Close() error
}
