package app

import "context"

// Storage is the durable key/value store holding cart snapshots. Get
// reports an absent key with localstore.ErrNotFound.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// Notifier calls fn when the value behind key changes, including changes
// made by other processes.
type Notifier interface {
	Subscribe(key string, fn func()) (func(), error)
}
