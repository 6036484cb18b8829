package app

import "context"

type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type Notifier interface {
	Subscribe(key string, fn func()) (func(), error)
}
