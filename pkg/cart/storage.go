package cart

import "context"

// Storage is a durable key-value byte store used to persist cart snapshots.
// Load returns ErrNoSnapshot when the key has never been saved.
type Storage interface {
	Save(ctx context.Context, key string, data []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// Observer receives notifications about store activity. It is used for
// metrics and must not block.
type Observer interface {
	Mutation(op string)
	StorageFailure(op string)
}

type nopObserver struct{}

func (nopObserver) Mutation(string)       {}
func (nopObserver) StorageFailure(string) {}
