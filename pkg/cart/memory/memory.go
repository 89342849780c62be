// Package memory implements an in-memory cart snapshot storage.
package memory

import (
	"context"
	"slices"
	"sync"

	"sufikitchen/pkg/cart"
)

// Storage keeps snapshots in a map. It survives store restarts within one
// process, which makes it useful for tests and single-process deployments.
type Storage struct {
	mu    sync.RWMutex
	blobs map[string][]byte
	saves int
}

// New creates an empty in-memory storage.
func New() *Storage {
	return &Storage{blobs: make(map[string][]byte)}
}

// Save stores a copy of data under key.
func (s *Storage) Save(ctx context.Context, key string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = slices.Clone(data)
	s.saves++
	return nil
}

// Load returns a copy of the data stored under key.
func (s *Storage) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[key]
	if !ok {
		return nil, cart.ErrNoSnapshot
	}
	return slices.Clone(b), nil
}

// Delete wipes the snapshot for key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	return nil
}

// Saves returns how many successful saves have been made.
func (s *Storage) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
