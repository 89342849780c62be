package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// KeyPrefix namespaces cart snapshots in shared storage.
const KeyPrefix = "cart-storage:"

// Key returns the storage key for a session's cart.
func Key(session string) string { return KeyPrefix + session }

// Deleter is implemented by storage backends that can drop a snapshot.
// Sessions uses it to remove rows for carts released while empty.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

type session struct {
	store    *Store
	lastUsed atomic.Int64 // unix nanos
}

func (e *session) touch(now time.Time) { e.lastUsed.Store(now.UnixNano()) }

// Sessions owns one Store per session id. Stores are created and
// initialized on first use and released by EvictIdle or Close.
type Sessions struct {
	storage Storage
	opts    []Option
	log     *zap.Logger
	now     func() time.Time
	group   singleflight.Group

	mu      sync.Mutex
	stores  map[string]*session
	closing map[string]chan struct{}
}

// NewSessions returns a registry whose stores persist to storage.
func NewSessions(storage Storage, log *zap.Logger, opts ...Option) *Sessions {
	return &Sessions{
		storage: storage,
		opts:    append([]Option{WithLogger(log)}, opts...),
		log:     log,
		now:     time.Now,
		stores:  make(map[string]*session),
		closing: make(map[string]chan struct{}),
	}
}

// Get returns the store for id, initializing it from storage the first
// time it is requested. Storage is read without holding the registry lock;
// concurrent first requests for the same id share one initialization.
func (s *Sessions) Get(ctx context.Context, id string) *Store {
	for {
		s.mu.Lock()
		if e, ok := s.stores[id]; ok {
			e.touch(s.now())
			s.mu.Unlock()
			return e.store
		}
		done, releasing := s.closing[id]
		s.mu.Unlock()

		if releasing {
			// Wait for the old store's last write before reloading.
			<-done
			continue
		}

		v, _, _ := s.group.Do(id, func() (any, error) {
			s.mu.Lock()
			if e, ok := s.stores[id]; ok {
				s.mu.Unlock()
				return e, nil
			}
			if _, releasing := s.closing[id]; releasing {
				s.mu.Unlock()
				return nil, nil
			}
			s.mu.Unlock()

			st := NewStore(s.storage, Key(id), s.opts...)
			result := st.Initialize(context.WithoutCancel(ctx))
			s.log.Info("cart session opened", zap.String("session", id), zap.Stringer("load", result))

			e := &session{store: st}
			s.mu.Lock()
			e.touch(s.now())
			s.stores[id] = e
			s.mu.Unlock()
			return e, nil
		})
		if e, ok := v.(*session); ok {
			e.touch(s.now())
			return e.store
		}
	}
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stores)
}

// EvictIdle releases every store last used before cutoff and returns how
// many were released. Errors from individual stores are joined; every
// selected store is closed regardless.
func (s *Sessions) EvictIdle(ctx context.Context, cutoff time.Time) (int, error) {
	limit := cutoff.UnixNano()
	s.mu.Lock()
	victims := make(map[string]*Store)
	for id, e := range s.stores {
		if e.lastUsed.Load() < limit {
			victims[id] = e.store
			delete(s.stores, id)
			s.closing[id] = make(chan struct{})
		}
	}
	s.mu.Unlock()

	return len(victims), s.releaseAll(ctx, victims)
}

// Run evicts sessions idle for longer than idle, checking every interval,
// until ctx is done.
func (s *Sessions) Run(ctx context.Context, idle, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rctx, cancel := context.WithTimeout(ctx, interval)
			n, err := s.EvictIdle(rctx, s.now().Add(-idle))
			cancel()
			if err != nil {
				s.log.Warn("evict idle carts", zap.Int("evicted", n), zap.Error(err))
			} else if n > 0 {
				s.log.Debug("evicted idle carts", zap.Int("evicted", n))
			}
		}
	}
}

// Close flushes and closes every store. All stores are closed even when
// some flushes fail; the failures are joined.
func (s *Sessions) Close(ctx context.Context) error {
	s.mu.Lock()
	victims := make(map[string]*Store, len(s.stores))
	for id, e := range s.stores {
		victims[id] = e.store
		s.closing[id] = make(chan struct{})
	}
	s.stores = make(map[string]*session)
	s.mu.Unlock()

	return s.releaseAll(ctx, victims)
}

func (s *Sessions) releaseAll(ctx context.Context, victims map[string]*Store) error {
	var errs []error
	for id, st := range victims {
		if err := s.release(ctx, id, st); err != nil {
			errs = append(errs, err)
		}
		s.mu.Lock()
		close(s.closing[id])
		delete(s.closing, id)
		s.mu.Unlock()
	}
	return errors.Join(errs...)
}

// release flushes and closes st. A cart that ends empty with storage in
// good health has its row removed.
func (s *Sessions) release(ctx context.Context, id string, st *Store) error {
	err := st.Flush(ctx)
	st.Close()
	if err != nil {
		return &StorageError{Op: "flush", Key: st.Key(), Err: err}
	}
	if d, ok := s.storage.(Deleter); ok && len(st.Items()) == 0 && !st.Degraded() {
		if err := d.Delete(ctx, st.Key()); err != nil {
			return &StorageError{Op: "delete", Key: st.Key(), Err: err}
		}
	}
	s.log.Debug("cart session closed", zap.String("session", id))
	return nil
}
