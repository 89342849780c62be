package cart

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sufikitchen/pkg/catalog"
)

// LoadResult describes what Initialize found in storage.
type LoadResult int

const (
	// LoadEmpty means no snapshot was stored; the cart starts empty.
	LoadEmpty LoadResult = iota
	// LoadRestored means a snapshot was loaded and its totals recomputed.
	LoadRestored
	// LoadCorrupt means the stored snapshot could not be parsed; the cart starts empty.
	LoadCorrupt
	// LoadUnavailable means storage could not be read; the cart starts empty
	// and runs from memory until a save succeeds.
	LoadUnavailable
)

func (r LoadResult) String() string {
	switch r {
	case LoadRestored:
		return "restored"
	case LoadCorrupt:
		return "corrupt"
	case LoadUnavailable:
		return "unavailable"
	default:
		return "empty"
	}
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for absorbed storage failures.
func WithLogger(log *zap.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithObserver registers an observer for mutations and storage failures.
func WithObserver(o Observer) Option {
	return func(s *Store) { s.observer = o }
}

// WithWriteTimeout bounds each background save.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.writeTimeout = d }
}

// Store is the single source of truth for one cart. Mutations are applied
// synchronously under a lock, totals are recomputed, and the new snapshot is
// written to storage in the background. Storage failures are logged and
// never returned to callers.
type Store struct {
	mu    sync.RWMutex
	state State

	key          string
	storage      Storage
	writer       *writer
	log          *zap.Logger
	observer     Observer
	writeTimeout time.Duration
	degraded     atomic.Bool

	subMu   sync.Mutex
	subs    map[int]chan State
	nextSub int
}

// NewStore returns an empty store bound to key. Call Initialize before use
// to load any previously saved cart.
func NewStore(storage Storage, key string, opts ...Option) *Store {
	s := &Store{
		state:        Empty(),
		key:          key,
		storage:      storage,
		log:          zap.NewNop(),
		observer:     nopObserver{},
		writeTimeout: 5 * time.Second,
		subs:         make(map[int]chan State),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(zap.String("cart_key", key))
	s.writer = newWriter(storage, key, s.writeTimeout, s.log, s.saved)
	return s
}

// Key returns the storage key the store persists under.
func (s *Store) Key() string { return s.key }

// Initialize loads the saved snapshot, recomputes its totals and re-saves
// it. Any failure leaves the store empty and usable.
func (s *Store) Initialize(ctx context.Context) LoadResult {
	result := LoadRestored
	state := Empty()

	data, err := s.storage.Load(ctx, s.key)
	switch {
	case errors.Is(err, ErrNoSnapshot):
		result = LoadEmpty
	case err != nil:
		result = LoadUnavailable
		s.failure("load", &StorageError{Op: "load", Key: s.key, Err: err})
	default:
		decoded, derr := Decode(data)
		if derr != nil {
			result = LoadCorrupt
			s.failure("decode", &StorageError{Op: "decode", Key: s.key, Err: derr})
		} else {
			state = decoded
		}
	}

	// Unreadable storage may still hold a good snapshot; don't overwrite it.
	s.commit("initialize", func(State) State { return state }, result != LoadUnavailable)
	s.log.Debug("cart initialized",
		zap.Stringer("result", result),
		zap.Int("items", len(state.Items)),
		zap.String("total_price", state.TotalPrice.String()))
	return result
}

// AddItem adds one unit of d, copying the dish by value.
func (s *Store) AddItem(d catalog.Dish) {
	s.commit("add_item", func(st State) State { return Add(st, d) }, true)
}

// RemoveItem deletes the line for id if present.
func (s *Store) RemoveItem(id int) {
	s.commit("remove_item", func(st State) State { return Remove(st, id) }, true)
}

// UpdateItemQuantity sets the quantity for id; quantity <= 0 removes the line.
func (s *Store) UpdateItemQuantity(id, quantity int) {
	s.commit("update_quantity", func(st State) State { return SetQuantity(st, id, quantity) }, true)
}

// DeductItems removes the ordered quantities, leaving anything added
// since the order was taken.
func (s *Store) DeductItems(ordered []Item) {
	s.commit("deduct", func(st State) State { return Deduct(st, ordered) }, true)
}

// ClearCart removes every line.
func (s *Store) ClearCart() {
	s.commit("clear", Clear, true)
}

// Snapshot returns the current state. The returned value is a copy.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Items returns the current lines in insertion order.
func (s *Store) Items() []Item { return s.Snapshot().Items }

// TotalPrice returns Σ price × quantity.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TotalPrice
}

// TotalItems returns Σ quantity.
func (s *Store) TotalItems() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.TotalItems
}

// Degraded reports whether the most recent storage operation failed.
func (s *Store) Degraded() bool { return s.degraded.Load() }

// Subscribe returns a channel that receives the state after every completed
// mutation. A slow reader only sees the newest state. Call cancel to stop.
func (s *Store) Subscribe() (updates <-chan State, cancel func()) {
	ch := make(chan State, 1)
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

// Flush waits for pending background saves.
func (s *Store) Flush(ctx context.Context) error {
	return s.writer.flush(ctx)
}

// Close flushes pending saves, releases the background writer and closes
// every subscription channel. The store remains readable; further mutations
// are kept in memory only.
func (s *Store) Close() {
	s.writer.close()

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
}

// commit applies a pure transition, then persists and publishes the result.
// The lock is held across all three so snapshots reach storage and
// subscribers in mutation order.
func (s *Store) commit(op string, transition func(State) State, persist bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = transition(s.state)
	s.observer.Mutation(op)
	if persist {
		s.persist(s.state)
	}
	s.publish(s.state)
}

func (s *Store) persist(st State) {
	data, err := Encode(st)
	if err != nil {
		s.failure("encode", &StorageError{Op: "encode", Key: s.key, Err: err})
		return
	}
	s.writer.enqueue(data)
}

func (s *Store) publish(st State) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		snap := st.Clone()
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
}

func (s *Store) saved(err error) {
	if err != nil {
		s.failure("save", &StorageError{Op: "save", Key: s.key, Err: err})
		return
	}
	if s.degraded.Swap(false) {
		s.log.Info("cart storage recovered")
	}
}

func (s *Store) failure(op string, err error) {
	s.degraded.Store(true)
	s.observer.StorageFailure(op)
	s.log.Warn("cart storage failure absorbed", zap.String("op", op), zap.Error(err))
}
