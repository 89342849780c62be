package cart

import (
	"context"
	"sync"
	"time"

	"github.com/alitto/pond"
	"go.uber.org/zap"
)

// writer pushes snapshots to storage off the caller's goroutine. It runs a
// single worker so saves land in mutation order, and it coalesces: if
// several snapshots queue up while a save is in flight only the newest is
// written next.
type writer struct {
	pool    *pond.WorkerPool
	storage Storage
	key     string
	timeout time.Duration
	log     *zap.Logger
	onSaved func(err error)

	mu        sync.Mutex
	pending   []byte
	scheduled bool
	closed    bool
}

func newWriter(storage Storage, key string, timeout time.Duration, log *zap.Logger, onSaved func(error)) *writer {
	w := &writer{
		storage: storage,
		key:     key,
		timeout: timeout,
		log:     log,
		onSaved: onSaved,
	}
	w.pool = pond.New(1, 16,
		pond.MinWorkers(0),
		pond.IdleTimeout(30*time.Second),
		pond.PanicHandler(func(p interface{}) {
			log.Error("cart writer panic recovered", zap.String("key", key), zap.Any("panic", p))
		}),
	)
	return w
}

// enqueue schedules data to be saved. It never waits for the save.
func (w *writer) enqueue(data []byte) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.pending = data
	if w.scheduled {
		w.mu.Unlock()
		return
	}
	w.scheduled = true
	w.mu.Unlock()

	if w.pool.TrySubmit(w.drain) {
		return
	}
	// The queue is full of flush markers. Hand off so the caller is not blocked.
	go func() {
		defer func() {
			if p := recover(); p != nil {
				w.log.Warn("cart snapshot dropped, writer closed", zap.String("key", w.key))
			}
		}()
		w.pool.Submit(w.drain)
	}()
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		data := w.pending
		w.pending = nil
		if data == nil {
			w.scheduled = false
			w.mu.Unlock()
			return
		}
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		err := w.storage.Save(ctx, w.key, data)
		cancel()
		w.onSaved(err)
	}
}

// flush waits until every snapshot enqueued before the call has been
// handed to storage.
func (w *writer) flush(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return nil
	}

	done := make(chan struct{})
	go func() {
		defer func() {
			if recover() != nil {
				close(done)
			}
		}()
		w.pool.Submit(func() { close(done) })
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close waits for queued saves and stops the worker.
func (w *writer) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()
	w.pool.StopAndWait()
}
