package pool

import (
	"context"
	"sync"

	"github.com/kyiku/caritas-study-back/internal/logger"
)

// snapshotWorker uploads pool snapshots one at a time off the request
// path. Only the newest pending snapshot is kept, so the mirror always
// ends on the latest saved state.
type snapshotWorker struct {
	mirror Mirror
	log    *logger.Logger

	mu      sync.Mutex
	pending []byte

	wake     chan struct{}
	quit     chan struct{}
	done     chan struct{}
	quitOnce sync.Once
}

func newSnapshotWorker(m Mirror, log *logger.Logger) *snapshotWorker {
	w := &snapshotWorker{
		mirror: m,
		log:    log,
		wake:   make(chan struct{}, 1),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go w.run()
	return w
}

// enqueue replaces any pending snapshot with data. It never blocks.
func (w *snapshotWorker) enqueue(data []byte) {
	w.mu.Lock()
	w.pending = data
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *snapshotWorker) run() {
	defer close(w.done)
	for {
		select {
		case <-w.wake:
			w.upload()
		case <-w.quit:
			w.upload()
			return
		}
	}
}

func (w *snapshotWorker) upload() {
	w.mu.Lock()
	data := w.pending
	w.pending = nil
	w.mu.Unlock()

	if data == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := w.mirror.Snapshot(ctx, data); err != nil {
		w.log.Warn("failed to mirror pool snapshot", "error", err)
	}
}

// close stops the worker after the pending snapshot is uploaded.
func (w *snapshotWorker) close(ctx context.Context) error {
	w.quitOnce.Do(func() { close(w.quit) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
