package pool

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/kyiku/caritas-study-back/internal/logger"
)

// Pool is the single owner of the pool file. Every operation reloads the
// document from disk; inserts hold mu across the whole read-modify-write
// cycle so concurrent requests cannot lose each other's appends.
// Notifications and mirror uploads happen outside mu.
type Pool struct {
	mu    sync.Mutex
	store *Store
	log   *logger.Logger
	now   func() time.Time
	intn  func(n int) int

	notifyMu sync.Mutex
	notifier Notifier
}

// Notifier is told about every successful save.
type Notifier interface {
	PoolUpdated(subject string, totalProblems int)
}

// New creates a Pool on top of store.
func New(store *Store, log *logger.Logger) *Pool {
	return &Pool{
		store: store,
		log:   log.With("component", "pool"),
		now:   time.Now,
		intn:  rand.IntN,
	}
}

// SetNotifier registers n to be called after each successful insert.
func (p *Pool) SetNotifier(n Notifier) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()
	p.notifier = n
}

// Store returns the underlying store.
func (p *Pool) Store() *Store {
	return p.store
}

func (p *Pool) timestamp() string {
	return p.now().UTC().Format(time.RFC3339)
}
