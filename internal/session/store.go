// Package session holds bounded per-user conversation memory. Three limits
// apply at once: an idle TTL, a global live-session ceiling with LRU
// eviction, and a per-session turn FIFO bound.
package session

import (
	"container/list"
	"context"
	"sync"
	"time"

	"hospital-assistant/internal/common/config"
	"hospital-assistant/internal/common/logger"
	"hospital-assistant/internal/common/metrics"
	"hospital-assistant/internal/models"
)

const (
	DefaultIdleTimeout   = 30 * time.Minute
	DefaultMaxUsers      = 1000
	DefaultMaxTurns      = 10
	DefaultSweepInterval = time.Minute
)

// EvictCause labels why a session left the store.
type EvictCause string

const (
	EvictIdle     EvictCause = "idle"
	EvictCapacity EvictCause = "capacity"
)

// Store is the conversation memory consumed by the orchestrator. The
// in-memory implementation never fails; the Redis implementation surfaces
// backend errors.
type Store interface {
	Append(ctx context.Context, userID string, turn models.Turn) error
	Snapshot(ctx context.Context, userID string) ([]models.Turn, error)
	Clear(ctx context.Context, userID string) error
	Size(ctx context.Context) (int, error)
}

// Options bounds a MemoryStore. Zero values take the defaults above.
type Options struct {
	IdleTimeout   time.Duration
	MaxUsers      int
	MaxTurns      int
	SweepInterval time.Duration

	// OnEvict is called, outside any lock, when a session is removed by
	// the idle sweep or capacity pressure. Explicit Clear does not count.
	OnEvict func(userID string, cause EvictCause)
}

// OptionsFromConfig converts the loaded configuration section.
func OptionsFromConfig(cfg config.SessionConfig) Options {
	return Options{
		IdleTimeout:   config.GetSeconds(cfg.IdleTimeout),
		MaxUsers:      cfg.MaxUsers,
		MaxTurns:      cfg.MaxTurns,
		SweepInterval: config.GetSeconds(cfg.SweepInterval),
	}
}

type entry struct {
	userID     string
	turns      []models.Turn
	lastAccess time.Time
}

// MemoryStore is the default single-process store. One mutex guards the map
// and the recency list; every operation is a short in-memory critical
// section, which also serializes read-modify-write per user key.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*list.Element
	order    *list.List // front = most recently accessed

	opts Options
	log  logger.Logger

	now      func() time.Time // swapped in tests
	stop     chan struct{}
	stopOnce sync.Once
}

func NewMemoryStore(opts Options, log logger.Logger) *MemoryStore {
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	if opts.MaxUsers <= 0 {
		opts.MaxUsers = DefaultMaxUsers
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	s := &MemoryStore{
		sessions: make(map[string]*list.Element),
		order:    list.New(),
		opts:     opts,
		log:      log,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

// Close stops the background idle sweep.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Append records one turn for the user, creating the session on first use
// and dropping the oldest turn once the bound is exceeded.
func (s *MemoryStore) Append(_ context.Context, userID string, turn models.Turn) error {
	var evicted []eviction

	s.mu.Lock()
	e := s.getOrCreateLocked(userID, &evicted)
	e.turns = append(e.turns, turn)
	if len(e.turns) > s.opts.MaxTurns {
		e.turns = e.turns[len(e.turns)-s.opts.MaxTurns:]
	}
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	s.notifyEvictions(evicted)
	return nil
}

// Snapshot returns a copy of the user's turns, oldest first. A first access
// (or an access after idle expiry) yields an empty, freshly created session.
func (s *MemoryStore) Snapshot(_ context.Context, userID string) ([]models.Turn, error) {
	var evicted []eviction

	s.mu.Lock()
	e := s.getOrCreateLocked(userID, &evicted)
	out := make([]models.Turn, len(e.turns))
	copy(out, e.turns)
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	s.notifyEvictions(evicted)
	return out, nil
}

// Clear removes the user's session immediately and unconditionally.
func (s *MemoryStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	if elem, ok := s.sessions[userID]; ok {
		s.order.Remove(elem)
		delete(s.sessions, userID)
	}
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()
	return nil
}

// Size returns the live-session count.
func (s *MemoryStore) Size(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions), nil
}

type eviction struct {
	userID string
	cause  EvictCause
}

// getOrCreateLocked returns the live session for userID, treating an
// idle-expired entry as absent. Creating a session at capacity evicts the
// least-recently-accessed one first.
func (s *MemoryStore) getOrCreateLocked(userID string, evicted *[]eviction) *entry {
	now := s.now()

	if elem, ok := s.sessions[userID]; ok {
		e := elem.Value.(*entry)
		if now.Sub(e.lastAccess) <= s.opts.IdleTimeout {
			e.lastAccess = now
			s.order.MoveToFront(elem)
			return e
		}
		s.order.Remove(elem)
		delete(s.sessions, userID)
		*evicted = append(*evicted, eviction{userID: userID, cause: EvictIdle})
	}

	for len(s.sessions) >= s.opts.MaxUsers {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		victim := oldest.Value.(*entry)
		s.order.Remove(oldest)
		delete(s.sessions, victim.userID)
		*evicted = append(*evicted, eviction{userID: victim.userID, cause: EvictCapacity})
	}

	e := &entry{userID: userID, lastAccess: now}
	s.sessions[userID] = s.order.PushFront(e)
	return e
}

func (s *MemoryStore) notifyEvictions(evicted []eviction) {
	for _, ev := range evicted {
		metrics.SessionEvictions.WithLabelValues(string(ev.cause)).Inc()
		s.log.Debug("session evicted", map[string]interface{}{
			"user_id": ev.userID,
			"cause":   string(ev.cause),
		})
		if s.opts.OnEvict != nil {
			s.opts.OnEvict(ev.userID, ev.cause)
		}
	}
}

func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.opts.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep removes every idle-expired session in one pass.
func (s *MemoryStore) sweep() {
	var evicted []eviction
	now := s.now()

	s.mu.Lock()
	for elem := s.order.Back(); elem != nil; {
		e := elem.Value.(*entry)
		if now.Sub(e.lastAccess) <= s.opts.IdleTimeout {
			break // list is recency ordered, the rest are fresher
		}
		prev := elem.Prev()
		s.order.Remove(elem)
		delete(s.sessions, e.userID)
		evicted = append(evicted, eviction{userID: e.userID, cause: EvictIdle})
		elem = prev
	}
	metrics.SessionsActive.Set(float64(len(s.sessions)))
	s.mu.Unlock()

	s.notifyEvictions(evicted)
}
