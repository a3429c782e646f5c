package lock

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Service is an in-process named lock table. Every entry carries a TTL
// enforced by a scheduled timer, so a crawl that dies without releasing
// can never block a key forever. Contention is never an error: a false
// return means "operation skipped".
type Service struct {
	mx      sync.Mutex
	entries map[string]*entry

	poll time.Duration
}

type entry struct {
	label      string
	acquiredAt time.Time
	timer      *time.Timer
}

func NewService() *Service {
	return &Service{
		entries: map[string]*entry{},
		poll:    500 * time.Millisecond,
	}
}

// TryAcquire takes the key if free and schedules an auto-release at
// ttl. Returns false without blocking when the key is held.
func (s *Service) TryAcquire(key string, ttl time.Duration, label string) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	if held, ok := s.entries[key]; ok {
		log.Debug().
			Str("key", key).
			Str("label", label).
			Str("held_by", held.label).
			Msg("lock contention")
		return false
	}

	e := &entry{label: label, acquiredAt: time.Now()}
	e.timer = time.AfterFunc(ttl, func() { s.expire(key, e) })
	s.entries[key] = e

	log.Debug().Str("key", key).Str("label", label).Msg("lock acquired")
	return true
}

func (s *Service) expire(key string, e *entry) {
	s.mx.Lock()
	defer s.mx.Unlock()

	// a release plus reacquire may have replaced the entry
	if cur, ok := s.entries[key]; !ok || cur != e {
		return
	}
	delete(s.entries, key)

	log.Warn().
		Str("key", key).
		Str("label", e.label).
		Dur("held_for", time.Since(e.acquiredAt)).
		Msg("lock released by ttl")
}

// Release frees the key and cancels the scheduled auto-release.
// Idempotent on a missing key.
func (s *Service) Release(key string) {
	s.mx.Lock()
	defer s.mx.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	e.timer.Stop()
	delete(s.entries, key)

	log.Debug().Str("key", key).Str("label", e.label).Msg("lock released")
}

func (s *Service) IsLocked(key string) bool {
	s.mx.Lock()
	defer s.mx.Unlock()

	_, ok := s.entries[key]
	return ok
}

// WaitForRelease polls until the key is free or maxWait elapses,
// returning false on timeout. It blocks on a ticker, never spins.
func (s *Service) WaitForRelease(ctx context.Context, key string, maxWait time.Duration) bool {
	deadline := time.Now().Add(maxWait)

	t := time.NewTicker(s.poll)
	defer t.Stop()

	for {
		if !s.IsLocked(key) {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		select {
		case <-t.C:
		case <-ctx.Done():
			return false
		}
	}
}

// AcquireWithRetry composes TryAcquire with a fixed number of delayed
// retries.
func (s *Service) AcquireWithRetry(ctx context.Context, key string, ttl time.Duration, label string, maxRetries int, retryDelay time.Duration) bool {
	for i := 0; ; i++ {
		if s.TryAcquire(key, ttl, label) {
			return true
		}
		if i >= maxRetries {
			return false
		}
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return false
		}
	}
}
