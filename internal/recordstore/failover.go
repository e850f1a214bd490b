package recordstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const failoverRetryInterval = time.Minute

// ErrPrimaryUnavailable is returned while the primary is down for a
// collection the fallback holds no copy of.
var ErrPrimaryUnavailable = errors.New("primary record store unavailable")

// FailoverStore serves from primary and mirrors every payload it sees into
// fallback. While primary is failing, collections already seen are served
// from fallback; unseen ones fail with ErrPrimaryUnavailable so callers never
// mistake an outage for an empty collection. Writes made during an outage
// stay in fallback only: they are not replayed onto primary, which may have
// moved on in the meantime.
type FailoverStore struct {
	primary  Store
	fallback Store
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	lastErr   error
	seen      map[string]struct{}
	dirty     map[string]struct{}
	now       func() time.Time
}

func NewFailoverStore(primary, fallback Store, logger *zerolog.Logger) *FailoverStore {
	return &FailoverStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		seen:     make(map[string]struct{}),
		dirty:    make(map[string]struct{}),
		now:      time.Now,
	}
}

func (s *FailoverStore) markDown(err error) {
	s.logger.Error().Err(err).Msg("Primary record store failed, falling back to memory")
	s.mu.Lock()
	s.lastCheck = s.now()
	s.lastErr = err
	s.mu.Unlock()
	s.isDown.Store(true)
}

// markUp records a successful primary call. Outage writes are dropped from
// the pending set with a warning; fallback is refreshed as collections are
// read again.
func (s *FailoverStore) markUp() {
	if !s.isDown.CompareAndSwap(true, false) {
		return
	}
	s.mu.Lock()
	lost := make([]string, 0, len(s.dirty))
	for collection := range s.dirty {
		lost = append(lost, collection)
	}
	s.dirty = make(map[string]struct{})
	s.seen = make(map[string]struct{})
	s.lastErr = nil
	s.mu.Unlock()

	if len(lost) > 0 {
		sort.Strings(lost)
		s.logger.Warn().Strs("collections", lost).Msg("Primary record store recovered; writes made during the outage were not replayed")
		return
	}
	s.logger.Info().Msg("Primary record store recovered")
}

// usePrimary reports whether the next call should try primary: always while
// it is healthy, once per retry interval while it is down.
func (s *FailoverStore) usePrimary() bool {
	if !s.isDown.Load() {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now().Sub(s.lastCheck) < failoverRetryInterval {
		return false
	}
	s.lastCheck = s.now()
	return true
}

func (s *FailoverStore) markSeen(collection string) {
	s.mu.Lock()
	s.seen[collection] = struct{}{}
	s.mu.Unlock()
}

func (s *FailoverStore) Get(ctx context.Context, collection string) ([]byte, error) {
	if s.usePrimary() {
		payload, err := s.primary.Get(ctx, collection)
		if err == nil {
			s.markUp()
			if payload != nil {
				if err := s.fallback.Put(ctx, collection, payload); err != nil {
					return nil, err
				}
			}
			s.markSeen(collection)
			return payload, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		s.markDown(err)
	}

	s.mu.Lock()
	_, known := s.seen[collection]
	lastErr := s.lastErr
	s.mu.Unlock()
	if !known {
		return nil, fmt.Errorf("%w: %s has no local copy: %w", ErrPrimaryUnavailable, collection, lastErr)
	}
	return s.fallback.Get(ctx, collection)
}

func (s *FailoverStore) Put(ctx context.Context, collection string, payload []byte) error {
	if s.usePrimary() {
		err := s.primary.Put(ctx, collection, payload)
		if err == nil {
			s.markUp()
			s.markSeen(collection)
			return s.fallback.Put(ctx, collection, payload)
		}
		if ctx.Err() != nil {
			return err
		}
		s.markDown(err)
	}

	s.mu.Lock()
	s.seen[collection] = struct{}{}
	s.dirty[collection] = struct{}{}
	s.mu.Unlock()
	return s.fallback.Put(ctx, collection, payload)
}

// Degraded reports whether requests are currently served by the fallback.
func (s *FailoverStore) Degraded() bool {
	return s.isDown.Load()
}

func (s *FailoverStore) Close() error {
	err := s.primary.Close()
	if ferr := s.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}
