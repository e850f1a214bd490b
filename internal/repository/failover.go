package repository

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"studiobook/internal/domain"
	"studiobook/internal/models"

	"github.com/rs/zerolog"
)

// FailoverStateRepository keeps operator sessions working while Redis is
// unreachable. Sessions written during an outage live only in the fallback.
type FailoverStateRepository struct {
	primary  domain.StateRepository
	fallback domain.StateRepository
	logger   *zerolog.Logger
	isDown   atomic.Bool

	mu        sync.Mutex
	lastCheck time.Time
	now       func() time.Time
}

func NewFailoverStateRepository(primary, fallback domain.StateRepository, logger *zerolog.Logger) *FailoverStateRepository {
	return &FailoverStateRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		now:      time.Now,
	}
}

// usePrimary reports whether the next call should go to primary: always
// while it is healthy, once a minute while it is down.
func (r *FailoverStateRepository) usePrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.now().Sub(r.lastCheck) > time.Minute {
		r.lastCheck = r.now()
		return true
	}
	return false
}

func (r *FailoverStateRepository) report(err error) {
	if err == nil {
		if r.isDown.CompareAndSwap(true, false) {
			r.logger.Info().Msg("Primary state repository recovered")
		}
		return
	}
	if !r.isDown.Load() {
		r.logger.Error().Err(err).Msg("Primary state repository failed, falling back to memory")
	}
	r.mu.Lock()
	r.lastCheck = r.now()
	r.mu.Unlock()
	r.isDown.Store(true)
}

func (r *FailoverStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	if r.usePrimary() {
		state, err := r.primary.GetState(ctx, userID)
		r.report(err)
		if err == nil {
			return state, nil
		}
	}
	return r.fallback.GetState(ctx, userID)
}

func (r *FailoverStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	if r.usePrimary() {
		err := r.primary.SetState(ctx, state)
		r.report(err)
		if err == nil {
			return nil
		}
	}
	return r.fallback.SetState(ctx, state)
}

func (r *FailoverStateRepository) ClearState(ctx context.Context, userID int64) error {
	if r.usePrimary() {
		err := r.primary.ClearState(ctx, userID)
		r.report(err)
		if err == nil {
			// the fallback may hold a session written during an outage
			_ = r.fallback.ClearState(ctx, userID)
			return nil
		}
	}
	return r.fallback.ClearState(ctx, userID)
}

func (r *FailoverStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	if r.usePrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, userID, limit, window)
		r.report(err)
		if err == nil {
			return allowed, nil
		}
	}
	return r.fallback.CheckRateLimit(ctx, userID, limit, window)
}
