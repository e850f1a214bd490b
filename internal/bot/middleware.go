package bot

import (
	"context"
	"time"
)

func (b *Bot) withRecovery(handler func()) {
	defer func() {
		if r := recover(); r != nil {
			if b.metrics != nil {
				b.metrics.PanicsTotal.Inc()
			}
			b.logger.Error().Interface("panic", r).Msg("Recovered from panic in update handler")
		}
	}()
	handler()
}

// allowUpdate applies the per-user rate limit. A failing limiter lets the
// update through.
func (b *Bot) allowUpdate(ctx context.Context, userID int64) bool {
	allowed, err := b.stateService.CheckRateLimit(
		ctx,
		userID,
		b.config.Bot.RateLimitMessages,
		time.Duration(b.config.Bot.RateLimitWindow)*time.Second,
	)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
		return true
	}
	if !allowed {
		b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
		if b.metrics != nil {
			b.metrics.RateLimitedTotal.Inc()
		}
	}
	return allowed
}

func (b *Bot) isOperator(userID int64) bool {
	if len(b.operators) == 0 {
		return true
	}
	_, ok := b.operators[userID]
	return ok
}
