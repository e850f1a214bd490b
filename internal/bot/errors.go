package bot

import (
	"context"
	"errors"

	"studiobook/internal/service"
	"studiobook/internal/view"

	"github.com/rs/zerolog"
)

func (b *Bot) getErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, service.ErrSlotTaken) {
		return "⚠️ This slot is already booked. Pick another one."
	}

	if errors.Is(err, service.ErrClientNotFound) {
		return "⚠️ That client no longer exists."
	}

	if errors.Is(err, view.ErrEmptyClientField) {
		return "⚠️ Name and contact are both required."
	}

	if errors.Is(err, view.ErrInvalidDate) {
		return "⚠️ Dates must look like 2024-06-01."
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "⚠️ Storage did not answer in time. Please try again."
	}

	return "❌ Something went wrong while saving. Please try again later."
}

// reportMutationError logs a failed mutation and tells the operator.
func (b *Bot) reportMutationError(ctx context.Context, chatID int64, operation string, err error) {
	zerolog.Ctx(ctx).Error().Err(err).Str("operation", operation).Msg("Mutation failed")
	if b.metrics != nil {
		b.metrics.MutationErrors.WithLabelValues(operation).Inc()
	}
	b.sendText(chatID, b.getErrorMessage(err))
}
