package bot

import (
	"context"
	"fmt"
	"os"

	"studiobook/internal/export"

	"github.com/rs/zerolog"
)

// handleExport writes the spreadsheet into the exports directory, sends it
// and removes the file again.
func (b *Bot) handleExport(ctx context.Context, chatID int64) {
	data := export.Data{
		Clients:   b.studio.Clients(),
		Bookings:  b.studio.Bookings(),
		TimeSlots: b.config.Studio.TimeSlots,
	}

	path, err := export.Save(b.config.Exports.Path, data, b.now())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Export failed")
		b.sendText(chatID, "❌ Could not build the export.")
		return
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			zerolog.Ctx(ctx).Warn().Err(err).Str("path", path).Msg("Failed to remove sent export")
		}
	}()

	caption := fmt.Sprintf("%d bookings, %d clients", len(data.Bookings), len(data.Clients))
	if _, err := b.tgService.SendDocument(chatID, path, caption); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("path", path).Msg("Failed to send export")
		b.sendText(chatID, "❌ Could not send the export.")
	}
}
