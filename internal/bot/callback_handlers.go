package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"studiobook/internal/models"
	"studiobook/internal/state"
	"studiobook/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	data := callback.Data
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	notice := ""
	if b.studio.Phase() != state.PhaseReady {
		notice = msgLoading
	}
	// Answer right away so the client stops showing a spinner.
	if err := b.tgService.AnswerCallback(callback.ID, notice); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to answer callback")
	}
	if notice != "" {
		return
	}

	zerolog.Ctx(ctx).Debug().Int64("user_id", userID).Str("data", data).Msg("Handling callback")

	switch {
	case data == cbMenu:
		b.clearUserState(ctx, userID)
		b.show(chatID, messageID, helpText(), ptr(menuKeyboard(b.today())))

	case data == cbAbort:
		b.clearUserState(ctx, userID)
		b.show(chatID, messageID, msgAborted, nil)

	case data == cbDateInput:
		b.setUserState(ctx, userID, models.StateWaitingDate, nil)
		b.sendText(chatID, msgAskDate)

	case strings.HasPrefix(data, cbSchedule):
		date, err := view.ParseDate(strings.TrimPrefix(data, cbSchedule))
		if err != nil {
			return
		}
		b.showSchedule(chatID, messageID, date)

	case strings.HasPrefix(data, cbBook):
		b.handleBookSlot(ctx, chatID, messageID, userID, strings.TrimPrefix(data, cbBook))

	case strings.HasPrefix(data, cbPickPage):
		date, timeSlot, ok := b.pendingSlot(ctx, userID)
		if !ok {
			b.show(chatID, messageID, msgNoPending, nil)
			return
		}
		b.renderClientPicker(PaginationParams{ChatID: chatID, MessageID: messageID, Page: pageOf(data, cbPickPage)}, date, timeSlot)

	case strings.HasPrefix(data, cbPick):
		b.handlePickClient(ctx, chatID, messageID, userID, strings.TrimPrefix(data, cbPick))

	case strings.HasPrefix(data, cbCancelOK):
		b.handleCancelConfirmed(ctx, chatID, messageID, strings.TrimPrefix(data, cbCancelOK))

	case strings.HasPrefix(data, cbCancel):
		booking, ok := b.studio.Booking(strings.TrimPrefix(data, cbCancel))
		if !ok {
			b.sendText(chatID, msgStaleBook)
			return
		}
		text, keyboard := renderCancelConfirm(booking, b.clientName(booking.ClientID))
		b.sendKeyboard(chatID, text, keyboard)

	case strings.HasPrefix(data, cbDeleteClientOK):
		b.handleDeleteClientConfirmed(ctx, chatID, messageID, strings.TrimPrefix(data, cbDeleteClientOK))

	case strings.HasPrefix(data, cbDeleteClient):
		clientID := strings.TrimPrefix(data, cbDeleteClient)
		client, ok := b.findClient(clientID)
		if !ok {
			b.sendText(chatID, msgStaleClient)
			return
		}
		text, keyboard := renderDeleteConfirm(client, clientBookingCount(b.studio.Bookings(), clientID))
		b.sendKeyboard(chatID, text, keyboard)

	case strings.HasPrefix(data, cbClientsPage):
		b.renderClients(PaginationParams{ChatID: chatID, MessageID: messageID, Page: pageOf(data, cbClientsPage)})

	case strings.HasPrefix(data, cbBookingsPage):
		b.renderBookings(PaginationParams{ChatID: chatID, MessageID: messageID, Page: pageOf(data, cbBookingsPage)})

	default:
		b.logger.Warn().Str("data", data).Msg("Unknown callback")
	}
}

// handleBookSlot opens the client picker for a free slot.
func (b *Bot) handleBookSlot(ctx context.Context, chatID int64, messageID int, userID int64, payload string) {
	date, index, err := parseBookCallback(payload)
	slots := b.config.Studio.TimeSlots
	if err != nil || index < 0 || index >= len(slots) {
		b.logger.Warn().Err(err).Str("payload", payload).Msg("Bad book callback")
		return
	}
	timeSlot := slots[index]

	schedule := view.BuildSchedule(date, slots, b.studio.Bookings(), b.studio.Clients())
	if schedule.Rows[index].Booked {
		b.sendText(chatID, msgSlotGone)
		b.showSchedule(chatID, messageID, date)
		return
	}

	if err := b.stateService.OpenSlotPicker(ctx, userID, date, timeSlot); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to open slot picker")
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}
	b.renderClientPicker(PaginationParams{ChatID: chatID}, date, timeSlot)
}

func (b *Bot) handlePickClient(ctx context.Context, chatID int64, messageID int, userID int64, clientID string) {
	date, timeSlot, ok := b.pendingSlot(ctx, userID)
	if !ok {
		b.show(chatID, messageID, msgNoPending, nil)
		return
	}

	booking, err := b.studio.BookSlot(ctx, clientID, date, timeSlot)
	if err != nil {
		b.reportMutationError(ctx, chatID, "book_slot", err)
		return
	}

	b.clearUserState(ctx, userID)
	b.show(chatID, messageID, fmt.Sprintf("✅ Booked %s, %s for <b>%s</b>.",
		esc(view.FormatDayHeading(booking.Date)), esc(booking.TimeSlot), esc(b.clientName(booking.ClientID))), nil)
	b.showSchedule(chatID, 0, booking.Date)
}

func (b *Bot) handleCancelConfirmed(ctx context.Context, chatID int64, messageID int, bookingID string) {
	booking, known := b.studio.Booking(bookingID)

	if err := b.studio.CancelBooking(ctx, bookingID); err != nil {
		b.reportMutationError(ctx, chatID, "cancel_booking", err)
		return
	}

	b.show(chatID, messageID, "🗑 Booking canceled.", nil)
	if known {
		b.showSchedule(chatID, 0, booking.Date)
	}
}

func (b *Bot) handleDeleteClientConfirmed(ctx context.Context, chatID int64, messageID int, clientID string) {
	if err := b.studio.DeleteClient(ctx, clientID); err != nil {
		b.reportMutationError(ctx, chatID, "delete_client", err)
		return
	}

	b.show(chatID, messageID, "🗑 Client deleted.", nil)
	b.renderClients(PaginationParams{ChatID: chatID})
}

func (b *Bot) pendingSlot(ctx context.Context, userID int64) (date, timeSlot string, ok bool) {
	date, timeSlot, ok, err := b.stateService.PendingSlot(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to read pending slot")
		return "", "", false
	}
	return date, timeSlot, ok
}

func (b *Bot) clientName(clientID string) string {
	if name, ok := b.studio.ClientName(clientID); ok {
		return name
	}
	return models.UnknownClientName
}

func (b *Bot) findClient(clientID string) (models.Client, bool) {
	for _, c := range b.studio.Clients() {
		if c.ID == clientID {
			return c, true
		}
	}
	return models.Client{}, false
}

func pageOf(data, prefix string) int {
	page, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil || page < 0 {
		return 0
	}
	return page
}

func ptr[T any](v T) *T {
	return &v
}
