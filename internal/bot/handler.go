package bot

import (
	"context"
	"fmt"
	"strings"

	"studiobook/internal/models"
	"studiobook/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	zerolog.Ctx(ctx).Debug().
		Int64("user_id", userID).
		Str("username", msg.From.UserName).
		Str("text", text).
		Msg("Handling message")

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	st := b.getUserState(ctx, userID)
	if st == nil {
		b.sendText(chatID, msgUnknown)
		return
	}

	switch st.CurrentStep {
	case models.StateEnterName:
		b.handleClientName(ctx, chatID, userID, text)
	case models.StateEnterContact:
		b.handleClientContact(ctx, chatID, userID, st.GetString("name"), text)
	case models.StateWaitingDate:
		b.handleDateInput(ctx, chatID, userID, text)
	default:
		b.sendText(chatID, msgUnknown)
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.From.ID
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start", "help":
		b.clearUserState(ctx, userID)
		b.sendKeyboard(chatID, helpText(), menuKeyboard(b.today()))

	case "cancel":
		b.clearUserState(ctx, userID)
		b.sendText(chatID, msgAborted)

	case "schedule":
		if !b.ready(chatID) {
			return
		}
		date := strings.TrimSpace(msg.CommandArguments())
		if date == "" {
			date = b.today()
		}
		parsed, err := view.ParseDate(date)
		if err != nil {
			b.sendText(chatID, fmt.Sprintf("❌ Invalid date %s. %s", esc(date), msgAskDate))
			return
		}
		b.showSchedule(chatID, 0, parsed)

	case "bookings":
		if !b.ready(chatID) {
			return
		}
		b.renderBookings(PaginationParams{ChatID: chatID})

	case "clients":
		if !b.ready(chatID) {
			return
		}
		b.renderClients(PaginationParams{ChatID: chatID})

	case "addclient":
		if !b.ready(chatID) {
			return
		}
		b.setUserState(ctx, userID, models.StateEnterName, nil)
		b.sendText(chatID, msgAskName)

	case "export":
		if !b.ready(chatID) {
			return
		}
		b.handleExport(ctx, chatID)

	case "reload":
		b.studio.Reload(ctx)
		b.sendText(chatID, fmt.Sprintf("🔄 Reloaded: %d clients, %d bookings.",
			len(b.studio.Clients()), len(b.studio.Bookings())))

	default:
		b.sendText(chatID, msgUnknown)
	}
}

func (b *Bot) showSchedule(chatID int64, messageID int, date string) {
	schedule := view.BuildSchedule(date, b.config.Studio.TimeSlots, b.studio.Bookings(), b.studio.Clients())
	text, keyboard := renderSchedule(schedule, b.today())
	b.show(chatID, messageID, text, &keyboard)
}

func (b *Bot) handleClientName(ctx context.Context, chatID, userID int64, text string) {
	name := strings.TrimSpace(text)
	if name == "" {
		b.sendText(chatID, msgAskName)
		return
	}
	b.setUserState(ctx, userID, models.StateEnterContact, map[string]interface{}{"name": name})
	b.sendText(chatID, fmt.Sprintf(msgAskContact, "<b>"+esc(name)+"</b>"))
}

func (b *Bot) handleClientContact(ctx context.Context, chatID, userID int64, name, text string) {
	name, contact, err := view.NormalizeClientInput(name, text)
	if err != nil {
		b.sendText(chatID, b.getErrorMessage(err))
		return
	}

	client, err := b.studio.AddClient(ctx, name, contact)
	if err != nil {
		b.reportMutationError(ctx, chatID, "add_client", err)
		return
	}

	b.clearUserState(ctx, userID)
	b.sendText(chatID, fmt.Sprintf("✅ Client <b>%s</b> added.", esc(client.Name)))
}

func (b *Bot) handleDateInput(ctx context.Context, chatID, userID int64, text string) {
	date, err := view.ParseDate(text)
	if err != nil {
		b.sendText(chatID, fmt.Sprintf("❌ Invalid date. %s", msgAskDate))
		return
	}
	b.clearUserState(ctx, userID)
	if !b.ready(chatID) {
		return
	}
	b.showSchedule(chatID, 0, date)
}

func (b *Bot) getUserState(ctx context.Context, userID int64) *models.UserState {
	st, err := b.stateService.GetUserState(ctx, userID)
	if err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to get user state")
		return nil
	}
	return st
}

func (b *Bot) setUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) {
	if err := b.stateService.SetUserState(ctx, userID, step, data); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Str("step", step).Msg("Failed to set user state")
	}
}

func (b *Bot) clearUserState(ctx context.Context, userID int64) {
	if err := b.stateService.ClearUserState(ctx, userID); err != nil {
		b.logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to clear user state")
	}
}
