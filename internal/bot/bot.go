// Package bot is the studio operators' Telegram front-end.
package bot

import (
	"context"
	"time"

	"studiobook/internal/config"
	"studiobook/internal/domain"
	"studiobook/internal/state"
	"studiobook/internal/view"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const updateTimeout = 30 * time.Second

type Bot struct {
	tgService    domain.TelegramService
	config       *config.Config
	stateService domain.StateManager
	studio       *state.Controller
	metrics      *Metrics
	operators    map[int64]struct{}
	now          func() time.Time
	logger       *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	config *config.Config,
	stateService domain.StateManager,
	studio *state.Controller,
	metrics *Metrics,
	logger *zerolog.Logger,
) *Bot {
	if logger == nil {
		l := zerolog.Nop()
		logger = &l
	}

	operators := make(map[int64]struct{}, len(config.Bot.Operators))
	for _, id := range config.Bot.Operators {
		operators[id] = struct{}{}
	}

	return &Bot{
		tgService:    tgService,
		config:       config,
		stateService: stateService,
		studio:       studio,
		metrics:      metrics,
		operators:    operators,
		now:          time.Now,
		logger:       logger,
	}
}

// Start loads studio data in the background and handles updates until ctx
// is done. Updates that arrive while loading get a loading notice.
func (b *Bot) Start(ctx context.Context) {
	go b.studio.Load(ctx)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

// Stop stops receiving Telegram updates.
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	start := time.Now()
	defer func() {
		if b.metrics != nil {
			b.metrics.UpdateProcessingTime.Observe(time.Since(start).Seconds())
		}
	}()

	updateCtx, cancel := context.WithTimeout(ctx, updateTimeout)
	defer cancel()

	l := b.logger.With().Str("request_id", uuid.NewString()).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var (
			userID int64
			chatID int64
			kind   string
		)
		switch {
		case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
			userID = update.CallbackQuery.From.ID
			kind = "callback"
			if update.CallbackQuery.Message != nil {
				chatID = update.CallbackQuery.Message.Chat.ID
			}
		case update.Message != nil && update.Message.From != nil:
			userID = update.Message.From.ID
			chatID = update.Message.Chat.ID
			kind = "message"
		default:
			return
		}

		if b.metrics != nil {
			b.metrics.UpdatesTotal.WithLabelValues(kind).Inc()
		}

		if !b.isOperator(userID) {
			l.Warn().Int64("user_id", userID).Msg("Update from non-operator ignored")
			if update.Message != nil {
				b.sendText(chatID, msgNotOperator)
			}
			return
		}

		if !b.allowUpdate(updateCtx, userID) {
			if update.Message != nil {
				b.sendText(chatID, msgRateLimited)
			}
			return
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update.CallbackQuery)
			return
		}
		b.handleMessage(updateCtx, update.Message)
	})
}

// ready reports whether studio data is loaded and tells the operator to wait
// otherwise.
func (b *Bot) ready(chatID int64) bool {
	if b.studio.Phase() == state.PhaseReady {
		return true
	}
	b.sendText(chatID, msgLoading)
	return false
}

func (b *Bot) today() string {
	return view.Today(b.now())
}

func (b *Bot) sendText(chatID int64, text string) {
	if _, err := b.tgService.SendHTML(chatID, text); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

func (b *Bot) sendKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	if _, err := b.tgService.SendWithInlineKeyboard(chatID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send message")
	}
}

// show edits messageID in place, or sends a new message when messageID is 0.
func (b *Bot) show(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) {
	if messageID == 0 {
		if keyboard == nil {
			b.sendText(chatID, text)
			return
		}
		b.sendKeyboard(chatID, text, *keyboard)
		return
	}
	if _, err := b.tgService.EditMessage(chatID, messageID, text, keyboard); err != nil {
		b.logger.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to edit message")
	}
}
