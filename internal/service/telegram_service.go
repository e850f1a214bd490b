package service

import (
	"strings"

	"studiobook/internal/domain"
	"studiobook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram answers an edit that would not change the message with this
// error. Re-rendering the schedule a second time is harmless, so it is
// swallowed.
const notModifiedError = "message is not modified"

// TelegramService sends the operator bot's HTML messages, keyboards and
// export files.
type TelegramService struct {
	bot domain.TelegramSender
}

var _ domain.TelegramService = (*TelegramService)(nil)

func NewTelegramService(bot domain.TelegramSender) *TelegramService {
	return &TelegramService{bot: bot}
}

// htmlMessage builds a message in Telegram's HTML subset. Link previews are
// off since client contacts are often URLs. Callers escape user input.
func htmlMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = models.ParseModeHTML
	msg.DisableWebPagePreview = true
	return msg
}

func (s *TelegramService) SendHTML(chatID int64, text string) (tgbotapi.Message, error) {
	return s.bot.Send(htmlMessage(chatID, text))
}

func (s *TelegramService) SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := htmlMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return s.bot.Send(msg)
}

// SendDocument uploads a local file such as a spreadsheet export.
func (s *TelegramService) SendDocument(chatID int64, path, caption string) (tgbotapi.Message, error) {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	return s.bot.Send(doc)
}

// EditMessage replaces a message's text, and its keyboard when one is given.
// A nil keyboard removes the buttons.
func (s *TelegramService) EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = models.ParseModeHTML
	edit.DisableWebPagePreview = true
	edit.ReplyMarkup = keyboard

	sent, err := s.bot.Send(edit)
	if err != nil && strings.Contains(err.Error(), notModifiedError) {
		return tgbotapi.Message{MessageID: messageID}, nil
	}
	return sent, err
}

func (s *TelegramService) AnswerCallback(callbackID, text string) error {
	_, err := s.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (s *TelegramService) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return s.bot.GetUpdatesChan(config)
}

func (s *TelegramService) GetSelf() tgbotapi.User {
	return s.bot.GetSelf()
}

func (s *TelegramService) StopReceivingUpdates() {
	s.bot.StopReceivingUpdates()
}
