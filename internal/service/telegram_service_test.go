package service

import (
	"errors"
	"testing"

	"studiobook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockTelegramSender struct {
	mock.Mock
}

func (m *mockTelegramSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return args.Get(0).(tgbotapi.Message), args.Error(1)
}

func (m *mockTelegramSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	return args.Get(0).(*tgbotapi.APIResponse), args.Error(1)
}

func (m *mockTelegramSender) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	args := m.Called(config)
	return args.Get(0).(tgbotapi.UpdatesChannel)
}

func (m *mockTelegramSender) GetSelf() tgbotapi.User {
	args := m.Called()
	return args.Get(0).(tgbotapi.User)
}

func (m *mockTelegramSender) StopReceivingUpdates() {
	m.Called()
}

func TestTelegramService_SendHTML(t *testing.T) {
	sender := new(mockTelegramSender)
	svc := NewTelegramService(sender)

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		return ok && msg.ChatID == 123 &&
			msg.Text == "<b>Free slots: 6 of 6</b>" &&
			msg.ParseMode == models.ParseModeHTML &&
			msg.DisableWebPagePreview
	})).Return(tgbotapi.Message{MessageID: 1}, nil).Once()

	sent, err := svc.SendHTML(123, "<b>Free slots: 6 of 6</b>")
	require.NoError(t, err)
	assert.Equal(t, 1, sent.MessageID)
	sender.AssertExpectations(t)
}

func TestTelegramService_SendWithInlineKeyboard(t *testing.T) {
	sender := new(mockTelegramSender)
	svc := NewTelegramService(sender)

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("➕ 10:00 - 12:00", "book:2024-06-01:0")),
	)
	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		msg, ok := c.(tgbotapi.MessageConfig)
		if !ok || msg.ParseMode != models.ParseModeHTML {
			return false
		}
		markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		return ok && len(markup.InlineKeyboard) == 1
	})).Return(tgbotapi.Message{MessageID: 9}, nil).Once()

	sent, err := svc.SendWithInlineKeyboard(123, "Schedule", keyboard)
	require.NoError(t, err)
	assert.Equal(t, 9, sent.MessageID)
	sender.AssertExpectations(t)
}

func TestTelegramService_EditMessage(t *testing.T) {
	t.Run("WithKeyboard", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewTelegramService(sender)
		keyboard := tgbotapi.NewInlineKeyboardMarkup()

		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			edit, ok := c.(tgbotapi.EditMessageTextConfig)
			return ok && edit.MessageID == 9 && edit.Text == "updated" && edit.ReplyMarkup == &keyboard
		})).Return(tgbotapi.Message{MessageID: 9}, nil).Once()

		_, err := svc.EditMessage(123, 9, "updated", &keyboard)
		require.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("DropsKeyboard", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewTelegramService(sender)

		sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
			edit, ok := c.(tgbotapi.EditMessageTextConfig)
			return ok && edit.ReplyMarkup == nil && edit.ParseMode == models.ParseModeHTML
		})).Return(tgbotapi.Message{MessageID: 9}, nil).Once()

		_, err := svc.EditMessage(123, 9, "Cancelled.", nil)
		require.NoError(t, err)
		sender.AssertExpectations(t)
	})

	t.Run("NotModifiedIgnored", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewTelegramService(sender)

		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, &tgbotapi.Error{
			Code:    400,
			Message: "Bad Request: message is not modified: specified new message content and reply markup are exactly the same",
		}).Once()

		sent, err := svc.EditMessage(123, 9, "same", nil)
		require.NoError(t, err)
		assert.Equal(t, 9, sent.MessageID)
	})

	t.Run("OtherErrorsReturned", func(t *testing.T) {
		sender := new(mockTelegramSender)
		svc := NewTelegramService(sender)

		sender.On("Send", mock.Anything).Return(tgbotapi.Message{}, errors.New("Bad Request: message to edit not found")).Once()

		_, err := svc.EditMessage(123, 9, "text", nil)
		assert.ErrorContains(t, err, "not found")
	})
}

func TestTelegramService_SendDocument(t *testing.T) {
	sender := new(mockTelegramSender)
	svc := NewTelegramService(sender)

	sender.On("Send", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		doc, ok := c.(tgbotapi.DocumentConfig)
		return ok && doc.ChatID == 123 && doc.Caption == "3 bookings, 2 clients"
	})).Return(tgbotapi.Message{}, nil).Once()

	_, err := svc.SendDocument(123, "/tmp/studiobook.xlsx", "3 bookings, 2 clients")
	require.NoError(t, err)
	sender.AssertExpectations(t)
}

func TestTelegramService_AnswerCallback(t *testing.T) {
	sender := new(mockTelegramSender)
	svc := NewTelegramService(sender)

	sender.On("Request", mock.MatchedBy(func(c tgbotapi.Chattable) bool {
		cb, ok := c.(tgbotapi.CallbackConfig)
		return ok && cb.CallbackQueryID == "cb123" && cb.Text == "⏳ Loading data…"
	})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

	require.NoError(t, svc.AnswerCallback("cb123", "⏳ Loading data…"))
	sender.AssertExpectations(t)
}

func TestTelegramService_Updates(t *testing.T) {
	sender := new(mockTelegramSender)
	svc := NewTelegramService(sender)

	ch := make(chan tgbotapi.Update)
	sender.On("GetUpdatesChan", mock.Anything).Return(tgbotapi.UpdatesChannel(ch)).Once()
	sender.On("GetSelf").Return(tgbotapi.User{UserName: "studio_bot"}).Once()
	sender.On("StopReceivingUpdates").Once()

	assert.NotNil(t, svc.GetUpdatesChan(tgbotapi.NewUpdate(0)))
	assert.Equal(t, "studio_bot", svc.GetSelf().UserName)
	svc.StopReceivingUpdates()
	sender.AssertExpectations(t)
}
