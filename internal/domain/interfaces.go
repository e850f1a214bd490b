package domain

import (
	"context"
	"time"

	"studiobook/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// RecordStore persists whole collections as opaque payloads.
// Get returns a nil payload when the collection has never been written.
type RecordStore interface {
	Get(ctx context.Context, collection string) ([]byte, error)
	Put(ctx context.Context, collection string, payload []byte) error
}

// BookingValidator inspects a booking before it is stored. A non-nil
// error rejects the booking.
type BookingValidator interface {
	ValidateBooking(ctx context.Context, candidate models.Booking, clients []models.Client, bookings []models.Booking) error
}

// BookingService is the only component allowed to mutate clients and bookings.
type BookingService interface {
	ListClients(ctx context.Context) ([]models.Client, error)
	ListBookings(ctx context.Context) ([]models.Booking, error)
	AddClient(ctx context.Context, name, contact string) (*models.Client, error)
	DeleteClient(ctx context.Context, clientID string) error
	AddBooking(ctx context.Context, clientID, date, timeSlot string) (*models.Booking, error)
	DeleteBooking(ctx context.Context, bookingID string) error
}

type StateRepository interface {
	GetState(ctx context.Context, userID int64) (*models.UserState, error)
	SetState(ctx context.Context, state *models.UserState) error
	ClearState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
}

type StateManager interface {
	GetUserState(ctx context.Context, userID int64) (*models.UserState, error)
	SetUserState(ctx context.Context, userID int64, step string, data map[string]interface{}) error
	ClearUserState(ctx context.Context, userID int64) error
	CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error)
	OpenSlotPicker(ctx context.Context, userID int64, date, timeSlot string) error
	PendingSlot(ctx context.Context, userID int64) (date, timeSlot string, ok bool, err error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}

// TelegramService is what the operator bot needs from Telegram. Text is
// always Telegram HTML.
type TelegramService interface {
	SendHTML(chatID int64, text string) (tgbotapi.Message, error)
	SendWithInlineKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	SendDocument(chatID int64, path, caption string) (tgbotapi.Message, error)
	EditMessage(chatID int64, messageID int, text string, keyboard *tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error)
	AnswerCallback(callbackID string, text string) error
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetSelf() tgbotapi.User
	StopReceivingUpdates()
}
