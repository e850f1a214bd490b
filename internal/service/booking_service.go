package service

import (
	"context"
	"errors"
	"time"

	"studiobook/internal/domain"
	"studiobook/internal/events"
	"studiobook/internal/models"
	"studiobook/internal/recordstore"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrClientNotFound = errors.New("client not found")
	ErrSlotTaken      = errors.New("time slot already booked")
)

// BookingService owns every read and write of the clients and bookings
// collections. Each mutation loads the whole collection, changes it and
// saves it back; concurrent mutations of one collection can lose an update.
type BookingService struct {
	store     domain.RecordStore
	eventBus  domain.EventPublisher
	validator domain.BookingValidator
	delay     time.Duration
	newID     func() string
	logger    *zerolog.Logger
}

type Option func(*BookingService)

// WithIDGenerator replaces uuid.NewString as the id source.
func WithIDGenerator(fn func() string) Option {
	return func(s *BookingService) { s.newID = fn }
}

// WithDelay makes every call wait d before touching the store.
func WithDelay(d time.Duration) Option {
	return func(s *BookingService) { s.delay = d }
}

func WithValidator(v domain.BookingValidator) Option {
	return func(s *BookingService) { s.validator = v }
}

func NewBookingService(store domain.RecordStore, eventBus domain.EventPublisher, logger *zerolog.Logger, opts ...Option) *BookingService {
	s := &BookingService{
		store:     store,
		eventBus:  eventBus,
		validator: NoopValidator{},
		newID:     uuid.NewString,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BookingService) ListClients(ctx context.Context) ([]models.Client, error) {
	s.logger.Debug().Msg("ListClients")
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.loadClients(ctx)
}

func (s *BookingService) ListBookings(ctx context.Context) ([]models.Booking, error) {
	s.logger.Debug().Msg("ListBookings")
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	return s.loadBookings(ctx)
}

// AddClient stores a new client as given. Trimming and emptiness checks are
// the caller's job.
func (s *BookingService) AddClient(ctx context.Context, name, contact string) (*models.Client, error) {
	s.logger.Debug().Str("name", name).Msg("AddClient")
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	clients, err := s.loadClients(ctx)
	if err != nil {
		return nil, err
	}

	client := models.Client{ID: s.newID(), Name: name, Contact: contact}
	clients = append(clients, client)
	if err := recordstore.SaveAll(ctx, s.store, models.CollectionClients, clients); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventClientCreated, events.ClientEventPayload{ClientID: client.ID, Name: client.Name})
	return &client, nil
}

// DeleteClient removes the client and every booking that references it.
// Deleting an unknown id is not an error.
func (s *BookingService) DeleteClient(ctx context.Context, clientID string) error {
	s.logger.Debug().Str("client_id", clientID).Msg("DeleteClient")
	if err := s.wait(ctx); err != nil {
		return err
	}

	clients, err := s.loadClients(ctx)
	if err != nil {
		return err
	}
	kept := clients[:0:0]
	for _, c := range clients {
		if c.ID != clientID {
			kept = append(kept, c)
		}
	}
	if err := recordstore.SaveAll(ctx, s.store, models.CollectionClients, kept); err != nil {
		return err
	}

	bookings, err := s.loadBookings(ctx)
	if err != nil {
		return err
	}
	keptBookings := bookings[:0:0]
	for _, b := range bookings {
		if b.ClientID != clientID {
			keptBookings = append(keptBookings, b)
		}
	}
	if err := recordstore.SaveAll(ctx, s.store, models.CollectionBookings, keptBookings); err != nil {
		return err
	}

	cascaded := len(bookings) - len(keptBookings)
	if len(kept) != len(clients) || cascaded > 0 {
		s.publishEvent(events.EventClientDeleted, events.ClientEventPayload{ClientID: clientID, CascadedBookings: cascaded})
	}
	return nil
}

// AddBooking stores a booking after the configured validator accepts it.
// With the default validator neither the client nor the slot is checked.
func (s *BookingService) AddBooking(ctx context.Context, clientID, date, timeSlot string) (*models.Booking, error) {
	s.logger.Debug().Str("client_id", clientID).Str("date", date).Str("time_slot", timeSlot).Msg("AddBooking")
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	bookings, err := s.loadBookings(ctx)
	if err != nil {
		return nil, err
	}

	booking := models.Booking{ID: s.newID(), Date: date, TimeSlot: timeSlot, ClientID: clientID}

	if _, noop := s.validator.(NoopValidator); s.validator != nil && !noop {
		clients, err := s.loadClients(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.validator.ValidateBooking(ctx, booking, clients, bookings); err != nil {
			return nil, err
		}
	}

	bookings = append(bookings, booking)
	if err := recordstore.SaveAll(ctx, s.store, models.CollectionBookings, bookings); err != nil {
		return nil, err
	}

	s.publishEvent(events.EventBookingCreated, events.BookingEventPayload{
		BookingID: booking.ID,
		ClientID:  booking.ClientID,
		Date:      booking.Date,
		TimeSlot:  booking.TimeSlot,
	})
	return &booking, nil
}

// DeleteBooking removes a booking by id. Deleting an unknown id is not an error.
func (s *BookingService) DeleteBooking(ctx context.Context, bookingID string) error {
	s.logger.Debug().Str("booking_id", bookingID).Msg("DeleteBooking")
	if err := s.wait(ctx); err != nil {
		return err
	}

	bookings, err := s.loadBookings(ctx)
	if err != nil {
		return err
	}

	var removed *models.Booking
	kept := bookings[:0:0]
	for i := range bookings {
		if bookings[i].ID == bookingID {
			removed = &bookings[i]
			continue
		}
		kept = append(kept, bookings[i])
	}
	if err := recordstore.SaveAll(ctx, s.store, models.CollectionBookings, kept); err != nil {
		return err
	}

	if removed != nil {
		s.publishEvent(events.EventBookingCanceled, events.BookingEventPayload{
			BookingID: removed.ID,
			ClientID:  removed.ClientID,
			Date:      removed.Date,
			TimeSlot:  removed.TimeSlot,
		})
	}
	return nil
}

func (s *BookingService) loadClients(ctx context.Context) ([]models.Client, error) {
	return recordstore.LoadAll[models.Client](ctx, s.store, models.CollectionClients, s.logger)
}

func (s *BookingService) loadBookings(ctx context.Context) ([]models.Booking, error) {
	return recordstore.LoadAll[models.Booking](ctx, s.store, models.CollectionBookings, s.logger)
}

// wait simulates the round trip to a remote backend.
func (s *BookingService) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *BookingService) publishEvent(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Msg("publish event error")
	}
}
