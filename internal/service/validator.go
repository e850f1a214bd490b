package service

import (
	"context"
	"fmt"

	"studiobook/internal/domain"
	"studiobook/internal/models"
)

// NoopValidator accepts every booking, double bookings and unknown clients
// included.
type NoopValidator struct{}

func (NoopValidator) ValidateBooking(context.Context, models.Booking, []models.Client, []models.Booking) error {
	return nil
}

// StrictValidator rejects bookings for unknown clients and for slots that
// already hold a booking.
type StrictValidator struct{}

func (StrictValidator) ValidateBooking(_ context.Context, candidate models.Booking, clients []models.Client, bookings []models.Booking) error {
	found := false
	for _, c := range clients {
		if c.ID == candidate.ClientID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %s", ErrClientNotFound, candidate.ClientID)
	}

	for _, b := range bookings {
		if b.Occupies(candidate.Date, candidate.TimeSlot) {
			return fmt.Errorf("%w: %s %s", ErrSlotTaken, candidate.Date, candidate.TimeSlot)
		}
	}
	return nil
}

// ValidatorFor picks the validator for the studio.strict_bookings setting.
func ValidatorFor(strict bool) domain.BookingValidator {
	if strict {
		return StrictValidator{}
	}
	return NoopValidator{}
}
