package models

import "time"

// DateLayout is the calendar-date encoding used for Booking.Date.
const DateLayout = "2006-01-02"

// Booking reserves one time slot on one date for one client.
// Field names on the wire match the payloads already stored by earlier
// versions of the studio app, so existing data decodes unchanged.
type Booking struct {
	ID       string `json:"id"`
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	ClientID string `json:"clientId"`
}

// Day parses Date. Bookings with a malformed date report ok=false.
func (b Booking) Day() (time.Time, bool) {
	t, err := time.Parse(DateLayout, b.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Occupies reports whether the booking holds the given slot.
func (b Booking) Occupies(date, timeSlot string) bool {
	return b.Date == date && b.TimeSlot == timeSlot
}
