// Package view turns clients and bookings into the rows the operator
// front-ends render. Nothing here performs I/O.
package view

import (
	"errors"
	"fmt"
	"time"

	"studiobook/internal/models"
)

var ErrInvalidDate = errors.New("date must be YYYY-MM-DD")

// SlotRow is one line of the day schedule.
type SlotRow struct {
	Index      int    `json:"index"`
	Label      string `json:"time_slot"`
	Booked     bool   `json:"booked"`
	BookingID  string `json:"booking_id,omitempty"`
	ClientID   string `json:"client_id,omitempty"`
	ClientName string `json:"client_name,omitempty"`
}

type Schedule struct {
	Date    string    `json:"date"`
	Heading string    `json:"heading"`
	Rows    []SlotRow `json:"slots"`
}

// Free counts the slots without a booking.
func (s Schedule) Free() int {
	free := 0
	for _, r := range s.Rows {
		if !r.Booked {
			free++
		}
	}
	return free
}

// BuildSchedule lists every configured slot for date, in configured order.
// A slot is booked when some booking matches both date and slot; the first
// match wins.
func BuildSchedule(date string, slots []string, bookings []models.Booking, clients []models.Client) Schedule {
	names := clientNames(clients)
	rows := make([]SlotRow, 0, len(slots))
	for i, label := range slots {
		row := SlotRow{Index: i, Label: label}
		for _, b := range bookings {
			if b.Occupies(date, label) {
				row.Booked = true
				row.BookingID = b.ID
				row.ClientID = b.ClientID
				row.ClientName = lookupName(names, b.ClientID)
				break
			}
		}
		rows = append(rows, row)
	}
	return Schedule{Date: date, Heading: FormatDayHeading(date), Rows: rows}
}

// Today is the calendar date of now in now's location.
func Today(now time.Time) string {
	return now.Format(models.DateLayout)
}

// ParseDate validates a YYYY-MM-DD date and returns it normalised.
func ParseDate(s string) (string, error) {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.Format(models.DateLayout), nil
}

// ShiftDate moves a YYYY-MM-DD date by days.
func ShiftDate(date string, days int) (string, error) {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return t.AddDate(0, 0, days).Format(models.DateLayout), nil
}

// FormatDayHeading renders a date long-form, e.g. "Saturday, 1 June 2024".
// Unparseable dates are returned unchanged.
func FormatDayHeading(date string) string {
	t, err := time.Parse(models.DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("Monday, 2 January 2006")
}

// SlotIndex finds label in slots.
func SlotIndex(slots []string, label string) (int, bool) {
	for i, s := range slots {
		if s == label {
			return i, true
		}
	}
	return -1, false
}

// ClientName resolves a client id, falling back to UnknownClientName.
func ClientName(clients []models.Client, id string) string {
	for _, c := range clients {
		if c.ID == id {
			return c.Name
		}
	}
	return models.UnknownClientName
}

func clientNames(clients []models.Client) map[string]string {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		if _, ok := names[c.ID]; !ok {
			names[c.ID] = c.Name
		}
	}
	return names
}

func lookupName(names map[string]string, id string) string {
	if name, ok := names[id]; ok {
		return name
	}
	return models.UnknownClientName
}
