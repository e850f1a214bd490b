package view

import (
	"errors"
	"strings"

	"studiobook/internal/models"
)

var ErrEmptyClientField = errors.New("name and contact are both required")

// NormalizeClientInput trims both fields and rejects either one empty.
func NormalizeClientInput(name, contact string) (string, string, error) {
	name = strings.TrimSpace(name)
	contact = strings.TrimSpace(contact)
	if name == "" || contact == "" {
		return "", "", ErrEmptyClientField
	}
	return name, contact, nil
}

type ClientRow struct {
	Client   models.Client `json:"client"`
	Bookings int           `json:"bookings"`
}

// ClientRows lists clients in storage order with how many bookings each holds.
func ClientRows(clients []models.Client, bookings []models.Booking) []ClientRow {
	counts := make(map[string]int, len(clients))
	for _, b := range bookings {
		counts[b.ClientID]++
	}
	rows := make([]ClientRow, 0, len(clients))
	for _, c := range clients {
		rows = append(rows, ClientRow{Client: c, Bookings: counts[c.ID]})
	}
	return rows
}
