package view

import (
	"sort"

	"studiobook/internal/models"
)

type BookingRow struct {
	BookingID  string `json:"booking_id"`
	TimeSlot   string `json:"time_slot"`
	ClientID   string `json:"client_id"`
	ClientName string `json:"client_name"`
}

type DayGroup struct {
	Date    string       `json:"date"`
	Heading string       `json:"heading"`
	Rows    []BookingRow `json:"bookings"`
}

// GroupByDate buckets bookings per date. Groups are ordered by date string;
// rows inside a group keep the input order.
func GroupByDate(bookings []models.Booking, clients []models.Client) []DayGroup {
	names := clientNames(clients)
	byDate := make(map[string][]BookingRow)
	for _, b := range bookings {
		byDate[b.Date] = append(byDate[b.Date], BookingRow{
			BookingID:  b.ID,
			TimeSlot:   b.TimeSlot,
			ClientID:   b.ClientID,
			ClientName: lookupName(names, b.ClientID),
		})
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	groups := make([]DayGroup, 0, len(dates))
	for _, date := range dates {
		groups = append(groups, DayGroup{
			Date:    date,
			Heading: FormatDayHeading(date),
			Rows:    byDate[date],
		})
	}
	return groups
}

// OnOrAfter drops groups dated before date.
func OnOrAfter(groups []DayGroup, date string) []DayGroup {
	i := sort.Search(len(groups), func(i int) bool { return groups[i].Date >= date })
	return groups[i:]
}
