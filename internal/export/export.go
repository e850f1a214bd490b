// Package export renders the studio's clients and bookings as an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"studiobook/internal/models"
	"studiobook/internal/view"

	"github.com/xuri/excelize/v2"
)

const (
	SheetSchedule = "Schedule"
	SheetBookings = "Bookings"
	SheetClients  = "Clients"
)

type Data struct {
	Clients   []models.Client
	Bookings  []models.Booking
	TimeSlots []string
}

// Build creates a workbook with a slot-by-date grid, a flat booking list and
// the client list. The caller closes the file.
func Build(data Data) (*excelize.File, error) {
	f := excelize.NewFile()

	groups := view.GroupByDate(data.Bookings, data.Clients)

	if err := writeSchedule(f, data, groups); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeBookings(f, data.Clients, groups); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeClients(f, data); err != nil {
		f.Close()
		return nil, err
	}

	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(SheetSchedule); err == nil {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// Write streams the workbook to w.
func Write(w io.Writer, data Data) error {
	f, err := Build(data)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// Save writes the workbook under dir and returns its path.
func Save(dir string, data Data, now time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}

	f, err := Build(data)
	if err != nil {
		return "", err
	}
	defer f.Close()

	filePath := filepath.Join(dir, FileName(now))
	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}
	return filePath, nil
}

func FileName(now time.Time) string {
	return fmt.Sprintf("studiobook_%s.xlsx", now.Format("2006-01-02_150405"))
}

func headerStyle(f *excelize.File, color string) int {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	return style
}

// writeSchedule lays out one row per slot and one column per booked date.
func writeSchedule(f *excelize.File, data Data, groups []view.DayGroup) error {
	if _, err := f.NewSheet(SheetSchedule); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	dateStyle := headerStyle(f, "#DDEBF7")
	slotStyle := headerStyle(f, "#E2EFDA")

	_ = f.SetCellValue(SheetSchedule, "A1", "Time slot")
	_ = f.SetCellStyle(SheetSchedule, "A1", "A1", dateStyle)
	for i, slot := range data.TimeSlots {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		_ = f.SetCellValue(SheetSchedule, cell, slot)
		_ = f.SetCellStyle(SheetSchedule, cell, cell, slotStyle)
	}

	for col, group := range groups {
		header, _ := excelize.CoordinatesToCellName(col+2, 1)
		_ = f.SetCellValue(SheetSchedule, header, group.Date)
		_ = f.SetCellStyle(SheetSchedule, header, header, dateStyle)

		schedule := view.BuildSchedule(group.Date, data.TimeSlots, data.Bookings, data.Clients)
		for _, row := range schedule.Rows {
			if !row.Booked {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+2, row.Index+2)
			_ = f.SetCellValue(SheetSchedule, cell, row.ClientName)
		}
	}

	_ = f.SetColWidth(SheetSchedule, "A", "A", 18)
	if len(groups) > 0 {
		last, _ := excelize.ColumnNumberToName(len(groups) + 1)
		_ = f.SetColWidth(SheetSchedule, "B", last, 20)
	}
	return nil
}

func writeBookings(f *excelize.File, clients []models.Client, groups []view.DayGroup) error {
	if _, err := f.NewSheet(SheetBookings); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	contacts := make(map[string]string, len(clients))
	for _, c := range clients {
		contacts[c.ID] = c.Contact
	}

	style := headerStyle(f, "#DDEBF7")
	headers := []string{"Date", "Day", "Time slot", "Client", "Contact", "Booking ID"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetBookings, cell, h)
		_ = f.SetCellStyle(SheetBookings, cell, cell, style)
	}

	row := 2
	for _, group := range groups {
		for _, b := range group.Rows {
			values := []interface{}{group.Date, group.Heading, b.TimeSlot, b.ClientName, contacts[b.ClientID], b.BookingID}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				_ = f.SetCellValue(SheetBookings, cell, v)
			}
			row++
		}
	}

	_ = f.SetColWidth(SheetBookings, "A", "A", 12)
	_ = f.SetColWidth(SheetBookings, "B", "B", 28)
	_ = f.SetColWidth(SheetBookings, "C", "E", 20)
	_ = f.SetColWidth(SheetBookings, "F", "F", 38)
	return nil
}

func writeClients(f *excelize.File, data Data) error {
	if _, err := f.NewSheet(SheetClients); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	style := headerStyle(f, "#E2EFDA")
	for i, h := range []string{"Name", "Contact", "Bookings"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetClients, cell, h)
		_ = f.SetCellStyle(SheetClients, cell, cell, style)
	}

	for i, r := range view.ClientRows(data.Clients, data.Bookings) {
		row := i + 2
		_ = f.SetCellValue(SheetClients, fmt.Sprintf("A%d", row), r.Client.Name)
		_ = f.SetCellValue(SheetClients, fmt.Sprintf("B%d", row), r.Client.Contact)
		_ = f.SetCellValue(SheetClients, fmt.Sprintf("C%d", row), r.Bookings)
	}

	_ = f.SetColWidth(SheetClients, "A", "B", 25)
	return nil
}
