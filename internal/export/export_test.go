package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"studiobook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testData() Data {
	return Data{
		Clients: []models.Client{
			{ID: "c1", Name: "Los Rockeros", Contact: "banda@email.com"},
			{ID: "c2", Name: "Jazz Trio", Contact: "555-0101"},
		},
		Bookings: []models.Booking{
			{ID: "b1", Date: "2024-06-02", TimeSlot: "12:00 - 14:00", ClientID: "c1"},
			{ID: "b2", Date: "2024-06-01", TimeSlot: "10:00 - 12:00", ClientID: "c2"},
			{ID: "b3", Date: "2024-06-02", TimeSlot: "10:00 - 12:00", ClientID: "ghost"},
		},
		TimeSlots: []string{"10:00 - 12:00", "12:00 - 14:00"},
	}
}

func TestBuild(t *testing.T) {
	f, err := Build(testData())
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetSchedule, SheetBookings, SheetClients}, f.GetSheetList())

	t.Run("ScheduleGrid", func(t *testing.T) {
		rows, err := f.GetRows(SheetSchedule)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, []string{"Time slot", "2024-06-01", "2024-06-02"}, rows[0])
		assert.Equal(t, []string{"10:00 - 12:00", "Jazz Trio", models.UnknownClientName}, rows[1])
		assert.Equal(t, []string{"12:00 - 14:00", "", "Los Rockeros"}, rows[2])
	})

	t.Run("BookingList", func(t *testing.T) {
		rows, err := f.GetRows(SheetBookings)
		require.NoError(t, err)
		require.Len(t, rows, 4)
		assert.Equal(t, "Date", rows[0][0])
		assert.Equal(t, []string{"2024-06-01", "Saturday, 1 June 2024", "10:00 - 12:00", "Jazz Trio", "555-0101", "b2"}, rows[1])
		assert.Equal(t, "b1", rows[2][5])
		assert.Equal(t, "b3", rows[3][5])
	})

	t.Run("Clients", func(t *testing.T) {
		rows, err := f.GetRows(SheetClients)
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"Name", "Contact", "Bookings"},
			{"Los Rockeros", "banda@email.com", "1"},
			{"Jazz Trio", "555-0101", "1"},
		}, rows)
	})
}

func TestBuild_Empty(t *testing.T) {
	f, err := Build(Data{TimeSlots: models.DefaultTimeSlots})
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetBookings)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestWriteAndSave(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testData()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	assert.Contains(t, f.GetSheetList(), SheetClients)
	f.Close()

	dir := filepath.Join(t.TempDir(), "exports")
	now := time.Date(2024, 6, 1, 18, 30, 0, 0, time.UTC)
	path, err := Save(dir, testData(), now)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "studiobook_2024-06-01_183000.xlsx"), path)

	saved, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer saved.Close()
	rows, err := saved.GetRows(SheetSchedule)
	require.NoError(t, err)
	assert.NotEmpty(t, rows)
}
