package export

import (
	"testing"
	"time"

	"parkhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestBuildWorkbook(t *testing.T) {
	spots := []*models.ParkingSpot{
		{ID: "1", Name: "Downtown Garage", Location: "123 Main St", HourlyRate: 10, TotalSpots: 5, AvailableSpots: 3},
		{ID: "2", Name: "Airport Lot", Location: "456 Airport Rd", HourlyRate: 5, TotalSpots: 10, AvailableSpots: 10},
	}

	start := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)
	cost := int64(15)

	bookings := []*models.Booking{
		{ID: "b1", ParkingSpotID: "1", StartTime: start, EndTime: &end, TotalCost: &cost, Status: models.StatusCompleted},
		{ID: "b2", ParkingSpotID: "2", StartTime: start, Status: models.StatusActive},
	}

	f, err := BuildWorkbook(bookings, spots)
	require.NoError(t, err)
	defer f.Close()

	name, err := f.GetCellValue(sheetBookings, "B2")
	require.NoError(t, err)
	assert.Equal(t, "Downtown Garage", name)

	duration, err := f.GetCellValue(sheetBookings, "F2")
	require.NoError(t, err)
	assert.Equal(t, "1h 30m", duration)

	costCell, err := f.GetCellValue(sheetBookings, "G2")
	require.NoError(t, err)
	assert.Equal(t, "15", costCell)

	// Активная бронь без конца и стоимости
	endCell, err := f.GetCellValue(sheetBookings, "E3")
	require.NoError(t, err)
	assert.Empty(t, endCell)

	revenue, err := f.GetCellValue(sheetSummary, "B4")
	require.NoError(t, err)
	assert.Equal(t, "15", revenue)
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteReport(dir, nil, nil, nil)
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	total, err := f.GetCellValue(sheetSummary, "B1")
	require.NoError(t, err)
	assert.Equal(t, "0", total)
}
