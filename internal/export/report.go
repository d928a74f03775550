package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"parkhub/internal/models"
	"parkhub/internal/pricing"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	sheetBookings = "Bookings"
	sheetSummary  = "Summary"
)

// BuildWorkbook renders the booking ledger into an xlsx workbook: one
// row per booking plus a revenue summary with per-spot totals.
func BuildWorkbook(bookings []*models.Booking, spots []*models.ParkingSpot) (*excelize.File, error) {
	spotsByID := make(map[string]*models.ParkingSpot, len(spots))
	for _, spot := range spots {
		spotsByID[spot.ID] = spot
	}

	f := excelize.NewFile()

	index, err := f.NewSheet(sheetBookings)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"Booking ID", "Spot", "Location", "Start", "End", "Duration", "Cost", "Status"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetBookings, cell, header)
		_ = f.SetCellStyle(sheetBookings, cell, cell, headerStyle)
	}

	var (
		completedCount int
		totalRevenue   int64
		revenueBySpot  = make(map[string]int64)
		countBySpot    = make(map[string]int)
	)

	for i, booking := range bookings {
		row := i + 2

		spotName := booking.ParkingSpotID
		location := ""
		rate := float64(0)
		if spot, ok := spotsByID[booking.ParkingSpotID]; ok {
			spotName = spot.Name
			location = spot.Location
			rate = spot.HourlyRate
		}

		_ = f.SetCellValue(sheetBookings, fmt.Sprintf("A%d", row), booking.ID)
		_ = f.SetCellValue(sheetBookings, fmt.Sprintf("B%d", row), spotName)
		_ = f.SetCellValue(sheetBookings, fmt.Sprintf("C%d", row), location)
		_ = f.SetCellValue(sheetBookings, fmt.Sprintf("D%d", row), booking.StartTime.Format("02.01.2006 15:04"))
		_ = f.SetCellValue(sheetBookings, fmt.Sprintf("H%d", row), booking.Status)

		countBySpot[spotName]++

		if booking.EndTime != nil && booking.TotalCost != nil {
			_ = f.SetCellValue(sheetBookings, fmt.Sprintf("E%d", row), booking.EndTime.Format("02.01.2006 15:04"))
			if quote, err := pricing.Compute(booking.StartTime, *booking.EndTime, rate); err == nil {
				_ = f.SetCellValue(sheetBookings, fmt.Sprintf("F%d", row), quote.Duration)
			}
			_ = f.SetCellValue(sheetBookings, fmt.Sprintf("G%d", row), *booking.TotalCost)

			completedCount++
			totalRevenue += *booking.TotalCost
			revenueBySpot[spotName] += *booking.TotalCost
		}
	}

	_ = f.SetColWidth(sheetBookings, "A", "A", 38)
	_ = f.SetColWidth(sheetBookings, "B", "C", 25)
	_ = f.SetColWidth(sheetBookings, "D", "F", 18)
	_ = f.SetColWidth(sheetBookings, "G", "H", 12)

	writeSummary(f, headerStyle, spots, bookings, completedCount, totalRevenue, countBySpot, revenueBySpot)

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

func writeSummary(
	f *excelize.File, headerStyle int,
	spots []*models.ParkingSpot, bookings []*models.Booking,
	completedCount int, totalRevenue int64,
	countBySpot map[string]int, revenueBySpot map[string]int64,
) {
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return
	}

	_ = f.SetCellValue(sheetSummary, "A1", "Total bookings")
	_ = f.SetCellValue(sheetSummary, "B1", len(bookings))
	_ = f.SetCellValue(sheetSummary, "A2", "Completed")
	_ = f.SetCellValue(sheetSummary, "B2", completedCount)
	_ = f.SetCellValue(sheetSummary, "A3", "Active")
	_ = f.SetCellValue(sheetSummary, "B3", len(bookings)-completedCount)
	_ = f.SetCellValue(sheetSummary, "A4", "Revenue")
	_ = f.SetCellValue(sheetSummary, "B4", totalRevenue)

	_ = f.SetCellValue(sheetSummary, "A6", "Spot")
	_ = f.SetCellValue(sheetSummary, "B6", "Bookings")
	_ = f.SetCellValue(sheetSummary, "C6", "Revenue")
	_ = f.SetCellStyle(sheetSummary, "A6", "C6", headerStyle)

	row := 7
	for _, spot := range spots {
		_ = f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", row), spot.Name)
		_ = f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", row), countBySpot[spot.Name])
		_ = f.SetCellValue(sheetSummary, fmt.Sprintf("C%d", row), revenueBySpot[spot.Name])
		row++
	}

	_ = f.SetColWidth(sheetSummary, "A", "A", 25)
	_ = f.SetColWidth(sheetSummary, "B", "C", 12)
}

// WriteReport builds the workbook and saves it under dir.
func WriteReport(dir string, bookings []*models.Booking, spots []*models.ParkingSpot, logger *zerolog.Logger) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	f, err := BuildWorkbook(bookings, spots)
	if err != nil {
		return "", err
	}
	defer f.Close()

	fileName := fmt.Sprintf("bookings_report_%s.xlsx", time.Now().Format("2006-01-02_15-04-05"))
	filePath := filepath.Join(dir, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}

	if logger != nil {
		logger.Info().Str("file_path", filePath).Int("bookings", len(bookings)).Msg("report created")
	}
	return filePath, nil
}
