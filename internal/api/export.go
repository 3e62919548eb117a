package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleetbook/internal/models"

	"github.com/xuri/excelize/v2"
)

var exportHeaders = []string{
	"ID", "Reference", "Vehicle", "Start", "End", "Status",
	"Customer", "Email", "Pickup", "Dropoff", "Admin Note", "Created",
}

// handleExportBookings streams an xlsx workbook of bookings. Optional
// status or from/to queries narrow the export; without them every status
// is included.
func (s *HTTPServer) handleExportBookings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	var bookings []*models.Booking
	var err error

	switch {
	case q.Get("status") != "":
		bookings, err = s.bookings.ListByStatus(ctx, q.Get("status"))
	case q.Get("from") != "" || q.Get("to") != "":
		var start, end time.Time
		if start, err = parseDate(q.Get("from")); err != nil {
			writeError(w, http.StatusBadRequest, "from must be formatted as YYYY-MM-DD")
			return
		}
		if end, err = parseDate(q.Get("to")); err != nil {
			writeError(w, http.StatusBadRequest, "to must be formatted as YYYY-MM-DD")
			return
		}
		bookings, err = s.bookings.ListByDateRange(ctx, start, end)
	default:
		for _, st := range []string{models.StatusPending, models.StatusApproved, models.StatusRejected} {
			var part []*models.Booking
			part, err = s.bookings.ListByStatus(ctx, st)
			if err != nil {
				break
			}
			bookings = append(bookings, part...)
		}
	}
	if err != nil {
		s.writeBookingError(w, err, nil)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Bookings"
	f.SetSheetName(f.GetSheetName(0), sheet)

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}

	for row, b := range bookings {
		values := []any{
			b.ID,
			b.Reference,
			vehicleCell(b),
			b.StartDate.Format(models.DateLayout),
			b.EndDate.Format(models.DateLayout),
			b.Status,
			b.CustomerName,
			b.CustomerEmail,
			b.PickupLocation,
			b.DropoffLocation,
			b.AdminNote,
			b.CreatedAt.Format(time.RFC3339),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	filename := fmt.Sprintf("bookings_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := f.Write(w); err != nil {
		s.logger.Error().Err(err).Msg("write export workbook")
	}
}

func vehicleCell(b *models.Booking) string {
	if b.VehicleName != "" {
		return b.VehicleName
	}
	return strings.TrimSpace(b.VehicleID)
}
