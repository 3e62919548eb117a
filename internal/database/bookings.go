package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetbook/internal/models"
)

const bookingColumns = `id, reference, vehicle_id, vehicle_name, date(start_date), date(end_date),
       status, customer_name, customer_email, pickup_location, dropoff_location,
       admin_note, created_at, updated_at, approved_at, version`

// CreateBooking validates the draft and inserts it. The conflict check runs
// inside the same transaction as the insert, so two concurrent submissions
// for overlapping dates cannot both land; the service-level check is
// advisory only.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	if booking.VehicleID == "" || booking.StartDate.IsZero() || booking.EndDate.IsZero() {
		return ErrMissingFields
	}
	if booking.StartDate.After(booking.EndDate) {
		return ErrInvalidRange
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Inclusive overlap: existing.start <= candidate.end AND
	// candidate.start <= existing.end.
	queryCount := `SELECT COUNT(*) FROM bookings
                   WHERE vehicle_id = ? AND status IN (?, ?)
                   AND date(start_date) <= ? AND date(end_date) >= ?`
	var overlapping int
	err = tx.QueryRowContext(ctx, queryCount,
		booking.VehicleID, models.StatusPending, models.StatusApproved,
		booking.EndDate.Format(models.DateLayout),
		booking.StartDate.Format(models.DateLayout),
	).Scan(&overlapping)
	if err != nil {
		return fmt.Errorf("check conflicts in tx: %w", err)
	}
	if overlapping > 0 {
		return ErrNotAvailable
	}

	queryInsert := `INSERT INTO bookings (
                reference, vehicle_id, vehicle_name, start_date, end_date, status,
                customer_name, customer_email, pickup_location, dropoff_location,
                admin_note, created_at, updated_at, version
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := tx.ExecContext(ctx, queryInsert,
		booking.Reference,
		booking.VehicleID,
		booking.VehicleName,
		booking.StartDate.Format(models.DateLayout),
		booking.EndDate.Format(models.DateLayout),
		booking.Status,
		booking.CustomerName,
		booking.CustomerEmail,
		booking.PickupLocation,
		booking.DropoffLocation,
		booking.AdminNote,
		now,
		now,
		1,
	)
	if err != nil {
		return fmt.Errorf("insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id in tx: %w", err)
	}
	booking.ID = id
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1

	return tx.Commit()
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	return booking, nil
}

func (db *DB) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = ?`
	booking, err := scanBooking(db.QueryRowContext(ctx, query, reference))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking by reference: %w", err)
	}
	return booking, nil
}

// ListByVehicleAndStatuses returns the vehicle's bookings holding any of the
// given statuses, ordered by start date.
func (db *DB) ListByVehicleAndStatuses(ctx context.Context, vehicleID string, statuses []string) ([]*models.Booking, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(statuses)), ", ")
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE vehicle_id = ? AND status IN (` + placeholders + `)
              ORDER BY date(start_date) ASC`

	args := make([]any, 0, len(statuses)+1)
	args = append(args, vehicleID)
	for _, s := range statuses {
		args = append(args, s)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bookings by vehicle: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListByStatus returns bookings in the given status, newest first.
func (db *DB) ListByStatus(ctx context.Context, status string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE status = ? ORDER BY created_at DESC, id DESC`
	rows, err := db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("list bookings by status: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// ListByDateRange returns bookings whose date range intersects [start, end].
func (db *DB) ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE date(start_date) <= ? AND date(end_date) >= ?
              ORDER BY date(start_date) ASC, id ASC`
	rows, err := db.QueryContext(ctx, query,
		end.Format(models.DateLayout), start.Format(models.DateLayout))
	if err != nil {
		return nil, fmt.Errorf("list bookings by date range: %w", err)
	}
	defer rows.Close()

	return collectBookings(rows)
}

// UpdateBookingStatus moves the booking to status with an optimistic version
// check. Transitions to APPROVED stamp the approval timestamp. Bookings are
// never deleted; status is the only mutable part of the record.
func (db *DB) UpdateBookingStatus(ctx context.Context, id, fromVersion int64, status, adminNote string) error {
	now := time.Now()

	var result sql.Result
	var err error
	if status == models.StatusApproved {
		query := `UPDATE bookings SET status = ?, admin_note = ?, approved_at = ?,
                  version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
		result, err = db.ExecContext(ctx, query, status, adminNote, now, now, id, fromVersion)
	} else {
		query := `UPDATE bookings SET status = ?, admin_note = ?,
                  version = version + 1, updated_at = ? WHERE id = ? AND version = ?`
		result, err = db.ExecContext(ctx, query, status, adminNote, now, id, fromVersion)
	}
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		var exists int
		if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE id = ?`, id).Scan(&exists); err != nil {
			return fmt.Errorf("update booking status: %w", err)
		}
		if exists == 0 {
			return ErrBookingNotFound
		}
		return ErrConcurrentModification
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var startStr, endStr string
	var approvedAt sql.NullTime

	err := row.Scan(
		&b.ID, &b.Reference, &b.VehicleID, &b.VehicleName, &startStr, &endStr,
		&b.Status, &b.CustomerName, &b.CustomerEmail, &b.PickupLocation, &b.DropoffLocation,
		&b.AdminNote, &b.CreatedAt, &b.UpdatedAt, &approvedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}

	if b.StartDate, err = time.Parse(models.DateLayout, startStr); err != nil {
		return nil, fmt.Errorf("parse start date %s: %w", startStr, err)
	}
	if b.EndDate, err = time.Parse(models.DateLayout, endStr); err != nil {
		return nil, fmt.Errorf("parse end date %s: %w", endStr, err)
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		b.ApprovedAt = &t
	}
	return &b, nil
}

func collectBookings(rows *sql.Rows) ([]*models.Booking, error) {
	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bookings, nil
}
