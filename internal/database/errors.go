package database

import "errors"

var (
	// ErrNotAvailable means an existing PENDING or APPROVED booking overlaps
	// the requested date range.
	ErrNotAvailable = errors.New("dates are not available for this vehicle")

	// ErrInvalidRange means the draft's start date is after its end date.
	ErrInvalidRange = errors.New("start date must not be after end date")

	// ErrMissingFields means the draft lacks vehicle id, start or end date.
	ErrMissingFields = errors.New("vehicle id, start date and end date are required")

	ErrBookingNotFound = errors.New("booking not found")
	ErrVehicleNotFound = errors.New("vehicle not found")

	// ErrConcurrentModification means the booking version moved between read
	// and write.
	ErrConcurrentModification = errors.New("booking was modified concurrently")
)
