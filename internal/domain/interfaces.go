package domain

import (
	"context"
	"time"

	"fleetbook/internal/models"
)

// Repository is the persistence surface the booking core depends on.
// Bookings are append-only history: there is deliberately no delete.
type Repository interface {
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error)
	ListByVehicleAndStatuses(ctx context.Context, vehicleID string, statuses []string) ([]*models.Booking, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Booking, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id, fromVersion int64, status, adminNote string) error

	UpsertVehicle(ctx context.Context, vehicle *models.Vehicle) error
	GetVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	GetActiveVehicles(ctx context.Context) ([]*models.Vehicle, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

type BookingService interface {
	SubmitBooking(ctx context.Context, draft *models.Booking) (*models.Booking, error)
	ReviewBooking(ctx context.Context, id int64, decision, adminNote string) error
	CheckAvailability(ctx context.Context, vehicleID string, start, end time.Time) (bool, error)
	ListByStatus(ctx context.Context, status string) ([]*models.Booking, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
}

type VehicleCatalog interface {
	ActiveVehicles(ctx context.Context) ([]*models.Vehicle, error)
	GetVehicle(ctx context.Context, id string) (*models.Vehicle, error)
}
