package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fleetbook/internal/database"
	"fleetbook/internal/domain"
	"fleetbook/internal/events"
	"fleetbook/internal/metrics"
	"fleetbook/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrAlreadyReviewed is returned when a review targets a booking that has
// already left the PENDING state. Terminal decisions are final.
var ErrAlreadyReviewed = errors.New("booking has already been reviewed")

// ValidationError marks a caller mistake in the submitted data.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// BookingService owns the booking lifecycle: submission with conflict
// checking and the PENDING to APPROVED/REJECTED review step.
type BookingService struct {
	repo     domain.Repository
	eventBus domain.EventPublisher
	logger   zerolog.Logger
}

func NewBookingService(repo domain.Repository, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingService {
	var l zerolog.Logger
	if logger != nil {
		l = logger.With().Str("component", "booking_service").Logger()
	}
	return &BookingService{repo: repo, eventBus: eventBus, logger: l}
}

// SubmitBooking validates the draft, checks availability and stores the
// booking in PENDING state. The status, reference and admin note are
// assigned here regardless of what the caller sent.
func (s *BookingService) SubmitBooking(ctx context.Context, draft *models.Booking) (*models.Booking, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}

	booking := *draft
	booking.StartDate = models.DateOnly(booking.StartDate)
	booking.EndDate = models.DateOnly(booking.EndDate)
	booking.Status = models.StatusPending
	booking.Reference = uuid.NewString()
	booking.AdminNote = ""
	booking.ApprovedAt = nil

	if booking.VehicleName == "" {
		if v, err := s.repo.GetVehicleByID(ctx, booking.VehicleID); err == nil {
			booking.VehicleName = v.Name
		}
	}

	// Advisory pre-check for a friendly error. The store re-checks inside
	// the insert transaction, which is the authoritative gate.
	conflict, err := s.hasConflict(ctx, booking.VehicleID, booking.StartDate, booking.EndDate)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if conflict {
		metrics.IncConflict()
		return nil, database.ErrNotAvailable
	}

	if err := s.repo.CreateBooking(ctx, &booking); err != nil {
		if errors.Is(err, database.ErrNotAvailable) {
			metrics.IncConflict()
		}
		return nil, err
	}

	metrics.IncSubmitted()
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Str("reference", booking.Reference).
		Str("vehicle_id", booking.VehicleID).
		Str("start", booking.StartDate.Format(models.DateLayout)).
		Str("end", booking.EndDate.Format(models.DateLayout)).
		Msg("booking submitted")

	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{Booking: &booking}); err != nil {
			s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("publish booking created event")
		}
	}

	return &booking, nil
}

// ReviewBooking applies an admin decision to a PENDING booking. Decisions on
// a booking that already holds a terminal status are rejected.
func (s *BookingService) ReviewBooking(ctx context.Context, id int64, decision, adminNote string) error {
	decision = strings.ToUpper(strings.TrimSpace(decision))
	if !models.IsValidDecision(decision) {
		return &ValidationError{Field: "decision", Reason: "must be APPROVED or REJECTED"}
	}

	booking, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		return err
	}
	if booking.Status != models.StatusPending {
		return ErrAlreadyReviewed
	}

	if err := s.repo.UpdateBookingStatus(ctx, id, booking.Version, decision, adminNote); err != nil {
		return err
	}

	metrics.IncReview(decision)
	s.logger.Info().
		Int64("booking_id", id).
		Str("decision", decision).
		Msg("booking reviewed")

	updated, err := s.repo.GetBooking(ctx, id)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", id).Msg("reload booking after review")
		updated = booking
		updated.Status = decision
		updated.AdminNote = adminNote
	}

	if s.eventBus != nil {
		err := s.eventBus.PublishJSON(events.EventBookingStatusChanged, events.BookingEventPayload{
			Booking:   updated,
			OldStatus: models.StatusPending,
			NewStatus: decision,
		})
		if err != nil {
			s.logger.Warn().Err(err).Int64("booking_id", id).Msg("publish status changed event")
		}
	}

	return nil
}

// CheckAvailability reports whether the vehicle is free for the whole range.
func (s *BookingService) CheckAvailability(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	if vehicleID == "" {
		return false, &ValidationError{Field: "vehicle_id", Reason: "is required"}
	}
	if start.IsZero() || end.IsZero() {
		return false, &ValidationError{Field: "dates", Reason: "start and end are required"}
	}
	if start.After(end) {
		return false, &ValidationError{Field: "dates", Reason: "start must not be after end"}
	}

	conflict, err := s.hasConflict(ctx, vehicleID, models.DateOnly(start), models.DateOnly(end))
	if err != nil {
		return false, err
	}
	return !conflict, nil
}

func (s *BookingService) ListByStatus(ctx context.Context, status string) ([]*models.Booking, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if !models.IsValidStatus(status) {
		return nil, &ValidationError{Field: "status", Reason: "must be PENDING, APPROVED or REJECTED"}
	}
	return s.repo.ListByStatus(ctx, status)
}

func (s *BookingService) ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	if start.After(end) {
		return nil, &ValidationError{Field: "dates", Reason: "start must not be after end"}
	}
	return s.repo.ListByDateRange(ctx, models.DateOnly(start), models.DateOnly(end))
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	return s.repo.GetBooking(ctx, id)
}

// hasConflict scans the vehicle's active bookings for a range overlap.
// REJECTED bookings never block a slot.
func (s *BookingService) hasConflict(ctx context.Context, vehicleID string, start, end time.Time) (bool, error) {
	existing, err := s.repo.ListByVehicleAndStatuses(ctx, vehicleID, models.ActiveStatuses)
	if err != nil {
		return false, err
	}
	for _, b := range existing {
		if models.RangesOverlap(start, end, b.StartDate, b.EndDate) {
			return true, nil
		}
	}
	return false, nil
}

func validateDraft(draft *models.Booking) error {
	if draft == nil {
		return &ValidationError{Field: "booking", Reason: "is required"}
	}
	if draft.VehicleID == "" {
		return &ValidationError{Field: "vehicle_id", Reason: "is required"}
	}
	if draft.StartDate.IsZero() || draft.EndDate.IsZero() {
		return &ValidationError{Field: "dates", Reason: "start and end are required"}
	}
	if draft.StartDate.After(draft.EndDate) {
		return &ValidationError{Field: "dates", Reason: "start must not be after end"}
	}
	return nil
}
