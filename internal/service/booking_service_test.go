package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fleetbook/internal/database"
	"fleetbook/internal/events"
	"fleetbook/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateBooking(ctx context.Context, booking *models.Booking) error {
	args := m.Called(ctx, booking)
	return args.Error(0)
}

func (m *mockRepository) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) GetBookingByReference(ctx context.Context, reference string) (*models.Booking, error) {
	args := m.Called(ctx, reference)
	if b := args.Get(0); b != nil {
		return b.(*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListByVehicleAndStatuses(ctx context.Context, vehicleID string, statuses []string) ([]*models.Booking, error) {
	args := m.Called(ctx, vehicleID, statuses)
	if b := args.Get(0); b != nil {
		return b.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListByStatus(ctx context.Context, status string) ([]*models.Booking, error) {
	args := m.Called(ctx, status)
	if b := args.Get(0); b != nil {
		return b.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) ListByDateRange(ctx context.Context, start, end time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, start, end)
	if b := args.Get(0); b != nil {
		return b.([]*models.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) UpdateBookingStatus(ctx context.Context, id, fromVersion int64, status, adminNote string) error {
	args := m.Called(ctx, id, fromVersion, status, adminNote)
	return args.Error(0)
}

func (m *mockRepository) UpsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	args := m.Called(ctx, vehicle)
	return args.Error(0)
}

func (m *mockRepository) GetVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	args := m.Called(ctx, id)
	if v := args.Get(0); v != nil {
		return v.(*models.Vehicle), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) GetActiveVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	args := m.Called(ctx)
	if v := args.Get(0); v != nil {
		return v.([]*models.Vehicle), args.Error(1)
	}
	return nil, args.Error(1)
}

func day(s string) time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func draft() *models.Booking {
	return &models.Booking{
		VehicleID:     "toyota-hiace",
		StartDate:     day("2025-05-10"),
		EndDate:       day("2025-05-12"),
		CustomerName:  "Morgan",
		CustomerEmail: "morgan@example.com",
	}
}

func newService(repo *mockRepository, bus *events.EventBus) *BookingService {
	logger := zerolog.Nop()
	return NewBookingService(repo, bus, &logger)
}

func TestSubmitBookingForcesPendingAndReference(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetVehicleByID", mock.Anything, "toyota-hiace").
		Return(&models.Vehicle{ID: "toyota-hiace", Name: "Toyota Hiace"}, nil)
	repo.On("ListByVehicleAndStatuses", mock.Anything, "toyota-hiace", models.ActiveStatuses).
		Return([]*models.Booking{}, nil)
	repo.On("CreateBooking", mock.Anything, mock.AnythingOfType("*models.Booking")).
		Return(nil)

	d := draft()
	d.Status = models.StatusApproved // callers cannot pick their status
	d.AdminNote = "sneaky"

	svc := newService(repo, nil)
	created, err := svc.SubmitBooking(context.Background(), d)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, created.Status)
	assert.NotEmpty(t, created.Reference)
	assert.Empty(t, created.AdminNote)
	assert.Equal(t, "Toyota Hiace", created.VehicleName)
	repo.AssertExpectations(t)
}

func TestSubmitBookingRejectsOverlap(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetVehicleByID", mock.Anything, "toyota-hiace").
		Return(&models.Vehicle{ID: "toyota-hiace", Name: "Toyota Hiace"}, nil)
	repo.On("ListByVehicleAndStatuses", mock.Anything, "toyota-hiace", models.ActiveStatuses).
		Return([]*models.Booking{
			{VehicleID: "toyota-hiace", StartDate: day("2025-05-12"), EndDate: day("2025-05-15"), Status: models.StatusApproved},
		}, nil)

	svc := newService(repo, nil)
	_, err := svc.SubmitBooking(context.Background(), draft())

	// end date touching an existing start date counts as an overlap
	assert.ErrorIs(t, err, database.ErrNotAvailable)
	repo.AssertNotCalled(t, "CreateBooking", mock.Anything, mock.Anything)
}

func TestSubmitBookingIgnoresRejectedBookings(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetVehicleByID", mock.Anything, "toyota-hiace").
		Return(&models.Vehicle{ID: "toyota-hiace", Name: "Toyota Hiace"}, nil)
	// store filters by active statuses, so a rejected booking never shows up
	repo.On("ListByVehicleAndStatuses", mock.Anything, "toyota-hiace", models.ActiveStatuses).
		Return([]*models.Booking{}, nil)
	repo.On("CreateBooking", mock.Anything, mock.Anything).Return(nil)

	svc := newService(repo, nil)
	_, err := svc.SubmitBooking(context.Background(), draft())
	require.NoError(t, err)
}

func TestSubmitBookingValidation(t *testing.T) {
	svc := newService(new(mockRepository), nil)
	ctx := context.Background()

	var vErr *ValidationError

	_, err := svc.SubmitBooking(ctx, nil)
	require.ErrorAs(t, err, &vErr)

	d := draft()
	d.VehicleID = ""
	_, err = svc.SubmitBooking(ctx, d)
	require.ErrorAs(t, err, &vErr)

	d = draft()
	d.StartDate = time.Time{}
	_, err = svc.SubmitBooking(ctx, d)
	require.ErrorAs(t, err, &vErr)

	d = draft()
	d.StartDate, d.EndDate = d.EndDate, d.StartDate
	_, err = svc.SubmitBooking(ctx, d)
	require.ErrorAs(t, err, &vErr)
}

func TestSubmitBookingPublishesEvent(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetVehicleByID", mock.Anything, mock.Anything).
		Return(&models.Vehicle{ID: "toyota-hiace", Name: "Toyota Hiace"}, nil)
	repo.On("ListByVehicleAndStatuses", mock.Anything, mock.Anything, mock.Anything).
		Return([]*models.Booking{}, nil)
	repo.On("CreateBooking", mock.Anything, mock.Anything).Return(nil)

	bus := events.NewEventBus()
	var got events.BookingEventPayload
	bus.Subscribe(events.EventBookingCreated, func(e *events.Event) error {
		p, err := events.DecodeBookingPayload(e)
		if err != nil {
			return err
		}
		got = p
		return nil
	})

	svc := newService(repo, bus)
	created, err := svc.SubmitBooking(context.Background(), draft())
	require.NoError(t, err)

	require.NotNil(t, got.Booking)
	assert.Equal(t, created.Reference, got.Booking.Reference)
}

func TestReviewBookingApproves(t *testing.T) {
	pending := &models.Booking{ID: 5, Reference: "r5", Status: models.StatusPending, Version: 1}
	approved := &models.Booking{ID: 5, Reference: "r5", Status: models.StatusApproved, Version: 2, AdminNote: "ok"}

	repo := new(mockRepository)
	repo.On("GetBooking", mock.Anything, int64(5)).Return(pending, nil).Once()
	repo.On("UpdateBookingStatus", mock.Anything, int64(5), int64(1), models.StatusApproved, "ok").Return(nil)
	repo.On("GetBooking", mock.Anything, int64(5)).Return(approved, nil).Once()

	bus := events.NewEventBus()
	var got events.BookingEventPayload
	bus.Subscribe(events.EventBookingStatusChanged, func(e *events.Event) error {
		p, _ := events.DecodeBookingPayload(e)
		got = p
		return nil
	})

	svc := newService(repo, bus)
	require.NoError(t, svc.ReviewBooking(context.Background(), 5, "approved", "ok"))

	assert.Equal(t, models.StatusPending, got.OldStatus)
	assert.Equal(t, models.StatusApproved, got.NewStatus)
	require.NotNil(t, got.Booking)
	assert.Equal(t, models.StatusApproved, got.Booking.Status)
	repo.AssertExpectations(t)
}

func TestReviewBookingRejectsSecondDecision(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetBooking", mock.Anything, int64(5)).
		Return(&models.Booking{ID: 5, Status: models.StatusApproved, Version: 2}, nil)

	svc := newService(repo, nil)
	err := svc.ReviewBooking(context.Background(), 5, models.StatusRejected, "")

	assert.ErrorIs(t, err, ErrAlreadyReviewed)
	repo.AssertNotCalled(t, "UpdateBookingStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewBookingInvalidDecision(t *testing.T) {
	svc := newService(new(mockRepository), nil)

	var vErr *ValidationError
	assert.ErrorAs(t, svc.ReviewBooking(context.Background(), 5, "MAYBE", ""), &vErr)
	assert.ErrorAs(t, svc.ReviewBooking(context.Background(), 5, models.StatusPending, ""), &vErr)
}

func TestReviewBookingNotFound(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetBooking", mock.Anything, int64(404)).Return(nil, database.ErrBookingNotFound)

	svc := newService(repo, nil)
	err := svc.ReviewBooking(context.Background(), 404, models.StatusApproved, "")
	assert.ErrorIs(t, err, database.ErrBookingNotFound)
}

func TestReviewBookingVersionConflict(t *testing.T) {
	repo := new(mockRepository)
	repo.On("GetBooking", mock.Anything, int64(5)).
		Return(&models.Booking{ID: 5, Status: models.StatusPending, Version: 1}, nil)
	repo.On("UpdateBookingStatus", mock.Anything, int64(5), int64(1), models.StatusApproved, "").
		Return(database.ErrConcurrentModification)

	svc := newService(repo, nil)
	err := svc.ReviewBooking(context.Background(), 5, models.StatusApproved, "")
	assert.ErrorIs(t, err, database.ErrConcurrentModification)
}

func TestCheckAvailability(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListByVehicleAndStatuses", mock.Anything, "toyota-axio", models.ActiveStatuses).
		Return([]*models.Booking{
			{StartDate: day("2025-05-01"), EndDate: day("2025-05-05")},
		}, nil)

	svc := newService(repo, nil)
	ctx := context.Background()

	free, err := svc.CheckAvailability(ctx, "toyota-axio", day("2025-05-06"), day("2025-05-08"))
	require.NoError(t, err)
	assert.True(t, free)

	free, err = svc.CheckAvailability(ctx, "toyota-axio", day("2025-05-05"), day("2025-05-08"))
	require.NoError(t, err)
	assert.False(t, free)

	var vErr *ValidationError
	_, err = svc.CheckAvailability(ctx, "", day("2025-05-06"), day("2025-05-08"))
	assert.ErrorAs(t, err, &vErr)

	_, err = svc.CheckAvailability(ctx, "toyota-axio", day("2025-05-08"), day("2025-05-06"))
	assert.ErrorAs(t, err, &vErr)
}

func TestListByStatusValidatesInput(t *testing.T) {
	repo := new(mockRepository)
	repo.On("ListByStatus", mock.Anything, models.StatusPending).
		Return([]*models.Booking{{ID: 1}}, nil)

	svc := newService(repo, nil)

	got, err := svc.ListByStatus(context.Background(), "pending")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	var vErr *ValidationError
	_, err = svc.ListByStatus(context.Background(), "CANCELLED")
	assert.ErrorAs(t, err, &vErr)
}

func TestVehicleServiceFallback(t *testing.T) {
	logger := zerolog.Nop()

	repo := new(mockRepository)
	repo.On("GetActiveVehicles", mock.Anything).Return([]*models.Vehicle{}, nil)

	svc := NewVehicleService(repo, &logger)
	vehicles, err := svc.ActiveVehicles(context.Background())
	require.NoError(t, err)
	assert.Len(t, vehicles, 3)

	failing := new(mockRepository)
	failing.On("GetActiveVehicles", mock.Anything).Return(nil, errors.New("db down"))

	svc = NewVehicleService(failing, &logger)
	vehicles, err = svc.ActiveVehicles(context.Background())
	require.NoError(t, err)
	assert.Len(t, vehicles, 3)
}

func TestVehicleServiceGetVehicleFallback(t *testing.T) {
	logger := zerolog.Nop()

	repo := new(mockRepository)
	repo.On("GetVehicleByID", mock.Anything, "toyota-axio").Return(nil, database.ErrVehicleNotFound)
	repo.On("GetVehicleByID", mock.Anything, "unknown").Return(nil, database.ErrVehicleNotFound)

	svc := NewVehicleService(repo, &logger)

	v, err := svc.GetVehicle(context.Background(), "toyota-axio")
	require.NoError(t, err)
	assert.Equal(t, "Toyota Axio", v.Name)

	_, err = svc.GetVehicle(context.Background(), "unknown")
	assert.ErrorIs(t, err, database.ErrVehicleNotFound)
}
