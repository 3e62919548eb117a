package service

import (
	"context"
	"errors"

	"fleetbook/internal/database"
	"fleetbook/internal/domain"
	"fleetbook/internal/models"

	"github.com/rs/zerolog"
)

// fallbackFleet is served when the store holds no vehicles, so the booking
// form keeps working on a fresh or broken database.
var fallbackFleet = []*models.Vehicle{
	{ID: "deepol-s05", Name: "Deepol S05", Category: "suv", Capacity: 5, Active: true},
	{ID: "toyota-hiace", Name: "Toyota Hiace", Category: "van", Capacity: 12, Active: true},
	{ID: "toyota-axio", Name: "Toyota Axio", Category: "sedan", Capacity: 5, Active: true},
}

// VehicleService exposes the rentable fleet.
type VehicleService struct {
	repo   domain.Repository
	logger zerolog.Logger
}

func NewVehicleService(repo domain.Repository, logger *zerolog.Logger) *VehicleService {
	var l zerolog.Logger
	if logger != nil {
		l = logger.With().Str("component", "vehicle_service").Logger()
	}
	return &VehicleService{repo: repo, logger: l}
}

// SyncFleet upserts the configured vehicles into the store at startup.
func (s *VehicleService) SyncFleet(ctx context.Context, vehicles []models.Vehicle) error {
	for i := range vehicles {
		if err := s.repo.UpsertVehicle(ctx, &vehicles[i]); err != nil {
			return err
		}
	}
	s.logger.Info().Int("count", len(vehicles)).Msg("fleet synced")
	return nil
}

// ActiveVehicles lists vehicles open for booking, falling back to the
// built-in fleet when the store is empty or unreachable.
func (s *VehicleService) ActiveVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	vehicles, err := s.repo.GetActiveVehicles(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("vehicle lookup failed, serving fallback fleet")
		return fallbackFleet, nil
	}
	if len(vehicles) == 0 {
		return fallbackFleet, nil
	}
	return vehicles, nil
}

func (s *VehicleService) GetVehicle(ctx context.Context, id string) (*models.Vehicle, error) {
	v, err := s.repo.GetVehicleByID(ctx, id)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, database.ErrVehicleNotFound) {
		for _, f := range fallbackFleet {
			if f.ID == id {
				return f, nil
			}
		}
	}
	return nil, err
}
