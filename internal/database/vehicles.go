package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fleetbook/internal/models"
)

func (db *DB) UpsertVehicle(ctx context.Context, vehicle *models.Vehicle) error {
	query := `INSERT INTO vehicles (id, name, category, capacity, price_per_day, active, description, image_url, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(id) DO UPDATE SET
                  name = excluded.name,
                  category = excluded.category,
                  capacity = excluded.capacity,
                  price_per_day = excluded.price_per_day,
                  active = excluded.active,
                  description = excluded.description,
                  image_url = excluded.image_url,
                  updated_at = excluded.updated_at`

	now := time.Now()
	_, err := db.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.Name,
		vehicle.Category,
		vehicle.Capacity,
		vehicle.PricePerDay,
		vehicle.Active,
		vehicle.Description,
		vehicle.ImageURL,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("upsert vehicle: %w", err)
	}
	return nil
}

func (db *DB) GetVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	query := `SELECT id, name, category, capacity, price_per_day, active, description, image_url, created_at, updated_at
              FROM vehicles WHERE id = ?`

	var v models.Vehicle
	err := db.QueryRowContext(ctx, query, id).Scan(
		&v.ID, &v.Name, &v.Category, &v.Capacity, &v.PricePerDay,
		&v.Active, &v.Description, &v.ImageURL, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVehicleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get vehicle: %w", err)
	}
	return &v, nil
}

func (db *DB) GetActiveVehicles(ctx context.Context) ([]*models.Vehicle, error) {
	query := `SELECT id, name, category, capacity, price_per_day, active, description, image_url, created_at, updated_at
              FROM vehicles WHERE active = 1 ORDER BY name ASC`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get active vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*models.Vehicle
	for rows.Next() {
		var v models.Vehicle
		err := rows.Scan(
			&v.ID, &v.Name, &v.Category, &v.Capacity, &v.PricePerDay,
			&v.Active, &v.Description, &v.ImageURL, &v.CreatedAt, &v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return vehicles, nil
}
