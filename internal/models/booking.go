package models

import "time"

type Booking struct {
	ID              int64      `json:"id"`
	Reference       string     `json:"reference"`
	VehicleID       string     `json:"vehicle_id"`
	VehicleName     string     `json:"vehicle_name"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	Status          string     `json:"status"` // PENDING, APPROVED, REJECTED
	CustomerName    string     `json:"customer_name"`
	CustomerEmail   string     `json:"customer_email"`
	PickupLocation  string     `json:"pickup_location"`
	DropoffLocation string     `json:"dropoff_location"`
	AdminNote       string     `json:"admin_note,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	Version         int64      `json:"version"`
}
