package models

import "time"

type Vehicle struct {
	ID          string    `yaml:"id" json:"id"`
	Name        string    `yaml:"name" json:"name"`
	Category    string    `yaml:"category" json:"category"`
	Capacity    int64     `yaml:"capacity" json:"capacity"`
	PricePerDay float64   `yaml:"price_per_day" json:"price_per_day"`
	Active      bool      `yaml:"active" json:"active"`
	Description string    `yaml:"description" json:"description"`
	ImageURL    string    `yaml:"image_url" json:"image_url,omitempty"`
	CreatedAt   time.Time `yaml:"created_at" json:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at" json:"updated_at"`
}
