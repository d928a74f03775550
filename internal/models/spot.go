package models

import "fmt"

type ParkingSpot struct {
	ID             string  `yaml:"id" json:"id"`
	Name           string  `yaml:"name" json:"name"`
	Location       string  `yaml:"location" json:"location"`
	HourlyRate     float64 `yaml:"hourly_rate" json:"hourlyRate"`
	TotalSpots     int     `yaml:"total_spots" json:"totalSpots"`
	AvailableSpots int     `yaml:"available_spots" json:"availableSpots"`
	ImageURL       string  `yaml:"image_url" json:"imageUrl"`
}

// Available reports whether the spot has at least one free place.
func (s *ParkingSpot) Available() bool {
	return s.AvailableSpots > 0
}

// Validate checks invariants of a catalog record.
func (s *ParkingSpot) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("spot has empty id")
	}
	if s.Name == "" {
		return fmt.Errorf("spot %s has empty name", s.ID)
	}
	if s.HourlyRate < 0 {
		return fmt.Errorf("spot %s has negative hourly rate", s.ID)
	}
	if s.TotalSpots <= 0 {
		return fmt.Errorf("spot %s has non-positive capacity", s.ID)
	}
	if s.AvailableSpots < 0 || s.AvailableSpots > s.TotalSpots {
		return fmt.Errorf("spot %s has available spots outside [0, %d]", s.ID, s.TotalSpots)
	}
	return nil
}
