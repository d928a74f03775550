package models

import "time"

// Receipt is the checkout summary handed to the caller once a booking
// completes. It is derived from the booking and its spot and never stored.
type Receipt struct {
	BookingID       string    `json:"bookingId"`
	ParkingSpotName string    `json:"parkingSpotName"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	Duration        string    `json:"duration"`
	TotalCost       int64     `json:"totalCost"`
}
