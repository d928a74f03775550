package models

import "time"

type Booking struct {
	ID            string     `json:"id"`
	ParkingSpotID string     `json:"parkingSpotId"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       *time.Time `json:"endTime"`
	Status        string     `json:"status"` // active, completed
	TotalCost     *int64     `json:"totalCost"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Active reports whether the booking is still open.
func (b *Booking) Active() bool {
	return b.Status == StatusActive
}

// Consistent reports whether end time and total cost are either both
// unset (active booking) or both set (completed booking).
func (b *Booking) Consistent() bool {
	return (b.EndTime == nil) == (b.TotalCost == nil)
}
