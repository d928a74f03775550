package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"parkhub/internal/models"
)

// ErrSpotNotFound is returned when a referenced parking spot does not
// exist in the catalog.
var ErrSpotNotFound = errors.New("parking spot not found")

// Static serves the spot list loaded from configuration. The booking
// core never mutates it; SetSpots replaces the whole set at once.
type Static struct {
	mu     sync.RWMutex
	spots  map[string]models.ParkingSpot
	sorted []models.ParkingSpot
}

func NewStatic(spots []models.ParkingSpot) (*Static, error) {
	c := &Static{}
	if err := c.SetSpots(spots); err != nil {
		return nil, err
	}
	return c, nil
}

// SetSpots validates and installs a new spot set, keeping config order.
func (c *Static) SetSpots(spots []models.ParkingSpot) error {
	byID := make(map[string]models.ParkingSpot, len(spots))
	for i := range spots {
		if err := spots[i].Validate(); err != nil {
			return fmt.Errorf("invalid spot in catalog: %w", err)
		}
		if _, dup := byID[spots[i].ID]; dup {
			return fmt.Errorf("duplicate spot id in catalog: %s", spots[i].ID)
		}
		byID[spots[i].ID] = spots[i]
	}

	c.mu.Lock()
	c.spots = byID
	c.sorted = append([]models.ParkingSpot(nil), spots...)
	c.mu.Unlock()
	return nil
}

func (c *Static) GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error) {
	c.mu.RLock()
	spot, ok := c.spots[id]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrSpotNotFound
	}
	return &spot, nil
}

func (c *Static) ListSpots(ctx context.Context) ([]*models.ParkingSpot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	spots := make([]*models.ParkingSpot, len(c.sorted))
	for i := range c.sorted {
		spot := c.sorted[i]
		spots[i] = &spot
	}
	return spots, nil
}
