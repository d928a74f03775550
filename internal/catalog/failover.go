package catalog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"parkhub/internal/domain"
	"parkhub/internal/models"

	"github.com/rs/zerolog"
)

// Failover reads from the remote catalog and falls back to the static
// config catalog while the remote is down. NotFound answers from the
// primary are trusted, only transport failures trip the fallback.
type Failover struct {
	primary  domain.CatalogSource
	fallback domain.CatalogSource
	logger   *zerolog.Logger

	isDown    atomic.Bool
	mu        sync.Mutex
	lastCheck time.Time
}

const recoveryInterval = time.Minute

func NewFailover(primary, fallback domain.CatalogSource, logger *zerolog.Logger) *Failover {
	return &Failover{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (c *Failover) GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error) {
	if c.tryPrimary() {
		spot, err := c.primary.GetSpot(ctx, id)
		if err == nil || errors.Is(err, ErrSpotNotFound) {
			return spot, err
		}
		c.markDown(err)
	}
	return c.fallback.GetSpot(ctx, id)
}

func (c *Failover) ListSpots(ctx context.Context) ([]*models.ParkingSpot, error) {
	if c.tryPrimary() {
		spots, err := c.primary.ListSpots(ctx)
		if err == nil {
			return spots, nil
		}
		c.markDown(err)
	}
	return c.fallback.ListSpots(ctx)
}

// tryPrimary reports whether the next call should hit the primary,
// re-probing it once per recovery interval after a failure.
func (c *Failover) tryPrimary() bool {
	if !c.isDown.Load() {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if time.Since(c.lastCheck) > recoveryInterval {
		c.lastCheck = time.Now()
		c.isDown.Store(false)
		return true
	}
	return false
}

func (c *Failover) markDown(err error) {
	c.logger.Error().Err(err).Msg("remote catalog failed, falling back to static spots")
	c.mu.Lock()
	c.lastCheck = time.Now()
	c.mu.Unlock()
	c.isDown.Store(true)
}
