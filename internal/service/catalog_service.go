package service

import (
	"context"

	"parkhub/internal/domain"
	"parkhub/internal/models"

	"github.com/rs/zerolog"
)

// CatalogService exposes the spot catalog to the API layer. All reads go
// through the configured source; failover between sources happens below
// this level.
type CatalogService struct {
	source domain.CatalogSource
	logger *zerolog.Logger
}

func NewCatalogService(source domain.CatalogSource, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{source: source, logger: logger}
}

func (s *CatalogService) GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error) {
	return s.source.GetSpot(ctx, id)
}

func (s *CatalogService) ListSpots(ctx context.Context) ([]*models.ParkingSpot, error) {
	spots, err := s.source.ListSpots(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list spots error")
		return nil, err
	}
	return spots, nil
}
