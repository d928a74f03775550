package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"parkhub/internal/models"
)

// Remote fetches spots from the catalog CRUD backend over HTTP.
type Remote struct {
	baseURL string
	client  *http.Client
}

func NewRemote(baseURL string, timeout time.Duration) *Remote {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Remote{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *Remote) GetSpot(ctx context.Context, id string) (*models.ParkingSpot, error) {
	endpoint := fmt.Sprintf("%s/spots/%s", c.baseURL, url.PathEscape(id))

	var spot models.ParkingSpot
	if err := c.getJSON(ctx, endpoint, &spot); err != nil {
		return nil, err
	}
	return &spot, nil
}

func (c *Remote) ListSpots(ctx context.Context) ([]*models.ParkingSpot, error) {
	var spots []*models.ParkingSpot
	if err := c.getJSON(ctx, c.baseURL+"/spots", &spots); err != nil {
		return nil, err
	}
	return spots, nil
}

func (c *Remote) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrSpotNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("catalog returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}
	return nil
}
