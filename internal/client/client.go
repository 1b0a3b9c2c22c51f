package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/example/carpool/internal/models"
)

// Client is a thin REST client over the carpool API, used by the
// polling viewer and the position reporter.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{BaseURL: baseURL, HTTPClient: &http.Client{Timeout: 5 * time.Second}}
}

func (c *Client) CreateRide(ctx context.Context, in models.RideInput) (models.Ride, error) {
	var out struct {
		Ride models.Ride `json:"ride"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/rides", in, http.StatusCreated, &out); err != nil {
		return models.Ride{}, err
	}
	return out.Ride, nil
}

func (c *Client) ListRides(ctx context.Context) ([]models.Ride, error) {
	var rides []models.Ride
	if err := c.do(ctx, http.MethodGet, "/api/rides", nil, http.StatusOK, &rides); err != nil {
		return nil, err
	}
	return rides, nil
}

func (c *Client) ReportPosition(ctx context.Context, rideID string, lat, lng float64) error {
	body := map[string]float64{"currentLat": lat, "currentLng": lng}
	return c.do(ctx, http.MethodPut, "/api/rides/"+rideID+"/location", body, http.StatusOK, nil)
}

func (c *Client) DeleteRide(ctx context.Context, rideID string) error {
	return c.do(ctx, http.MethodDelete, "/api/rides/"+rideID, nil, http.StatusOK, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body any, wantStatus int, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		if apiErr.Error != "" {
			return fmt.Errorf("api: %s (status %d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("api: unexpected status %d for %s %s", resp.StatusCode, method, path)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
