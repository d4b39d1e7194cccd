package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"courierplan/internal/logging"
	"courierplan/internal/opt"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Geocode resolves a free-text address to its best match. country, when
// set, is an ISO 3166-1 alpha-2 code restricting the search.
func (c *Client) Geocode(ctx context.Context, address, country string) (_ opt.Point, err error) {
	defer logging.Time(ctx, "routing.Geocode")(&err)

	norm := strings.Join(strings.Fields(address), " ")
	if norm == "" {
		return opt.Point{}, fmt.Errorf("geocode: address must be non-empty")
	}

	endpoint := c.baseURL + "/geocode/search"
	resp, err := c.doWithRetry(ctx, "geocode", func() (*http.Request, error) {
		req, err := c.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("size", "1")
		if country != "" {
			q.Set("boundary.country", country)
		}
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		return opt.Point{}, fmt.Errorf("geocode %q: %w", norm, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return opt.Point{}, fmt.Errorf("decode geocode response: %w", err)
	}
	if len(decoded.Features) == 0 {
		return opt.Point{}, fmt.Errorf("geocode %q: %w", norm, ErrNoResult)
	}
	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return opt.Point{}, fmt.Errorf("geocode %q: invalid coordinate format", norm)
	}
	return opt.Point{Lat: coords[1], Lng: coords[0]}, nil
}
