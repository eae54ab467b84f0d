// Package geocode provides reverse-geocoding clients behind the
// location.Geocoder interface.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Google reverse-geocodes coordinates against a Google-style geocoding
// endpoint: GET {base}/json?latlng=<lat>,<lng>&key=<key>, response
// {"status": ..., "results": [{"formatted_address": ...}]}.
type Google struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewGoogle returns a client for the endpoint rooted at baseURL. A nil
// httpClient falls back to http.DefaultClient.
func NewGoogle(baseURL, apiKey string, httpClient *http.Client) *Google {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Google{baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, http: httpClient}
}

// ReverseGeocode resolves coordinates to a formatted address.
// POST: found is true only when the response status is "OK" and at least
// one result is present; any transport or HTTP failure returns an error.
func (g *Google) ReverseGeocode(ctx context.Context, lat, lng float64) (string, bool, error) {
	q := url.Values{}
	q.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	q.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/json?"+q.Encode(), nil)
	if err != nil {
		return "", false, fmt.Errorf("build geocode request: %w", err)
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return "", false, fmt.Errorf("call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", false, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var payload struct {
		Status  string `json:"status"`
		Results []struct {
			FormattedAddress string `json:"formatted_address"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", false, fmt.Errorf("decode geocode response: %w", err)
	}

	if payload.Status != "OK" || len(payload.Results) == 0 {
		return "", false, nil
	}
	return payload.Results[0].FormattedAddress, true, nil
}

// Static is a geocoder that always returns the same address. Used in
// development when no API key is configured.
type Static struct {
	Address string
}

// ReverseGeocode returns the fixed address, or not-found when it is empty.
func (s Static) ReverseGeocode(_ context.Context, _, _ float64) (string, bool, error) {
	if s.Address == "" {
		return "", false, nil
	}
	return s.Address, true, nil
}
