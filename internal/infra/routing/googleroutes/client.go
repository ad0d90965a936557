package googleroutes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nearbite/nearbite/internal/domain/pipeline"
	"github.com/nearbite/nearbite/internal/domain/venue"
)

const defaultBaseURL = "https://routes.googleapis.com"

const fieldMask = "originIndex,destinationIndex,duration,condition"

// Client calls the Google Routes API route matrix endpoint for walking
// durations.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Routes client.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("routes api key cannot be empty")
	}
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type waypoint struct {
	Waypoint struct {
		Location struct {
			LatLng latLng `json:"latLng"`
		} `json:"location"`
	} `json:"waypoint"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type matrixRequest struct {
	Origins      []waypoint `json:"origins"`
	Destinations []waypoint `json:"destinations"`
	TravelMode   string     `json:"travelMode"`
}

type matrixElement struct {
	OriginIndex      int    `json:"originIndex"`
	DestinationIndex int    `json:"destinationIndex"`
	Duration         string `json:"duration"`
	Condition        string `json:"condition"`
}

func makeWaypoint(p venue.LatLng) waypoint {
	var w waypoint
	w.Waypoint.Location.LatLng = latLng{Latitude: p.Lat, Longitude: p.Lng}
	return w
}

// Durations computes walking times from origin to every destination. Results
// keep destination order; unroutable destinations come back not-OK.
func (c *Client) Durations(ctx context.Context, origin venue.LatLng, dests []venue.LatLng) ([]pipeline.DurationResult, error) {
	if len(dests) == 0 {
		return nil, nil
	}
	req := matrixRequest{
		Origins:    []waypoint{makeWaypoint(origin)},
		TravelMode: "WALK",
	}
	for _, d := range dests {
		req.Destinations = append(req.Destinations, makeWaypoint(d))
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode route matrix request: %w", err)
	}

	endpoint := c.baseURL + "/distanceMatrix/v2:computeRouteMatrix"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build route matrix request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.apiKey)
	httpReq.Header.Set("X-Goog-FieldMask", fieldMask)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request route matrix: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("route matrix request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read route matrix: %w", err)
	}
	var elements []matrixElement
	if err := json.Unmarshal(body, &elements); err != nil {
		return nil, fmt.Errorf("decode route matrix: %w", err)
	}

	out := make([]pipeline.DurationResult, len(dests))
	for _, el := range elements {
		if el.DestinationIndex < 0 || el.DestinationIndex >= len(out) {
			continue
		}
		if el.Condition != "ROUTE_EXISTS" {
			continue
		}
		seconds, ok := parseDuration(el.Duration)
		if !ok {
			continue
		}
		out[el.DestinationIndex] = pipeline.DurationResult{Seconds: seconds, OK: true}
	}
	return out, nil
}

// parseDuration reads the proto duration string form, e.g. "723s".
func parseDuration(raw string) (int, bool) {
	trimmed := strings.TrimSuffix(raw, "s")
	if trimmed == raw || trimmed == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return int(value), true
}
