package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nearbite/nearbite/internal/domain/pipeline"
	"github.com/nearbite/nearbite/internal/domain/venue"
)

// Client calls an OSRM table service for walking durations. It is the
// keyless fallback behind the paid matrix provider.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs an OSRM client against the given server, e.g.
// "https://router.project-osrm.org".
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("osrm base url cannot be empty")
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

type tableResponse struct {
	Code      string       `json:"code"`
	Durations [][]*float64 `json:"durations"`
}

// Durations computes walking times from origin to every destination via one
// table call with the origin as the only source.
func (c *Client) Durations(ctx context.Context, origin venue.LatLng, dests []venue.LatLng) ([]pipeline.DurationResult, error) {
	if len(dests) == 0 {
		return nil, nil
	}
	var coords strings.Builder
	fmt.Fprintf(&coords, "%f,%f", origin.Lng, origin.Lat)
	for _, d := range dests {
		fmt.Fprintf(&coords, ";%f,%f", d.Lng, d.Lat)
	}
	endpoint := fmt.Sprintf("%s/table/v1/foot/%s?sources=0&annotations=duration", c.baseURL, coords.String())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build table request: %w", err)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request osrm table: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("osrm table request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read osrm table: %w", err)
	}
	var table tableResponse
	if err := json.Unmarshal(body, &table); err != nil {
		return nil, fmt.Errorf("decode osrm table: %w", err)
	}
	if table.Code != "Ok" {
		return nil, fmt.Errorf("osrm table returned code %q", table.Code)
	}
	if len(table.Durations) == 0 || len(table.Durations[0]) != len(dests)+1 {
		return nil, errors.New("osrm table shape mismatch")
	}

	// Row 0 is the origin; column 0 is origin-to-origin.
	row := table.Durations[0]
	out := make([]pipeline.DurationResult, len(dests))
	for i := range dests {
		cell := row[i+1]
		if cell == nil || *cell < 0 {
			continue
		}
		out[i] = pipeline.DurationResult{Seconds: int(*cell), OK: true}
	}
	return out, nil
}
