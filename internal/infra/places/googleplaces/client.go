package googleplaces

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nearbite/nearbite/internal/domain/venue"
)

const defaultBaseURL = "https://places.googleapis.com/v1"

// searchFieldMask keeps the text search response down to IDs; full records
// come from FetchDetails so the detail cache stays the single source of
// venue data.
const searchFieldMask = "places.id"

const detailsFieldMask = "id,displayName,location,rating,userRatingCount," +
	"priceLevel,types,regularOpeningHours,reviews,paymentOptions,editorialSummary"

// Client performs HTTP requests to the Google Places API (v1).
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a Places client.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("places api key cannot be empty")
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

type searchRequest struct {
	TextQuery      string        `json:"textQuery"`
	MaxResultCount int           `json:"maxResultCount"`
	LocationBias   *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type searchResponse struct {
	Places []struct {
		ID string `json:"id"`
	} `json:"places"`
}

// SearchText resolves a free-text query near the bias point into place IDs.
func (c *Client) SearchText(ctx context.Context, query string, bias venue.LatLng, radiusMeters int) ([]string, error) {
	req := searchRequest{
		TextQuery:      query,
		MaxResultCount: 20,
	}
	if !bias.IsZero() {
		req.LocationBias = &locationBias{Circle: circle{
			Center: latLng{Latitude: bias.Lat, Longitude: bias.Lng},
			Radius: float64(radiusMeters),
		}}
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode text search request: %w", err)
	}

	endpoint := c.baseURL + "/places:searchText"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build text search request: %w", err)
	}
	c.setHeaders(httpReq, searchFieldMask)

	var resp searchResponse
	if err := c.do(httpReq, &resp); err != nil {
		return nil, fmt.Errorf("text search %q: %w", query, err)
	}

	ids := make([]string, 0, len(resp.Places))
	for _, p := range resp.Places {
		if p.ID != "" {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

type placeDetail struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	Location        latLng   `json:"location"`
	Rating          float64  `json:"rating"`
	UserRatingCount int      `json:"userRatingCount"`
	PriceLevel      string   `json:"priceLevel"`
	Types           []string `json:"types"`
	OpeningHours    struct {
		OpenNow             bool     `json:"openNow"`
		WeekdayDescriptions []string `json:"weekdayDescriptions"`
	} `json:"regularOpeningHours"`
	Reviews []struct {
		Text struct {
			Text string `json:"text"`
		} `json:"text"`
		Rating                         float64 `json:"rating"`
		RelativePublishTimeDescription string  `json:"relativePublishTimeDescription"`
	} `json:"reviews"`
	PaymentOptions struct {
		AcceptsCashOnly    bool `json:"acceptsCashOnly"`
		AcceptsCreditCards bool `json:"acceptsCreditCards"`
	} `json:"paymentOptions"`
	EditorialSummary struct {
		Text string `json:"text"`
	} `json:"editorialSummary"`
}

// FetchDetails loads the full detail record for one place ID.
func (c *Client) FetchDetails(ctx context.Context, venueID string) (venue.Venue, error) {
	endpoint := c.baseURL + "/places/" + url.PathEscape(venueID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return venue.Venue{}, fmt.Errorf("build details request: %w", err)
	}
	c.setHeaders(httpReq, detailsFieldMask)

	var detail placeDetail
	if err := c.do(httpReq, &detail); err != nil {
		return venue.Venue{}, fmt.Errorf("place details %s: %w", venueID, err)
	}
	return detail.toVenue(), nil
}

func (c *Client) setHeaders(req *http.Request, fieldMask string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", c.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request places api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("places request failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read places response: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode places response: %w", err)
	}
	return nil
}

// priceLevels maps the v1 enum onto the 1..4 ordinal scale the scoring layer
// expects. Unknown or free stays 0.
var priceLevels = map[string]int{
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

func (d placeDetail) toVenue() venue.Venue {
	v := venue.Venue{
		ID:          d.ID,
		Name:        d.DisplayName.Text,
		Location:    venue.LatLng{Lat: d.Location.Latitude, Lng: d.Location.Longitude},
		Rating:      d.Rating,
		RatingCount: d.UserRatingCount,
		PriceLevel:  priceLevels[d.PriceLevel],
		Types:       d.Types,
		OpeningHours: venue.OpeningHours{
			OpenNow:     d.OpeningHours.OpenNow,
			WeekdayText: d.OpeningHours.WeekdayDescriptions,
		},
		Payment: venue.PaymentOptions{
			CashOnly:     d.PaymentOptions.AcceptsCashOnly,
			AcceptsCards: d.PaymentOptions.AcceptsCreditCards,
		},
		Summary: d.EditorialSummary.Text,
	}
	for _, r := range d.Reviews {
		v.Reviews = append(v.Reviews, venue.Review{
			Text:        r.Text.Text,
			Stars:       r.Rating,
			RelativeAge: r.RelativePublishTimeDescription,
		})
	}
	return v
}
