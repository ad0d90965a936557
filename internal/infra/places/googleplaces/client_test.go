package googleplaces

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nearbite/nearbite/internal/domain/venue"
)

func TestSearchTextSendsFieldMaskAndParsesIDs(t *testing.T) {
	var gotMask, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/places:searchText", r.URL.Path)
		gotMask = r.Header.Get("X-Goog-FieldMask")
		gotKey = r.Header.Get("X-Goog-Api-Key")
		w.Write([]byte(`{"places":[{"id":"pid-1"},{"id":"pid-2"},{"id":""}]}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, time.Second)
	require.NoError(t, err)

	ids, err := client.SearchText(context.Background(), "ramen", venue.LatLng{Lat: 35.68, Lng: 139.76}, 2500)
	require.NoError(t, err)
	require.Equal(t, []string{"pid-1", "pid-2"}, ids)
	require.Equal(t, "places.id", gotMask)
	require.Equal(t, "test-key", gotKey)
}

func TestFetchDetailsMapsRecord(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/places/pid-1", r.URL.Path)
		w.Write([]byte(`{
			"id": "pid-1",
			"displayName": {"text": "Menya Taro"},
			"location": {"latitude": 35.68, "longitude": 139.76},
			"rating": 4.5,
			"userRatingCount": 120,
			"priceLevel": "PRICE_LEVEL_MODERATE",
			"types": ["restaurant", "point_of_interest"],
			"regularOpeningHours": {
				"openNow": true,
				"weekdayDescriptions": ["Monday: 11:00 AM – 9:00 PM"]
			},
			"reviews": [{
				"text": {"text": "Loved the tsukemen"},
				"rating": 5,
				"relativePublishTimeDescription": "2 weeks ago"
			}],
			"paymentOptions": {"acceptsCashOnly": false, "acceptsCreditCards": true},
			"editorialSummary": {"text": "Beloved noodle spot."}
		}`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, time.Second)
	require.NoError(t, err)

	v, err := client.FetchDetails(context.Background(), "pid-1")
	require.NoError(t, err)
	require.Equal(t, "pid-1", v.ID)
	require.Equal(t, "Menya Taro", v.Name)
	require.Equal(t, 2, v.PriceLevel)
	require.Equal(t, 120, v.RatingCount)
	require.True(t, v.OpeningHours.OpenNow)
	require.True(t, v.Payment.AcceptsCards)
	require.Len(t, v.Reviews, 1)
	require.Equal(t, "2 weeks ago", v.Reviews[0].RelativeAge)
	require.Equal(t, "Beloved noodle spot.", v.Summary)
}

func TestFetchDetailsUnknownPriceLevel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id": "pid-1", "priceLevel": "PRICE_LEVEL_UNSPECIFIED"}`))
	}))
	defer server.Close()

	client, _ := NewClient("test-key", server.URL, time.Second)
	v, err := client.FetchDetails(context.Background(), "pid-1")
	require.NoError(t, err)
	require.Zero(t, v.PriceLevel)
}

func TestSearchTextErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "quota"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client, _ := NewClient("test-key", server.URL, time.Second)
	_, err := client.SearchText(context.Background(), "ramen", venue.LatLng{}, 2500)
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=429")
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("  ", "", time.Second)
	require.Error(t, err)
}
