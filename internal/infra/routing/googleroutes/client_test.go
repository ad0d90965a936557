package googleroutes

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nearbite/nearbite/internal/domain/venue"
)

func TestDurationsParsesMatrix(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/distanceMatrix/v2:computeRouteMatrix", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("X-Goog-Api-Key"))

		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		require.NoError(t, json.Unmarshal(body, &req))
		require.Equal(t, "WALK", req["travelMode"])

		w.Write([]byte(`[
			{"originIndex":0,"destinationIndex":1,"duration":"723s","condition":"ROUTE_EXISTS"},
			{"originIndex":0,"destinationIndex":0,"duration":"301s","condition":"ROUTE_EXISTS"},
			{"originIndex":0,"destinationIndex":2,"condition":"ROUTE_NOT_FOUND"}
		]`))
	}))
	defer server.Close()

	client, err := NewClient("test-key", server.URL, time.Second)
	require.NoError(t, err)

	dests := []venue.LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}}
	results, err := client.Durations(context.Background(), venue.LatLng{Lat: 0, Lng: 0}, dests)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.Equal(t, 301, results[0].Seconds)
	require.Equal(t, 723, results[1].Seconds)
	require.False(t, results[2].OK)
}

func TestDurationsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"denied"}`, http.StatusForbidden)
	}))
	defer server.Close()

	client, _ := NewClient("test-key", server.URL, time.Second)
	_, err := client.Durations(context.Background(), venue.LatLng{}, []venue.LatLng{{Lat: 1, Lng: 1}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status=403")
}

func TestParseDuration(t *testing.T) {
	seconds, ok := parseDuration("723s")
	require.True(t, ok)
	require.Equal(t, 723, seconds)

	seconds, ok = parseDuration("88.5s")
	require.True(t, ok)
	require.Equal(t, 88, seconds)

	_, ok = parseDuration("723")
	require.False(t, ok)

	_, ok = parseDuration("")
	require.False(t, ok)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient("", "", time.Second)
	require.Error(t, err)
}
