package osrm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nearbite/nearbite/internal/domain/venue"
)

func TestDurationsParsesTable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/table/v1/foot/")
		require.Equal(t, "0", r.URL.Query().Get("sources"))
		w.Write([]byte(`{"code":"Ok","durations":[[0,300.4,null,720]]}`))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, time.Second)
	require.NoError(t, err)

	dests := []venue.LatLng{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}, {Lat: 3, Lng: 3}}
	results, err := client.Durations(context.Background(), venue.LatLng{Lat: 0, Lng: 0}, dests)
	require.NoError(t, err)
	require.Len(t, results, 3)
	require.True(t, results[0].OK)
	require.Equal(t, 300, results[0].Seconds)
	require.False(t, results[1].OK, "null cell means unroutable")
	require.Equal(t, 720, results[2].Seconds)
}

func TestDurationsRejectsBadCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":"NoTable"}`))
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, time.Second)
	_, err := client.Durations(context.Background(), venue.LatLng{}, []venue.LatLng{{Lat: 1, Lng: 1}})
	require.Error(t, err)
	require.Contains(t, err.Error(), "NoTable")
}

func TestDurationsRejectsShapeMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"code":"Ok","durations":[[0]]}`))
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, time.Second)
	_, err := client.Durations(context.Background(), venue.LatLng{}, []venue.LatLng{{Lat: 1, Lng: 1}})
	require.Error(t, err)
}

func TestDurationsEmptyDestinations(t *testing.T) {
	client, _ := NewClient("http://localhost:1", time.Second)
	results, err := client.Durations(context.Background(), venue.LatLng{}, nil)
	require.NoError(t, err)
	require.Nil(t, results)
}
