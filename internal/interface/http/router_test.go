package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nearbite/nearbite/internal/cache"
	"github.com/nearbite/nearbite/internal/domain/intent"
	"github.com/nearbite/nearbite/internal/domain/pipeline"
	"github.com/nearbite/nearbite/internal/domain/recommend"
	"github.com/nearbite/nearbite/internal/domain/venue"
	"github.com/nearbite/nearbite/internal/infra/cachestore"
	"github.com/nearbite/nearbite/internal/infra/config"
	"github.com/nearbite/nearbite/internal/infra/history"
)

func testConfig() *config.Config {
	return &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: 5 * time.Second,
		},
	}
}

type stubPlaces struct{}

func (stubPlaces) SearchText(context.Context, string, venue.LatLng, int) ([]string, error) {
	return []string{"pid-1"}, nil
}

func (stubPlaces) FetchDetails(context.Context, string) (venue.Venue, error) {
	return venue.Venue{
		ID:       "pid-1",
		Name:     "Menya Taro",
		Location: venue.LatLng{Lat: 35.68, Lng: 139.76},
		Rating:   4.5,
		Types:    []string{"restaurant"},
	}, nil
}

type stubRouting struct{}

func (stubRouting) Durations(_ context.Context, _ venue.LatLng, dests []venue.LatLng) ([]pipeline.DurationResult, error) {
	out := make([]pipeline.DurationResult, len(dests))
	for i := range out {
		out[i] = pipeline.DurationResult{Seconds: 420, OK: true}
	}
	return out, nil
}

type stubPlanner struct{}

func (stubPlanner) Plan(context.Context, intent.Request) intent.Plan {
	return intent.Plan{Queries: []string{"ramen"}}
}

type stubSelector struct{}

func (stubSelector) Select(_ context.Context, req recommend.Request) []recommend.Recommendation {
	out := make([]recommend.Recommendation, 0, len(req.Candidates))
	for _, c := range req.Candidates {
		out = append(out, recommend.Recommendation{VenueID: c.Venue.ID, Name: c.Venue.Name, Reason: "close and loved"})
	}
	return out
}

type routerFixture struct {
	server *http.Server
	caches []*cache.Tiered
}

func newRouterUnderTest(t *testing.T) routerFixture {
	t.Helper()
	logger := newTestLogger()
	newTiered := func(name string) *cache.Tiered {
		return cache.NewTiered(name, cachestore.NewMemory(), nil, time.Minute, time.Minute, logger)
	}
	caches := []*cache.Tiered{newTiered("search"), newTiered("details"), newTiered("durations")}

	sourcer := pipeline.NewSourcer(stubPlaces{}, caches[0], caches[1], logger)
	durations := pipeline.NewDurationResolver(stubRouting{}, nil, caches[2], logger)
	recorder := history.NewMemoryRecorder()
	orchestrator := pipeline.NewOrchestrator(pipeline.Config{}, stubPlanner{}, sourcer, durations, stubSelector{}, recorder, logger)

	handler := NewHandler(orchestrator, recorder, caches, logger)
	cfg := testConfig()
	return routerFixture{server: NewRouter(cfg, handler), caches: caches}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const validBody = `{"origin":{"lat":35.681236,"lng":139.767125},"budget":"medium","walkLimit":"15min"}`

func TestRouter_DiscoverSuccess(t *testing.T) {
	fixture := newRouterUnderTest(t)

	rec := performRequest(http.MethodPost, "/api/v1/discoveries", validBody, fixture.server)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		RunID           string                     `json:"runId"`
		State           string                     `json:"state"`
		Recommendations []recommend.Recommendation `json:"recommendations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RunID)
	require.Equal(t, "RESULTS", resp.State)
	require.NotEmpty(t, resp.Recommendations)
	require.Equal(t, "pid-1", resp.Recommendations[0].VenueID)
}

func TestRouter_DiscoverInvalidJSON(t *testing.T) {
	fixture := newRouterUnderTest(t)

	rec := performRequest(http.MethodPost, "/api/v1/discoveries", `{"origin":"not an object"}`, fixture.server)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
}

func TestRouter_DiscoverMissingOrigin(t *testing.T) {
	fixture := newRouterUnderTest(t)

	rec := performRequest(http.MethodPost, "/api/v1/discoveries", `{"budget":"medium"}`, fixture.server)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	errBody := decodeErrorBody(t, rec.Body.Bytes())
	require.Equal(t, "invalid_request", errBody["error"]["code"])
	require.Contains(t, errBody["error"]["message"], "origin")
}

func TestRouter_DiscoverStream(t *testing.T) {
	fixture := newRouterUnderTest(t)

	rec := performRequest(http.MethodPost, "/api/v1/discoveries/stream", validBody, fixture.server)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	frames := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	require.GreaterOrEqual(t, len(frames), 2)

	var last pipeline.Event
	encoded := strings.TrimPrefix(frames[len(frames)-1], "data: ")
	require.NoError(t, json.Unmarshal([]byte(encoded), &last))
	require.Equal(t, pipeline.EventResults, last.Type)
	require.NotEmpty(t, last.Recommendations)
}

func TestRouter_HistoryListsRuns(t *testing.T) {
	fixture := newRouterUnderTest(t)
	performRequest(http.MethodPost, "/api/v1/discoveries", validBody, fixture.server)

	rec := performRequest(http.MethodGet, "/api/v1/history?limit=5", "", fixture.server)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Runs []pipeline.RunRecord `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Runs, 1)
	require.Equal(t, pipeline.StateResults, resp.Runs[0].State)
}

func TestRouter_CacheStatsAndClear(t *testing.T) {
	fixture := newRouterUnderTest(t)
	performRequest(http.MethodPost, "/api/v1/discoveries", validBody, fixture.server)

	rec := performRequest(http.MethodGet, "/api/v1/cache/stats", "", fixture.server)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Caches []cache.Stats `json:"caches"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Caches, 3)

	rec = performRequest(http.MethodPost, "/api/v1/cache/clear", "", fixture.server)
	require.Equal(t, http.StatusNoContent, rec.Code)

	for _, c := range fixture.caches {
		stats := c.Stats()
		require.Zero(t, stats.Hits)
		require.Zero(t, stats.Misses)
	}
}

func TestRouter_Health(t *testing.T) {
	fixture := newRouterUnderTest(t)
	rec := performRequest(http.MethodGet, "/healthz", "", fixture.server)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
}

func performRequest(method, path, body string, server *http.Server) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeErrorBody(t *testing.T, raw []byte) map[string]map[string]string {
	t.Helper()
	var body map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &body))
	return body
}
