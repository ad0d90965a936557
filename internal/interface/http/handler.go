package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nearbite/nearbite/internal/cache"
	"github.com/nearbite/nearbite/internal/domain/pipeline"
	"github.com/nearbite/nearbite/internal/domain/recommend"
	apperrors "github.com/nearbite/nearbite/pkg/errors"
	"github.com/nearbite/nearbite/pkg/metrics"
)

// HistoryReader lists past runs for the history endpoint.
type HistoryReader interface {
	ListRecent(ctx context.Context, limit int) ([]pipeline.RunRecord, error)
}

// Handler wires the HTTP transport to the discovery pipeline.
type Handler struct {
	orchestrator *pipeline.Orchestrator
	history      HistoryReader
	caches       []*cache.Tiered
	logger       *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(orchestrator *pipeline.Orchestrator, history HistoryReader, caches []*cache.Tiered, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		history:      history,
		caches:       caches,
		logger:       logger.With("component", "http.handler"),
	}
}

// discoveryResponse is the sync endpoint's terminal payload.
type discoveryResponse struct {
	RunID           string                     `json:"runId"`
	State           string                     `json:"state"`
	Message         string                     `json:"message,omitempty"`
	Recommendations []recommend.Recommendation `json:"recommendations,omitempty"`
	Cost            *metrics.CostReport        `json:"cost,omitempty"`
}

// Discover runs the full pipeline and responds with the terminal result.
func (h *Handler) Discover(c *gin.Context) {
	var prefs pipeline.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	events, err := h.orchestrator.Run(c.Request.Context(), prefs)
	if err != nil {
		h.abortPipelineError(c, err)
		return
	}

	var resp discoveryResponse
	for ev := range events {
		resp.RunID = ev.RunID
		switch ev.Type {
		case pipeline.EventResults:
			resp.State = string(pipeline.StateResults)
			resp.Recommendations = ev.Recommendations
			resp.Cost = ev.Cost
		case pipeline.EventNoResults:
			resp.State = string(pipeline.StateNoResults)
			resp.Message = ev.Message
			resp.Cost = ev.Cost
		case pipeline.EventError:
			resp.State = string(pipeline.StateError)
			resp.Message = ev.Error
		}
	}
	if resp.Cost != nil && resp.Cost.IsZero() {
		resp.Cost = nil
	}
	if resp.State == string(pipeline.StateError) {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "discovery_failed", resp.Message, nil))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// DiscoverStream streams pipeline progress using Server-Sent Events.
func (h *Handler) DiscoverStream(c *gin.Context) {
	var prefs pipeline.Preferences
	if err := c.ShouldBindJSON(&prefs); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	events, err := h.orchestrator.Run(c.Request.Context(), prefs)
	if err != nil {
		h.abortPipelineError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	for ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("marshal event failed", "error", err)
			continue
		}
		c.Writer.Write([]byte("data: "))
		c.Writer.Write(payload)
		c.Writer.Write([]byte("\n\n"))
		flusher.Flush()
	}
}

// History returns the newest runs.
func (h *Handler) History(c *gin.Context) {
	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	records, err := h.history.ListRecent(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "history_failed", errMessage(err), err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": records})
}

// CacheStats reports hit/miss counters per logical cache.
func (h *Handler) CacheStats(c *gin.Context) {
	stats := make([]cache.Stats, 0, len(h.caches))
	for _, t := range h.caches {
		stats = append(stats, t.Stats())
	}
	c.JSON(http.StatusOK, gin.H{"caches": stats})
}

// CacheClear resets counters and drops the in-process tier.
func (h *Handler) CacheClear(c *gin.Context) {
	for _, t := range h.caches {
		t.Clear()
	}
	c.Status(http.StatusNoContent)
}

// Health is the liveness probe.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "state": string(h.orchestrator.State())})
}

func (h *Handler) abortPipelineError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := "discovery_failed"
	if apperrors.IsCode(err, "invalid_input") {
		status = http.StatusBadRequest
		code = "invalid_request"
	}
	abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
