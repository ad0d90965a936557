package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nearbite/nearbite/internal/domain/venue"
	"github.com/nearbite/nearbite/internal/infra/llm/chatgpt"
)

// maxTranslatedQueries caps the AI translator output. Vibe tables may carry
// more queries; the sourcer bounds live provider calls separately.
const maxTranslatedQueries = 3

// Request carries the user's intent inputs.
type Request struct {
	Vibe   Vibe
	Prompt string
	Origin venue.LatLng
}

// Hints are structured signals the translator may attach to its queries.
type Hints struct {
	FreshOnly    bool `json:"freshOnly"`
	TrendingOnly bool `json:"trendingOnly"`
}

// Plan is the ranked query list handed to the candidate sourcer.
type Plan struct {
	Queries []string
	Hints   Hints
}

// Service converts a vibe or free-text prompt into search queries.
type Service interface {
	Plan(ctx context.Context, req Request) Plan
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// Config holds runtime knobs for the planner.
type Config struct {
	Model       string
	Temperature float32
}

type service struct {
	cfg    Config
	client chatClient
	logger *slog.Logger
}

// NewService wires up the intent planner.
func NewService(cfg Config, client chatClient, logger *slog.Logger) Service {
	return &service{
		cfg:    cfg,
		client: client,
		logger: logger.With("component", "intent.planner"),
	}
}

// Plan never fails: every degraded path lands on a usable query list.
func (s *service) Plan(ctx context.Context, req Request) Plan {
	prompt := strings.TrimSpace(req.Prompt)

	// Free text dominates the vibe when both are present.
	if prompt != "" {
		if queries, ok := detectCuisine(prompt); ok {
			s.logger.Info("cuisine rule matched", "prompt", prompt, "queries", queries)
			return Plan{Queries: dedupe(queries)}
		}
		plan := s.translate(ctx, prompt, req)
		if len(plan.Queries) > 0 {
			return plan
		}
		s.logger.Warn("translator empty, using prompt fallback", "prompt", prompt)
		return Plan{Queries: dedupe([]string{prompt, prompt + " restaurant", "restaurant"})}
	}

	return Plan{Queries: dedupe(queriesForVibe(req.Vibe))}
}

func (s *service) translate(ctx context.Context, prompt string, req Request) Plan {
	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:          s.cfg.Model,
		Temperature:    s.cfg.Temperature,
		ResponseFormat: &chatgpt.ResponseFormat{Type: "json_object"},
		Messages: []chatgpt.Message{
			{Role: "system", Content: translatorSystemPrompt},
			{Role: "user", Content: s.buildTranslatorPrompt(prompt, req)},
		},
	})
	if err != nil {
		s.logger.Warn("translator call failed", "error", err)
		return Plan{}
	}
	if len(completion.Choices) == 0 {
		return Plan{}
	}
	plan, err := parseTranslatorReply(completion.Choices[0].Message.Content)
	if err != nil {
		s.logger.Warn("translator reply malformed", "error", err)
		return Plan{}
	}
	return plan
}

const translatorSystemPrompt = "You turn a diner's free-text craving into venue search queries. " +
	"Respond ONLY with minified JSON: {\"queries\":string[],\"freshOnly\":bool,\"trendingOnly\":bool}. " +
	"Return at most 3 short queries suitable for a map text search. Set freshOnly when the user asks " +
	"for newly opened places and trendingOnly when they ask for what is popular right now."

func (s *service) buildTranslatorPrompt(prompt string, req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Craving: %q.", prompt)
	if req.Vibe != VibeNone {
		fmt.Fprintf(&b, " Vibe hint: %s.", req.Vibe)
	}
	if !req.Origin.IsZero() {
		fmt.Fprintf(&b, " The user is near %.3f,%.3f.", req.Origin.Lat, req.Origin.Lng)
	}
	return b.String()
}

func parseTranslatorReply(raw string) (Plan, error) {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	sanitized = strings.Trim(sanitized, "`")

	var wire struct {
		Queries      []string `json:"queries"`
		FreshOnly    bool     `json:"freshOnly"`
		TrendingOnly bool     `json:"trendingOnly"`
	}
	if err := json.Unmarshal([]byte(sanitized), &wire); err != nil {
		return Plan{}, err
	}
	queries := dedupe(wire.Queries)
	if len(queries) > maxTranslatedQueries {
		queries = queries[:maxTranslatedQueries]
	}
	return Plan{
		Queries: queries,
		Hints:   Hints{FreshOnly: wire.FreshOnly, TrendingOnly: wire.TrendingOnly},
	}, nil
}

func dedupe(queries []string) []string {
	out := make([]string, 0, len(queries))
	seen := make(map[string]struct{}, len(queries))
	for _, query := range queries {
		clean := strings.TrimSpace(query)
		if clean == "" {
			continue
		}
		key := strings.ToLower(clean)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, clean)
	}
	return out
}
