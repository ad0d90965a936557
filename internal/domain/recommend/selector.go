package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/nearbite/nearbite/internal/domain/scoring"
	"github.com/nearbite/nearbite/internal/domain/venue"
	"github.com/nearbite/nearbite/internal/infra/llm/chatgpt"
)

// Service turns ranked candidates into the final recommendation set.
type Service interface {
	Select(ctx context.Context, req Request) []Recommendation
}

type chatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

type service struct {
	cfg     Config
	client  chatClient
	counter tokenCounter
	logger  *slog.Logger
	now     func() time.Time
	shuffle func(n int, swap func(i, j int))
}

// NewService wires up the recommendation selector.
func NewService(cfg Config, client chatClient, logger *slog.Logger) Service {
	return &service{
		cfg:     cfg,
		client:  client,
		counter: newTokenCounter(cfg.Model),
		logger:  logger.With("component", "recommend.selector"),
		now:     time.Now,
		shuffle: rand.Shuffle,
	}
}

// Select asks the generative service for exactly three structured picks and
// backfills algorithmically when it under-delivers. A failed or malformed AI
// reply is an expected outcome, not an error.
func (s *service) Select(ctx context.Context, req Request) []Recommendation {
	if len(req.Candidates) == 0 {
		return nil
	}
	byID := make(map[string]scoring.Candidate, len(req.Candidates))
	for _, c := range req.Candidates {
		byID[c.Venue.ID] = c
	}

	picks := s.askModel(ctx, req, byID)
	aiCount := len(picks)
	picks = backfill(picks, req.Candidates, FinalCount)
	picks = dedupeByVenue(picks)
	if len(picks) == 0 {
		return nil
	}

	// Shuffle so a repeated identical search does not always lead with the
	// same venue.
	s.shuffle(len(picks), func(i, j int) {
		picks[i], picks[j] = picks[j], picks[i]
	})
	if len(picks) > FinalCount {
		picks = picks[:FinalCount]
	}
	s.logger.Info("recommendations selected", "ai", aiCount, "backfilled", len(picks)-aiCount, "total", len(picks))
	return picks
}

func (s *service) askModel(ctx context.Context, req Request, byID map[string]scoring.Candidate) []Recommendation {
	payload := buildPayload(req.Candidates, s.counter, s.cfg.TokenBudget, s.now())
	body, err := json.Marshal(payload)
	if err != nil {
		s.logger.Warn("payload encode failed", "error", err)
		return nil
	}

	completion, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages: []chatgpt.Message{
			{Role: "system", Content: selectorSystemPrompt},
			{Role: "user", Content: s.buildUserPrompt(req, string(body))},
		},
	})
	if err != nil {
		s.logger.Warn("generative call failed, relying on backfill", "error", err)
		return nil
	}
	if len(completion.Choices) == 0 {
		return nil
	}

	wires := parseRecommendations(completion.Choices[0].Message.Content)
	picks := make([]Recommendation, 0, len(wires))
	seen := make(map[string]struct{}, len(wires))
	for _, wire := range wires {
		candidate, ok := byID[wire.id()]
		if !ok {
			// The model invented a venue; drop it to preserve the ID
			// join key.
			continue
		}
		if _, dup := seen[candidate.Venue.ID]; dup {
			continue
		}
		seen[candidate.Venue.ID] = struct{}{}
		picks = append(picks, Recommendation{
			VenueID:         candidate.Venue.ID,
			Name:            candidate.Venue.Name,
			Reason:          strings.TrimSpace(wire.Reason),
			RecommendedDish: pickDish(wire.dish(), candidate.Venue),
			IsCashOnly:      wire.IsCashOnly || candidate.Venue.Payment.CashOnly,
			IsFreshDrop:     candidate.Venue.IsFreshDrop(),
		})
	}
	return picks
}

func pickDish(dish string, v venue.Venue) string {
	if clean := strings.TrimSpace(dish); clean != "" {
		return clean
	}
	return backfillDish(v)
}

const selectorSystemPrompt = "You are a local food concierge. From the candidate venues you are given, " +
	"pick EXACTLY 3 and respond ONLY with a JSON array of objects shaped " +
	"{\"venueId\":string,\"reason\":string,\"recommendedDish\":string,\"isCashOnly\":bool}. " +
	"venueId must be copied verbatim from a candidate. Honor dietary restrictions and the cashless " +
	"requirement strictly; favor the budget band and the stated craving. Reasons are one short sentence."

func (s *service) buildUserPrompt(req Request, payload string) string {
	var b strings.Builder
	b.WriteString("Constraints:")
	if req.Budget != scoring.BudgetAny {
		fmt.Fprintf(&b, " budget=%s.", req.Budget)
	}
	if len(req.Dietary) > 0 {
		fmt.Fprintf(&b, " dietary=%s.", strings.Join(req.Dietary, ", "))
	}
	if req.CashlessOnly {
		b.WriteString(" user cannot pay cash, avoid cash-only venues.")
	}
	if req.FreshOnly {
		b.WriteString(" prefer newly opened venues (is_fresh_drop).")
	}
	if req.TrendingOnly {
		b.WriteString(" prefer trending venues (is_trending).")
	}
	if prompt := strings.TrimSpace(req.Prompt); prompt != "" {
		fmt.Fprintf(&b, " craving=%q.", prompt)
	}
	b.WriteString("\nCandidates: ")
	b.WriteString(payload)
	return b.String()
}

// dedupeByVenue keeps the first occurrence of each venue ID.
func dedupeByVenue(picks []Recommendation) []Recommendation {
	out := make([]Recommendation, 0, len(picks))
	seen := make(map[string]struct{}, len(picks))
	for _, r := range picks {
		if _, ok := seen[r.VenueID]; ok {
			continue
		}
		seen[r.VenueID] = struct{}{}
		out = append(out, r)
	}
	return out
}
