package recommend

import (
	"encoding/json"
	"regexp"
	"strings"
)

type recommendationWire struct {
	VenueID         string `json:"venueId"`
	VenueIDSnake    string `json:"venue_id"`
	Reason          string `json:"reason"`
	RecommendedDish string `json:"recommendedDish"`
	DishSnake       string `json:"recommended_dish"`
	IsCashOnly      bool   `json:"isCashOnly"`
}

func (w recommendationWire) id() string {
	if w.VenueID != "" {
		return w.VenueID
	}
	return w.VenueIDSnake
}

func (w recommendationWire) dish() string {
	if w.RecommendedDish != "" {
		return w.RecommendedDish
	}
	return w.DishSnake
}

var trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)

// parseRecommendations decodes the generative service's reply. The model is
// asked for a JSON array but replies can arrive fenced in markdown, carry
// trailing commas, or get truncated mid-array; every recovery path that fails
// yields zero recommendations, never an error.
func parseRecommendations(raw string) []recommendationWire {
	sanitized := stripFences(raw)
	if start := strings.Index(sanitized, "["); start >= 0 {
		sanitized = sanitized[start:]
	} else {
		return nil
	}

	if out, ok := decodeWireArray(sanitized); ok {
		return out
	}
	relaxed := trailingCommaRe.ReplaceAllString(sanitized, "$1")
	if out, ok := decodeWireArray(relaxed); ok {
		return out
	}
	// Last resort: salvage the well-formed prefix of complete objects.
	if prefix := wellFormedPrefix(relaxed); prefix != "" {
		if out, ok := decodeWireArray(prefix); ok {
			return out
		}
	}
	return nil
}

func stripFences(raw string) string {
	sanitized := strings.TrimSpace(raw)
	sanitized = strings.TrimPrefix(sanitized, "```json")
	sanitized = strings.TrimSuffix(sanitized, "```")
	return strings.Trim(strings.TrimSpace(sanitized), "`")
}

func decodeWireArray(payload string) ([]recommendationWire, bool) {
	var out []recommendationWire
	if err := json.Unmarshal([]byte(payload), &out); err != nil {
		return nil, false
	}
	return out, true
}

// wellFormedPrefix walks the array and keeps every complete top-level object,
// returning them re-wrapped as a JSON array.
func wellFormedPrefix(payload string) string {
	var (
		objects  []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i, r := range payload {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			escaped = inString
		case '"':
			inString = !inString
		case '{':
			if inString {
				continue
			}
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if inString {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				objects = append(objects, payload[start:i+1])
				start = -1
			}
		}
	}
	if len(objects) == 0 {
		return ""
	}
	return "[" + strings.Join(objects, ",") + "]"
}
