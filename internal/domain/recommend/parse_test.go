package recommend

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseRecommendationsPlainArray(t *testing.T) {
	wires := parseRecommendations(`[{"venueId":"a","reason":"r","recommendedDish":"d","isCashOnly":true}]`)
	require.Len(t, wires, 1)
	require.Equal(t, "a", wires[0].id())
	require.Equal(t, "d", wires[0].dish())
	require.True(t, wires[0].IsCashOnly)
}

func TestParseRecommendationsMarkdownFence(t *testing.T) {
	raw := "```json\n[{\"venueId\":\"a\",\"reason\":\"r\"}]\n```"
	wires := parseRecommendations(raw)
	require.Len(t, wires, 1)
}

func TestParseRecommendationsTrailingComma(t *testing.T) {
	wires := parseRecommendations(`[{"venueId":"a","reason":"r",},]`)
	require.Len(t, wires, 1)
	require.Equal(t, "a", wires[0].id())
}

func TestParseRecommendationsSnakeCase(t *testing.T) {
	wires := parseRecommendations(`[{"venue_id":"a","recommended_dish":"pho"}]`)
	require.Len(t, wires, 1)
	require.Equal(t, "a", wires[0].id())
	require.Equal(t, "pho", wires[0].dish())
}

func TestParseRecommendationsTruncatedArrayKeepsPrefix(t *testing.T) {
	raw := `[{"venueId":"a","reason":"ok"},{"venueId":"b","reason":"half`
	wires := parseRecommendations(raw)
	require.Len(t, wires, 1)
	require.Equal(t, "a", wires[0].id())
}

func TestParseRecommendationsSurroundingProse(t *testing.T) {
	raw := "Here you go!\n[{\"venueId\":\"a\",\"reason\":\"r\"}]"
	wires := parseRecommendations(raw)
	require.Len(t, wires, 1)
}

func TestParseRecommendationsGarbage(t *testing.T) {
	require.Nil(t, parseRecommendations("sorry, no picks today"))
	require.Nil(t, parseRecommendations(""))
}
