package venue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsFoodEstablishment(t *testing.T) {
	require.True(t, IsFoodEstablishment([]string{"point_of_interest", "ramen_restaurant"}))
	require.True(t, IsFoodEstablishment([]string{"cafe"}))
	require.False(t, IsFoodEstablishment([]string{"convenience_store", "gas_station"}))
	require.False(t, IsFoodEstablishment(nil))
}

func TestIsFreshDrop(t *testing.T) {
	fresh := Venue{
		Rating:      4.6,
		RatingCount: 12,
		Reviews: []Review{
			{Text: "great", RelativeAge: "2 weeks ago"},
			{Text: "solid", RelativeAge: "a month ago"},
		},
	}
	require.True(t, fresh.IsFreshDrop())

	established := fresh
	established.Reviews = append(established.Reviews, Review{Text: "old", RelativeAge: "3 years ago"})
	require.False(t, established.IsFreshDrop())

	massMarket := fresh
	massMarket.RatingCount = 900
	require.False(t, massMarket.IsFreshDrop())

	unreviewed := Venue{RatingCount: 0}
	require.False(t, unreviewed.IsFreshDrop())
}
