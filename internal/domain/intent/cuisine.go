package intent

import "strings"

type cuisineRule struct {
	keywords []string
	queries  []string
}

// cuisineRules is checked in order before any AI translation happens; the
// first keyword hit wins. Keeping this rule-based keeps the common cases fast
// and free.
var cuisineRules = []cuisineRule{
	{[]string{"ramen"}, []string{"ramen", "japanese noodle shop", "ramen restaurant"}},
	{[]string{"sushi", "sashimi"}, []string{"sushi", "sushi restaurant", "japanese restaurant"}},
	{[]string{"pizza"}, []string{"pizza", "pizzeria", "italian restaurant"}},
	{[]string{"taco", "tacos", "mexican"}, []string{"tacos", "mexican restaurant", "taqueria"}},
	{[]string{"vegan"}, []string{"vegan restaurant", "plant based food"}},
	{[]string{"vegetarian"}, []string{"vegetarian restaurant", "veggie friendly food"}},
	{[]string{"burger", "burgers"}, []string{"burgers", "burger joint"}},
	{[]string{"korean bbq", "kbbq"}, []string{"korean bbq", "korean restaurant"}},
	{[]string{"thai"}, []string{"thai food", "thai restaurant"}},
	{[]string{"pho", "vietnamese"}, []string{"pho", "vietnamese restaurant"}},
	{[]string{"curry", "indian"}, []string{"indian food", "curry house", "indian restaurant"}},
	{[]string{"dim sum", "dumpling", "dumplings"}, []string{"dim sum", "dumplings", "chinese restaurant"}},
	{[]string{"pasta", "italian"}, []string{"pasta", "italian restaurant", "trattoria"}},
	{[]string{"coffee", "brunch"}, []string{"brunch spot", "coffee shop", "cafe"}},
}

// detectCuisine matches free text against the keyword table and returns the
// cuisine-anchored query set on a hit.
func detectCuisine(prompt string) ([]string, bool) {
	needle := strings.ToLower(prompt)
	for _, rule := range cuisineRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(needle, keyword) {
				return rule.queries, true
			}
		}
	}
	return nil, false
}
