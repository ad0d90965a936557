package venue

// foodTypes is the allow-list used to weed out convenience stores, gyms and
// other places a provider keyword search can leak in.
var foodTypes = map[string]struct{}{
	"restaurant":            {},
	"food":                  {},
	"cafe":                  {},
	"coffee_shop":           {},
	"bakery":                {},
	"bar":                   {},
	"meal_takeaway":         {},
	"meal_delivery":         {},
	"fast_food_restaurant":  {},
	"sandwich_shop":         {},
	"ice_cream_shop":        {},
	"dessert_shop":          {},
	"ramen_restaurant":      {},
	"sushi_restaurant":      {},
	"pizza_restaurant":      {},
	"vegan_restaurant":      {},
	"vegetarian_restaurant": {},
	"food_court":            {},
	"brunch_restaurant":     {},
	"breakfast_restaurant":  {},
}

// IsFoodEstablishment reports whether any of the venue's category tags
// intersects the food allow-list.
func IsFoodEstablishment(types []string) bool {
	for _, t := range types {
		if _, ok := foodTypes[t]; ok {
			return true
		}
	}
	return false
}
