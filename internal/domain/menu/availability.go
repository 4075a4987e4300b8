package menu

import (
	"strings"

	"github.com/chowline/chowline/internal/domain/ingredient"
)

// Derive computes the denormalized availability pair for an item from the
// live state of its referenced ingredients. The reason lists the names of
// unavailable ingredients in reference order, comma-joined, so the result is
// stable for a given ingredient state. A referenced id missing from the map
// counts as unavailable and surfaces by id, making a dangling reference
// visible instead of silently available.
func Derive(ingredientIDs []string, live map[string]*ingredient.Ingredient) (available bool, reason string) {
	if len(ingredientIDs) == 0 {
		return true, ""
	}

	var missing []string
	for _, id := range ingredientIDs {
		ing, ok := live[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case !ing.Available:
			missing = append(missing, ing.Name)
		}
	}

	if len(missing) == 0 {
		return true, ""
	}
	return false, strings.Join(missing, ", ")
}
