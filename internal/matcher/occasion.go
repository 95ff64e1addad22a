package matcher

import "math/rand"

// Occasion labels attached to a match result, chosen by style-tag precedence.
// Cosmetic only; the pairing itself never depends on the label.

const occasionDefault = "Everyday Wear"

var (
	occasionsFormal   = []string{"Gala Evening", "Wedding Guest", "Black-Tie Dinner", "Award Ceremony"}
	occasionsBusiness = []string{"Client Meeting", "Job Interview", "Team Presentation"}
	occasionsStylish  = []string{"Dinner Date", "Cocktail Hour", "Gallery Opening"}
	occasionsCasual   = []string{"Weekend Brunch", "Coffee Run", "Movie Night"}
)

// occasionFor picks a label from the union of both items' style tags.
// Precedence: formal, then business/professional, then stylish/chic/elegant,
// then casual, then the default.
func occasionFor(styles []string, rng *rand.Rand) string {
	set := normalizeSet(styles)

	var pool []string
	switch {
	case inSet(set, "formal"):
		pool = occasionsFormal
	case inSet(set, "business") || inSet(set, "professional"):
		pool = occasionsBusiness
	case inSet(set, "stylish") || inSet(set, "chic") || inSet(set, "elegant"):
		pool = occasionsStylish
	case inSet(set, "casual"):
		pool = occasionsCasual
	default:
		return occasionDefault
	}

	return pool[rng.Intn(len(pool))]
}
