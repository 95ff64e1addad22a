package matcher

import (
	"math"

	"github.com/stylistiq/wardrobe-api/internal/models"
)

// Sub-score weights. The split (45/35/15/5) is a styling design choice, not
// derived from data; changing it keeps the four-factor structure intact.
const (
	weightColor   = 45.0
	weightStyle   = 35.0
	weightPattern = 15.0
	weightSeason  = 5.0
)

// Per-pair color scores within the color sub-score.
const (
	colorExact         = 45.0
	colorNeutral       = 40.0
	colorComplementary = 45.0
	colorAnalogous     = 35.0
	colorBase          = 10.0
)

// Score computes the 0-100 compatibility score between two items. It is
// total over any two well-formed items: missing tag sets count as empty,
// unknown labels fall back to the base rate. Ownership is the caller's
// concern; both items are assumed to belong to the same principal.
func Score(a, b models.ClothingItem) int {
	total := colorScore(a.ColorTags, b.ColorTags) +
		styleScore(a.StyleTags, b.StyleTags) +
		patternScore(a.Pattern, b.Pattern) +
		seasonScore(a.SeasonTags, b.SeasonTags)

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return int(math.Round(total))
}

// colorScore averages per-pair scores across the full cross-product of the
// two color sets. Contributes 0 when either item has no color tags.
func colorScore(colorsA, colorsB []string) float64 {
	a := normalizeSet(colorsA)
	b := normalizeSet(colorsB)
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	var sum float64
	for _, ca := range a {
		for _, cb := range b {
			sum += pairScore(ca, cb)
		}
	}
	return sum / float64(len(a)*len(b))
}

func pairScore(ca, cb string) float64 {
	switch {
	case ca == cb:
		return colorExact
	case IsNeutral(ca) || IsNeutral(cb):
		return colorNeutral
	case Complementary(cb, ca):
		// ca listed as a complement of cb
		return colorComplementary
	case Analogous(ca, cb):
		// cb listed as analogous to ca
		return colorAnalogous
	default:
		return colorBase
	}
}

// styleScore rewards shared occasions with a fixed precedence, then scales
// by overlap for other shared styles.
func styleScore(stylesA, stylesB []string) float64 {
	a := normalizeSet(stylesA)
	b := normalizeSet(stylesB)
	shared := intersect(a, b)

	switch {
	case inSet(shared, "formal"):
		return weightStyle
	case inSet(shared, "business") || inSet(shared, "professional"):
		return 30
	case inSet(shared, "casual"):
		return 25
	case len(shared) > 0:
		larger := len(a)
		if len(b) > larger {
			larger = len(b)
		}
		return float64(len(shared)) / float64(larger) * weightStyle
	default:
		return 10
	}
}

// patternScore treats solids as universally safe, identical prints as risky,
// and mixed prints as workable.
func patternScore(patternA, patternB string) float64 {
	pa := normalizeLabel(patternA)
	pb := normalizeLabel(patternB)
	if pa == "" {
		pa = models.PatternSolid
	}
	if pb == "" {
		pb = models.PatternSolid
	}

	switch {
	case pa == models.PatternSolid || pb == models.PatternSolid:
		return weightPattern
	case pa == pb:
		return 5
	default:
		return 8
	}
}

func seasonScore(seasonsA, seasonsB []string) float64 {
	shared := intersect(normalizeSet(seasonsA), normalizeSet(seasonsB))
	if len(shared) > 0 {
		return weightSeason
	}
	return 0
}

// normalizeSet lowercases, trims, and dedupes while preserving first-seen
// order.
func normalizeSet(labels []string) []string {
	seen := make(map[string]struct{}, len(labels))
	out := make([]string, 0, len(labels))
	for _, raw := range labels {
		label := normalizeLabel(raw)
		if label == "" {
			continue
		}
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	return out
}

func intersect(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, label := range b {
		inB[label] = struct{}{}
	}
	var shared []string
	for _, label := range a {
		if _, ok := inB[label]; ok {
			shared = append(shared, label)
		}
	}
	return shared
}

func inSet(labels []string, target string) bool {
	for _, label := range labels {
		if label == target {
			return true
		}
	}
	return false
}
