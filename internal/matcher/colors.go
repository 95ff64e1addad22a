package matcher

import "strings"

// Static color-harmony knowledge. Labels are free text; anything not in the
// tables falls through to the low base compatibility, never an error.

// complementary maps a hue to the hues sitting opposite it on the wheel.
var complementary = map[string][]string{
	"red":    {"green"},
	"green":  {"red"},
	"blue":   {"orange"},
	"orange": {"blue"},
	"yellow": {"purple", "violet"},
	"purple": {"yellow"},
	"violet": {"yellow"},
	"pink":   {"green", "olive"},
	"olive":  {"pink"},
	"teal":   {"coral"},
	"coral":  {"teal"},
}

// analogous maps a hue to its wheel neighbors.
var analogous = map[string][]string{
	"red":    {"orange", "pink"},
	"orange": {"red", "yellow"},
	"yellow": {"orange", "green"},
	"green":  {"yellow", "teal"},
	"teal":   {"green", "blue"},
	"blue":   {"teal", "purple"},
	"purple": {"blue", "pink"},
	"violet": {"blue", "pink"},
	"pink":   {"purple", "red"},
}

// neutrals harmonize with every other color.
var neutrals = map[string]struct{}{
	"black": {},
	"white": {},
	"gray":  {},
	"beige": {},
	"navy":  {},
	"denim": {},
	"brown": {},
	"cream": {},
}

// IsNeutral reports whether the label names a neutral color.
func IsNeutral(color string) bool {
	_, ok := neutrals[normalizeLabel(color)]
	return ok
}

// Complementary reports whether b appears in a's complementary list.
// The lookup is keyed on a, so it is not guaranteed to be symmetric.
func Complementary(a, b string) bool {
	return contains(complementary[normalizeLabel(a)], normalizeLabel(b))
}

// Analogous reports whether b appears in a's analogous list.
func Analogous(a, b string) bool {
	return contains(analogous[normalizeLabel(a)], normalizeLabel(b))
}

func normalizeLabel(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func contains(list []string, label string) bool {
	for _, candidate := range list {
		if candidate == label {
			return true
		}
	}
	return false
}
