package types

import (
	"regexp"
	"strings"
)

// Commodity is a tradeable good. Commodities are effectively static
// reference data, keyed by normalized symbol name.
type Commodity struct {
	Name        string // Normalized symbol, primary key.
	Category    string // e.g. "Metals", "Chemicals".
	DisplayName string // Human-readable name from the data source.
}

var (
	symbolSeparators = regexp.MustCompile(`[\s\-]+`)
	symbolPunct      = regexp.MustCompile(`[.'()\[\],]`)
	symbolCollapse   = regexp.MustCompile(`_+`)
)

// NormalizeSymbol derives a canonical commodity symbol from a display
// name or a feed-provided symbol. Feeds and dumps disagree on hyphens,
// spaces, and punctuation; normalizing both sides lets them meet.
func NormalizeSymbol(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = strings.ReplaceAll(s, "&", "and")
	s = symbolSeparators.ReplaceAllString(s, "_")
	s = symbolPunct.ReplaceAllString(s, "")
	s = symbolCollapse.ReplaceAllString(s, "_")
	return s
}
