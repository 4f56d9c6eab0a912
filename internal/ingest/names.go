package ingest

import (
	"strings"
)

// honorifics stripped from the front of driver names. Exports are wildly
// inconsistent about these ("DR. John Smith" vs "john smith").
var honorifics = map[string]bool{
	"mr":   true,
	"mrs":  true,
	"ms":   true,
	"miss": true,
	"dr":   true,
	"prof": true,
	"eng":  true,
}

// NormalizeDriverName folds a raw driver name into the canonical identity
// key: case-folded, whitespace-collapsed, honorifics stripped, then
// title-cased. "  DR.  john   SMITH " and "John Smith" merge to the same
// DriverRecord.
func NormalizeDriverName(raw string) string {
	words := strings.Fields(strings.ToLower(raw))

	// Strip leading honorifics only; "Mr" as a surname is not a thing we
	// worry about.
	for len(words) > 0 && honorifics[strings.TrimRight(words[0], ".")] {
		words = words[1:]
	}

	for i, w := range words {
		words[i] = titleWord(w)
	}
	return strings.Join(words, " ")
}

func titleWord(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
