// Package brands resolves free-form brand labels emitted by models onto the
// canonical tracked brand names a study declares.
package brands

import "strings"

// Canonicalize maps a free-form label onto one of the tracked brand names, or
// returns ("", false) when no match is plausible. Matching is case-insensitive:
// exact match first, then substring containment in either direction, with ties
// broken by the declared brand order rather than label similarity. Substring
// matching can mis-attribute a label when one tracked name contains another;
// callers that care should declare the more specific brand first.
func Canonicalize(label string, tracked []string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" {
		return "", false
	}

	for _, name := range tracked {
		if strings.ToLower(name) == needle {
			return name, true
		}
	}

	for _, name := range tracked {
		lower := strings.ToLower(name)
		if strings.Contains(needle, lower) || strings.Contains(lower, needle) {
			return name, true
		}
	}

	return "", false
}
