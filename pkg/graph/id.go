package graph

import "strings"

// CanonicalID normalizes a raw node identifier. Surrounding whitespace is
// trimmed, and purely numeric identifiers are reduced to their minimal
// decimal form so that "007" and "7" name the same product regardless of
// which source padded them. Non-numeric identifiers pass through verbatim.
// An identifier that is empty after trimming canonicalizes to "".
func CanonicalID(raw string) string {
	id := strings.TrimSpace(raw)
	if id == "" {
		return ""
	}

	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return id
		}
	}

	// All digits: strip leading zeros, keeping a single zero for "000".
	trimmed := strings.TrimLeft(id, "0")
	if trimmed == "" {
		return "0"
	}
	return trimmed
}
