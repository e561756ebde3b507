package domain

import (
	"slices"
	"strings"
)

// Negotiate resolves a requested version against the ordered set of known
// versions. An exact match short-circuits. Otherwise the first entry (in the
// given order) that contains the requested version as a substring, or is
// contained by it, wins. When nothing matches the requested version is
// returned unchanged; Negotiate never fails.
//
// The substring scan is a deliberate heuristic, not a closest-by-distance
// guarantee: with available = ["1.20", "1.2.0"] a request for "1.2" resolves
// to "1.20" because it comes first. Downstream tooling depends on this
// enumeration-order behavior, so it must not be "improved".
func Negotiate(requested string, available []string) string {
	if slices.Contains(available, requested) {
		return requested
	}

	for _, v := range available {
		if strings.Contains(v, requested) || strings.Contains(requested, v) {
			return v
		}
	}

	return requested
}
