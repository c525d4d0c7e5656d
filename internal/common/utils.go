package common

import "strings"

// NormalizeCity trims s and collapses internal runs of whitespace into a
// single space. The result is empty for blank input.
func NormalizeCity(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// SameCity reports whether a and b name the same city, ignoring case and
// surrounding whitespace.
func SameCity(a, b string) bool {
	return strings.EqualFold(NormalizeCity(a), NormalizeCity(b))
}
