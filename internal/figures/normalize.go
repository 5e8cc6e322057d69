// Package figures holds the name canonicalization used for every
// cache, stats, and lookup key. Callers must never build keys from raw
// input directly: casing and whitespace variants of the same name have
// to collide on one record.
package figures

import "strings"

// Normalize maps a raw figure name to its canonical key form:
// lowercase, trimmed, with internal whitespace runs collapsed to a
// single space. Deterministic, total, and idempotent.
func Normalize(raw string) string {
	fields := strings.Fields(strings.ToLower(raw))
	return strings.Join(fields, " ")
}
