// Package scope derives per-household views of record collections.
package scope

// Scoped records carry the household identifier that partitions visibility.
type Scoped interface {
	Household() string
}

// Project returns the records whose household matches householdID, in
// source order. An empty householdID (no session) matches nothing.
func Project[T Scoped](records []T, householdID string) []T {
	out := []T{}
	if householdID == "" {
		return out
	}
	for _, r := range records {
		if r.Household() == householdID {
			out = append(out, r)
		}
	}
	return out
}
