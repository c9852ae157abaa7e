// Package identity derives the deduplication key of a trace.
//
// An identity is the minute at which a trace starts, rendered as
// `YYYYMMDD - HH:MM`. It is embedded at the start of every uploaded trace's
// description, which is how later runs recognize traces that are already on
// the server. Changing the layout would make every existing upload invisible
// to the duplicate check.
package identity

import (
	"regexp"
	"sort"
	"time"
)

// Layout is the time layout of an identity.
const Layout = "20060102 - 15:04"

// Length is the length in bytes of every identity.
const Length = len(Layout)

var pattern = regexp.MustCompile(`\d{8} - \d{2}:\d{2}`)

// Format returns the identity of a trace that starts at `t`. The time is
// rendered in its own location, without converting it.
func Format(t time.Time) string {
	return t.Format(Layout)
}

// Find returns the first identity embedded in `s`.
func Find(s string) (string, bool) {
	match := pattern.FindString(s)
	return match, match != ""
}

// Valid returns whether `s` is exactly an identity.
func Valid(s string) bool {
	return len(s) == Length && pattern.MatchString(s)
}

// Set is a set of identities.
type Set map[string]struct{}

// NewSet creates a Set containing `ids`.
func NewSet(ids ...string) Set {
	s := Set{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts `id` into the set.
func (s Set) Add(id string) {
	s[id] = struct{}{}
}

// Has returns whether `id` is in the set.
func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the identities in the set in ascending order.
func (s Set) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
