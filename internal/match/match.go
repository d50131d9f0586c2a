// Package match picks the search result a question was asking about.
package match

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sydlexius/audiusq/internal/query"
)

// Candidate is a search result that can be matched by name.
type Candidate interface {
	// DisplayName is the title or name compared with the primary entity.
	DisplayName() string

	// OwnerName is the artist or handle compared with the secondary entity.
	OwnerName() string
}

// Kind is the outcome of a match.
type Kind string

// Match outcomes.
const (
	Exact   Kind = "exact"
	Closest Kind = "closest"
	None    Kind = "none"
)

// DefaultAlternatives is how many candidates a strict None result carries
// when Options leaves Alternatives unset.
const DefaultAlternatives = 3

// Options adjusts Best.
type Options struct {
	// Strict disables the closest-match fallback: without an exact match
	// the result is None, carrying a sample of the candidates.
	Strict bool

	// Alternatives caps the sample on a strict None. Zero means
	// DefaultAlternatives; negative means none.
	Alternatives int
}

// Result is the selected candidate, if any.
type Result[T Candidate] struct {
	Kind Kind

	// Entity is set for Exact and Closest.
	Entity *T

	// Note explains a Closest result.
	Note string

	// Searched and SearchedSecondary echo the names looked for.
	Searched          string
	SearchedSecondary string

	// Alternatives are other candidates offered on None.
	Alternatives []T
}

// Found reports whether a candidate was selected.
func (r Result[T]) Found() bool { return r.Entity != nil }

// Best selects the first candidate, in the order given, whose display name
// contains the primary entity and whose owner contains the secondary one
// when set. Comparison is on normalized text. Without such a candidate the
// first candidate is returned as Closest, unless opts.Strict is set.
func Best[T Candidate](entities query.Entities, candidates []T, opts Options) Result[T] {
	res := Result[T]{
		Searched:          entities.Primary,
		SearchedSecondary: entities.Secondary,
	}
	if len(candidates) == 0 {
		res.Kind = None
		return res
	}

	primary := Normalize(entities.Primary)
	secondary := Normalize(entities.Secondary)
	// An empty name is contained in every candidate and proves nothing.
	for i := 0; primary != "" && i < len(candidates); i++ {
		if !strings.Contains(Normalize(candidates[i].DisplayName()), primary) {
			continue
		}
		if secondary != "" && !strings.Contains(Normalize(candidates[i].OwnerName()), secondary) {
			continue
		}
		res.Kind = Exact
		res.Entity = &candidates[i]
		return res
	}

	if opts.Strict {
		res.Kind = None
		res.Alternatives = sample(candidates, opts.Alternatives)
		return res
	}

	res.Kind = Closest
	res.Entity = &candidates[0]
	res.Note = closestNote(entities, candidates[0])
	return res
}

// Normalize lowercases s, drops every rune that is not a letter, digit,
// underscore or whitespace, and trims the result.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func closestNote[T Candidate](entities query.Entities, c T) string {
	want := fmt.Sprintf("%q", entities.Primary)
	if entities.Secondary != "" {
		want += fmt.Sprintf(" by %q", entities.Secondary)
	}
	got := fmt.Sprintf("%q", c.DisplayName())
	if owner := c.OwnerName(); owner != "" {
		got += fmt.Sprintf(" by %q", owner)
	}
	return fmt.Sprintf("no exact match for %s; closest result is %s", want, got)
}

func sample[T any](candidates []T, n int) []T {
	if n == 0 {
		n = DefaultAlternatives
	}
	if n < 0 {
		return nil
	}
	n = min(n, len(candidates))
	return append([]T(nil), candidates[:n]...)
}
