// Package query turns a free-form question about Audius into a resource
// intent and the names to search for. Everything here is pure and
// deterministic: the same text always yields the same result.
package query

import (
	"regexp"
	"strings"
)

// Intent is the resource a question is about.
type Intent string

// Intents. Unclassified is a terminal outcome the caller reports back to
// the user; it never defaults to a resource.
const (
	Track        Intent = "track"
	User         Intent = "user"
	Playlist     Intent = "playlist"
	Unclassified Intent = "unclassified"
)

// Entities are the names extracted from a question. Secondary is empty when
// the question names no owner.
type Entities struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

// Parsed is the full analysis of one question.
type Parsed struct {
	Text      string   `json:"text"`
	Intent    Intent   `json:"intent"`
	Entities  Entities `json:"entities"`
	ByPattern bool     `json:"by_pattern"`
}

var (
	// "How many plays does X by Y have on Audius?"
	questionPattern = regexp.MustCompile(`(?i)^\s*how\s+many\s+(?:\S+\s+)+?(?:does|do|did|has)\s+(.+?)\s+by\s+(.+?)\s+(?:have|has|get|got)\b(?:\s+on\s+.+?)?[\s?.!]*$`)

	// "X by Y" anywhere, split at the first " by ".
	loosePattern = regexp.MustCompile(`(?is)^(.+?)\s+by\s+(.+)$`)

	// Leading command words ahead of a loose "X by Y" title. A bare verb is
	// kept so titles like "Find Me" survive.
	leadPattern = regexp.MustCompile(`(?i)^(?:(?:search|find|look\s+up)\s+(?:(?:the|a)\s+)?)?(?:(?:track|song)s?\s+(?:(?:for|named|called)\s+)?|(?:for|named|called)\s+)`)

	popularPattern = regexp.MustCompile(`(?is)popular.*track.*\bby\b`)
)

// keywords are dropped from a search term built from a bare question.
var keywords = map[string]bool{
	"search": true, "find": true, "for": true, "named": true, "called": true,
	"user": true, "users": true, "artist": true, "artists": true,
	"track": true, "tracks": true, "song": true, "songs": true,
	"playlist": true, "playlists": true,
}

// Extract pulls the searched names out of text. It tries the question
// template first, then a loose "X by Y" split, and finally treats the whole
// trimmed input as Primary.
func Extract(text string) Entities {
	e, _ := extract(text)
	return e
}

func extract(text string) (Entities, bool) {
	if m := questionPattern.FindStringSubmatch(text); m != nil {
		primary, secondary := cleanName(m[1], false), cleanName(m[2], false)
		if primary != "" && secondary != "" {
			return Entities{Primary: primary, Secondary: secondary}, true
		}
	}

	if m := loosePattern.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		primary := cleanName(leadPattern.ReplaceAllString(strings.TrimSpace(m[1]), ""), true)
		secondary := cleanName(m[2], true)
		if primary != "" && secondary != "" {
			return Entities{Primary: primary, Secondary: secondary}, true
		}
	}

	return Entities{Primary: strings.TrimSpace(text)}, false
}

// Classify maps text to a resource by case-insensitive substring, checking
// "user", then "track", then "playlist". "artist" counts as a user only
// when none of those appear.
func Classify(text string) Intent {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "user"):
		return User
	case strings.Contains(lower, "track"):
		return Track
	case strings.Contains(lower, "playlist"):
		return Playlist
	case strings.Contains(lower, "artist"):
		return User
	default:
		return Unclassified
	}
}

// Parse classifies and extracts in one pass. A question with no resource
// keyword that still names "X by Y" is about a track. Without a by pattern
// the resource keywords and filler words are stripped from Primary.
func Parse(text string) Parsed {
	entities, byPattern := extract(text)
	intent := Classify(text)
	if intent == Unclassified && byPattern {
		intent = Track
	}
	if !byPattern {
		entities.Primary = stripKeywords(entities.Primary)
	}
	return Parsed{
		Text:      strings.TrimSpace(text),
		Intent:    intent,
		Entities:  entities,
		ByPattern: byPattern,
	}
}

// SearchTerm is the upstream query string for p: the primary name, followed
// by the secondary name when one was extracted.
func SearchTerm(p Parsed) string {
	if p.Entities.Secondary == "" {
		return p.Entities.Primary
	}
	return p.Entities.Primary + " " + p.Entities.Secondary
}

// IsPopularRequest reports whether text asks for the most popular track by
// an artist.
func IsPopularRequest(text string) bool {
	return popularPattern.MatchString(text)
}

// stripKeywords drops resource and filler words. A "by" left dangling at
// either end has nothing to connect and goes too. When only keywords remain
// the input is kept whole.
func stripKeywords(s string) string {
	fields := strings.Fields(s)
	for len(fields) > 0 && strings.EqualFold(fields[0], "by") {
		fields = fields[1:]
	}
	for len(fields) > 0 && strings.EqualFold(strings.TrimRight(fields[len(fields)-1], `?!.`), "by") {
		fields = fields[:len(fields)-1]
	}
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		if keywords[strings.ToLower(strings.Trim(f, `"'?!.,:`))] {
			continue
		}
		kept = append(kept, f)
	}
	if len(kept) == 0 {
		return cleanName(strings.Join(fields, " "), true)
	}
	return cleanName(strings.Join(kept, " "), true)
}

// cleanName trims whitespace, one trailing period and surrounding quotes.
// Loose input may also end in question or exclamation marks.
func cleanName(s string, loose bool) string {
	s = strings.TrimSpace(s)
	if loose {
		s = strings.TrimRight(s, "?! ")
	}
	s = strings.TrimSuffix(s, ".")
	s = strings.TrimSpace(s)
	return unquote(s)
}

func unquote(s string) string {
	pairs := [][2]string{{`"`, `"`}, {`'`, `'`}, {"“", "”"}, {"‘", "’"}}
	for _, p := range pairs {
		if len(s) >= len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
			return strings.TrimSpace(s[len(p[0]) : len(s)-len(p[1])])
		}
	}
	return s
}
