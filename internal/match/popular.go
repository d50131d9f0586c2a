package match

import (
	"strings"

	"github.com/sydlexius/audiusq/internal/audius"
)

// MostPopular returns the track with the highest play count among tracks
// whose artist contains artist, comparing normalized names. An empty artist
// considers every track. Ties keep the earlier track. It returns nil when
// nothing qualifies.
func MostPopular(tracks []audius.Track, artist string) *audius.Track {
	want := Normalize(artist)
	var best *audius.Track
	for i := range tracks {
		if want != "" && !strings.Contains(Normalize(tracks[i].User.Name), want) {
			continue
		}
		if best == nil || tracks[i].PlayCount > best.PlayCount {
			best = &tracks[i]
		}
	}
	return best
}
