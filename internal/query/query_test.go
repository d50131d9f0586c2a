package query

import "testing"

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Entities
	}{
		{"question template", "How many plays does Midnight City by M83 have on Audius?",
			Entities{Primary: "Midnight City", Secondary: "M83"}},
		{"question without platform", "how many plays did Strobe by deadmau5 get?",
			Entities{Primary: "Strobe", Secondary: "deadmau5"}},
		{"multiword metric", "How many total plays has Midnight City by M83 got",
			Entities{Primary: "Midnight City", Secondary: "M83"}},
		{"trailing period", "How many reposts does Heatwave by Solar. have?",
			Entities{Primary: "Heatwave", Secondary: "Solar"}},
		{"loose split", "Midnight City by M83",
			Entities{Primary: "Midnight City", Secondary: "M83"}},
		{"loose with question mark", "Is there a remix of Heatwave by Solar?",
			Entities{Primary: "Is there a remix of Heatwave", Secondary: "Solar"}},
		{"first by wins", "Stand by Me by Ben E. King",
			Entities{Primary: "Stand", Secondary: "Me by Ben E. King"}},
		{"quoted title", `"Midnight City" by M83.`,
			Entities{Primary: "Midnight City", Secondary: "M83"}},
		{"command words", "find the track called Midnight City by M83",
			Entities{Primary: "Midnight City", Secondary: "M83"}},
		{"bare verb kept", "Find Me by Sigma",
			Entities{Primary: "Find Me", Secondary: "Sigma"}},
		{"no by", "  Late Night Drive  ", Entities{Primary: "Late Night Drive"}},
		{"by inside word", "Abbey Road", Entities{Primary: "Abbey Road"}},
		{"empty", "", Entities{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.in)
			if got != tt.want {
				t.Errorf("Extract(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractIsDeterministic(t *testing.T) {
	in := "How many plays does Midnight City by M83 have on Audius?"
	first := Parse(in)
	for i := 0; i < 10; i++ {
		if got := Parse(in); got != first {
			t.Fatalf("Parse changed between calls: %+v vs %+v", first, got)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"find user M83", User},
		{"Find USER named M83", User},
		{"search tracks for Midnight City", Track},
		{"show me the playlist Late Night Drive", Playlist},
		{"users with a track in a playlist", User},
		{"track on a playlist", Track},
		{"who is the artist M83", User},
		{"the artist behind this track", Track},
		{"hello there", Unclassified},
		{"", Unclassified},
	}
	for _, tt := range tests {
		if got := Classify(tt.in); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		intent    Intent
		primary   string
		secondary string
		byPattern bool
		term      string
	}{
		{"play count question", "How many plays does Midnight City by M83 have on Audius?",
			Track, "Midnight City", "M83", true, "Midnight City M83"},
		{"user lookup", "Find user named M83", User, "M83", "", false, "M83"},
		{"playlist lookup", "search playlists for Late Night Drive?",
			Playlist, "Late Night Drive", "", false, "Late Night Drive"},
		{"track keyword with by", "track Midnight City by M83",
			Track, "Midnight City", "M83", true, "Midnight City M83"},
		{"unclassified", "what's the weather like", Unclassified, "what's the weather like", "", false,
			"what's the weather like"},
		{"only keywords", "track", Track, "track", "", false, "track"},
		{"dangling by", "Song by", Unclassified, "Song", "", false, "Song"},
		{"track keyword with dangling by", "find track by?", Track, "find track", "", false, "find track"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.in)
			if p.Intent != tt.intent {
				t.Errorf("intent = %s, want %s", p.Intent, tt.intent)
			}
			if p.Entities.Primary != tt.primary {
				t.Errorf("primary = %q, want %q", p.Entities.Primary, tt.primary)
			}
			if p.Entities.Secondary != tt.secondary {
				t.Errorf("secondary = %q, want %q", p.Entities.Secondary, tt.secondary)
			}
			if p.ByPattern != tt.byPattern {
				t.Errorf("byPattern = %v, want %v", p.ByPattern, tt.byPattern)
			}
			if got := SearchTerm(p); got != tt.term {
				t.Errorf("SearchTerm = %q, want %q", got, tt.term)
			}
		})
	}
}

func TestIsPopularRequest(t *testing.T) {
	tests := map[string]bool{
		"What is the most popular track by M83?": true,
		"most POPULAR tracks by Solar":           true,
		"popular track from M83":                 false,
		"Midnight City by M83":                   false,
		"track popular by M83":                   false,
		"":                                       false,
	}
	for in, want := range tests {
		if got := IsPopularRequest(in); got != want {
			t.Errorf("IsPopularRequest(%q) = %v, want %v", in, got, want)
		}
	}
}
