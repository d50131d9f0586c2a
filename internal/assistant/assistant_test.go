package assistant

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sydlexius/audiusq/internal/audius"
	"github.com/sydlexius/audiusq/internal/match"
	"github.com/sydlexius/audiusq/internal/query"
	"github.com/sydlexius/audiusq/internal/retry"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// fakeSearcher records queries and serves canned results.
type fakeSearcher struct {
	tracks    []audius.Track
	users     []audius.User
	playlists []audius.Playlist
	err       error

	queries []string
	calls   atomic.Int32
}

func (f *fakeSearcher) SearchTracks(_ context.Context, p audius.TrackSearch) (*audius.SearchResponse[audius.Track], error) {
	f.calls.Add(1)
	f.queries = append(f.queries, "tracks:"+p.Query)
	if f.err != nil {
		return nil, f.err
	}
	return &audius.SearchResponse[audius.Track]{Data: f.tracks}, nil
}

func (f *fakeSearcher) SearchUsers(_ context.Context, p audius.UserSearch) (*audius.SearchResponse[audius.User], error) {
	f.calls.Add(1)
	f.queries = append(f.queries, "users:"+p.Query)
	if f.err != nil {
		return nil, f.err
	}
	return &audius.SearchResponse[audius.User]{Data: f.users}, nil
}

func (f *fakeSearcher) SearchPlaylists(_ context.Context, p audius.PlaylistSearch) (*audius.SearchResponse[audius.Playlist], error) {
	f.calls.Add(1)
	f.queries = append(f.queries, "playlists:"+p.Query)
	if f.err != nil {
		return nil, f.err
	}
	return &audius.SearchResponse[audius.Playlist]{Data: f.playlists}, nil
}

func track(title, artist string, plays int64) audius.Track {
	return audius.Track{
		Title:         title,
		PlayCount:     audius.Count(plays),
		FavoriteCount: 1,
		User:          audius.User{Name: artist},
	}
}

func TestAskPlayCount(t *testing.T) {
	f := &fakeSearcher{tracks: []audius.Track{
		track("Midnight City (Remix)", "M83", 1234567),
		track("Other Song", "Someone", 10),
	}}
	svc := New(f, Options{}, quietLogger())

	a, err := svc.Ask(context.Background(), "How many plays does Midnight City by M83 have on Audius?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if a.Outcome != OutcomeExact {
		t.Errorf("expected exact outcome, got %s", a.Outcome)
	}
	if a.Intent != query.Track {
		t.Errorf("expected track intent, got %s", a.Intent)
	}
	if a.Entities != (query.Entities{Primary: "Midnight City", Secondary: "M83"}) {
		t.Errorf("unexpected entities %+v", a.Entities)
	}
	if a.Track == nil || a.Track.Title != "Midnight City (Remix)" {
		t.Fatalf("unexpected track %+v", a.Track)
	}
	if !strings.Contains(a.Message, "1,234,567 plays") || !strings.Contains(a.Message, "1 favorite and 0 reposts") {
		t.Errorf("unexpected message %q", a.Message)
	}
	if len(f.queries) != 1 || f.queries[0] != "tracks:Midnight City M83" {
		t.Errorf("unexpected searches %v", f.queries)
	}
}

func TestAskClosest(t *testing.T) {
	f := &fakeSearcher{tracks: []audius.Track{track("Something Else", "Other", 42)}}
	svc := New(f, Options{}, quietLogger())

	a, err := svc.Ask(context.Background(), "Midnight City by M83")
	if err != nil {
		t.Fatal(err)
	}
	if a.Outcome != OutcomeClosest || a.Track == nil {
		t.Fatalf("expected closest track, got %s", a.Outcome)
	}
	if !strings.HasPrefix(a.Message, "No exact match for") || !strings.Contains(a.Message, "42 plays") {
		t.Errorf("unexpected message %q", a.Message)
	}
}

func TestAskNoResults(t *testing.T) {
	f := &fakeSearcher{}
	svc := New(f, Options{}, quietLogger())

	a, err := svc.Ask(context.Background(), "Midnight City by M83")
	if err != nil {
		t.Fatalf("no results should not be an error: %v", err)
	}
	if a.Outcome != OutcomeNone || a.Track != nil {
		t.Errorf("expected none outcome, got %s", a.Outcome)
	}
	if !strings.Contains(a.Message, `"Midnight City" by "M83"`) {
		t.Errorf("expected searched names in message, got %q", a.Message)
	}
}

func TestAskStrictOffersAlternatives(t *testing.T) {
	f := &fakeSearcher{tracks: []audius.Track{
		track("A", "x", 1), track("B", "x", 1), track("C", "x", 1), track("D", "x", 1),
	}}
	svc := New(f, Options{Match: match.Options{Strict: true, Alternatives: 2}}, quietLogger())

	a, err := svc.Ask(context.Background(), "Midnight City by M83")
	if err != nil {
		t.Fatal(err)
	}
	if a.Outcome != OutcomeNone {
		t.Fatalf("expected none, got %s", a.Outcome)
	}
	if len(a.Alternatives) != 2 || a.Alternatives[0] != "A" {
		t.Errorf("unexpected alternatives %v", a.Alternatives)
	}
	if !strings.HasSuffix(a.Message, "Did you mean: A, B?") {
		t.Errorf("unexpected message %q", a.Message)
	}
}

func TestAskUnclassified(t *testing.T) {
	f := &fakeSearcher{}
	svc := New(f, Options{}, quietLogger())

	for _, q := range []string{"what's the weather like?", "", "   "} {
		a, err := svc.Ask(context.Background(), q)
		if err != nil {
			t.Fatalf("%q: unclassified should not be an error: %v", q, err)
		}
		if a.Outcome != OutcomeUnclassified {
			t.Errorf("%q: expected unclassified, got %s", q, a.Outcome)
		}
		if a.Message == "" {
			t.Errorf("%q: expected guidance message", q)
		}
	}
	if n := f.calls.Load(); n != 0 {
		t.Errorf("unclassified questions should not search, got %d calls", n)
	}
}

func TestAskUser(t *testing.T) {
	f := &fakeSearcher{users: []audius.User{
		{Name: "M83", Handle: "m83music", FollowerCount: 50210, TrackCount: 40},
	}}
	svc := New(f, Options{}, quietLogger())

	a, err := svc.Ask(context.Background(), "find user named M83")
	if err != nil {
		t.Fatal(err)
	}
	if a.Intent != query.User || a.Outcome != OutcomeExact || a.User == nil {
		t.Fatalf("unexpected answer %+v", a)
	}
	want := "M83 (@m83music) has 50,210 followers and 40 tracks on Audius."
	if a.Message != want {
		t.Errorf("expected %q, got %q", want, a.Message)
	}
	if f.queries[0] != "users:M83" {
		t.Errorf("unexpected search %v", f.queries)
	}
}

func TestAskPlaylist(t *testing.T) {
	f := &fakeSearcher{playlists: []audius.Playlist{
		{PlaylistName: "Late Night Drive", TrackCount: 24, TotalPlayCount: 98211, User: audius.User{Name: "Nightcrawler"}},
	}}
	svc := New(f, Options{}, quietLogger())

	a, err := svc.Ask(context.Background(), "search playlists for Late Night Drive")
	if err != nil {
		t.Fatal(err)
	}
	if a.Outcome != OutcomeExact || a.Playlist == nil {
		t.Fatalf("unexpected answer %+v", a)
	}
	want := `The playlist "Late Night Drive" by Nightcrawler has 24 tracks and 98,211 plays.`
	if a.Message != want {
		t.Errorf("expected %q, got %q", want, a.Message)
	}
}

func TestAskPopular(t *testing.T) {
	f := &fakeSearcher{tracks: []audius.Track{
		track("Wait", "M83", 500),
		track("Midnight City", "M83", 1234567),
		track("Heatwave", "Solar", 9999999),
	}}
	svc := New(f, Options{}, quietLogger())

	a, err := svc.Ask(context.Background(), "What is the most popular track by M83?")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Popular || a.Outcome != OutcomeExact {
		t.Fatalf("expected popular exact answer, got %+v", a)
	}
	if a.Track.Title != "Midnight City" {
		t.Errorf("expected Midnight City, got %q", a.Track.Title)
	}
	if f.queries[0] != "tracks:M83" {
		t.Errorf("expected artist search, got %v", f.queries)
	}
	want := `The most popular track by M83 on Audius is "Midnight City" with 1,234,567 plays.`
	if a.Message != want {
		t.Errorf("expected %q, got %q", want, a.Message)
	}
}

func TestAskPopularNoTracks(t *testing.T) {
	f := &fakeSearcher{tracks: []audius.Track{track("Heatwave", "Solar", 1)}}
	svc := New(f, Options{}, quietLogger())

	a, err := svc.Ask(context.Background(), "most popular track by M83")
	if err != nil {
		t.Fatal(err)
	}
	if a.Outcome != OutcomeNone || a.Track != nil {
		t.Errorf("expected none, got %+v", a)
	}
}

func TestAskSearchError(t *testing.T) {
	upstream := &audius.SearchError{APIError: audius.APIError{Op: "search", Message: "upstream request failed", Status: 503}}
	f := &fakeSearcher{err: upstream}
	svc := New(f, Options{}, quietLogger())

	_, err := svc.Ask(context.Background(), "Midnight City by M83")
	if !errors.Is(err, upstream) {
		t.Errorf("expected upstream error, got %v", err)
	}
	if audius.StatusCode(err) != 503 {
		t.Errorf("expected status 503, got %d", audius.StatusCode(err))
	}
}

func TestAskEndToEnd(t *testing.T) {
	var apiHits atomic.Int32
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		apiHits.Add(1)
		if r.URL.Path != "/v1/tracks/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("query") != "Midnight City M83" {
			t.Errorf("unexpected query %q", r.URL.Query().Get("query"))
		}
		w.Write([]byte(`{"data":[` + //nolint:errcheck
			`{"id":"D7KyD","title":"Midnight City (Remix)","play_count":"1234567","user":{"id":"u1","name":"M83"}},` +
			`{"id":"x","title":"Other Song","play_count":3,"user":{"id":"u2","name":"Someone"}}]}`))
	}))
	defer api.Close()
	discovery := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"data":["` + api.URL + `"]}`)) //nolint:errcheck
	}))
	defer discovery.Close()

	client := audius.New(audius.Options{
		DiscoveryURL: discovery.URL,
		AppName:      "audiusq-test",
		Retry:        retry.Policy{MaxAttempts: 3, BaseDelay: time.Millisecond},
	}, quietLogger())
	svc := New(client, Options{}, quietLogger())

	a, err := svc.Ask(context.Background(), "How many plays does Midnight City by M83 have on Audius?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if a.Outcome != OutcomeExact || a.Track.PlayCount != 1234567 {
		t.Errorf("unexpected answer %+v", a)
	}
	if n := apiHits.Load(); n != 1 {
		t.Errorf("expected 1 API request, got %d", n)
	}
}
