// Package assistant answers free-form questions about Audius by parsing
// them, running the matching search and picking the result asked about.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sydlexius/audiusq/internal/audius"
	"github.com/sydlexius/audiusq/internal/match"
	"github.com/sydlexius/audiusq/internal/query"
)

// DefaultLimit is how many results each search asks for.
const DefaultLimit = 10

// Searcher is the subset of *audius.Client the assistant uses.
type Searcher interface {
	SearchTracks(ctx context.Context, params audius.TrackSearch) (*audius.SearchResponse[audius.Track], error)
	SearchUsers(ctx context.Context, params audius.UserSearch) (*audius.SearchResponse[audius.User], error)
	SearchPlaylists(ctx context.Context, params audius.PlaylistSearch) (*audius.SearchResponse[audius.Playlist], error)
}

// Outcome is how a question was resolved.
type Outcome string

// Outcomes. Unclassified and None are answers, not errors.
const (
	OutcomeExact        Outcome = "exact"
	OutcomeClosest      Outcome = "closest"
	OutcomeNone         Outcome = "none"
	OutcomeUnclassified Outcome = "unclassified"
)

// Options configures a Service.
type Options struct {
	// Limit caps results per search. Zero means DefaultLimit.
	Limit int

	// Match controls result selection.
	Match match.Options
}

// Answer is the resolved response to one question.
type Answer struct {
	Question string         `json:"question"`
	Intent   query.Intent   `json:"intent"`
	Entities query.Entities `json:"entities"`
	Outcome  Outcome        `json:"outcome"`
	Popular  bool           `json:"popular,omitempty"`

	Track    *audius.Track    `json:"track,omitempty"`
	User     *audius.User     `json:"user,omitempty"`
	Playlist *audius.Playlist `json:"playlist,omitempty"`

	// Alternatives names other candidates when nothing matched.
	Alternatives []string `json:"alternatives,omitempty"`

	Message string `json:"message"`
}

// Service runs the classify, search and match path for each question.
type Service struct {
	client Searcher
	opts   Options
	logger *slog.Logger
}

// New creates a Service.
func New(client Searcher, opts Options, logger *slog.Logger) *Service {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	return &Service{
		client: client,
		opts:   opts,
		logger: logger.With(slog.String("component", "assistant")),
	}
}

// Ask answers text. Questions that name no resource, and searches that find
// nothing, produce an Answer explaining so. Errors are returned only when
// the upstream could not be reached or answered badly.
func (s *Service) Ask(ctx context.Context, text string) (*Answer, error) {
	p := query.Parse(text)
	a := &Answer{Question: p.Text, Intent: p.Intent, Entities: p.Entities}

	s.logger.Debug("question parsed",
		slog.String("intent", string(p.Intent)),
		slog.String("primary", p.Entities.Primary),
		slog.String("secondary", p.Entities.Secondary),
		slog.Bool("by_pattern", p.ByPattern))

	var err error
	switch {
	case p.Intent == query.Unclassified || p.Entities.Primary == "":
		a.Outcome = OutcomeUnclassified
		a.Message = "I couldn't tell whether you're asking about a track, a user or a playlist. " +
			`Try something like "How many plays does Midnight City by M83 have?"`
	case p.Intent == query.Track && p.Entities.Secondary != "" && query.IsPopularRequest(p.Text):
		err = s.askPopular(ctx, a)
	case p.Intent == query.Track:
		err = s.askTrack(ctx, p, a)
	case p.Intent == query.User:
		err = s.askUser(ctx, p, a)
	case p.Intent == query.Playlist:
		err = s.askPlaylist(ctx, p, a)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("question answered",
		slog.String("intent", string(a.Intent)),
		slog.String("outcome", string(a.Outcome)))
	return a, nil
}

func (s *Service) askTrack(ctx context.Context, p query.Parsed, a *Answer) error {
	resp, err := s.client.SearchTracks(ctx, audius.TrackSearch{Query: query.SearchTerm(p), Limit: s.opts.Limit})
	if err != nil {
		return err
	}
	res := match.Best(p.Entities, resp.Data, s.opts.Match)
	a.Outcome, a.Track = outcome(res), res.Entity
	switch {
	case res.Entity != nil:
		a.Message = withNote(res.Note, trackSummary(*res.Entity))
	default:
		a.Alternatives = names(res.Alternatives)
		a.Message = notFound("tracks", p.Entities, a.Alternatives)
	}
	return nil
}

func (s *Service) askUser(ctx context.Context, p query.Parsed, a *Answer) error {
	resp, err := s.client.SearchUsers(ctx, audius.UserSearch{Query: query.SearchTerm(p), Limit: s.opts.Limit})
	if err != nil {
		return err
	}
	res := match.Best(p.Entities, resp.Data, s.opts.Match)
	a.Outcome, a.User = outcome(res), res.Entity
	switch {
	case res.Entity != nil:
		a.Message = withNote(res.Note, userSummary(*res.Entity))
	default:
		a.Alternatives = names(res.Alternatives)
		a.Message = notFound("users", p.Entities, a.Alternatives)
	}
	return nil
}

func (s *Service) askPlaylist(ctx context.Context, p query.Parsed, a *Answer) error {
	resp, err := s.client.SearchPlaylists(ctx, audius.PlaylistSearch{Query: query.SearchTerm(p), Limit: s.opts.Limit})
	if err != nil {
		return err
	}
	res := match.Best(p.Entities, resp.Data, s.opts.Match)
	a.Outcome, a.Playlist = outcome(res), res.Entity
	switch {
	case res.Entity != nil:
		a.Message = withNote(res.Note, playlistSummary(*res.Entity))
	default:
		a.Alternatives = names(res.Alternatives)
		a.Message = notFound("playlists", p.Entities, a.Alternatives)
	}
	return nil
}

// askPopular searches the artist's tracks and picks the most played one.
func (s *Service) askPopular(ctx context.Context, a *Answer) error {
	artist := a.Entities.Secondary
	a.Popular = true

	resp, err := s.client.SearchTracks(ctx, audius.TrackSearch{Query: artist, Limit: s.opts.Limit})
	if err != nil {
		return err
	}
	best := match.MostPopular(resp.Data, artist)
	if best == nil {
		a.Outcome = OutcomeNone
		a.Message = fmt.Sprintf("I couldn't find any tracks by %q on Audius.", artist)
		return nil
	}
	a.Outcome, a.Track = OutcomeExact, best
	a.Message = fmt.Sprintf("The most popular track by %s on Audius is %q with %s.",
		best.User.Name, best.Title, plural(best.PlayCount, "play"))
	return nil
}

func outcome[T match.Candidate](res match.Result[T]) Outcome {
	switch res.Kind {
	case match.Exact:
		return OutcomeExact
	case match.Closest:
		return OutcomeClosest
	default:
		return OutcomeNone
	}
}

func trackSummary(t audius.Track) string {
	return fmt.Sprintf("%q by %s has %s, %s and %s on Audius.",
		t.Title, t.User.Name,
		plural(t.PlayCount, "play"),
		plural(t.FavoriteCount, "favorite"),
		plural(t.RepostCount, "repost"))
}

func userSummary(u audius.User) string {
	name := u.Name
	if u.Handle != "" {
		name = fmt.Sprintf("%s (@%s)", u.Name, u.Handle)
	}
	return fmt.Sprintf("%s has %s and %s on Audius.",
		name, plural(u.FollowerCount, "follower"), plural(u.TrackCount, "track"))
}

func playlistSummary(p audius.Playlist) string {
	kind := "playlist"
	if p.IsAlbum {
		kind = "album"
	}
	return fmt.Sprintf("The %s %q by %s has %s and %s.",
		kind, p.PlaylistName, p.User.Name,
		plural(p.TrackCount, "track"), plural(p.TotalPlayCount, "play"))
}

func withNote(note, msg string) string {
	if note == "" {
		return msg
	}
	return strings.ToUpper(note[:1]) + note[1:] + ". " + msg
}

func notFound(resource string, e query.Entities, alternatives []string) string {
	what := fmt.Sprintf("%q", e.Primary)
	if e.Secondary != "" {
		what += fmt.Sprintf(" by %q", e.Secondary)
	}
	msg := fmt.Sprintf("I couldn't find any %s matching %s on Audius.", resource, what)
	if len(alternatives) > 0 {
		msg += " Did you mean: " + strings.Join(alternatives, ", ") + "?"
	}
	return msg
}

func names[T match.Candidate](items []T) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.DisplayName())
	}
	return out
}

func plural(n audius.Count, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}
