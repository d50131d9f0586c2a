package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/sydlexius/audiusq/internal/assistant"
	"github.com/sydlexius/audiusq/internal/audius"
)

// printer writes command results as text for people or JSON for pipes.
type printer struct {
	w    io.Writer
	json bool
}

func newPrinter(w io.Writer, asJSON bool) *printer {
	return &printer{w: w, json: asJSON}
}

func (p *printer) encode(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) line(s string) error {
	_, err := fmt.Fprintln(p.w, s)
	return err
}

func (p *printer) answer(a *assistant.Answer) error {
	if p.json {
		return p.encode(a)
	}
	return p.line(a.Message)
}

func (p *printer) tracks(tracks []audius.Track) error {
	if p.json {
		return p.encode(tracks)
	}
	if len(tracks) == 0 {
		return p.line("no tracks")
	}
	var b strings.Builder
	for i, t := range tracks {
		fmt.Fprintf(&b, "%2d. %s by %s  [%s]  %s plays", //nolint:errcheck
			i+1, t.Title, t.User.Name, duration(t.Duration), humanize.Comma(int64(t.PlayCount)))
		if t.Genre != "" {
			fmt.Fprintf(&b, "  %s", t.Genre) //nolint:errcheck
		}
		fmt.Fprintf(&b, "  (id %s)\n", t.ID) //nolint:errcheck
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *printer) users(users []audius.User) error {
	if p.json {
		return p.encode(users)
	}
	if len(users) == 0 {
		return p.line("no users")
	}
	var b strings.Builder
	for i, u := range users {
		check := ""
		if u.IsVerified {
			check = " ✓"
		}
		fmt.Fprintf(&b, "%2d. %s (@%s)%s  %s followers  %s tracks  (id %s)\n", //nolint:errcheck
			i+1, u.Name, u.Handle, check,
			humanize.Comma(int64(u.FollowerCount)), humanize.Comma(int64(u.TrackCount)), u.ID)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func (p *printer) playlists(playlists []audius.Playlist) error {
	if p.json {
		return p.encode(playlists)
	}
	if len(playlists) == 0 {
		return p.line("no playlists")
	}
	var b strings.Builder
	for i, pl := range playlists {
		kind := "playlist"
		if pl.IsAlbum {
			kind = "album"
		}
		fmt.Fprintf(&b, "%2d. %s by %s  [%s, %s tracks]  %s plays  (id %s)\n", //nolint:errcheck
			i+1, pl.PlaylistName, pl.User.Name, kind,
			humanize.Comma(int64(pl.TrackCount)), humanize.Comma(int64(pl.TotalPlayCount)), pl.ID)
	}
	_, err := io.WriteString(p.w, b.String())
	return err
}

func duration(seconds int) string {
	if seconds <= 0 {
		return "-:--"
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
