package audius

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Resource names a searchable upstream collection.
type Resource string

// Searchable resources.
const (
	ResourceTracks    Resource = "tracks"
	ResourceUsers     Resource = "users"
	ResourcePlaylists Resource = "playlists"
)

// ID is an upstream identifier. Audius serves opaque string IDs, but older
// responses carry numbers, so both decode.
type ID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Count is the canonical numeric form of every upstream counter. Decoding
// accepts a JSON number or a numeric string.
type Count int64

// UnmarshalJSON accepts a number, a numeric string or null.
func (c *Count) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = 0
		return nil
	}
	raw := string(b)
	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
		if raw == "" {
			*c = 0
			return nil
		}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*c = Count(n)
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("count: cannot parse %q", raw)
	}
	*c = Count(f)
	return nil
}

// Artwork holds the square image variants served for tracks, playlists and
// profile pictures.
type Artwork struct {
	Small  string `json:"150x150,omitempty"`
	Medium string `json:"480x480,omitempty"`
	Large  string `json:"1000x1000,omitempty"`
}

// Best returns the largest available variant.
func (a *Artwork) Best() string {
	if a == nil {
		return ""
	}
	switch {
	case a.Large != "":
		return a.Large
	case a.Medium != "":
		return a.Medium
	default:
		return a.Small
	}
}

// CoverPhoto holds the wide banner variants of a user profile.
type CoverPhoto struct {
	Medium string `json:"640x,omitempty"`
	Large  string `json:"2000x,omitempty"`
}

// User is an Audius account. Artists are users.
type User struct {
	ID             ID          `json:"id"`
	Name           string      `json:"name"`
	Handle         string      `json:"handle"`
	Bio            string      `json:"bio,omitempty"`
	Location       string      `json:"location,omitempty"`
	IsVerified     bool        `json:"is_verified"`
	FollowerCount  Count       `json:"follower_count"`
	FolloweeCount  Count       `json:"followee_count"`
	TrackCount     Count       `json:"track_count"`
	PlaylistCount  Count       `json:"playlist_count"`
	AlbumCount     Count       `json:"album_count"`
	RepostCount    Count       `json:"repost_count"`
	ProfilePicture *Artwork    `json:"profile_picture,omitempty"`
	CoverPhoto     *CoverPhoto `json:"cover_photo,omitempty"`
}

// DisplayName returns the user's name.
func (u User) DisplayName() string { return u.Name }

// OwnerName returns the user's handle.
func (u User) OwnerName() string { return u.Handle }

// Track is a single uploaded track.
type Track struct {
	ID            ID       `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description,omitempty"`
	Genre         string   `json:"genre,omitempty"`
	Mood          string   `json:"mood,omitempty"`
	Tags          string   `json:"tags,omitempty"`
	ReleaseDate   string   `json:"release_date,omitempty"`
	Permalink     string   `json:"permalink,omitempty"`
	Duration      int      `json:"duration"`
	Downloadable  bool     `json:"downloadable"`
	IsStreamable  bool     `json:"is_streamable"`
	PlayCount     Count    `json:"play_count"`
	RepostCount   Count    `json:"repost_count"`
	FavoriteCount Count    `json:"favorite_count"`
	CommentCount  Count    `json:"comment_count"`
	Artwork       *Artwork `json:"artwork,omitempty"`
	User          User     `json:"user"`
}

// UnmarshalJSON decodes a track, taking the play count from "play_count"
// and falling back to the camel-cased "playCount" some payloads use.
func (t *Track) UnmarshalJSON(b []byte) error {
	type plain Track
	aux := struct {
		*plain
		CamelPlayCount *Count `json:"playCount"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if t.PlayCount == 0 && aux.CamelPlayCount != nil {
		t.PlayCount = *aux.CamelPlayCount
	}
	return nil
}

// DisplayName returns the track title.
func (t Track) DisplayName() string { return t.Title }

// OwnerName returns the uploading artist's name.
func (t Track) OwnerName() string { return t.User.Name }

// Playlist is a playlist or album.
type Playlist struct {
	ID             ID       `json:"id"`
	PlaylistName   string   `json:"playlist_name"`
	Description    string   `json:"description,omitempty"`
	Permalink      string   `json:"permalink,omitempty"`
	IsAlbum        bool     `json:"is_album"`
	TrackCount     Count    `json:"track_count"`
	TotalPlayCount Count    `json:"total_play_count"`
	RepostCount    Count    `json:"repost_count"`
	FavoriteCount  Count    `json:"favorite_count"`
	Artwork        *Artwork `json:"artwork,omitempty"`
	User           User     `json:"user"`
}

// DisplayName returns the playlist name.
func (p Playlist) DisplayName() string { return p.PlaylistName }

// OwnerName returns the creator's name.
func (p Playlist) OwnerName() string { return p.User.Name }

// SearchResponse is one page of results in upstream relevance order.
type SearchResponse[T any] struct {
	Data       []T  `json:"data"`
	NextOffset *int `json:"next_offset,omitempty"`
}
