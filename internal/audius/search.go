package audius

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// Searchable is implemented by each per-resource search component.
type Searchable[T any] interface {
	Search(ctx context.Context, params SearchParams) (*SearchResponse[T], error)
}

// Search validates params, resolves the host and runs the search for the
// resource params names, decoding each result as T. Validation failures
// return a *SearchError before any network call.
func Search[T any](ctx context.Context, c *Client, params SearchParams) (*SearchResponse[T], error) {
	if params == nil {
		return nil, invalidParams("search", &ValidationError{Field: "params", Message: "are required"})
	}
	if err := params.Validate(); err != nil {
		return nil, invalidParams("search", err)
	}

	values := params.Values()
	path := fmt.Sprintf("/v1/%s/search", params.Resource())

	var resp *SearchResponse[T]
	err := c.get(ctx, "search", path, values, func(body []byte) (err error) {
		resp, err = decodeList[T]("search", body)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("search completed",
		slog.String("resource", string(params.Resource())),
		slog.String("query", values.Get("query")),
		slog.Int("results", len(resp.Data)))

	return resp, nil
}

// searcher binds Search to one resource.
type searcher[T any] struct {
	client   *Client
	resource Resource
}

func (s *searcher[T]) Search(ctx context.Context, params SearchParams) (*SearchResponse[T], error) {
	if params != nil && params.Resource() != s.resource {
		return nil, invalidParams("search", &ValidationError{
			Field:   "params",
			Message: fmt.Sprintf("%s parameters cannot search %s", params.Resource(), s.resource),
		})
	}
	return Search[T](ctx, s.client, params)
}

// Tracks returns the track search component.
func (c *Client) Tracks() Searchable[Track] { return c.tracks }

// Users returns the user search component.
func (c *Client) Users() Searchable[User] { return c.users }

// Playlists returns the playlist search component.
func (c *Client) Playlists() Searchable[Playlist] { return c.playlists }

// SearchTracks searches tracks.
func (c *Client) SearchTracks(ctx context.Context, params TrackSearch) (*SearchResponse[Track], error) {
	return c.tracks.Search(ctx, params)
}

// SearchUsers searches users.
func (c *Client) SearchUsers(ctx context.Context, params UserSearch) (*SearchResponse[User], error) {
	return c.users.Search(ctx, params)
}

// SearchPlaylists searches playlists.
func (c *Client) SearchPlaylists(ctx context.Context, params PlaylistSearch) (*SearchResponse[Playlist], error) {
	return c.playlists.Search(ctx, params)
}

// decodeList decodes a {"data": [...], "next_offset": n} envelope. A body
// of any other shape is a malformed response, never an empty result.
func decodeList[T any](op string, body []byte) (*SearchResponse[T], error) {
	var envelope struct {
		Data       json.RawMessage `json:"data"`
		NextOffset *int            `json:"next_offset"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, newSearchError(op, "malformed response", 0, err)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || data[0] != '[' {
		return nil, newSearchError(op, "malformed response: missing data list", 0, nil)
	}

	items := []T{}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, newSearchError(op, "malformed response", 0, err)
	}
	return &SearchResponse[T]{Data: items, NextOffset: envelope.NextOffset}, nil
}

// decodeOne decodes a {"data": {...}} envelope.
func decodeOne[T any](op string, body []byte) (*T, error) {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, newSearchError(op, "malformed response", 0, err)
	}
	data := bytes.TrimSpace(envelope.Data)
	if len(data) == 0 || data[0] != '{' {
		return nil, newSearchError(op, "malformed response: missing data object", 0, nil)
	}

	var item T
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, newSearchError(op, "malformed response", 0, err)
	}
	return &item, nil
}
