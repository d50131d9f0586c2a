package audius

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
)

// GetTrack fetches a single track by ID.
func (c *Client) GetTrack(ctx context.Context, id string) (*Track, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, invalidParams("track", &ValidationError{Field: "id", Message: "must be a non-empty string"})
	}

	var track *Track
	err := c.get(ctx, "track", "/v1/tracks/"+url.PathEscape(id), nil, func(body []byte) (err error) {
		track, err = decodeOne[Track]("track", body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return track, nil
}

// TrendingTracks returns the trending chart for the given window and genre.
func (c *Client) TrendingTracks(ctx context.Context, params TrendingParams) ([]Track, error) {
	if err := params.Validate(); err != nil {
		return nil, invalidParams("trending", err)
	}

	values := params.Values()
	var resp *SearchResponse[Track]
	err := c.get(ctx, "trending", "/v1/tracks/trending", values, func(body []byte) (err error) {
		resp, err = decodeList[Track]("trending", body)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Debug("trending fetched",
		slog.String("time", values.Get("time")),
		slog.String("genre", params.Genre),
		slog.Int("results", len(resp.Data)))

	return resp.Data, nil
}
