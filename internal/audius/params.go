package audius

import (
	"net/url"
	"strconv"
	"strings"
)

// SearchParams is implemented by TrackSearch, UserSearch and PlaylistSearch.
type SearchParams interface {
	// Resource returns the collection the parameters search.
	Resource() Resource

	// Validate rejects parameters that can never produce a valid request.
	Validate() error

	// Values serializes every defined parameter as a query-string entry.
	Values() url.Values
}

// TrackSearch searches tracks. Query is required.
type TrackSearch struct {
	Query            string
	Genre            string
	Tags             string
	UserID           ID
	OnlyDownloadable *bool
	Limit            int
	Offset           int
}

// Resource implements SearchParams.
func (p TrackSearch) Resource() Resource { return ResourceTracks }

// Validate implements SearchParams.
func (p TrackSearch) Validate() error { return validateQuery(p.Query) }

// Values implements SearchParams.
func (p TrackSearch) Values() url.Values {
	v := baseValues(p.Query, p.Limit, p.Offset)
	setString(v, "genre", p.Genre)
	setString(v, "tags", p.Tags)
	setString(v, "user_id", string(p.UserID))
	setBool(v, "only_downloadable", p.OnlyDownloadable)
	return v
}

// UserSearch searches users (artists). Query is required.
type UserSearch struct {
	Query        string
	OnlyVerified *bool
	Limit        int
	Offset       int
}

// Resource implements SearchParams.
func (p UserSearch) Resource() Resource { return ResourceUsers }

// Validate implements SearchParams.
func (p UserSearch) Validate() error { return validateQuery(p.Query) }

// Values implements SearchParams.
func (p UserSearch) Values() url.Values {
	v := baseValues(p.Query, p.Limit, p.Offset)
	setBool(v, "only_verified", p.OnlyVerified)
	return v
}

// PlaylistSearch searches playlists and albums. Query is required.
type PlaylistSearch struct {
	Query  string
	UserID ID
	Limit  int
	Offset int
}

// Resource implements SearchParams.
func (p PlaylistSearch) Resource() Resource { return ResourcePlaylists }

// Validate implements SearchParams.
func (p PlaylistSearch) Validate() error { return validateQuery(p.Query) }

// Values implements SearchParams.
func (p PlaylistSearch) Values() url.Values {
	v := baseValues(p.Query, p.Limit, p.Offset)
	setString(v, "user_id", string(p.UserID))
	return v
}

// TrendingPeriod is the window the trending chart covers.
type TrendingPeriod string

// Trending windows accepted upstream.
const (
	TrendingWeek    TrendingPeriod = "week"
	TrendingMonth   TrendingPeriod = "month"
	TrendingYear    TrendingPeriod = "year"
	TrendingAllTime TrendingPeriod = "allTime"
)

// TrendingParams selects a trending chart. An empty Time means a week.
type TrendingParams struct {
	Time  TrendingPeriod
	Genre string
}

// Validate rejects unknown periods.
func (p TrendingParams) Validate() error {
	switch p.Time {
	case "", TrendingWeek, TrendingMonth, TrendingYear, TrendingAllTime:
		return nil
	default:
		return &ValidationError{Field: "time", Message: "must be one of week, month, year, allTime"}
	}
}

// Values serializes the chart selection.
func (p TrendingParams) Values() url.Values {
	v := url.Values{}
	period := p.Time
	if period == "" {
		period = TrendingWeek
	}
	v.Set("time", string(period))
	setString(v, "genre", p.Genre)
	return v
}

func validateQuery(q string) error {
	if strings.TrimSpace(q) == "" {
		return &ValidationError{Field: "query", Message: "must be a non-empty string"}
	}
	return nil
}

func baseValues(query string, limit, offset int) url.Values {
	v := url.Values{"query": {query}}
	if limit > 0 {
		v.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		v.Set("offset", strconv.Itoa(offset))
	}
	return v
}

func setString(v url.Values, key, value string) {
	if value != "" {
		v.Set(key, value)
	}
}

func setBool(v url.Values, key string, value *bool) {
	if value != nil {
		v.Set(key, strconv.FormatBool(*value))
	}
}
