// Package tmdb adapts The Movie Database search API to the metadata.Searcher
// contract. Only the first page of results is ever requested.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	mhttp "github.com/hartfelt/mediakeep/pkg/http"
	"github.com/hartfelt/mediakeep/pkg/logger"
	"github.com/hartfelt/mediakeep/pkg/metadata"
	"github.com/hartfelt/mediakeep/pkg/parse"
)

const (
	DefaultImageHost = "https://image.tmdb.org"
	posterSize       = "w500"
)

var _ metadata.Searcher = (*Client)(nil)

// Client is a search-only TMDB API client.
type Client struct {
	baseURL   string
	imageHost string
	apiKey    string
	timeout   time.Duration
	http      mhttp.HTTPClient
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the http client used for API calls
func WithHTTPClient(client mhttp.HTTPClient) Option {
	return func(c *Client) {
		c.http = client
	}
}

// WithTimeout bounds each search call
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithImageHost overrides the host poster URLs are built against
func WithImageHost(host string) Option {
	return func(c *Client) {
		c.imageHost = host
	}
}

// New creates a TMDB client. By default requests go through a retrying
// client so a transient provider failure costs one backoff, not the upload.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:   baseURL,
		imageHost: DefaultImageHost,
		apiKey:    apiKey,
		timeout:   time.Second * 10,
		http:      mhttp.NewRetryClient(mhttp.WithMaxRetries(2)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type searchResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	MediaType    string  `json:"media_type"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   string  `json:"poster_path"`
	Popularity   float64 `json:"popularity"`
}

type searchResponse struct {
	Page    int            `json:"page"`
	Results []searchResult `json:"results"`
}

// Search queries the endpoint matching the kind hint and normalizes the
// first result page into candidates. An unknown hint searches across both
// movies and tv via the multi endpoint.
func (c *Client) Search(ctx context.Context, title string, year *int, hint parse.Kind) ([]metadata.Candidate, error) {
	log := logger.FromCtx(ctx)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	path := "/3/search/multi"
	params := url.Values{}
	params.Set("query", title)
	params.Set("page", "1")
	params.Set("include_adult", "false")

	switch hint {
	case parse.KindMovie:
		path = "/3/search/movie"
		if year != nil {
			params.Set("year", strconv.Itoa(*year))
		}
	case parse.KindEpisode:
		path = "/3/search/tv"
		if year != nil {
			params.Set("first_air_date_year", strconv.Itoa(*year))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("searching %q: %w", title, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("searching %q: unexpected status %s", title, res.Status)
	}

	var sr searchResponse
	if err := json.NewDecoder(res.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	log.Debugw("tmdb search", "title", title, "path", path, "results", len(sr.Results))

	candidates := make([]metadata.Candidate, 0, len(sr.Results))
	for _, r := range sr.Results {
		candidate, ok := c.normalize(r, hint)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, nil
}

// normalize maps a raw result onto the provider-agnostic candidate shape.
// Multi-search results that are neither movie nor tv (people) are dropped.
func (c *Client) normalize(r searchResult, hint parse.Kind) (metadata.Candidate, bool) {
	kind := metadata.KindMovie
	switch {
	case r.MediaType == "tv" || (r.MediaType == "" && hint == parse.KindEpisode):
		kind = metadata.KindShow
	case r.MediaType == "movie" || (r.MediaType == "" && hint != parse.KindEpisode):
		kind = metadata.KindMovie
	default:
		return metadata.Candidate{}, false
	}

	title := r.Title
	date := r.ReleaseDate
	if kind == metadata.KindShow {
		title = r.Name
		date = r.FirstAirDate
	}
	if title == "" {
		return metadata.Candidate{}, false
	}

	candidate := metadata.Candidate{
		ID:         r.ID,
		Title:      title,
		Kind:       kind,
		Popularity: r.Popularity,
	}

	if len(date) >= 4 {
		if year, err := strconv.Atoi(date[:4]); err == nil {
			candidate.Year = year
		}
	}

	if r.PosterPath != "" {
		candidate.PosterURL = fmt.Sprintf("%s/t/p/%s%s", c.imageHost, posterSize, r.PosterPath)
	}

	return candidate, true
}
