// Package metadata defines the external catalog contract and the logic that
// picks the best candidate for a parsed filename.
package metadata

import (
	"context"

	"github.com/hartfelt/mediakeep/pkg/parse"
)

//go:generate mockgen -source=metadata.go -destination=mocks/metadata_mocks.go -package=mocks

// Kind is the provider's classification of a candidate.
type Kind string

const (
	KindMovie Kind = "movie"
	KindShow  Kind = "show"
)

// Candidate is one normalized provider search result.
type Candidate struct {
	ID         int     `json:"id"`
	Title      string  `json:"title"`
	Year       int     `json:"year,omitempty"`
	Kind       Kind    `json:"kind"`
	PosterURL  string  `json:"posterUrl,omitempty"`
	Popularity float64 `json:"popularity"`
}

// Match is the outcome of candidate selection. OK is false when no candidate
// scored above the similarity floor.
type Match struct {
	Candidate Candidate
	OK        bool
}

// Searcher is the capability a metadata provider has to offer: a search by
// title, optionally narrowed by year and the parser's kind hint. Providers
// return the first result page only.
type Searcher interface {
	Search(ctx context.Context, title string, year *int, hint parse.Kind) ([]Candidate, error)
}
