package models

import (
	"time"

	"github.com/hyperjump/viie/internal/vector"
)

// SearchResult is a single ranked hit.
type SearchResult struct {
	Rank  int     `json:"rank"`
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Collection string          `json:"collection"`
	Results    []*SearchResult `json:"results"`
	QueryTime  int64           `json:"query_time_ms"`
}

// NewSearchResponse ranks results from 1 in the order given.
func NewSearchResponse(collection string, results []vector.Result, took time.Duration) *SearchResponse {
	out := make([]*SearchResult, len(results))
	for i, r := range results {
		out[i] = &SearchResult{Rank: i + 1, ID: r.ID, Score: r.Score}
	}
	return &SearchResponse{Collection: collection, Results: out, QueryTime: took.Milliseconds()}
}
