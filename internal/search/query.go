package search

import (
	"context"
	"errors"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search query.
type Params struct {
	Query  string
	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{
		Limit:  20,
		Offset: 0,
	}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single search result.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	Authors    string            `json:"authors,omitempty"`
	ISBN       string            `json:"isbn,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// ErrNoIndex is returned by Search when the user has no built index yet.
// Callers rebuild from a complete listing and retry.
var ErrNoIndex = errors.New("no search index built for user")

// Search executes a query against the user's index. Returns ErrNoIndex when
// no index is built for the user.
func (c *Catalog) Search(ctx context.Context, userID string, params Params) (*Result, error) {
	c.mu.RLock()
	index, ok := c.indexes[userID]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrNoIndex
	}

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	searchRequest.SortBy([]string{"-_score"})
	searchRequest.Fields = []string{"id", "title", "authors", "isbn"}

	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("title")
	searchRequest.Highlight.AddField("authors")

	searchResult, err := index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		h := Hit{
			ID:    hit.ID,
			Score: hit.Score,
		}
		if t, ok := hit.Fields["title"].(string); ok {
			h.Title = t
		}
		if a, ok := hit.Fields["authors"].(string); ok {
			h.Authors = a
		}
		if i, ok := hit.Fields["isbn"].(string); ok {
			h.ISBN = i
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildQuery constructs the Bleve query from params.
//
// Titles dominate the ranking; authors contribute at a lower boost, a fuzzy
// title match tolerates one typo, and a prefix match supports incremental
// typing. An exact ISBN term short-circuits all of that.
func buildQuery(params Params) query.Query {
	if params.Query == "" {
		return bleve.NewMatchAllQuery()
	}

	queries := []query.Query{}

	titleMatch := bleve.NewMatchQuery(params.Query)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)
	queries = append(queries, titleMatch)

	authorsMatch := bleve.NewMatchQuery(params.Query)
	authorsMatch.SetField("authors")
	authorsMatch.SetBoost(1.5)
	queries = append(queries, authorsMatch)

	fuzzyQuery := bleve.NewFuzzyQuery(params.Query)
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("title")
	fuzzyQuery.SetBoost(0.8)
	queries = append(queries, fuzzyQuery)

	if len(params.Query) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(strings.ToLower(params.Query))
		prefixQuery.SetField("title")
		prefixQuery.SetBoost(0.5)
		queries = append(queries, prefixQuery)
	}

	isbnQuery := bleve.NewTermQuery(params.Query)
	isbnQuery.SetField("isbn")
	isbnQuery.SetBoost(5.0)
	queries = append(queries, isbnQuery)

	return bleve.NewDisjunctionQuery(queries...)
}
