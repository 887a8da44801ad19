package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// DefaultLimit caps the hit count when Params.Limit is unset.
const DefaultLimit = 50

// Params configures a search query.
type Params struct {
	Query  string   // Free text matched against title, number and tags
	Tags   []string // Restrict to bricks carrying any of these tags
	Limit  int
	Offset int
}

// Result is the ranked list of matching brick ids.
type Result struct {
	Query string `json:"query"`
	Total uint64 `json:"total"`
	Hits  []Hit  `json:"hits"`
}

// Hit is one matching brick.
type Hit struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// IDs returns the hit ids in rank order.
func (r *Result) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Search executes a query against the index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	req := bleve.NewSearchRequestOptions(buildSearchQuery(params), limit, params.Offset, false)
	req.SortBy([]string{"-_score", "_id"})

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query: params.Query,
		Total: res.Total,
		Hits:  make([]Hit, 0, len(res.Hits)),
	}
	for _, hit := range res.Hits {
		result.Hits = append(result.Hits, Hit{ID: hit.ID, Score: hit.Score})
	}
	return result, nil
}

// buildSearchQuery matches the text against any field and ANDs the tag filter.
func buildSearchQuery(params Params) query.Query {
	var queries []query.Query

	text := strings.ToLower(strings.TrimSpace(params.Query))
	if text != "" {
		titleMatch := bleve.NewMatchQuery(text)
		titleMatch.SetField("title")
		titleMatch.SetBoost(2.0)

		numberPrefix := bleve.NewPrefixQuery(text)
		numberPrefix.SetField("number")
		numberPrefix.SetBoost(3.0)

		tagTerm := bleve.NewTermQuery(text)
		tagTerm.SetField("tags")

		textQueries := []query.Query{titleMatch, numberPrefix, tagTerm}

		// Typo tolerance on single-word title searches
		if len(text) >= 4 && !strings.ContainsAny(text, " \t") {
			fuzzy := bleve.NewFuzzyQuery(text)
			fuzzy.SetField("title")
			fuzzy.SetFuzziness(1)
			fuzzy.SetBoost(0.5)
			textQueries = append(textQueries, fuzzy)
		}
		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if len(params.Tags) > 0 {
		tagQueries := make([]query.Query, len(params.Tags))
		for i, tag := range params.Tags {
			tq := bleve.NewTermQuery(strings.ToLower(tag))
			tq.SetField("tags")
			tagQueries[i] = tq
		}
		queries = append(queries, bleve.NewDisjunctionQuery(tagQueries...))
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
