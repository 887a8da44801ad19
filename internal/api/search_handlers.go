package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/noobbricks/noob-bricks/internal/search"
)

func (s *Server) registerSearchRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "searchBricks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/search",
		Summary:     "Search bricks",
		Description: "Full-text search over number, title and tags, ranked by relevance",
		Tags:        []string{"Search"},
	}, s.handleSearch)
}

// SearchInput contains search parameters.
type SearchInput struct {
	Query  string   `query:"q" doc:"Search text"`
	Tags   []string `query:"tags" doc:"Restrict to bricks carrying any of these tags"`
	Limit  int      `query:"limit" default:"50" minimum:"1" maximum:"500" doc:"Maximum results"`
	Offset int      `query:"offset" minimum:"0" doc:"Results to skip"`
}

// SearchResponse contains ranked search results.
type SearchResponse struct {
	Query  string          `json:"query" doc:"The search text"`
	Bricks []BrickResponse `json:"bricks" doc:"Matching bricks in rank order"`
	Total  int             `json:"total" doc:"Number of bricks returned"`
}

// SearchOutput wraps the search response for Huma.
type SearchOutput struct {
	Body SearchResponse
}

func (s *Server) handleSearch(ctx context.Context, input *SearchInput) (*SearchOutput, error) {
	items, err := s.services.Collection.Search(ctx, search.Params{
		Query:  input.Query,
		Tags:   input.Tags,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, err
	}

	return &SearchOutput{
		Body: SearchResponse{
			Query:  input.Query,
			Bricks: toBrickResponses(items),
			Total:  len(items),
		},
	}, nil
}
