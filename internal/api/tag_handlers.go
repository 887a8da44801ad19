package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listTags",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/tags",
		Summary:     "List tags",
		Description: "Returns every distinct tag in the collection, sorted",
		Tags:        []string{"Tags"},
	}, s.handleListTags)
}

// ListTagsResponse contains a list of tags.
type ListTagsResponse struct {
	Tags []string `json:"tags" doc:"Distinct tags"`
}

// ListTagsOutput wraps the list tags response for Huma.
type ListTagsOutput struct {
	Body ListTagsResponse
}

func (s *Server) handleListTags(ctx context.Context, _ *struct{}) (*ListTagsOutput, error) {
	tags := s.services.Collection.State(ctx).Tags
	if tags == nil {
		tags = []string{}
	}
	return &ListTagsOutput{Body: ListTagsResponse{Tags: tags}}, nil
}
