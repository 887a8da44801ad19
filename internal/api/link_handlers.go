package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/noobbricks/noob-bricks/internal/domain"
	"github.com/noobbricks/noob-bricks/internal/service"
)

func (s *Server) registerLinkRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLinks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/links",
		Summary:     "List external links",
		Description: "Returns every external catalog link, including disabled ones",
		Tags:        []string{"Links"},
	}, s.handleListLinks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createLink",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/links",
		Summary:       "Create external link",
		Description:   "Adds a catalog link. The brick number is appended to its URL",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateLink",
		Method:      http.MethodPut,
		Path:        apiPrefix + "/links/{id}",
		Summary:     "Update external link",
		Description: "Replaces the link name and URL. Enabled is kept unless given",
		Tags:        []string{"Links"},
	}, s.handleUpdateLink)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleLink",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/links/{id}/toggle",
		Summary:     "Toggle external link",
		Description: "Flips whether the link is shown for bricks",
		Tags:        []string{"Links"},
	}, s.handleToggleLink)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteLink",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/links/{id}",
		Summary:       "Delete external link",
		Description:   "Deletes an external link",
		Tags:          []string{"Links"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteLink)
}

// LinkResponse contains link data in API responses.
type LinkResponse struct {
	ID      string `json:"id" doc:"Link ID"`
	Name    string `json:"name" doc:"Display name"`
	URL     string `json:"url" doc:"URL prefix; the brick number is appended"`
	Enabled bool   `json:"enabled" doc:"Whether the link is shown"`
}

func toLinkResponse(l domain.ExternalLink) LinkResponse {
	return LinkResponse{ID: l.ID, Name: l.Name, URL: l.URL, Enabled: l.Enabled}
}

// ListLinksResponse contains a list of links.
type ListLinksResponse struct {
	Links []LinkResponse `json:"links" doc:"External links"`
}

// ListLinksOutput wraps the list links response for Huma.
type ListLinksOutput struct {
	Body ListLinksResponse
}

// LinkRequest is the request body for creating or updating a link.
type LinkRequest struct {
	Name    string `json:"name" doc:"Display name"`
	URL     string `json:"url" doc:"URL prefix"`
	Enabled *bool  `json:"enabled,omitempty" doc:"Whether the link is shown; defaults to true on create"`
}

func (r LinkRequest) input() service.LinkInput {
	return service.LinkInput{Name: r.Name, URL: r.URL, Enabled: r.Enabled}
}

// CreateLinkInput wraps the create link request for Huma.
type CreateLinkInput struct {
	Body LinkRequest
}

// UpdateLinkInput wraps the update link request for Huma.
type UpdateLinkInput struct {
	ID   string `path:"id" doc:"Link ID"`
	Body LinkRequest
}

// LinkIDInput identifies a link by path.
type LinkIDInput struct {
	ID string `path:"id" doc:"Link ID"`
}

// LinkOutput wraps the link response for Huma.
type LinkOutput struct {
	Body LinkResponse
}

func (s *Server) handleListLinks(ctx context.Context, _ *struct{}) (*ListLinksOutput, error) {
	links := s.services.Links.List(ctx)
	resp := ListLinksResponse{Links: make([]LinkResponse, len(links))}
	for i, l := range links {
		resp.Links[i] = toLinkResponse(l)
	}
	return &ListLinksOutput{Body: resp}, nil
}

func (s *Server) handleCreateLink(ctx context.Context, input *CreateLinkInput) (*LinkOutput, error) {
	link, err := s.services.Links.Add(ctx, input.Body.input())
	if err != nil {
		return nil, err
	}
	return &LinkOutput{Body: toLinkResponse(link)}, nil
}

func (s *Server) handleUpdateLink(ctx context.Context, input *UpdateLinkInput) (*LinkOutput, error) {
	link, err := s.services.Links.Update(ctx, input.ID, input.Body.input())
	if err != nil {
		return nil, err
	}
	return &LinkOutput{Body: toLinkResponse(link)}, nil
}

func (s *Server) handleToggleLink(ctx context.Context, input *LinkIDInput) (*LinkOutput, error) {
	link, err := s.services.Links.Toggle(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &LinkOutput{Body: toLinkResponse(link)}, nil
}

func (s *Server) handleDeleteLink(ctx context.Context, input *LinkIDInput) (*struct{}, error) {
	if err := s.services.Links.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
