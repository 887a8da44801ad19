package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
	"github.com/noobbricks/noob-bricks/internal/service"
)

func (s *Server) registerBrickRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBricks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bricks",
		Summary:     "List bricks",
		Description: "Returns the collection, optionally filtered by tags and sorted by number",
		Tags:        []string{"Bricks"},
	}, s.handleListBricks)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBrick",
		Method:        http.MethodPost,
		Path:          apiPrefix + "/bricks",
		Summary:       "Create brick",
		Description:   "Adds a brick. The number must be unique within the collection",
		Tags:          []string{"Bricks"},
		DefaultStatus: http.StatusCreated,
		MaxBodyBytes:  MaxBrickBodySize,
	}, s.handleCreateBrick)

	huma.Register(s.api, huma.Operation{
		OperationID: "clearBricks",
		Method:      http.MethodDelete,
		Path:        apiPrefix + "/bricks",
		Summary:     "Clear collection",
		Description: "Removes every brick and its image. External links are kept",
		Tags:        []string{"Bricks"},
	}, s.handleClearBricks)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBrick",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bricks/{id}",
		Summary:     "Get brick",
		Description: "Returns a brick by ID",
		Tags:        []string{"Bricks"},
	}, s.handleGetBrick)

	huma.Register(s.api, huma.Operation{
		OperationID:  "updateBrick",
		Method:       http.MethodPut,
		Path:         apiPrefix + "/bricks/{id}",
		Summary:      "Update brick",
		Description:  "Replaces the brick fields. The image is kept unless image or removeImage is set",
		Tags:         []string{"Bricks"},
		MaxBodyBytes: MaxBrickBodySize,
	}, s.handleUpdateBrick)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBrick",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/bricks/{id}",
		Summary:       "Delete brick",
		Description:   "Deletes a brick and releases its image",
		Tags:          []string{"Bricks"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBrick)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBrickLinks",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bricks/{id}/links",
		Summary:     "Get brick links",
		Description: "Returns the enabled external links expanded for the brick number",
		Tags:        []string{"Bricks", "Links"},
	}, s.handleGetBrickLinks)
}

// === DTOs ===

// BrickResponse contains brick data in API responses.
type BrickResponse struct {
	ID        string    `json:"id" doc:"Brick ID"`
	Number    string    `json:"number" doc:"Catalog number"`
	Title     string    `json:"title,omitempty" doc:"Display title"`
	Tags      []string  `json:"tags" doc:"Tags"`
	HasImage  bool      `json:"hasImage" doc:"Whether the brick has an image"`
	ImageURL  string    `json:"imageUrl,omitempty" doc:"Path of the image endpoint"`
	CreatedAt time.Time `json:"createdAt" doc:"Creation time"`
	UpdatedAt time.Time `json:"updatedAt" doc:"Last update time"`
}

func toBrickResponse(b domain.Brick) BrickResponse {
	resp := BrickResponse{
		ID:        b.ID,
		Number:    b.Number,
		Title:     b.Title,
		Tags:      b.Tags,
		HasImage:  !b.Image.IsZero(),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if resp.Tags == nil {
		resp.Tags = []string{}
	}
	if resp.HasImage {
		resp.ImageURL = apiPrefix + "/bricks/" + b.ID + "/image"
	}
	return resp
}

func toBrickResponses(items []domain.Brick) []BrickResponse {
	out := make([]BrickResponse, len(items))
	for i, b := range items {
		out[i] = toBrickResponse(b)
	}
	return out
}

// ListBricksInput contains parameters for listing bricks.
type ListBricksInput struct {
	Tags []string `query:"tags" doc:"Keep bricks carrying any of these tags"`
	Sort bool     `query:"sort" doc:"Order by catalog number"`
}

// ListBricksResponse contains a list of bricks.
type ListBricksResponse struct {
	Bricks []BrickResponse `json:"bricks" doc:"Bricks"`
	Total  int             `json:"total" doc:"Number of bricks returned"`
}

// ListBricksOutput wraps the list bricks response for Huma.
type ListBricksOutput struct {
	Body ListBricksResponse
}

// CreateBrickRequest is the request body for creating a brick.
type CreateBrickRequest struct {
	Number string   `json:"number" doc:"Catalog number"`
	Title  string   `json:"title,omitempty" doc:"Display title"`
	Tags   []string `json:"tags,omitempty" doc:"Tags"`
	Image  string   `json:"image,omitempty" doc:"Inline image as a data:image/ URI"`
}

// CreateBrickInput wraps the create brick request for Huma.
type CreateBrickInput struct {
	Body CreateBrickRequest
}

// BrickOutput wraps the brick response for Huma.
type BrickOutput struct {
	Body BrickResponse
}

// BrickIDInput identifies a brick by path.
type BrickIDInput struct {
	ID string `path:"id" doc:"Brick ID"`
}

// UpdateBrickRequest is the request body for updating a brick.
type UpdateBrickRequest struct {
	Number      string   `json:"number" doc:"Catalog number"`
	Title       string   `json:"title,omitempty" doc:"Display title"`
	Tags        []string `json:"tags,omitempty" doc:"Tags"`
	Image       *string  `json:"image,omitempty" doc:"New inline image as a data:image/ URI"`
	RemoveImage bool     `json:"removeImage,omitempty" doc:"Remove the current image"`
}

// UpdateBrickInput wraps the update brick request for Huma.
type UpdateBrickInput struct {
	ID   string `path:"id" doc:"Brick ID"`
	Body UpdateBrickRequest
}

// ClearResponse reports how many bricks were removed.
type ClearResponse struct {
	Removed int `json:"removed" doc:"Number of bricks removed"`
}

// ClearOutput wraps the clear response for Huma.
type ClearOutput struct {
	Body ClearResponse
}

// BrickLinksResponse lists lookup URLs for one brick.
type BrickLinksResponse struct {
	Links []service.LinkURL `json:"links" doc:"Enabled external links for the brick number"`
}

// BrickLinksOutput wraps the brick links response for Huma.
type BrickLinksOutput struct {
	Body BrickLinksResponse
}

// === Handlers ===

func (s *Server) handleListBricks(ctx context.Context, input *ListBricksInput) (*ListBricksOutput, error) {
	items := s.services.Collection.ListBricks(ctx, service.ListOptions{
		Tags:   input.Tags,
		Sorted: input.Sort,
	})

	return &ListBricksOutput{
		Body: ListBricksResponse{
			Bricks: toBrickResponses(items),
			Total:  len(items),
		},
	}, nil
}

func (s *Server) handleCreateBrick(ctx context.Context, input *CreateBrickInput) (*BrickOutput, error) {
	form := domain.BrickForm{
		Number: input.Body.Number,
		Title:  input.Body.Title,
		Tags:   input.Body.Tags,
	}

	brick, _, err := s.services.Collection.AddBrick(ctx, form, input.Body.Image)
	if err != nil {
		return nil, err
	}

	return &BrickOutput{Body: toBrickResponse(brick)}, nil
}

func (s *Server) handleClearBricks(ctx context.Context, _ *struct{}) (*ClearOutput, error) {
	before := len(s.services.Collection.State(ctx).Items)
	if _, err := s.services.Collection.ClearAll(ctx); err != nil {
		return nil, err
	}
	return &ClearOutput{Body: ClearResponse{Removed: before}}, nil
}

func (s *Server) handleGetBrick(ctx context.Context, input *BrickIDInput) (*BrickOutput, error) {
	brick, err := s.services.Collection.GetBrick(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BrickOutput{Body: toBrickResponse(brick)}, nil
}

func (s *Server) handleUpdateBrick(ctx context.Context, input *UpdateBrickInput) (*BrickOutput, error) {
	change := service.KeepImage()
	switch {
	case input.Body.Image != nil && input.Body.RemoveImage:
		return nil, domainerrors.Validation("image and removeImage cannot both be set")
	case input.Body.Image != nil:
		change = service.SetImage(*input.Body.Image)
	case input.Body.RemoveImage:
		change = service.ClearImage()
	}

	form := domain.BrickForm{
		Number: input.Body.Number,
		Title:  input.Body.Title,
		Tags:   input.Body.Tags,
	}

	brick, _, err := s.services.Collection.UpdateBrick(ctx, input.ID, form, change)
	if err != nil {
		return nil, err
	}
	return &BrickOutput{Body: toBrickResponse(brick)}, nil
}

func (s *Server) handleDeleteBrick(ctx context.Context, input *BrickIDInput) (*struct{}, error) {
	if _, err := s.services.Collection.DeleteBrick(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Server) handleGetBrickLinks(ctx context.Context, input *BrickIDInput) (*BrickLinksOutput, error) {
	brick, err := s.services.Collection.GetBrick(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BrickLinksOutput{
		Body: BrickLinksResponse{Links: s.services.Links.Lookup(ctx, brick.Number)},
	}, nil
}
