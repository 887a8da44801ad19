package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
	"github.com/noobbricks/noob-bricks/internal/media/images"
	"github.com/noobbricks/noob-bricks/internal/service"
)

func (s *Server) registerImageRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getBrickImage",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bricks/{id}/image",
		Summary:     "Get brick image",
		Description: "Returns the image bytes, resolving blob references",
		Tags:        []string{"Images"},
	}, s.handleGetBrickImage)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBrickImageInfo",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/bricks/{id}/image/info",
		Summary:     "Describe brick image",
		Description: "Returns the image format, dimensions and BlurHash placeholder",
		Tags:        []string{"Images"},
	}, s.handleGetBrickImageInfo)

	huma.Register(s.api, huma.Operation{
		OperationID:  "uploadBrickImage",
		Method:       http.MethodPut,
		Path:         apiPrefix + "/bricks/{id}/image",
		Summary:      "Upload brick image",
		Description:  "Replaces the brick image with the raw request body",
		Tags:         []string{"Images"},
		MaxBodyBytes: MaxBrickBodySize,
	}, s.handleUploadBrickImage)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteBrickImage",
		Method:        http.MethodDelete,
		Path:          apiPrefix + "/bricks/{id}/image",
		Summary:       "Delete brick image",
		Description:   "Removes the brick image and releases its blob",
		Tags:          []string{"Images"},
		DefaultStatus: http.StatusNoContent,
	}, s.handleDeleteBrickImage)
}

// ImageOutput returns raw image bytes.
type ImageOutput struct {
	ContentType  string `header:"Content-Type"`
	CacheControl string `header:"Cache-Control"`
	Body         []byte
}

// ImageInfoOutput wraps image metadata for Huma.
type ImageInfoOutput struct {
	Body *images.Info
}

// UploadImageInput carries raw image bytes.
type UploadImageInput struct {
	ID      string `path:"id" doc:"Brick ID"`
	RawBody []byte
}

func (s *Server) handleGetBrickImage(ctx context.Context, input *BrickIDInput) (*ImageOutput, error) {
	payload, err := s.services.Collection.BrickImage(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	p, err := images.ParseDataURI(payload)
	if err != nil {
		return nil, err
	}

	return &ImageOutput{
		ContentType:  p.MIMEType,
		CacheControl: CachePrivate,
		Body:         p.Data,
	}, nil
}

func (s *Server) handleGetBrickImageInfo(ctx context.Context, input *BrickIDInput) (*ImageInfoOutput, error) {
	payload, err := s.services.Collection.BrickImage(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	info, err := images.Inspect(payload)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeValidation, "image cannot be decoded")
	}
	return &ImageInfoOutput{Body: info}, nil
}

func (s *Server) handleUploadBrickImage(ctx context.Context, input *UploadImageInput) (*BrickOutput, error) {
	if len(input.RawBody) == 0 {
		return nil, domainerrors.Validation("request body is empty")
	}

	payload, err := images.FromBytes(input.RawBody)
	if err != nil {
		return nil, err
	}

	brick, err := s.updateImage(ctx, input.ID, service.SetImage(payload))
	if err != nil {
		return nil, err
	}
	return &BrickOutput{Body: toBrickResponse(brick)}, nil
}

func (s *Server) handleDeleteBrickImage(ctx context.Context, input *BrickIDInput) (*struct{}, error) {
	if _, err := s.updateImage(ctx, input.ID, service.ClearImage()); err != nil {
		return nil, err
	}
	return nil, nil
}

// updateImage applies an image change while keeping the other brick fields.
func (s *Server) updateImage(ctx context.Context, brickID string, change service.ImageChange) (domain.Brick, error) {
	current, err := s.services.Collection.GetBrick(ctx, brickID)
	if err != nil {
		return domain.Brick{}, err
	}

	form := domain.BrickForm{
		Number: current.Number,
		Title:  current.Title,
		Tags:   current.Tags,
	}
	brick, _, err := s.services.Collection.UpdateBrick(ctx, brickID, form, change)
	return brick, err
}
