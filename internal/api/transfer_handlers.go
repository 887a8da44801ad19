package api

import (
	"context"
	"fmt"
	"mime"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/noobbricks/noob-bricks/internal/codec"
	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

func (s *Server) registerTransferRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportCollection",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/export",
		Summary:     "Export collection",
		Description: "Downloads the collection and its external links as JSON, CSV or XML",
		Tags:        []string{"Transfer"},
	}, s.handleExport)

	huma.Register(s.api, huma.Operation{
		OperationID:  "importCollection",
		Method:       http.MethodPost,
		Path:         apiPrefix + "/import",
		Summary:      "Import collection",
		Description:  "Replaces the collection with the uploaded file. With dryRun the file is only validated",
		Tags:         []string{"Transfer"},
		MaxBodyBytes: MaxImportSize,
	}, s.handleImport)
}

// ExportInput contains export parameters.
type ExportInput struct {
	Format     string `query:"format" default:"json" enum:"json,csv,xml" doc:"File format"`
	WithImages bool   `query:"withImages" doc:"Embed images as inline payloads"`
}

// ExportOutput is the exported file.
type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	CacheControl       string `header:"Cache-Control"`
	Body               []byte
}

// ImportInput carries the raw file and how to read it.
type ImportInput struct {
	Format      string `query:"format" doc:"File format: json, csv or xml. Defaults to the filename extension, then the content type"`
	Filename    string `query:"filename" doc:"Original file name"`
	DryRun      bool   `query:"dryRun" doc:"Validate without applying"`
	ContentType string `header:"Content-Type"`
	RawBody     []byte
}

// ImportResponse summarizes an import.
type ImportResponse struct {
	DryRun        bool            `json:"dryRun" doc:"Whether the import was only validated"`
	Bricks        int             `json:"bricks" doc:"Number of bricks in the file"`
	ExternalLinks *int            `json:"externalLinks,omitempty" doc:"Number of external links in the file, when it carried any"`
	Tags          []string        `json:"tags" doc:"Distinct tags after the import"`
	Preview       []BrickResponse `json:"preview,omitempty" doc:"Parsed bricks, on dry runs"`
}

// ImportOutput wraps the import response for Huma.
type ImportOutput struct {
	Body ImportResponse
}

func (s *Server) handleExport(ctx context.Context, input *ExportInput) (*ExportOutput, error) {
	format, err := codec.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}

	export, err := s.services.Transfer.ExportCollection(ctx, format, input.WithImages)
	if err != nil {
		return nil, err
	}

	return &ExportOutput{
		ContentType:        export.MIMEType + "; charset=utf-8",
		ContentDisposition: fmt.Sprintf("attachment; filename=%q", export.Filename),
		CacheControl:       CacheNoStore,
		Body:               []byte(export.Content),
	}, nil
}

func (s *Server) handleImport(ctx context.Context, input *ImportInput) (*ImportOutput, error) {
	if len(input.RawBody) == 0 {
		return nil, domainerrors.Validation("request body is empty")
	}

	format, err := importFormat(input)
	if err != nil {
		return nil, err
	}

	content := string(input.RawBody)
	if input.DryRun {
		result, err := s.services.Transfer.ImportFromFile(ctx, content, format)
		if err != nil {
			return nil, err
		}
		return &ImportOutput{Body: ImportResponse{
			DryRun:        true,
			Bricks:        len(result.Items),
			ExternalLinks: linkCount(result),
			Tags:          domain.ExtractTags(result.Items),
			Preview:       toBrickResponses(result.Items),
		}}, nil
	}

	state, result, err := s.services.Transfer.Import(ctx, content, format)
	if err != nil {
		return nil, err
	}
	return &ImportOutput{Body: ImportResponse{
		Bricks:        len(result.Items),
		ExternalLinks: linkCount(result),
		Tags:          state.Tags,
	}}, nil
}

// importFormat resolves the format from the query, then the filename, then the content type.
func importFormat(input *ImportInput) (codec.Format, error) {
	if input.Format != "" {
		return codec.ParseFormat(input.Format)
	}
	if input.Filename != "" {
		return codec.FormatFromFilename(input.Filename)
	}

	mediaType, _, err := mime.ParseMediaType(input.ContentType)
	if err == nil {
		for _, f := range codec.Formats() {
			if f.MIMEType() == mediaType {
				return f, nil
			}
		}
		switch mediaType {
		case "text/json":
			return codec.FormatJSON, nil
		case "text/xml":
			return codec.FormatXML, nil
		}
	}
	return "", domainerrors.UnsupportedFormat(input.ContentType)
}

func linkCount(result *codec.ImportResult) *int {
	if !result.HasExternalLinks() {
		return nil
	}
	n := len(result.ExternalLinks)
	return &n
}
