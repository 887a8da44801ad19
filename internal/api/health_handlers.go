package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"records": s.checkRecords(ctx),
		"images":  s.checkImages(ctx),
		"search":  s.checkSearchIndex(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkRecords loads the collection document.
func (s *Server) checkRecords(ctx context.Context) ComponentHealth {
	if s.services.Collection == nil {
		return ComponentHealth{Status: statusDegraded, Message: "collection not configured"}
	}

	start := time.Now()
	state := s.services.Collection.State(ctx)
	return ComponentHealth{
		Status:  statusHealthy,
		Latency: time.Since(start).String(),
		Message: fmt.Sprintf("%d bricks", len(state.Items)),
	}
}

// checkImages verifies the blob store answers. A missing capability is degraded,
// since images then stay inline.
func (s *Server) checkImages(ctx context.Context) ComponentHealth {
	if s.services.Maintenance == nil {
		return ComponentHealth{Status: statusDegraded, Message: "image store not configured"}
	}

	start := time.Now()
	supported, count, err := s.services.Maintenance.ImageStoreStatus(ctx)
	latency := time.Since(start)

	switch {
	case !supported:
		return ComponentHealth{Status: statusDegraded, Message: "image store unavailable, images are kept inline"}
	case err != nil:
		return ComponentHealth{Status: statusUnhealthy, Latency: latency.String(), Message: "image store read failed"}
	default:
		return ComponentHealth{Status: statusHealthy, Latency: latency.String(), Message: fmt.Sprintf("%d images", count)}
	}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services.Index == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}

	start := time.Now()
	docCount, err := s.services.Index.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
		Message: fmt.Sprintf("%d documents", docCount),
	}
}
