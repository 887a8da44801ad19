package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/noobbricks/noob-bricks/internal/migration"
)

func (s *Server) registerMaintenanceRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getMigrationStatus",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/maintenance/migrate",
		Summary:     "Image migration status",
		Description: "Reports whether inline images still have to move to the image store",
		Tags:        []string{"Maintenance"},
	}, s.handleMigrationStatus)

	huma.Register(s.api, huma.Operation{
		OperationID: "runMigration",
		Method:      http.MethodPost,
		Path:        apiPrefix + "/maintenance/migrate",
		Summary:     "Run image migration",
		Description: "Moves inline images to the image store. A completed migration is a no-op",
		Tags:        []string{"Maintenance"},
	}, s.handleRunMigration)

	huma.Register(s.api, huma.Operation{
		OperationID: "listOrphans",
		Method:      http.MethodGet,
		Path:        apiPrefix + "/maintenance/orphans",
		Summary:     "List orphaned images",
		Description: "Returns stored images that no brick references",
		Tags:        []string{"Maintenance"},
	}, s.handleListOrphans)

	huma.Register(s.api, huma.Operation{
		OperationID: "collectOrphans",
		Method:      http.MethodDelete,
		Path:        apiPrefix + "/maintenance/orphans",
		Summary:     "Delete orphaned images",
		Description: "Deletes every stored image that no brick references",
		Tags:        []string{"Maintenance"},
	}, s.handleCollectOrphans)
}

// MigrationStatusResponse reports whether the migration is pending.
type MigrationStatusResponse struct {
	Pending bool `json:"pending" doc:"Whether the migration has yet to complete"`
}

// MigrationStatusOutput wraps the migration status for Huma.
type MigrationStatusOutput struct {
	Body MigrationStatusResponse
}

// MigrationOutput wraps a migration result for Huma.
type MigrationOutput struct {
	Body migration.Result
}

// OrphansResponse lists orphaned image ids.
type OrphansResponse struct {
	IDs   []string `json:"ids" doc:"Unreferenced image ids"`
	Count int      `json:"count" doc:"Number of unreferenced images"`
}

// OrphansOutput wraps the orphans response for Huma.
type OrphansOutput struct {
	Body OrphansResponse
}

// CollectOrphansResponse reports how many images were deleted.
type CollectOrphansResponse struct {
	Removed int `json:"removed" doc:"Number of images deleted"`
}

// CollectOrphansOutput wraps the collect response for Huma.
type CollectOrphansOutput struct {
	Body CollectOrphansResponse
}

func (s *Server) handleMigrationStatus(ctx context.Context, _ *struct{}) (*MigrationStatusOutput, error) {
	return &MigrationStatusOutput{
		Body: MigrationStatusResponse{Pending: s.services.Maintenance.MigrationPending(ctx)},
	}, nil
}

func (s *Server) handleRunMigration(ctx context.Context, _ *struct{}) (*MigrationOutput, error) {
	return &MigrationOutput{Body: s.services.Maintenance.Migrate(ctx)}, nil
}

func (s *Server) handleListOrphans(ctx context.Context, _ *struct{}) (*OrphansOutput, error) {
	ids, err := s.services.Maintenance.Orphans(ctx)
	if err != nil {
		return nil, err
	}
	return &OrphansOutput{Body: OrphansResponse{IDs: ids, Count: len(ids)}}, nil
}

func (s *Server) handleCollectOrphans(ctx context.Context, _ *struct{}) (*CollectOrphansOutput, error) {
	removed, err := s.services.Maintenance.CollectOrphans(ctx)
	if err != nil {
		return nil, err
	}
	return &CollectOrphansOutput{Body: CollectOrphansResponse{Removed: removed}}, nil
}
