package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noobbricks/noob-bricks/internal/domain"
	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

// Put stores data under id, replacing any existing payload.
func (s *BlobStore) Put(ctx context.Context, id, data string) error {
	db, err := s.handle()
	if err != nil {
		return domainerrors.BlobWrite(err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO images (id, data, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, created_at = excluded.created_at`,
		id, data, formatTime(s.now()),
	)
	if err != nil {
		return domainerrors.BlobWrite(err)
	}
	return nil
}

// Get returns the payload stored under id. Read failures are logged and reported as absent.
func (s *BlobStore) Get(ctx context.Context, id string) (string, bool) {
	if !s.enabled {
		return "", false
	}
	blob, err := s.GetBlob(ctx, id)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrNotFound) {
			s.logger.Warn("failed to read image", "id", id, "error", err)
		}
		return "", false
	}
	return blob.Data, true
}

// GetBlob returns the full record stored under id.
// Returns a NOT_FOUND error if the id is unknown.
func (s *BlobStore) GetBlob(ctx context.Context, id string) (*domain.ImageBlob, error) {
	db, err := s.handle()
	if err != nil {
		return nil, domainerrors.BlobRead(err)
	}

	var (
		blob      domain.ImageBlob
		createdAt string
	)
	err = db.QueryRowContext(ctx,
		`SELECT id, data, created_at FROM images WHERE id = ?`, id,
	).Scan(&blob.ID, &blob.Data, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("image %s not found", id)
	}
	if err != nil {
		return nil, domainerrors.BlobRead(err)
	}

	blob.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, domainerrors.BlobRead(err)
	}
	return &blob, nil
}

// Delete removes the payload under id. Deleting an unknown id is not an error.
func (s *BlobStore) Delete(ctx context.Context, id string) error {
	db, err := s.handle()
	if err != nil {
		return domainerrors.BlobWrite(err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM images WHERE id = ?`, id); err != nil {
		return domainerrors.BlobWrite(err)
	}
	return nil
}

// ListIDs returns every stored id, oldest first.
func (s *BlobStore) ListIDs(ctx context.Context) ([]string, error) {
	db, err := s.handle()
	if err != nil {
		return nil, domainerrors.BlobRead(err)
	}

	rows, err := db.QueryContext(ctx, `SELECT id FROM images ORDER BY created_at, id`)
	if err != nil {
		return nil, domainerrors.BlobRead(err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domainerrors.BlobRead(err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domainerrors.BlobRead(err)
	}
	return ids, nil
}

// Clear removes every stored payload.
func (s *BlobStore) Clear(ctx context.Context) error {
	db, err := s.handle()
	if err != nil {
		return domainerrors.BlobWrite(err)
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM images`); err != nil {
		return domainerrors.BlobWrite(err)
	}
	return nil
}
