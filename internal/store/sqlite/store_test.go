package sqlite

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	domainerrors "github.com/noobbricks/noob-bricks/internal/errors"
)

func newTestStore(t *testing.T) *BlobStore {
	t.Helper()
	dir := t.TempDir()
	s := New(Options{
		Path:    filepath.Join(dir, "images.db"),
		Enabled: true,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_Lazy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "images.db")
	s := New(Options{Path: path, Enabled: true})
	t.Cleanup(func() { s.Close() })

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("database created before first use: %v", err)
	}

	if _, err := s.ListIDs(context.Background()); err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("database not created on first use: %v", err)
	}

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}
}

func TestPutGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Put(ctx, "img-1", "data:image/png;base64,AAAA"); err != nil {
		t.Fatalf("put: %v", err)
	}

	data, ok := s.Get(ctx, "img-1")
	if !ok {
		t.Fatal("expected image to be found")
	}
	if data != "data:image/png;base64,AAAA" {
		t.Errorf("unexpected data %q", data)
	}

	blob, err := s.GetBlob(ctx, "img-1")
	if err != nil {
		t.Fatalf("get blob: %v", err)
	}
	if blob.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}
}

func TestPut_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "img-1", "data:image/png;base64,AAAA")
	if err := s.Put(ctx, "img-1", "data:image/png;base64,BBBB"); err != nil {
		t.Fatalf("second put: %v", err)
	}

	data, _ := s.Get(ctx, "img-1")
	if data != "data:image/png;base64,BBBB" {
		t.Errorf("expected overwrite, got %q", data)
	}
}

func TestGet_Missing(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.Get(context.Background(), "img-missing"); ok {
		t.Error("expected missing image to be absent")
	}

	_, err := s.GetBlob(context.Background(), "img-missing")
	if !domainerrors.Is(err, domainerrors.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "img-1", "data:image/png;base64,AAAA")
	if err := s.Delete(ctx, "img-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := s.Get(ctx, "img-1"); ok {
		t.Error("expected deleted image to be absent")
	}
	if err := s.Delete(ctx, "img-1"); err != nil {
		t.Errorf("deleting a missing id should succeed, got %v", err)
	}
}

func TestListIDsAndClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"img-a", "img-b", "img-c"} {
		if err := s.Put(ctx, id, "data:image/png;base64,AAAA"); err != nil {
			t.Fatalf("put %s: %v", id, err)
		}
	}

	ids, err := s.ListIDs(ctx)
	if err != nil {
		t.Fatalf("list ids: %v", err)
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 ids, got %v", ids)
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	ids, _ = s.ListIDs(ctx)
	if len(ids) != 0 {
		t.Errorf("expected empty store after clear, got %v", ids)
	}
}

func TestUnsupported(t *testing.T) {
	s := New(Options{Path: filepath.Join(t.TempDir(), "images.db"), Enabled: false})
	ctx := context.Background()

	if s.IsSupported() {
		t.Fatal("expected unsupported store")
	}
	if err := s.Put(ctx, "img-1", "data:image/png;base64,AAAA"); !domainerrors.Is(err, domainerrors.ErrBlobWrite) {
		t.Errorf("expected blob write error, got %v", err)
	}
	if _, ok := s.Get(ctx, "img-1"); ok {
		t.Error("expected absent from unsupported store")
	}
}

func TestOpenFailureIsMemoized(t *testing.T) {
	s := New(Options{Path: "", Enabled: true})
	ctx := context.Background()

	if err := s.Put(ctx, "img-1", "x"); !domainerrors.Is(err, domainerrors.ErrBlobWrite) {
		t.Errorf("expected blob write error, got %v", err)
	}
	if _, ok := s.Get(ctx, "img-1"); ok {
		t.Error("expected absent after failed open")
	}
	if err := s.Put(ctx, "img-2", "x"); err == nil {
		t.Error("expected memoized open failure")
	}
}

func TestMemoryPath(t *testing.T) {
	s := New(Options{Path: MemoryPath, Enabled: true})
	t.Cleanup(func() { s.Close() })
	ctx := context.Background()

	if err := s.Put(ctx, "img-1", "data:image/gif;base64,R0lG"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, ok := s.Get(ctx, "img-1"); !ok {
		t.Error("expected image in memory store")
	}
}

func TestClosed(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_ = s.Put(ctx, "img-1", "x")
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Put(ctx, "img-2", "x"); err == nil {
		t.Error("expected error after close")
	}
}

func TestClose_BeforeFirstUse(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "images.db")
	s := New(Options{Path: path, Enabled: true, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})

	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := s.Put(context.Background(), "img-1", "x"); err == nil {
		t.Error("expected error after close")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("database opened after close: %v", err)
	}
	if s.db != nil {
		t.Error("handle leaked after close")
	}
}
