package files

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/data/repos/testutil"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
)

func TestPortalFileRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPortalFileRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "portalfilerepo@example.com")

	pf := &domain.PortalFile{
		ID:           uuid.New(),
		OwnerID:      u.ID,
		Name:         "1712345678_guide.pdf",
		OriginalName: "guide.pdf",
		Type:         domain.FileTypeDocument,
		Size:         1024,
		Folder:       "resources",
		StorageKey:   "resources/1712345678_guide.pdf",
		Status:       domain.FileStatusUploading,
	}
	if _, err := repo.Create(dbc, []*domain.PortalFile{pf}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{pf.ID}); err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	if err := repo.UpdateAfterUpload(dbc, pf.ID, pf.StorageKey, "https://cdn.example.com/guide.pdf"); err != nil {
		t.Fatalf("UpdateAfterUpload: %v", err)
	}
	rows, err := repo.GetByIDs(dbc, []uuid.UUID{pf.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("reload: err=%v len=%d", err, len(rows))
	}
	if rows[0].Status != domain.FileStatusUploaded {
		t.Fatalf("status after upload: got %s", rows[0].Status)
	}

	missing, err := repo.List(dbc, ListFilter{OwnerID: u.ID, MissingThumbnail: true})
	if err != nil {
		t.Fatalf("List missing thumbnails: %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("expected 1 file missing thumbnail, got %d", len(missing))
	}

	if err := repo.UpdateThumbnailURL(dbc, pf.ID, "https://cdn.example.com/thumbnails/guide.png"); err != nil {
		t.Fatalf("UpdateThumbnailURL: %v", err)
	}
	missing, err = repo.List(dbc, ListFilter{OwnerID: u.ID, MissingThumbnail: true})
	if err != nil {
		t.Fatalf("List after backfill: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected 0 files missing thumbnail, got %d", len(missing))
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{pf.ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{pf.ID}); err != nil || len(rows) != 0 {
		t.Fatalf("after soft delete: err=%v len=%d", err, len(rows))
	}
}
