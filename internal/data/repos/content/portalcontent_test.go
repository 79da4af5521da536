package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/evarahealth/clinic-backend/internal/data/repos/testutil"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
)

func TestPortalContentRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPortalContentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "portalcontentrepo@example.com")

	rows := []*domain.PortalContent{
		{
			ID:          uuid.New(),
			OwnerID:     u.ID,
			Pillar:      "nutrition",
			Subsection:  "basics",
			ContentType: "video",
			Title:       "Protein after 40",
			ContentData: datatypes.JSON(`{"kind":"video","url":"https://youtu.be/abc"}`),
			IsPublished: true,
		},
		{
			ID:           uuid.New(),
			OwnerID:      u.ID,
			Pillar:       "nutrition",
			Subsection:   "basics",
			ContentType:  "link",
			Title:        "Fibre guide",
			ContentData:  datatypes.JSON(`{"kind":"link","url":"https://example.com"}`),
			DisplayOrder: 1,
		},
		{
			ID:          uuid.New(),
			OwnerID:     u.ID,
			Pillar:      "movement",
			Subsection:  "strength",
			ContentType: "video",
			Title:       "Intro to lifting",
			ContentData: datatypes.JSON(`{"kind":"video","url":"https://youtu.be/def"}`),
			IsPublished: true,
		},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.List(dbc, ListFilter{Pillar: "nutrition", Subsection: "basics"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows in nutrition/basics, got %d", len(got))
	}
	if got[0].Title != "Protein after 40" {
		t.Fatalf("display_order sorting: got %q first", got[0].Title)
	}

	published, err := repo.List(dbc, ListFilter{PublishedOnly: true})
	if err != nil {
		t.Fatalf("List published: %v", err)
	}
	if len(published) != 2 {
		t.Fatalf("expected 2 published rows, got %d", len(published))
	}

	if err := repo.Update(dbc, rows[1].ID, map[string]interface{}{"is_published": true}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	published, err = repo.List(dbc, ListFilter{PublishedOnly: true})
	if err != nil {
		t.Fatalf("List after publish: %v", err)
	}
	if len(published) != 3 {
		t.Fatalf("expected 3 published rows after publish, got %d", len(published))
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{rows[2].ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	remaining, err := repo.List(dbc, ListFilter{})
	if err != nil {
		t.Fatalf("List after delete: %v", err)
	}
	if len(remaining) != 2 {
		t.Fatalf("expected 2 rows after soft delete, got %d", len(remaining))
	}
}

func TestPortalContentRepoSoftDeleteByFileIDs(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPortalContentRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "contentbyfile@example.com")

	pf := &domain.PortalFile{
		ID:           uuid.New(),
		OwnerID:      u.ID,
		Name:         "1712345678_handout.pdf",
		OriginalName: "handout.pdf",
		Type:         domain.FileTypeDocument,
		Size:         2048,
		StorageKey:   "uploads/1712345678_handout.pdf",
		Status:       domain.FileStatusUploaded,
	}
	if err := tx.Create(pf).Error; err != nil {
		t.Fatalf("seed file: %v", err)
	}

	row := &domain.PortalContent{
		ID:          uuid.New(),
		OwnerID:     u.ID,
		FileID:      &pf.ID,
		Pillar:      "hormones",
		Subsection:  "hrt",
		ContentType: "document",
		Title:       "HRT handout",
		ContentData: datatypes.JSON(`{"kind":"document","url":"https://cdn.example.com/handout.pdf"}`),
	}
	if _, err := repo.Create(dbc, []*domain.PortalContent{row}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.SoftDeleteByFileIDs(dbc, []uuid.UUID{pf.ID}); err != nil {
		t.Fatalf("SoftDeleteByFileIDs: %v", err)
	}
	got, err := repo.GetByIDs(dbc, []uuid.UUID{row.ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected row hidden after soft delete, got %d", len(got))
	}
}
