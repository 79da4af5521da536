package uploads

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/data/repos/testutil"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
)

func TestUploadSessionRepoResume(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewUploadSessionRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "uploadsessionrepo@example.com")

	s := &domain.UploadSession{
		ID:         uuid.New(),
		OwnerID:    u.ID,
		Name:       "1712345678_lecture.mp4",
		Folder:     "videos",
		StorageKey: "videos/1712345678_lecture.mp4",
		TotalBytes: 7 << 20,
		ChunkSize:  3 << 20,
		Status:     domain.UploadStatusActive,
	}
	if _, err := repo.Create(dbc, []*domain.UploadSession{s}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.RecordPart(dbc, s.ID, 1, 3<<20); err != nil {
		t.Fatalf("RecordPart: %v", err)
	}

	found, err := repo.FindResumable(dbc, u.ID, s.Name, s.TotalBytes)
	if err != nil {
		t.Fatalf("FindResumable: %v", err)
	}
	if found == nil || found.ID != s.ID {
		t.Fatalf("FindResumable: got %+v", found)
	}
	if found.ReceivedParts != 1 || found.ReceivedBytes != 3<<20 {
		t.Fatalf("resume bookkeeping: parts=%d bytes=%d", found.ReceivedParts, found.ReceivedBytes)
	}

	// Different size never matches: a changed file restarts from scratch.
	if found, err := repo.FindResumable(dbc, u.ID, s.Name, 8<<20); err != nil || found != nil {
		t.Fatalf("FindResumable wrong size: err=%v found=%+v", err, found)
	}

	if err := repo.UpdateStatus(dbc, s.ID, domain.UploadStatusComplete); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if found, err := repo.FindResumable(dbc, u.ID, s.Name, s.TotalBytes); err != nil || found != nil {
		t.Fatalf("completed session should not resume: err=%v found=%+v", err, found)
	}
}
