package assessments

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/evarahealth/clinic-backend/internal/data/repos/testutil"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
)

func TestSubmissionRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, tx, "submissionrepo@example.com")
	other := testutil.SeedUser(t, tx, "submissionrepo-other@example.com")

	rows := []*domain.AssessmentSubmission{
		{
			ID:         uuid.New(),
			UserID:     u.ID,
			Instrument: "greene-climacteric",
			Responses:  datatypes.JSON(`{"q1":2,"q2":1}`),
			Total:      18,
			Band:       "mild",
		},
		{
			ID:         uuid.New(),
			UserID:     u.ID,
			Instrument: "greene-climacteric",
			Responses:  datatypes.JSON(`{"q1":3,"q2":3}`),
			Total:      34,
			Band:       "moderate",
		},
		{
			ID:         uuid.New(),
			UserID:     other.ID,
			Instrument: "greene-climacteric",
			Responses:  datatypes.JSON(`{"q1":0}`),
			Total:      2,
			Band:       "minimal",
		},
	}
	if _, err := repo.Create(dbc, rows); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := repo.GetByUserID(dbc, u.ID, "greene-climacteric")
	if err != nil {
		t.Fatalf("GetByUserID: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 submissions for user, got %d", len(got))
	}
	for _, s := range got {
		if s.UserID != u.ID {
			t.Fatalf("got submission for wrong user: %s", s.UserID)
		}
	}

	all, err := repo.GetByUserID(dbc, u.ID, "")
	if err != nil {
		t.Fatalf("GetByUserID all instruments: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 submissions without instrument filter, got %d", len(all))
	}

	none, err := repo.GetByUserID(dbc, u.ID, "phq-9")
	if err != nil {
		t.Fatalf("GetByUserID other instrument: %v", err)
	}
	if len(none) != 0 {
		t.Fatalf("expected 0 submissions for unused instrument, got %d", len(none))
	}

	if err := repo.SoftDeleteByIDs(dbc, []uuid.UUID{rows[0].ID}); err != nil {
		t.Fatalf("SoftDeleteByIDs: %v", err)
	}
	got, err = repo.GetByUserID(dbc, u.ID, "greene-climacteric")
	if err != nil {
		t.Fatalf("GetByUserID after delete: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 submission after soft delete, got %d", len(got))
	}
}
