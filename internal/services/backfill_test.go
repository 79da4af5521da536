package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/realtime"
)

func TestBackoffPolicyDelay(t *testing.T) {
	p := DefaultBackoffPolicy()
	cases := []struct {
		failures int
		want     time.Duration
	}{
		{0, 500 * time.Millisecond},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 2 * time.Second},
		{10, 2 * time.Second},
	}
	for _, c := range cases {
		if got := p.Delay(c.failures); got != c.want {
			t.Fatalf("Delay(%d) = %v, want %v", c.failures, got, c.want)
		}
	}
}

// flakyThumbnailer fails for file names listed in failFor.
type flakyThumbnailer struct {
	failFor map[string]bool
	calls   int
}

func (f *flakyThumbnailer) Generate(dbc dbctx.Context, file *domain.PortalFile, force bool) (string, error) {
	f.calls++
	if f.failFor[file.Name] {
		return "", fmt.Errorf("render failed for %s", file.Name)
	}
	return "https://cdn.test/thumbnails/" + file.ID.String() + ".png", nil
}

func TestBackfillRunIsolatesFailures(t *testing.T) {
	log := testLogger(t)
	repo := newFakeFileRepo()
	dbc := dbctx.Context{Ctx: context.Background()}
	owner := uuid.New()

	names := []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf"}
	for _, n := range names {
		_, _ = repo.Create(dbc, []*domain.PortalFile{{
			ID:           uuid.New(),
			OwnerID:      owner,
			Name:         n,
			OriginalName: n,
			Type:         domain.FileTypeDocument,
		}})
	}

	thumbs := &flakyThumbnailer{failFor: map[string]bool{"b.pdf": true, "c.pdf": true}}
	var sleeps []time.Duration
	s := &backfillService{
		log:        log.With("service", "BackfillService"),
		repo:       repo,
		thumbnails: thumbs,
		hub:        realtime.NewSSEHub(log),
		policy:     DefaultBackoffPolicy(),
		sleep:      func(d time.Duration) { sleeps = append(sleeps, d) },
	}

	summary, err := s.Run(dbc, owner, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 4 || summary.Succeeded != 2 || summary.Failed != 2 {
		t.Fatalf("summary = %+v", summary)
	}
	if thumbs.calls != 4 {
		t.Fatalf("every item must be attempted, got %d calls", thumbs.calls)
	}

	// Files list alphabetically: a ok, b fail, c fail, d ok. Delay after each
	// item but the last scales with the consecutive-failure count.
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	if len(sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", sleeps, want)
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestBackfillSkipsFilesWithThumbnails(t *testing.T) {
	log := testLogger(t)
	repo := newFakeFileRepo()
	dbc := dbctx.Context{Ctx: context.Background()}
	owner := uuid.New()

	_, _ = repo.Create(dbc, []*domain.PortalFile{
		{ID: uuid.New(), OwnerID: owner, Name: "done.pdf", ThumbnailURL: "https://cdn.test/t.png"},
		{ID: uuid.New(), OwnerID: owner, Name: "todo.pdf"},
	})

	thumbs := &flakyThumbnailer{failFor: map[string]bool{}}
	s := &backfillService{
		log:        log.With("service", "BackfillService"),
		repo:       repo,
		thumbnails: thumbs,
		policy:     DefaultBackoffPolicy(),
		sleep:      func(time.Duration) {},
	}

	summary, err := s.Run(dbc, owner, false)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Processed != 1 || thumbs.calls != 1 {
		t.Fatalf("only the thumbnail-less file should be processed: %+v, calls=%d", summary, thumbs.calls)
	}
}
