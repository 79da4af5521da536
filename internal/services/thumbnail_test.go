package services

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
)

func newTestThumbnailService(t *testing.T, store *fakeStore, repo *fakeFileRepo) (*thumbnailService, *[]time.Duration) {
	t.Helper()
	var sleeps []time.Duration
	s := &thumbnailService{
		log:   testLogger(t).With("service", "ThumbnailService"),
		store: store,
		repo:  repo,
		fetch: &http.Client{Timeout: time.Second},
		sleep: func(d time.Duration) { sleeps = append(sleeps, d) },
	}
	return s, &sleeps
}

func TestUploadWithBackoffRecovers(t *testing.T) {
	store := newFakeStore()
	store.uploadErrs = 2
	s, sleeps := newTestThumbnailService(t, store, newFakeFileRepo())

	if err := s.uploadWithBackoff(context.Background(), "thumbnails/x.png", []byte("png")); err != nil {
		t.Fatalf("uploadWithBackoff: %v", err)
	}
	want := []time.Duration{500 * time.Millisecond, time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleep schedule %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Fatalf("sleep %d = %v, want %v", i, (*sleeps)[i], want[i])
		}
	}
}

func TestUploadWithBackoffGivesUp(t *testing.T) {
	store := newFakeStore()
	store.uploadErrs = thumbnailUploadAttempts
	s, sleeps := newTestThumbnailService(t, store, newFakeFileRepo())

	if err := s.uploadWithBackoff(context.Background(), "thumbnails/x.png", []byte("png")); err == nil {
		t.Fatalf("expected terminal failure after %d attempts", thumbnailUploadAttempts)
	}
	if store.uploads != thumbnailUploadAttempts {
		t.Fatalf("made %d attempts, want %d", store.uploads, thumbnailUploadAttempts)
	}
	// Delays double and there is no sleep after the last attempt.
	want := []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleep schedule %v, want %v", *sleeps, want)
	}
}

func TestGeneratePlaceholderForNonPDF(t *testing.T) {
	store := newFakeStore()
	repo := newFakeFileRepo()
	s, _ := newTestThumbnailService(t, store, repo)
	dbc := dbctx.Context{Ctx: context.Background()}

	file := &domain.PortalFile{
		ID:           uuid.New(),
		OwnerID:      uuid.New(),
		Name:         "1_clip.mp4",
		OriginalName: "clip.mp4",
		Type:         domain.FileTypeVideo,
		StorageKey:   "videos/1_clip.mp4",
	}
	if _, err := repo.Create(dbc, []*domain.PortalFile{file}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	url, err := s.Generate(dbc, file, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantKey := "thumbnails/" + file.ID.String() + ".png"
	if url != "https://cdn.test/"+wantKey {
		t.Fatalf("url = %q", url)
	}
	data, ok := store.get(wantKey)
	if !ok || len(data) == 0 {
		t.Fatalf("placeholder not stored")
	}
	// PNG magic bytes.
	if !bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}) {
		t.Fatalf("stored thumbnail is not a PNG")
	}

	rows, _ := repo.GetByIDs(dbc, []uuid.UUID{file.ID})
	if rows[0].ThumbnailURL != url {
		t.Fatalf("thumbnail url not persisted: %q", rows[0].ThumbnailURL)
	}
}

func TestGenerateSkipsExistingUnlessForced(t *testing.T) {
	store := newFakeStore()
	repo := newFakeFileRepo()
	s, _ := newTestThumbnailService(t, store, repo)
	dbc := dbctx.Context{Ctx: context.Background()}

	file := &domain.PortalFile{
		ID:           uuid.New(),
		OriginalName: "clip.mp4",
		Type:         domain.FileTypeVideo,
		ThumbnailURL: "https://cdn.test/thumbnails/existing.png",
	}
	url, err := s.Generate(dbc, file, false)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if url != file.ThumbnailURL {
		t.Fatalf("existing thumbnail not reused: %q", url)
	}
	if store.uploads != 0 {
		t.Fatalf("skip path must not touch storage, made %d uploads", store.uploads)
	}
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 0
	}
	return len(p), nil
}

func TestReadBoundedPDF(t *testing.T) {
	if _, err := readBoundedPDF(bytes.NewReader(nil)); err == nil {
		t.Fatalf("empty payload must be rejected")
	}
	if _, err := readBoundedPDF(io.LimitReader(zeroReader{}, maxPDFBytes+1)); err == nil {
		t.Fatalf("oversized payload must be rejected")
	}
	data, err := readBoundedPDF(bytes.NewReader([]byte("%PDF-1.7")))
	if err != nil || len(data) != 8 {
		t.Fatalf("small payload: data=%d err=%v", len(data), err)
	}
}
