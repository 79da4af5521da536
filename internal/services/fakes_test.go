package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/data/repos/files"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/gcs"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dev")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

// fakeStore is an in-memory gcs.ObjectStore honoring the DoesNotExist
// precondition and compose ordering.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	uploadErrs int // fail this many Uploads before succeeding
	uploads    int
	lastCtx    context.Context
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Upload(ctx context.Context, key string, r io.Reader, opts gcs.UploadOptions) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads++
	f.lastCtx = ctx
	if f.uploadErrs > 0 {
		f.uploadErrs--
		return fmt.Errorf("injected upload failure")
	}
	if _, exists := f.objects[key]; exists && !opts.Overwrite {
		return fmt.Errorf("object %q already exists", key)
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) Compose(ctx context.Context, dstKey string, srcKeys []string, opts gcs.UploadOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	var buf bytes.Buffer
	for _, k := range srcKeys {
		data, ok := f.objects[k]
		if !ok {
			return fmt.Errorf("compose: missing source %q", k)
		}
		buf.Write(data)
	}
	f.objects[dstKey] = buf.Bytes()
	return nil
}

func (f *fakeStore) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %q not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return fmt.Errorf("object %q not found", key)
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) DeletePrefix(ctx context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			delete(f.objects, k)
		}
	}
	return nil
}

func (f *fakeStore) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeStore) PublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeStore) get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}

// fakeSessionRepo is an in-memory uploads.UploadSessionRepo.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.UploadSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[uuid.UUID]*domain.UploadSession{}}
}

func (f *fakeSessionRepo) Create(dbc dbctx.Context, rows []*domain.UploadSession) ([]*domain.UploadSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range rows {
		cp := *s
		cp.CreatedAt = time.Now()
		f.sessions[s.ID] = &cp
	}
	return rows, nil
}

func (f *fakeSessionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.UploadSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.UploadSession
	for _, id := range ids {
		if s, ok := f.sessions[id]; ok {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) FindResumable(dbc dbctx.Context, ownerID uuid.UUID, name string, totalBytes int64) (*domain.UploadSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *domain.UploadSession
	for _, s := range f.sessions {
		if s.OwnerID == ownerID && s.Name == name && s.TotalBytes == totalBytes && s.Status == domain.UploadStatusActive {
			if best == nil || s.CreatedAt.After(best.CreatedAt) {
				best = s
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeSessionRepo) RecordPart(dbc dbctx.Context, id uuid.UUID, receivedParts int, receivedBytes int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	s.ReceivedParts = receivedParts
	s.ReceivedBytes = receivedBytes
	return nil
}

func (f *fakeSessionRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status domain.UploadStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sessions[id]
	if !ok {
		return fmt.Errorf("session %s not found", id)
	}
	s.Status = status
	return nil
}

func (f *fakeSessionRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.sessions, id)
	}
	return nil
}

// fakeFileRepo is an in-memory files.PortalFileRepo.
type fakeFileRepo struct {
	mu    sync.Mutex
	files map[uuid.UUID]*domain.PortalFile
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: map[uuid.UUID]*domain.PortalFile{}}
}

func (f *fakeFileRepo) Create(dbc dbctx.Context, rows []*domain.PortalFile) ([]*domain.PortalFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		cp := *r
		f.files[r.ID] = &cp
	}
	return rows, nil
}

func (f *fakeFileRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.PortalFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.PortalFile
	for _, id := range ids {
		if r, ok := f.files[id]; ok {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeFileRepo) List(dbc dbctx.Context, filter files.ListFilter) ([]*domain.PortalFile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.PortalFile
	for _, r := range f.files {
		if filter.OwnerID != uuid.Nil && r.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Folder != "" && r.Folder != filter.Folder {
			continue
		}
		if filter.Type != "" && r.Type != filter.Type {
			continue
		}
		if filter.MissingThumbnail && r.ThumbnailURL != "" {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeFileRepo) UpdateStatus(dbc dbctx.Context, id uuid.UUID, status domain.FileStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.files[id]
	if !ok {
		return fmt.Errorf("file %s not found", id)
	}
	r.Status = status
	return nil
}

func (f *fakeFileRepo) UpdateAfterUpload(dbc dbctx.Context, id uuid.UUID, storageKey, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.files[id]
	if !ok {
		return fmt.Errorf("file %s not found", id)
	}
	r.StorageKey = storageKey
	r.URL = url
	r.Status = domain.FileStatusUploaded
	return nil
}

func (f *fakeFileRepo) UpdateThumbnailURL(dbc dbctx.Context, id uuid.UUID, thumbnailURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.files[id]
	if !ok {
		return fmt.Errorf("file %s not found", id)
	}
	r.ThumbnailURL = thumbnailURL
	return nil
}

func (f *fakeFileRepo) SoftDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.files, id)
	}
	return nil
}

func (f *fakeFileRepo) FullDeleteByIDs(dbc dbctx.Context, ids []uuid.UUID) error {
	return f.SoftDeleteByIDs(dbc, ids)
}
