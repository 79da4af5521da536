package services

import (
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/data/repos/files"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/gcs"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

// DirectUploadThreshold routes payloads at or below this size through a
// single-request upload; anything larger goes through a chunked session.
const DirectUploadThreshold int64 = 6 << 20

type UploadInput struct {
	OwnerID      uuid.UUID
	OriginalName string
	Folder       string
	ContentType  string
	Size         int64
	Body         io.Reader
	Metadata     datatypes.JSON
}

// UploadSummary aggregates a multi-file selection. One file's failure never
// aborts the others; it only shows up here.
type UploadSummary struct {
	Succeeded int                  `json:"succeeded"`
	Failed    int                  `json:"failed"`
	Files     []*domain.PortalFile `json:"files"`
	Errors    map[string]string    `json:"errors,omitempty"`
}

type FileService interface {
	Upload(dbc dbctx.Context, input UploadInput) (*domain.PortalFile, error)
	UploadMany(dbc dbctx.Context, inputs []UploadInput) (*UploadSummary, error)
	// BeginChunked opens a client-driven chunked upload: the file row plus a
	// session the client feeds through the upload endpoints part by part.
	BeginChunked(dbc dbctx.Context, input UploadInput) (*domain.PortalFile, *domain.UploadSession, error)
	FinishChunked(dbc dbctx.Context, sessionID, fileID uuid.UUID) (*domain.PortalFile, error)
	AbortChunked(dbc dbctx.Context, sessionID, fileID uuid.UUID) error
	Get(dbc dbctx.Context, id uuid.UUID) (*domain.PortalFile, error)
	List(dbc dbctx.Context, filter files.ListFilter) ([]*domain.PortalFile, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type fileService struct {
	log     *logger.Logger
	store   gcs.ObjectStore
	repo    repos.PortalFileRepo
	content repos.PortalContentRepo
	manager *UploadManager
	auth    AuthService
}

func NewFileService(
	log *logger.Logger,
	store gcs.ObjectStore,
	repo repos.PortalFileRepo,
	content repos.PortalContentRepo,
	manager *UploadManager,
	auth AuthService,
) FileService {
	return &fileService{
		log:     log.With("service", "FileService"),
		store:   store,
		repo:    repo,
		content: content,
		manager: manager,
		auth:    auth,
	}
}

// SanitizeBaseName strips everything but ASCII letters and digits from a
// filename's base. The result may be empty; GenerateStorageName substitutes
// "file" in that case.
func SanitizeBaseName(base string) string {
	var b strings.Builder
	for _, r := range base {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// GenerateStorageName builds "{unix-nano}_{sanitised base}.{ext}". The
// extension is kept verbatim; only type inference lower-cases it.
func GenerateStorageName(originalName string) string {
	ext := path.Ext(originalName)
	base := strings.TrimSuffix(path.Base(originalName), ext)
	clean := SanitizeBaseName(base)
	if clean == "" {
		clean = "file"
	}
	return fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), clean, ext)
}

// InferFileType maps a filename extension to the coarse portal type. The
// extension is the only signal; content is never sniffed.
func InferFileType(name string) domain.FileType {
	switch strings.ToLower(strings.TrimPrefix(path.Ext(name), ".")) {
	case "jpg", "jpeg", "png", "gif", "webp", "svg", "bmp", "tiff":
		return domain.FileTypeImage
	case "mp4", "mov", "avi", "mkv", "webm", "m4v":
		return domain.FileTypeVideo
	case "mp3", "wav", "m4a", "ogg", "flac", "aac":
		return domain.FileTypeAudio
	case "pdf", "doc", "docx", "xls", "xlsx", "ppt", "pptx", "txt", "csv", "md":
		return domain.FileTypeDocument
	default:
		return domain.FileTypeOther
	}
}

// NeedsChunking reports whether a payload routes through a chunked session.
func NeedsChunking(size int64) bool {
	return size > DirectUploadThreshold
}

func storageKeyFor(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	return folder + "/" + name
}

func (s *fileService) Upload(dbc dbctx.Context, input UploadInput) (*domain.PortalFile, error) {
	if input.Size <= 0 {
		return nil, fmt.Errorf("upload %q: size must be positive", input.OriginalName)
	}

	name := GenerateStorageName(input.OriginalName)
	key := storageKeyFor(input.Folder, name)
	row := &domain.PortalFile{
		ID:           uuid.New(),
		OwnerID:      input.OwnerID,
		Name:         name,
		OriginalName: input.OriginalName,
		Type:         InferFileType(input.OriginalName),
		Size:         input.Size,
		Folder:       strings.Trim(input.Folder, "/"),
		StorageKey:   key,
		Status:       domain.FileStatusUploading,
		Metadata:     input.Metadata,
	}
	if _, err := s.repo.Create(dbc, []*domain.PortalFile{row}); err != nil {
		return nil, fmt.Errorf("create file row: %w", err)
	}

	// Slide the caller's session forward before touching storage; a long
	// transfer must not outlive its credential.
	if err := s.auth.ExtendSession(dbc); err != nil {
		s.log.Warn("could not extend session before upload", "file_id", row.ID, "error", err)
	}

	var uploadErr error
	if NeedsChunking(input.Size) {
		uploadErr = s.uploadChunked(dbc, row, input)
	} else {
		uploadErr = s.store.Upload(dbc.Ctx, key, input.Body, gcs.UploadOptions{
			ContentType:  input.ContentType,
			CacheControl: "public, max-age=86400",
			Overwrite:    false,
		})
	}
	if uploadErr != nil {
		if err := s.repo.UpdateStatus(dbc, row.ID, domain.FileStatusUploadFailed); err != nil {
			s.log.Error("failed to mark upload failure", "file_id", row.ID, "error", err)
		}
		return nil, fmt.Errorf("upload %q: %w", input.OriginalName, uploadErr)
	}

	url := s.store.PublicURL(key)
	if err := s.repo.UpdateAfterUpload(dbc, row.ID, key, url); err != nil {
		return nil, fmt.Errorf("settle file row: %w", err)
	}
	row.URL = url
	row.Status = domain.FileStatusUploaded
	s.log.Info("file uploaded", "file_id", row.ID, "key", key, "size", input.Size)
	return row, nil
}

// uploadChunked drives a session to completion from a single reader: the
// server-side path for payloads over the threshold. Clients doing their own
// chunking talk to the UploadManager directly through the HTTP surface.
func (s *fileService) uploadChunked(dbc dbctx.Context, row *domain.PortalFile, input UploadInput) error {
	session, err := s.manager.Begin(dbc, BeginUploadInput{
		OwnerID:     input.OwnerID,
		Name:        row.Name,
		Folder:      row.Folder,
		StorageKey:  row.StorageKey,
		ContentType: input.ContentType,
		TotalBytes:  input.Size,
	})
	if err != nil {
		return err
	}

	// Skip parts a resumed session already holds.
	if skip := int64(session.ReceivedParts) * session.ChunkSize; skip > 0 {
		if _, err := io.CopyN(io.Discard, input.Body, skip); err != nil {
			return fmt.Errorf("skip resumed bytes: %w", err)
		}
	}

	total := PartCount(input.Size, session.ChunkSize)
	for part := session.ReceivedParts; part < total; part++ {
		remaining := input.Size - int64(part)*session.ChunkSize
		partSize := session.ChunkSize
		if remaining < partSize {
			partSize = remaining
		}
		if err := s.manager.PutPart(dbc, session.ID, part, partSize, io.LimitReader(input.Body, partSize)); err != nil {
			return err
		}
	}
	_, err = s.manager.Finish(dbc, session.ID)
	return err
}

func (s *fileService) BeginChunked(dbc dbctx.Context, input UploadInput) (*domain.PortalFile, *domain.UploadSession, error) {
	if !NeedsChunking(input.Size) {
		return nil, nil, fmt.Errorf("payload of %d bytes does not need a chunked session", input.Size)
	}

	name := GenerateStorageName(input.OriginalName)
	key := storageKeyFor(input.Folder, name)
	row := &domain.PortalFile{
		ID:           uuid.New(),
		OwnerID:      input.OwnerID,
		Name:         name,
		OriginalName: input.OriginalName,
		Type:         InferFileType(input.OriginalName),
		Size:         input.Size,
		Folder:       strings.Trim(input.Folder, "/"),
		StorageKey:   key,
		Status:       domain.FileStatusUploading,
		Metadata:     input.Metadata,
	}
	if _, err := s.repo.Create(dbc, []*domain.PortalFile{row}); err != nil {
		return nil, nil, fmt.Errorf("create file row: %w", err)
	}
	if err := s.auth.ExtendSession(dbc); err != nil {
		s.log.Warn("could not extend session before chunked upload", "file_id", row.ID, "error", err)
	}

	session, err := s.manager.Begin(dbc, BeginUploadInput{
		OwnerID:     input.OwnerID,
		Name:        name,
		Folder:      row.Folder,
		StorageKey:  key,
		ContentType: input.ContentType,
		TotalBytes:  input.Size,
	})
	if err != nil {
		if derr := s.repo.UpdateStatus(dbc, row.ID, domain.FileStatusUploadFailed); derr != nil {
			s.log.Error("failed to mark upload failure", "file_id", row.ID, "error", derr)
		}
		return nil, nil, err
	}
	return row, session, nil
}

func (s *fileService) FinishChunked(dbc dbctx.Context, sessionID, fileID uuid.UUID) (*domain.PortalFile, error) {
	session, err := s.manager.Finish(dbc, sessionID)
	if err != nil {
		return nil, err
	}
	url := s.store.PublicURL(session.StorageKey)
	if err := s.repo.UpdateAfterUpload(dbc, fileID, session.StorageKey, url); err != nil {
		return nil, fmt.Errorf("settle file row: %w", err)
	}
	return s.Get(dbc, fileID)
}

func (s *fileService) AbortChunked(dbc dbctx.Context, sessionID, fileID uuid.UUID) error {
	if err := s.manager.Abort(dbc, sessionID); err != nil {
		return err
	}
	if err := s.repo.UpdateStatus(dbc, fileID, domain.FileStatusUploadFailed); err != nil {
		s.log.Warn("could not mark aborted file row", "file_id", fileID, "error", err)
	}
	return nil
}

func (s *fileService) UploadMany(dbc dbctx.Context, inputs []UploadInput) (*UploadSummary, error) {
	summary := &UploadSummary{Errors: map[string]string{}}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(dbc.Ctx)
	g.SetLimit(4)
	for _, input := range inputs {
		input := input
		g.Go(func() error {
			row, err := s.Upload(dbctx.Context{Ctx: ctx, Tx: dbc.Tx}, input)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				summary.Failed++
				summary.Errors[input.OriginalName] = err.Error()
				// Failures are reported, not propagated, so sibling uploads run
				// to completion.
				return nil
			}
			summary.Succeeded++
			summary.Files = append(summary.Files, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return summary, err
	}
	if len(summary.Errors) == 0 {
		summary.Errors = nil
	}
	return summary, nil
}

func (s *fileService) Get(dbc dbctx.Context, id uuid.UUID) (*domain.PortalFile, error) {
	rows, err := s.repo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("file %s not found", id)
	}
	return rows[0], nil
}

func (s *fileService) List(dbc dbctx.Context, filter files.ListFilter) ([]*domain.PortalFile, error) {
	return s.repo.List(dbc, filter)
}

// Delete removes the stored object, then the row. The two calls are
// independent and never assumed transactional: a storage failure leaves the
// row intact for retry; a row failure after a storage success is logged as an
// orphan for reconciliation.
func (s *fileService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	file, err := s.Get(dbc, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(dbc.Ctx, file.StorageKey); err != nil {
		return fmt.Errorf("delete stored object %q: %w", file.StorageKey, err)
	}
	if file.ThumbnailURL != "" {
		if err := s.store.Delete(dbc.Ctx, thumbnailKeyFor(file.ID)); err != nil {
			s.log.Warn("failed to delete thumbnail object", "file_id", file.ID, "error", err)
		}
	}

	if err := s.content.SoftDeleteByFileIDs(dbc, []uuid.UUID{file.ID}); err != nil {
		s.log.Warn("failed to retire content rows for deleted file", "file_id", file.ID, "error", err)
	}
	if err := s.repo.SoftDeleteByIDs(dbc, []uuid.UUID{file.ID}); err != nil {
		s.log.Error("orphaned file row: storage object deleted but row removal failed",
			"file_id", file.ID, "storage_key", file.StorageKey, "error", err)
		return fmt.Errorf("delete file row %s: %w", file.ID, err)
	}
	s.log.Info("file deleted", "file_id", file.ID, "storage_key", file.StorageKey)
	return nil
}
