package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/gcs"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/realtime"
)

// ChunkSize is the fixed part size for resumable uploads.
const ChunkSize int64 = 3 << 20

type BeginUploadInput struct {
	OwnerID     uuid.UUID
	Name        string
	Folder      string
	StorageKey  string
	ContentType string
	TotalBytes  int64
}

type UploadProgress struct {
	SessionID     uuid.UUID `json:"session_id"`
	Name          string    `json:"name"`
	ReceivedParts int       `json:"received_parts"`
	ReceivedBytes int64     `json:"received_bytes"`
	TotalBytes    int64     `json:"total_bytes"`
}

// activeUpload is the live half of a session: cancellation and counters the
// durable row does not need on every part. Staged writes run on ctx so Abort
// cancels a part that is still in flight.
type activeUpload struct {
	session *domain.UploadSession
	ctx     context.Context
	cancel  context.CancelFunc

	receivedParts int
	receivedBytes int64
}

// UploadManager owns the registry of in-flight chunked uploads. Sessions are
// inserted on Begin and removed when they settle (Finish or Abort); the
// registry is the manager's own state, nothing package-level.
type UploadManager struct {
	log      *logger.Logger
	store    gcs.ObjectStore
	sessions repos.UploadSessionRepo
	hub      *realtime.SSEHub

	mu     sync.Mutex
	active map[uuid.UUID]*activeUpload
}

func NewUploadManager(log *logger.Logger, store gcs.ObjectStore, sessions repos.UploadSessionRepo, hub *realtime.SSEHub) *UploadManager {
	return &UploadManager{
		log:      log.With("service", "UploadManager"),
		store:    store,
		sessions: sessions,
		hub:      hub,
		active:   make(map[uuid.UUID]*activeUpload),
	}
}

func stagePartKey(sessionID uuid.UUID, part int) string {
	return fmt.Sprintf("uploads/tmp/%s/part-%04d", sessionID, part)
}

func stagePrefix(sessionID uuid.UUID) string {
	return fmt.Sprintf("uploads/tmp/%s/", sessionID)
}

// PartCount is the number of fixed-size chunks a payload splits into.
func PartCount(totalBytes, chunkSize int64) int {
	if totalBytes <= 0 || chunkSize <= 0 {
		return 0
	}
	return int((totalBytes + chunkSize - 1) / chunkSize)
}

// Begin opens a chunked session, resuming an existing active session for the
// same owner, name and size when one exists. The returned session's
// ReceivedParts tells the caller which part to send next.
func (m *UploadManager) Begin(dbc dbctx.Context, input BeginUploadInput) (*domain.UploadSession, error) {
	if input.TotalBytes <= 0 {
		return nil, fmt.Errorf("begin upload %q: total bytes must be positive", input.Name)
	}

	session, err := m.sessions.FindResumable(dbc, input.OwnerID, input.Name, input.TotalBytes)
	if err != nil {
		return nil, fmt.Errorf("find resumable session: %w", err)
	}
	if session != nil {
		m.log.Info("resuming upload session",
			"session_id", session.ID, "name", session.Name,
			"received_parts", session.ReceivedParts)
	} else {
		session = &domain.UploadSession{
			ID:          uuid.New(),
			OwnerID:     input.OwnerID,
			Name:        input.Name,
			Folder:      input.Folder,
			StorageKey:  input.StorageKey,
			ContentType: input.ContentType,
			TotalBytes:  input.TotalBytes,
			ChunkSize:   ChunkSize,
			Status:      domain.UploadStatusActive,
		}
		if _, err := m.sessions.Create(dbc, []*domain.UploadSession{session}); err != nil {
			return nil, fmt.Errorf("create upload session: %w", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.active[session.ID] = &activeUpload{
		session:       session,
		ctx:           ctx,
		cancel:        cancel,
		receivedParts: session.ReceivedParts,
		receivedBytes: session.ReceivedBytes,
	}
	m.mu.Unlock()
	return session, nil
}

// PutPart stages one chunk. Parts must arrive in order; re-sending the part
// the registry already acknowledges is accepted so a retried request is
// harmless.
func (m *UploadManager) PutPart(dbc dbctx.Context, sessionID uuid.UUID, part int, size int64, r io.Reader) error {
	m.mu.Lock()
	au, ok := m.active[sessionID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("upload session %s is not active", sessionID)
	}
	if part > au.receivedParts {
		return fmt.Errorf("upload session %s: expected part %d, got %d", sessionID, au.receivedParts, part)
	}

	// Stage on the session context, not the request's: aborting the session
	// cancels the write, and a resumed session outlives the request that
	// opened it.
	key := stagePartKey(sessionID, part)
	if err := m.store.Upload(au.ctx, key, r, gcs.UploadOptions{
		ContentType: "application/octet-stream",
		Overwrite:   true,
	}); err != nil {
		return fmt.Errorf("stage part %d: %w", part, err)
	}

	if part == au.receivedParts {
		m.mu.Lock()
		au.receivedParts++
		au.receivedBytes += size
		parts, bytes := au.receivedParts, au.receivedBytes
		m.mu.Unlock()

		if err := m.sessions.RecordPart(dbc, sessionID, parts, bytes); err != nil {
			return fmt.Errorf("record part %d: %w", part, err)
		}
		m.broadcast(au.session, realtime.SSEEventUploadProgress, UploadProgress{
			SessionID:     sessionID,
			Name:          au.session.Name,
			ReceivedParts: parts,
			ReceivedBytes: bytes,
			TotalBytes:    au.session.TotalBytes,
		})
	}
	return nil
}

// Finish composes the staged parts into the final object, clears the staging
// prefix, and settles the session.
func (m *UploadManager) Finish(dbc dbctx.Context, sessionID uuid.UUID) (*domain.UploadSession, error) {
	m.mu.Lock()
	au, ok := m.active[sessionID]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("upload session %s is not active", sessionID)
	}

	want := PartCount(au.session.TotalBytes, au.session.ChunkSize)
	if au.receivedParts < want {
		return nil, fmt.Errorf("upload session %s incomplete: %d of %d parts", sessionID, au.receivedParts, want)
	}

	srcKeys := make([]string, 0, want)
	for i := 0; i < want; i++ {
		srcKeys = append(srcKeys, stagePartKey(sessionID, i))
	}
	if err := m.store.Compose(dbc.Ctx, au.session.StorageKey, srcKeys, gcs.UploadOptions{
		ContentType: au.session.ContentType,
	}); err != nil {
		return nil, fmt.Errorf("compose final object: %w", err)
	}

	if err := m.store.DeletePrefix(dbc.Ctx, stagePrefix(sessionID)); err != nil {
		m.log.Warn("failed to clear staged parts", "session_id", sessionID, "error", err)
	}
	if err := m.sessions.UpdateStatus(dbc, sessionID, domain.UploadStatusComplete); err != nil {
		return nil, fmt.Errorf("settle session: %w", err)
	}

	au.cancel()
	m.remove(sessionID)
	m.broadcast(au.session, realtime.SSEEventUploadSettled, UploadProgress{
		SessionID:     sessionID,
		Name:          au.session.Name,
		ReceivedParts: au.receivedParts,
		ReceivedBytes: au.receivedBytes,
		TotalBytes:    au.session.TotalBytes,
	})
	return au.session, nil
}

// Abort cancels the transfer, deletes any staged parts, and removes the
// session from the registry.
func (m *UploadManager) Abort(dbc dbctx.Context, sessionID uuid.UUID) error {
	m.mu.Lock()
	au, ok := m.active[sessionID]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("upload session %s is not active", sessionID)
	}

	au.cancel()
	if err := m.store.DeletePrefix(dbc.Ctx, stagePrefix(sessionID)); err != nil {
		m.log.Warn("failed to clear staged parts on abort", "session_id", sessionID, "error", err)
	}
	if err := m.sessions.UpdateStatus(dbc, sessionID, domain.UploadStatusAborted); err != nil {
		return fmt.Errorf("mark session aborted: %w", err)
	}

	m.remove(sessionID)
	m.broadcast(au.session, realtime.SSEEventUploadAborted, UploadProgress{
		SessionID:  sessionID,
		Name:       au.session.Name,
		TotalBytes: au.session.TotalBytes,
	})
	return nil
}

// Progress reports live counters for an active session.
func (m *UploadManager) Progress(sessionID uuid.UUID) (received int64, total int64, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	au, found := m.active[sessionID]
	if !found {
		return 0, 0, false
	}
	return au.receivedBytes, au.session.TotalBytes, true
}

// ActiveCount reports the registry size.
func (m *UploadManager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.active)
}

func (m *UploadManager) remove(sessionID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, sessionID)
}

func (m *UploadManager) broadcast(session *domain.UploadSession, event realtime.SSEEvent, data any) {
	if m.hub == nil {
		return
	}
	m.hub.Broadcast(realtime.SSEMessage{
		Channel: realtime.UserChannel(session.OwnerID),
		Event:   event,
		Data:    data,
	})
}
