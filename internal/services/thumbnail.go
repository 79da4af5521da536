package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/gcs"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/platform/media"
)

const (
	ThumbnailWidth  = 400
	ThumbnailHeight = 225

	maxPDFBytes     = 50 << 20
	pdfFetchTimeout = 30 * time.Second

	thumbnailUploadAttempts = 4
)

func thumbnailKeyFor(fileID uuid.UUID) string {
	return "thumbnails/" + fileID.String() + ".png"
}

type ThumbnailService interface {
	// Generate produces and persists a thumbnail for the file, returning the
	// public URL. With force false a file that already carries a thumbnail is
	// returned as-is.
	Generate(dbc dbctx.Context, file *domain.PortalFile, force bool) (string, error)
}

type thumbnailService struct {
	log      *logger.Logger
	store    gcs.ObjectStore
	repo     repos.PortalFileRepo
	renderer media.Renderer
	fetch    *http.Client

	// sleep is swapped in tests to observe the backoff schedule.
	sleep func(time.Duration)
}

func NewThumbnailService(log *logger.Logger, store gcs.ObjectStore, repo repos.PortalFileRepo, renderer media.Renderer) ThumbnailService {
	return &thumbnailService{
		log:      log.With("service", "ThumbnailService"),
		store:    store,
		repo:     repo,
		renderer: renderer,
		fetch:    &http.Client{Timeout: pdfFetchTimeout},
		sleep:    time.Sleep,
	}
}

func (s *thumbnailService) Generate(dbc dbctx.Context, file *domain.PortalFile, force bool) (string, error) {
	if file.ThumbnailURL != "" && !force {
		return file.ThumbnailURL, nil
	}

	var (
		pngBytes []byte
		err      error
	)
	if isRenderablePDF(file) {
		pngBytes, err = s.renderPDFThumbnail(dbc.Ctx, file)
	} else {
		pngBytes, err = media.PlaceholderTile(file.OriginalName, path.Ext(file.OriginalName), ThumbnailWidth, ThumbnailHeight)
	}
	if err != nil {
		return "", fmt.Errorf("thumbnail for %s: %w", file.ID, err)
	}

	key := thumbnailKeyFor(file.ID)
	if err := s.uploadWithBackoff(dbc.Ctx, key, pngBytes); err != nil {
		return "", fmt.Errorf("store thumbnail for %s: %w", file.ID, err)
	}

	url := s.store.PublicURL(key)
	if err := s.repo.UpdateThumbnailURL(dbc, file.ID, url); err != nil {
		return "", fmt.Errorf("persist thumbnail url for %s: %w", file.ID, err)
	}
	file.ThumbnailURL = url
	return url, nil
}

func isRenderablePDF(file *domain.PortalFile) bool {
	return file.Type == domain.FileTypeDocument &&
		strings.EqualFold(path.Ext(file.OriginalName), ".pdf")
}

func (s *thumbnailService) renderPDFThumbnail(ctx context.Context, file *domain.PortalFile) ([]byte, error) {
	pdf, err := s.loadPDF(ctx, file)
	if err != nil {
		return nil, err
	}

	page, err := s.renderer.RenderFirstPage(ctx, pdf, ThumbnailWidth)
	if err != nil {
		return nil, fmt.Errorf("render first page: %w", err)
	}
	// Crop to the card aspect, anchored at the page top. The top of page one
	// carries the title; centering would show the middle of the page instead.
	cropped := media.CropTopAligned(page, ThumbnailWidth, ThumbnailHeight)
	return media.EncodePNG(cropped)
}

// loadPDF prefers the stored object; a file without a storage key falls back
// to its URL. Empty payloads, non-PDF content types, and oversized documents
// are all terminal for this file.
func (s *thumbnailService) loadPDF(ctx context.Context, file *domain.PortalFile) ([]byte, error) {
	if file.StorageKey != "" {
		r, err := s.store.Download(ctx, file.StorageKey)
		if err != nil {
			return nil, fmt.Errorf("download %q: %w", file.StorageKey, err)
		}
		defer r.Close()
		return readBoundedPDF(r)
	}
	if file.URL == "" {
		return nil, fmt.Errorf("file %s has neither storage key nor url", file.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, pdfFetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.fetch.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %q: %w", file.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %q: status %d", file.URL, resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "pdf") {
		return nil, fmt.Errorf("fetch %q: content type %q is not a pdf", file.URL, ct)
	}
	return readBoundedPDF(resp.Body)
}

func readBoundedPDF(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxPDFBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("empty pdf payload")
	}
	if len(data) > maxPDFBytes {
		return nil, fmt.Errorf("pdf exceeds %d byte limit", maxPDFBytes)
	}
	return data, nil
}

// uploadWithBackoff retries the thumbnail write with doubling delays before
// giving up: 500ms, 1s, 2s between the four attempts.
func (s *thumbnailService) uploadWithBackoff(ctx context.Context, key string, data []byte) error {
	var lastErr error
	delay := 500 * time.Millisecond
	for attempt := 1; attempt <= thumbnailUploadAttempts; attempt++ {
		err := s.store.Upload(ctx, key, bytes.NewReader(data), gcs.UploadOptions{
			ContentType:  "image/png",
			CacheControl: "public, max-age=604800",
			Overwrite:    true,
		})
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < thumbnailUploadAttempts {
			s.log.Warn("thumbnail upload failed, retrying",
				"key", key, "attempt", attempt, "error", err)
			s.sleep(delay)
			delay *= 2
		}
	}
	return lastErr
}
