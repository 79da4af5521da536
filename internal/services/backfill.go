package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/data/repos/files"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
	"github.com/evarahealth/clinic-backend/internal/realtime"
)

// BackoffPolicy paces the backfill queue. The delay after an item doubles
// with each consecutive failure and resets on success, so a struggling
// downstream gets breathing room without stalling a healthy run.
type BackoffPolicy struct {
	Base time.Duration
	Max  time.Duration
}

func DefaultBackoffPolicy() BackoffPolicy {
	return BackoffPolicy{Base: 500 * time.Millisecond, Max: 2 * time.Second}
}

func (p BackoffPolicy) Delay(consecutiveFailures int) time.Duration {
	d := p.Base
	for i := 0; i < consecutiveFailures; i++ {
		d *= 2
		if d >= p.Max {
			return p.Max
		}
	}
	return d
}

type BackfillSummary struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type backfilledEvent struct {
	FileID       uuid.UUID `json:"file_id"`
	Name         string    `json:"name"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type BackfillService interface {
	// Run walks files missing a thumbnail (or every file when force is set)
	// one at a time, generating thumbnails with inter-item pacing. One item's
	// failure never stops the run.
	Run(dbc dbctx.Context, ownerID uuid.UUID, force bool) (*BackfillSummary, error)
}

type backfillService struct {
	log        *logger.Logger
	repo       repos.PortalFileRepo
	thumbnails ThumbnailService
	hub        *realtime.SSEHub
	policy     BackoffPolicy

	sleep func(time.Duration)
}

func NewBackfillService(log *logger.Logger, repo repos.PortalFileRepo, thumbnails ThumbnailService, hub *realtime.SSEHub) BackfillService {
	return &backfillService{
		log:        log.With("service", "BackfillService"),
		repo:       repo,
		thumbnails: thumbnails,
		hub:        hub,
		policy:     DefaultBackoffPolicy(),
		sleep:      time.Sleep,
	}
}

func (s *backfillService) Run(dbc dbctx.Context, ownerID uuid.UUID, force bool) (*BackfillSummary, error) {
	filter := files.ListFilter{OwnerID: ownerID, MissingThumbnail: !force}
	rows, err := s.repo.List(dbc, filter)
	if err != nil {
		return nil, err
	}

	summary := &BackfillSummary{}
	consecutiveFailures := 0
	for i, file := range rows {
		if err := dbc.Ctx.Err(); err != nil {
			s.log.Warn("backfill interrupted", "processed", summary.Processed, "error", err)
			return summary, err
		}

		url, genErr := s.thumbnails.Generate(dbc, file, force)
		summary.Processed++
		event := backfilledEvent{FileID: file.ID, Name: file.Name, ThumbnailURL: url}
		if genErr != nil {
			summary.Failed++
			consecutiveFailures++
			event.Error = genErr.Error()
			s.log.Warn("backfill item failed", "file_id", file.ID, "error", genErr)
		} else {
			summary.Succeeded++
			consecutiveFailures = 0
		}

		if s.hub != nil {
			s.hub.Broadcast(realtime.SSEMessage{
				Channel: realtime.UserChannel(file.OwnerID),
				Event:   realtime.SSEEventThumbnailBackfilled,
				Data:    event,
			})
		}

		if i < len(rows)-1 {
			s.sleep(s.policy.Delay(consecutiveFailures))
		}
	}

	s.log.Info("backfill finished",
		"processed", summary.Processed, "succeeded", summary.Succeeded, "failed", summary.Failed)
	return summary, nil
}
