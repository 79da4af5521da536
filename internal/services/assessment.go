package services

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/evarahealth/clinic-backend/internal/assessment"
	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

type SubmitAssessmentInput struct {
	UserID     uuid.UUID      `json:"-"`
	Instrument string         `json:"instrument"`
	Responses  map[string]int `json:"responses"`
}

type AssessmentService interface {
	// Instruments lists the registered questionnaire keys.
	Instruments() []string
	Instrument(key string) (*assessment.Questionnaire, error)
	// Submit scores a complete response set and persists the submission.
	Submit(dbc dbctx.Context, input SubmitAssessmentInput) (*domain.AssessmentSubmission, *assessment.Result, error)
	History(dbc dbctx.Context, userID uuid.UUID, instrument string) ([]*domain.AssessmentSubmission, error)
}

type assessmentService struct {
	log  *logger.Logger
	repo repos.SubmissionRepo
}

func NewAssessmentService(log *logger.Logger, repo repos.SubmissionRepo) AssessmentService {
	return &assessmentService{
		log:  log.With("service", "AssessmentService"),
		repo: repo,
	}
}

func (s *assessmentService) Instruments() []string {
	return assessment.Keys()
}

func (s *assessmentService) Instrument(key string) (*assessment.Questionnaire, error) {
	q := assessment.ByKey(key)
	if q == nil {
		return nil, fmt.Errorf("unknown instrument %q", key)
	}
	return q, nil
}

func (s *assessmentService) Submit(dbc dbctx.Context, input SubmitAssessmentInput) (*domain.AssessmentSubmission, *assessment.Result, error) {
	q, err := s.Instrument(input.Instrument)
	if err != nil {
		return nil, nil, err
	}
	result, err := q.Score(input.Responses)
	if err != nil {
		return nil, nil, fmt.Errorf("score %q: %w", input.Instrument, err)
	}

	responsesJSON, err := json.Marshal(input.Responses)
	if err != nil {
		return nil, nil, fmt.Errorf("encode responses: %w", err)
	}
	subscoresJSON, err := json.Marshal(map[string]any{
		"by_category":    result.ByCategory,
		"by_subcategory": result.BySubcategory,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("encode subscores: %w", err)
	}

	row := &domain.AssessmentSubmission{
		ID:         uuid.New(),
		UserID:     input.UserID,
		Instrument: q.Key,
		Responses:  datatypes.JSON(responsesJSON),
		Total:      result.Total,
		Band:       result.Band,
		Subscores:  datatypes.JSON(subscoresJSON),
	}
	if _, err := s.repo.Create(dbc, []*domain.AssessmentSubmission{row}); err != nil {
		return nil, nil, fmt.Errorf("store submission: %w", err)
	}
	s.log.Info("assessment submitted",
		"user_id", input.UserID, "instrument", q.Key, "total", result.Total, "band", result.Band)
	return row, &result, nil
}

func (s *assessmentService) History(dbc dbctx.Context, userID uuid.UUID, instrument string) ([]*domain.AssessmentSubmission, error) {
	return s.repo.GetByUserID(dbc, userID, instrument)
}
