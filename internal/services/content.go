package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/evarahealth/clinic-backend/internal/data/repos"
	"github.com/evarahealth/clinic-backend/internal/data/repos/content"
	"github.com/evarahealth/clinic-backend/internal/domain"
	"github.com/evarahealth/clinic-backend/internal/platform/dbctx"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

// PillarCatalog is the configured pillar -> subsection taxonomy. Operators
// may place content into subsections outside the catalog; the catalog only
// drives pickers and validation hints.
type PillarCatalog struct {
	Pillars []Pillar `yaml:"pillars"`
}

type Pillar struct {
	Key         string       `yaml:"key"`
	Title       string       `yaml:"title"`
	Subsections []Subsection `yaml:"subsections"`
}

type Subsection struct {
	Key   string `yaml:"key"`
	Title string `yaml:"title"`
}

func LoadPillarCatalog(path string) (*PillarCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pillar catalog %q: %w", path, err)
	}
	var cat PillarCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse pillar catalog %q: %w", path, err)
	}
	return &cat, nil
}

func (c *PillarCatalog) HasPillar(key string) bool {
	for _, p := range c.Pillars {
		if p.Key == key {
			return true
		}
	}
	return false
}

func (c *PillarCatalog) HasSubsection(pillar, subsection string) bool {
	for _, p := range c.Pillars {
		if p.Key != pillar {
			continue
		}
		for _, s := range p.Subsections {
			if s.Key == subsection {
				return true
			}
		}
	}
	return false
}

// Content payloads are a tagged union: one variant per content type, each
// with its own required fields and defaults.
const (
	ContentKindVideo        = "video"
	ContentKindDocument     = "document"
	ContentKindLink         = "link"
	ContentKindTool         = "tool"
	ContentKindProgramGuide = "program_guide"
)

type VideoContent struct {
	Kind            string `json:"kind"`
	URL             string `json:"url"`
	Provider        string `json:"provider"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

type DocumentContent struct {
	Kind         string `json:"kind"`
	URL          string `json:"url"`
	Downloadable bool   `json:"downloadable"`
	Pages        int    `json:"pages,omitempty"`
}

type LinkContent struct {
	Kind     string `json:"kind"`
	URL      string `json:"url"`
	Label    string `json:"label"`
	External bool   `json:"external"`
}

type ToolContent struct {
	Kind    string         `json:"kind"`
	ToolKey string         `json:"tool_key"`
	Config  map[string]any `json:"config,omitempty"`
}

type ProgramGuideContent struct {
	Kind      string   `json:"kind"`
	WeekCount int      `json:"week_count"`
	Topics    []string `json:"topics,omitempty"`
}

// NormalizeContentData maps loose operator input onto the canonical variant
// for the given kind, filling defaults. Unknown kinds and missing required
// fields are errors.
func NormalizeContentData(kind string, raw map[string]any) (any, error) {
	get := func(key string) string {
		v, _ := raw[key].(string)
		return strings.TrimSpace(v)
	}
	getInt := func(key string) int {
		switch v := raw[key].(type) {
		case float64:
			return int(v)
		case int:
			return v
		}
		return 0
	}

	switch kind {
	case ContentKindVideo:
		url := get("url")
		if url == "" {
			return nil, fmt.Errorf("video content requires url")
		}
		provider := get("provider")
		if provider == "" {
			provider = inferVideoProvider(url)
		}
		return &VideoContent{
			Kind:            ContentKindVideo,
			URL:             url,
			Provider:        provider,
			DurationSeconds: getInt("duration_seconds"),
		}, nil

	case ContentKindDocument:
		url := get("url")
		if url == "" {
			return nil, fmt.Errorf("document content requires url")
		}
		downloadable := true
		if v, ok := raw["downloadable"].(bool); ok {
			downloadable = v
		}
		return &DocumentContent{
			Kind:         ContentKindDocument,
			URL:          url,
			Downloadable: downloadable,
			Pages:        getInt("pages"),
		}, nil

	case ContentKindLink:
		url := get("url")
		if url == "" {
			return nil, fmt.Errorf("link content requires url")
		}
		label := get("label")
		if label == "" {
			label = url
		}
		external := true
		if v, ok := raw["external"].(bool); ok {
			external = v
		}
		return &LinkContent{Kind: ContentKindLink, URL: url, Label: label, External: external}, nil

	case ContentKindTool:
		toolKey := get("tool_key")
		if toolKey == "" {
			return nil, fmt.Errorf("tool content requires tool_key")
		}
		config, _ := raw["config"].(map[string]any)
		return &ToolContent{Kind: ContentKindTool, ToolKey: toolKey, Config: config}, nil

	case ContentKindProgramGuide:
		weeks := getInt("week_count")
		if weeks <= 0 {
			weeks = 1
		}
		var topics []string
		if rawTopics, ok := raw["topics"].([]any); ok {
			for _, t := range rawTopics {
				if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
					topics = append(topics, strings.TrimSpace(s))
				}
			}
		}
		return &ProgramGuideContent{Kind: ContentKindProgramGuide, WeekCount: weeks, Topics: topics}, nil

	default:
		return nil, fmt.Errorf("unknown content kind %q", kind)
	}
}

func inferVideoProvider(url string) string {
	switch {
	case strings.Contains(url, "youtube.com"), strings.Contains(url, "youtu.be"):
		return "youtube"
	case strings.Contains(url, "vimeo.com"):
		return "vimeo"
	default:
		return "hosted"
	}
}

type CreateContentInput struct {
	OwnerID      uuid.UUID      `json:"-"`
	FileID       *uuid.UUID     `json:"file_id,omitempty"`
	Pillar       string         `json:"pillar"`
	Subsection   string         `json:"subsection"`
	ContentType  string         `json:"content_type"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	ContentData  map[string]any `json:"content_data"`
	Tags         []string       `json:"tags"`
	DisplayOrder int            `json:"display_order"`
	IsPublished  bool           `json:"is_published"`
}

type ContentService interface {
	Create(dbc dbctx.Context, input CreateContentInput) (*domain.PortalContent, error)
	Get(dbc dbctx.Context, id uuid.UUID) (*domain.PortalContent, error)
	List(dbc dbctx.Context, filter content.ListFilter) ([]*domain.PortalContent, error)
	Update(dbc dbctx.Context, id uuid.UUID, input CreateContentInput) (*domain.PortalContent, error)
	SetPublished(dbc dbctx.Context, id uuid.UUID, published bool) error
	Delete(dbc dbctx.Context, id uuid.UUID) error
	Catalog() *PillarCatalog
}

type contentService struct {
	log     *logger.Logger
	repo    repos.PortalContentRepo
	catalog *PillarCatalog
}

func NewContentService(log *logger.Logger, repo repos.PortalContentRepo, catalog *PillarCatalog) ContentService {
	return &contentService{
		log:     log.With("service", "ContentService"),
		repo:    repo,
		catalog: catalog,
	}
}

func (s *contentService) Catalog() *PillarCatalog { return s.catalog }

func (s *contentService) validate(input *CreateContentInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Pillar = strings.TrimSpace(input.Pillar)
	input.Subsection = strings.TrimSpace(input.Subsection)
	if input.Title == "" {
		return fmt.Errorf("title is required")
	}
	if input.Subsection == "" {
		return fmt.Errorf("subsection is required")
	}
	if input.Pillar != "" && s.catalog != nil && s.catalog.HasPillar(input.Pillar) &&
		!s.catalog.HasSubsection(input.Pillar, input.Subsection) {
		// Operator-supplied subsections are allowed, but log the drift so the
		// catalog can catch up.
		s.log.Debug("subsection outside catalog",
			"pillar", input.Pillar, "subsection", input.Subsection)
	}
	return nil
}

func (s *contentService) buildRow(input CreateContentInput) (*domain.PortalContent, error) {
	payload, err := NormalizeContentData(input.ContentType, input.ContentData)
	if err != nil {
		return nil, err
	}
	dataJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode content data: %w", err)
	}
	var tagsJSON datatypes.JSON
	if len(input.Tags) > 0 {
		raw, err := json.Marshal(input.Tags)
		if err != nil {
			return nil, fmt.Errorf("encode tags: %w", err)
		}
		tagsJSON = datatypes.JSON(raw)
	}
	return &domain.PortalContent{
		ID:           uuid.New(),
		OwnerID:      input.OwnerID,
		FileID:       input.FileID,
		Pillar:       input.Pillar,
		Subsection:   input.Subsection,
		ContentType:  input.ContentType,
		Title:        input.Title,
		Description:  strings.TrimSpace(input.Description),
		ContentData:  datatypes.JSON(dataJSON),
		Tags:         tagsJSON,
		DisplayOrder: input.DisplayOrder,
		IsPublished:  input.IsPublished,
	}, nil
}

func (s *contentService) Create(dbc dbctx.Context, input CreateContentInput) (*domain.PortalContent, error) {
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	row, err := s.buildRow(input)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Create(dbc, []*domain.PortalContent{row}); err != nil {
		return nil, fmt.Errorf("create content: %w", err)
	}
	s.log.Info("content created",
		"content_id", row.ID, "pillar", row.Pillar, "subsection", row.Subsection, "type", row.ContentType)
	return row, nil
}

func (s *contentService) Get(dbc dbctx.Context, id uuid.UUID) (*domain.PortalContent, error) {
	rows, err := s.repo.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("content %s not found", id)
	}
	return rows[0], nil
}

func (s *contentService) List(dbc dbctx.Context, filter content.ListFilter) ([]*domain.PortalContent, error) {
	return s.repo.List(dbc, filter)
}

func (s *contentService) Update(dbc dbctx.Context, id uuid.UUID, input CreateContentInput) (*domain.PortalContent, error) {
	existing, err := s.Get(dbc, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(&input); err != nil {
		return nil, err
	}
	row, err := s.buildRow(input)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{
		"file_id":       row.FileID,
		"pillar":        row.Pillar,
		"subsection":    row.Subsection,
		"content_type":  row.ContentType,
		"title":         row.Title,
		"description":   row.Description,
		"content_data":  row.ContentData,
		"tags":          row.Tags,
		"display_order": row.DisplayOrder,
		"is_published":  row.IsPublished,
	}
	if err := s.repo.Update(dbc, existing.ID, updates); err != nil {
		return nil, fmt.Errorf("update content %s: %w", id, err)
	}
	return s.Get(dbc, id)
}

func (s *contentService) SetPublished(dbc dbctx.Context, id uuid.UUID, published bool) error {
	return s.repo.Update(dbc, id, map[string]interface{}{"is_published": published})
}

func (s *contentService) Delete(dbc dbctx.Context, id uuid.UUID) error {
	return s.repo.SoftDeleteByIDs(dbc, []uuid.UUID{id})
}
