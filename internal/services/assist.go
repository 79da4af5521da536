package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/evarahealth/clinic-backend/internal/platform/assist"
	"github.com/evarahealth/clinic-backend/internal/platform/logger"
)

// assistAction binds a CMS action to its prompt pair. Actions returning JSON
// come back as a map; the rest as plain text.
type assistAction struct {
	system   string
	user     string
	wantJSON bool
}

var assistActions = map[string]assistAction{
	"blog_draft": {
		system: "You are a health content writer for a menopause clinic. Write in a warm, evidence-aware tone for patients. Avoid medical claims beyond general wellness guidance.",
		user:   "Draft a blog post about: %s",
	},
	"meta_description": {
		system: "You write concise SEO meta descriptions, 150 characters or fewer, for a clinic website.",
		user:   "Write a meta description for a page about: %s",
	},
	"portal_blurb": {
		system: "You write short, encouraging one-paragraph introductions for patient portal resources at a menopause clinic.",
		user:   "Write a portal blurb introducing: %s",
	},
	"content_outline": {
		system:   `You plan patient education content. Respond with a JSON object: {"title": string, "sections": [{"heading": string, "points": [string]}]}.`,
		user:     "Outline patient education content about: %s",
		wantJSON: true,
	},
}

type AssistService interface {
	Actions() []string
	// Run executes a registered action. Collaborator failures come back as
	// errors for the operator to see; they never crash the flow.
	Run(ctx context.Context, action, topic string) (any, error)
}

type assistService struct {
	log    *logger.Logger
	client assist.Client
}

func NewAssistService(log *logger.Logger, client assist.Client) AssistService {
	return &assistService{
		log:    log.With("service", "AssistService"),
		client: client,
	}
}

func (s *assistService) Actions() []string {
	out := make([]string, 0, len(assistActions))
	for k := range assistActions {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *assistService) Run(ctx context.Context, action, topic string) (any, error) {
	spec, ok := assistActions[action]
	if !ok {
		return nil, fmt.Errorf("unknown assist action %q", action)
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("assist action %q requires a topic", action)
	}
	if s.client == nil {
		return nil, fmt.Errorf("assist is not configured")
	}

	prompt := fmt.Sprintf(spec.user, topic)
	if spec.wantJSON {
		obj, err := s.client.GenerateJSON(ctx, spec.system, prompt)
		if err != nil {
			s.log.Warn("assist action failed", "action", action, "error", err)
			return nil, err
		}
		return obj, nil
	}
	text, err := s.client.GenerateText(ctx, spec.system, prompt)
	if err != nil {
		s.log.Warn("assist action failed", "action", action, "error", err)
		return nil, err
	}
	return text, nil
}
