package services

import (
	"testing"
)

func TestNormalizeContentDataVideo(t *testing.T) {
	out, err := NormalizeContentData(ContentKindVideo, map[string]any{
		"url": "https://www.youtube.com/watch?v=abc123",
	})
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	v, ok := out.(*VideoContent)
	if !ok {
		t.Fatalf("wrong variant %T", out)
	}
	if v.Kind != ContentKindVideo || v.Provider != "youtube" {
		t.Fatalf("defaults not filled: %+v", v)
	}

	if _, err := NormalizeContentData(ContentKindVideo, map[string]any{}); err == nil {
		t.Fatalf("video without url must fail")
	}
}

func TestNormalizeContentDataDefaults(t *testing.T) {
	out, err := NormalizeContentData(ContentKindDocument, map[string]any{"url": "https://cdn.test/guide.pdf"})
	if err != nil {
		t.Fatalf("Normalize document: %v", err)
	}
	if d := out.(*DocumentContent); !d.Downloadable {
		t.Fatalf("document defaults to downloadable")
	}

	out, err = NormalizeContentData(ContentKindLink, map[string]any{"url": "https://example.com"})
	if err != nil {
		t.Fatalf("Normalize link: %v", err)
	}
	if l := out.(*LinkContent); l.Label != "https://example.com" || !l.External {
		t.Fatalf("link defaults: %+v", l)
	}

	out, err = NormalizeContentData(ContentKindProgramGuide, map[string]any{
		"topics": []any{"sleep", " movement ", ""},
	})
	if err != nil {
		t.Fatalf("Normalize program guide: %v", err)
	}
	if g := out.(*ProgramGuideContent); g.WeekCount != 1 || len(g.Topics) != 2 {
		t.Fatalf("program guide defaults: %+v", g)
	}
}

func TestNormalizeContentDataRejectsUnknownKind(t *testing.T) {
	if _, err := NormalizeContentData("podcast", map[string]any{"url": "x"}); err == nil {
		t.Fatalf("unknown kind must fail")
	}
	if _, err := NormalizeContentData(ContentKindTool, map[string]any{}); err == nil {
		t.Fatalf("tool without tool_key must fail")
	}
}

func TestContentValidation(t *testing.T) {
	s := &contentService{log: testLogger(t)}

	in := CreateContentInput{Subsection: "sleep", ContentType: ContentKindLink}
	if err := s.validate(&in); err == nil {
		t.Fatalf("missing title must fail")
	}

	in = CreateContentInput{Title: "Sleep basics", ContentType: ContentKindLink}
	if err := s.validate(&in); err == nil {
		t.Fatalf("missing subsection must fail")
	}

	in = CreateContentInput{Title: "  Sleep basics  ", Subsection: " sleep "}
	if err := s.validate(&in); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}
	if in.Title != "Sleep basics" || in.Subsection != "sleep" {
		t.Fatalf("fields not trimmed: %+v", in)
	}
}

func TestPillarCatalogLookups(t *testing.T) {
	cat := &PillarCatalog{Pillars: []Pillar{
		{Key: "nutrition", Subsections: []Subsection{{Key: "basics"}, {Key: "recipes"}}},
		{Key: "movement", Subsections: []Subsection{{Key: "strength"}}},
	}}

	if !cat.HasPillar("nutrition") || cat.HasPillar("sleep") {
		t.Fatalf("HasPillar wrong")
	}
	if !cat.HasSubsection("nutrition", "recipes") {
		t.Fatalf("HasSubsection missed a configured entry")
	}
	if cat.HasSubsection("movement", "recipes") {
		t.Fatalf("subsections must not leak across pillars")
	}
}
