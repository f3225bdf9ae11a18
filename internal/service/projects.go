package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/parser"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/store"
)

const untitledProject = "Untitled Project"

// ProjectFinder looks up a project record by exact title.
type ProjectFinder interface {
	ProjectByTitle(ctx context.Context, title string) (models.Record, error)
}

// ProjectService serves formatted project pages and the project listing.
type ProjectService struct {
	finder  ProjectFinder
	records store.RecordStore
}

// NewProjectService creates a project service.
func NewProjectService(finder ProjectFinder, records store.RecordStore) *ProjectService {
	return &ProjectService{finder: finder, records: records}
}

// GetProject finds a project by title (case-insensitive) and formats it.
func (s *ProjectService) GetProject(ctx context.Context, title string) (*models.Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: missing project title", ErrInput)
	}
	r, err := s.finder.ProjectByTitle(ctx, title)
	if err != nil {
		return nil, fmt.Errorf("project with title '%s': %w", title, err)
	}
	p := FormatProject(r)
	return &p, nil
}

// Overview lists every project without its content.
func (s *ProjectService) Overview(ctx context.Context) ([]models.ProjectOverview, error) {
	records, err := s.records.Records(ctx, models.CollectionProjects)
	if err != nil {
		return nil, fmt.Errorf("load projects: %w", err)
	}
	out := make([]models.ProjectOverview, len(records))
	for i, r := range records {
		out[i] = models.ProjectOverview{
			Title:        r.Title,
			Link:         r.Link,
			Tags:         nonNilStrings(r.Tags),
			Image:        r.Image,
			Prerequisite: nonNilMap(r.Prerequisite),
		}
	}
	return out, nil
}

// FormatProject converts a scraped project record into display sections.
// Paragraphs become text, pre blocks become code, images keep their source,
// and h3-li groups become a heading line followed by one bullet per item.
func FormatProject(r models.Record) models.Project {
	p := models.Project{
		Title:        r.Title,
		Link:         r.Link,
		Tags:         nonNilStrings(r.Tags),
		Image:        r.Image,
		Prerequisite: nonNilMap(r.Prerequisite),
		Content:      make([]models.ProjectSection, 0, len(r.Checkpoints)),
	}
	if p.Title == "" {
		p.Title = untitledProject
	}

	for _, cp := range r.Checkpoints {
		section := models.ProjectSection{
			Title:    parser.CleanMarkdown(cp.Checkpoint),
			Elements: []models.ProjectElement{},
		}
		for _, item := range cp.Content {
			switch item.Type {
			case "p":
				section.Elements = append(section.Elements, models.ProjectElement{Type: "text", Content: parser.CleanMarkdown(item.Text)})
			case "pre":
				section.Elements = append(section.Elements, models.ProjectElement{Type: "code", Content: item.Text})
			case "img":
				section.Elements = append(section.Elements, models.ProjectElement{Type: "image", URL: item.Src})
			case "h3-li":
				if header := parser.CleanMarkdown(item.H3); header != "" {
					section.Elements = append(section.Elements, models.ProjectElement{Type: "text", Content: header})
				}
				for _, li := range item.Li {
					section.Elements = append(section.Elements, models.ProjectElement{Type: "text", Content: "• " + parser.CleanMarkdown(li)})
				}
			}
		}
		p.Content = append(p.Content, section)
	}
	return p
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
