package parser

import (
	"fmt"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/tmc/langchaingo/textsplitter"
)

// ChunkConfig controls how document text is split before embedding.
type ChunkConfig struct {
	Size    int
	Overlap int
}

// DefaultChunkConfig returns the 1000/100 character split used for every collection.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{Size: 1000, Overlap: 100}
}

// BuildDocuments renders records into text blobs and splits long blobs into
// overlapping chunks. Every chunk carries the full record.
func BuildDocuments(c models.Collection, records []models.Record, cfg ChunkConfig) ([]models.Document, error) {
	if cfg.Size <= 0 || cfg.Overlap < 0 || cfg.Overlap >= cfg.Size {
		return nil, fmt.Errorf("invalid chunk config: size=%d overlap=%d", cfg.Size, cfg.Overlap)
	}

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.Size),
		textsplitter.WithChunkOverlap(cfg.Overlap),
	)

	docs := make([]models.Document, 0, len(records))
	for i, r := range records {
		text := RenderRecord(c, r)
		if strings.TrimSpace(text) == "" {
			continue
		}

		chunks, err := splitter.SplitText(text)
		if err != nil {
			return nil, fmt.Errorf("split %s record %d: %w", c, i, err)
		}
		for n, chunk := range chunks {
			docs = append(docs, models.Document{
				Collection: c,
				Text:       chunk,
				Chunk:      n,
				Record:     r,
			})
		}
	}
	return docs, nil
}

// RenderRecord lays out the searchable text of a record.
func RenderRecord(c models.Collection, r models.Record) string {
	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\n")
	}

	switch c {
	case models.CollectionResources:
		line("Title", r.Title)
		line("Type", r.Type)
		line("Topics", strings.Join(r.Topics, ", "))
		line("Tags", strings.Join(r.Tags, ", "))
		line("Difficulty", r.Difficulty)
		line("Description", r.Description)
		line("URL", r.URL)

	case models.CollectionQuestions:
		if r.Question == "" {
			return ""
		}
		line("Question", r.Question)
		for i, opt := range r.Options {
			line(fmt.Sprintf("Option %d", i+1), opt)
		}
		line("Topic", r.Topic)
		line("Tags", strings.Join(r.Tags, ", "))
		line("Difficulty", r.Difficulty)

	case models.CollectionProjects:
		line("Title", r.Title)
		line("Tags", strings.Join(r.Tags, ", "))
		for _, cp := range r.Checkpoints {
			b.WriteString("\n")
			line("Checkpoint", CleanMarkdown(cp.Checkpoint))
			for _, item := range cp.Content {
				switch item.Type {
				case "p":
					b.WriteString(CleanMarkdown(item.Text))
					b.WriteString("\n")
				case "pre":
					line("Code", item.Text)
				}
			}
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
