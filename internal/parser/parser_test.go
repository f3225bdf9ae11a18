package parser

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutlineOf(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		want     Outline
		overview bool
	}{
		{
			name:    "plain prose",
			content: "one\n\ntwo\nstill two\n\nthree",
			want:    Outline{Headings: 0, Paragraphs: 3},
		},
		{
			name:     "heading heavy",
			content:  "# A\n\npara\n\n## B\n\npara\n\n## C\n",
			want:     Outline{Headings: 3, Paragraphs: 2},
			overview: true,
		},
		{
			name:    "long article",
			content: "# Guide\n\n" + strings.Repeat("paragraph text\n\n", 6),
			want:    Outline{Headings: 1, Paragraphs: 6},
		},
		{
			name:     "code fence is one paragraph",
			content:  "intro\n\n## Example\n\n```go\nfunc main() {}\n\n// more\n```\n",
			want:     Outline{Headings: 1, Paragraphs: 2},
			overview: true,
		},
		{
			name:     "frontmatter skipped",
			content:  "---\ntitle: Go\ntags: [go]\n---\nIntro paragraph.\n\n## Goroutines\n\nText.\n",
			want:     Outline{Headings: 1, Paragraphs: 2},
			overview: true,
		},
		{
			name:    "hash without space is text",
			content: "#hashtag\n\n#!/bin/sh",
			want:    Outline{Paragraphs: 2},
		},
		{
			name:    "empty",
			content: "",
			want:    Outline{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := OutlineOf(tt.content)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.overview, got.LooksLikeOverview())
		})
	}
}

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"## Step 1: Setup", "Step 1: Setup"},
		{"Install **Go** and `make`", "Install Go and make"},
		{"- a bullet", "a bullet"},
		{"__under__ and *star*", "under and star"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanMarkdown(tt.in), tt.in)
	}
}

func TestRenderRecord(t *testing.T) {
	t.Run("resource layout", func(t *testing.T) {
		text := RenderRecord(models.CollectionResources, models.Record{
			Title: "Go Tour", Type: "tutorial", Topics: []string{"go"}, Tags: []string{"go", "basics"},
			Difficulty: "beginner", Description: "Interactive intro", URL: "https://go.dev/tour",
		})
		assert.Equal(t, "Title: Go Tour\nType: tutorial\nTopics: go\nTags: go, basics\nDifficulty: beginner\nDescription: Interactive intro\nURL: https://go.dev/tour", text)
	})

	t.Run("question options numbered", func(t *testing.T) {
		text := RenderRecord(models.CollectionQuestions, models.Record{
			Question: "2+2?", Options: []string{"3", "4"}, Topic: "math",
		})
		assert.Contains(t, text, "Option 1: 3\nOption 2: 4")
	})

	t.Run("question without text is skipped", func(t *testing.T) {
		assert.Empty(t, RenderRecord(models.CollectionQuestions, models.Record{Title: "x"}))
	})

	t.Run("project checkpoints", func(t *testing.T) {
		text := RenderRecord(models.CollectionProjects, models.Record{
			Title: "CLI",
			Checkpoints: []models.ProjectCheckpoint{{
				Checkpoint: "## Setup",
				Content: []models.ProjectItem{
					{Type: "p", Text: "Install **Go**"},
					{Type: "pre", Text: "go mod init cli"},
					{Type: "img", Src: "x.png"},
				},
			}},
		})
		assert.Contains(t, text, "Checkpoint: Setup\nInstall Go\nCode: go mod init cli")
		assert.NotContains(t, text, "x.png")
	})
}

func TestBuildDocuments(t *testing.T) {
	long := strings.Repeat("goroutines channels select ", 120)
	records := []models.Record{
		{Title: "Short", URL: "https://a"},
		{Title: "Long", URL: "https://b", Description: long},
	}

	docs, err := BuildDocuments(models.CollectionResources, records, DefaultChunkConfig())
	require.NoError(t, err)
	require.Greater(t, len(docs), 2)

	assert.Equal(t, "Short", docs[0].Record.Title)
	assert.Equal(t, 0, docs[0].Chunk)

	for i, d := range docs[1:] {
		assert.Equal(t, "Long", d.Record.Title)
		assert.Equal(t, i, d.Chunk)
		assert.LessOrEqual(t, utf8.RuneCountInString(d.Text), 1000)
		assert.Equal(t, models.CollectionResources, d.Collection)
	}
}

func TestBuildDocumentsInvalidConfig(t *testing.T) {
	_, err := BuildDocuments(models.CollectionResources, nil, ChunkConfig{Size: 100, Overlap: 100})
	assert.Error(t, err)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{"fenced json", "Here you go:\n```json\n{\"a\": 1}\n```\nthanks", `{"a": 1}`, false},
		{"fenced without tag", "```\n[1, 2]\n```", `[1, 2]`, false},
		{"direct", "  {\"a\": [1, 2]}  ", `{"a": [1, 2]}`, false},
		{"embedded object", "Sure! {\"mainTopic\": \"Go\", \"x\": \"}\"} hope it helps", `{"mainTopic": "Go", "x": "}"}`, false},
		{"embedded array", "ranking: [{\"index\": 0}] done", `[{"index": 0}]`, false},
		{"invalid fence falls back to scan", "```json\n{broken\n```\n{\"ok\": true}", `{"ok": true}`, false},
		{"escaped quote in string", `prefix {"q": "say \"hi\" {"} suffix`, `{"q": "say \"hi\" {"}`, false},
		{"nothing", "I cannot help with that.", "", true},
		{"unbalanced", "{\"a\": 1", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNoJSON)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
