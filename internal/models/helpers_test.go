package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTopicKey(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "java", "java"},
		{"spaces to underscores", "Machine Learning", "machine_learning"},
		{"collapses whitespace", "  Deep   Learning\tBasics ", "deep_learning_basics"},
		{"keeps existing underscores", "web_development", "web_development"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTopicKey(tt.in))
		})
	}
}

func TestFirstRunes(t *testing.T) {
	assert.Equal(t, "héll", FirstRunes("héllo", 4))
	assert.Equal(t, "short", FirstRunes("short", 100))
	assert.Equal(t, "", FirstRunes("anything", 0))
	assert.Len(t, []rune(FirstRunes(strings.Repeat("é", 150), 100)), 100)
}

func TestNormalizeRecord(t *testing.T) {
	t.Run("resource aliases", func(t *testing.T) {
		r := NormalizeRecord(map[string]any{
			"name":       "  Go Tour ",
			"link":       "https://go.dev/tour",
			"tags":       []any{"go", " go ", "", "basics"},
			"topic":      "golang",
			"difficulty": "Beginner",
		})

		assert.Equal(t, "Go Tour", r.Title)
		assert.Equal(t, "https://go.dev/tour", r.URL)
		assert.Equal(t, []string{"go", "basics"}, r.Tags)
		assert.Equal(t, []string{"golang"}, r.Topics)
		assert.Equal(t, "beginner", r.Difficulty)
		assert.Equal(t, "documentation", r.Type)
	})

	t.Run("non-list tags become empty", func(t *testing.T) {
		r := NormalizeRecord(map[string]any{"title": "x", "tags": "go,rust", "topics": 3})
		assert.Empty(t, r.Tags)
		assert.NotNil(t, r.Tags)
		assert.Empty(t, r.Topics)
	})

	t.Run("question keeps option order and duplicates", func(t *testing.T) {
		r := NormalizeRecord(map[string]any{
			"question": "What is a goroutine?",
			"options":  []any{"A", "B", "B", "D"},
		})
		assert.Equal(t, []string{"A", "B", "B", "D"}, r.Options)
		assert.Empty(t, r.Type)
	})

	t.Run("project checkpoints decode", func(t *testing.T) {
		r := NormalizeRecord(map[string]any{
			"title":        "Build a CLI",
			"prerequisite": map[string]any{"go": "basics"},
			"checkpoints": []any{
				map[string]any{
					"checkpoint": "## Setup",
					"content": []any{
						map[string]any{"type": "p", "text": "Install **Go**"},
						map[string]any{"type": "h3-li", "h3": "Steps", "li": []any{"one", "two"}},
					},
				},
			},
		})
		require.Len(t, r.Checkpoints, 1)
		assert.Equal(t, "## Setup", r.Checkpoints[0].Checkpoint)
		require.Len(t, r.Checkpoints[0].Content, 2)
		assert.Equal(t, []string{"one", "two"}, r.Checkpoints[0].Content[1].Li)
		assert.Equal(t, "basics", r.Prerequisite["go"])
	})
}

func TestRecordKey(t *testing.T) {
	long := strings.Repeat("q", 120)

	assert.Equal(t, "https://a", Record{URL: " https://a "}.Key(CollectionResources))
	assert.Equal(t, strings.Repeat("q", 100), Record{Question: long}.Key(CollectionQuestions))
	assert.Equal(t, "build a cli", Record{Title: "Build a CLI"}.Key(CollectionProjects))
	assert.Empty(t, Record{Title: "no url"}.Key(CollectionResources))
}

func TestParseCollection(t *testing.T) {
	for _, c := range AllCollections() {
		got, err := ParseCollection(string(c))
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCollection("users")
	assert.Error(t, err)
}
