package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// QuestionKeyLength is how many characters of question text identify a question.
const QuestionKeyLength = 100

// Record is a normalized item read from the record store.
type Record struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Type        string   `json:"type,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Description string   `json:"description,omitempty"`
	Content     string   `json:"content,omitempty"`

	// Questions
	Question string   `json:"question,omitempty"`
	Options  []string `json:"options,omitempty"`
	Topic    string   `json:"topic,omitempty"`

	// Projects
	Link         string              `json:"link,omitempty"`
	Image        string              `json:"image,omitempty"`
	Prerequisite map[string]any      `json:"prerequisite,omitempty"`
	Checkpoints  []ProjectCheckpoint `json:"checkpoints,omitempty"`

	// TopicKey is the store keyspace entry the record was filed under, if any.
	TopicKey string `json:"topic_key,omitempty"`
}

// ProjectCheckpoint is one raw section of a scraped project page.
type ProjectCheckpoint struct {
	Checkpoint string        `json:"checkpoint"`
	Content    []ProjectItem `json:"content"`
}

// ProjectItem is one element inside a project checkpoint.
// Type is one of p, pre, img or h3-li.
type ProjectItem struct {
	Type string   `json:"type"`
	Text string   `json:"text,omitempty"`
	Src  string   `json:"src,omitempty"`
	H3   string   `json:"h3,omitempty"`
	Li   []string `json:"li,omitempty"`
}

// Key returns the identity used to deduplicate records of a collection.
// An empty key means the record cannot be identified.
func (r Record) Key(c Collection) string {
	switch c {
	case CollectionResources:
		return strings.TrimSpace(r.URL)
	case CollectionQuestions:
		return FirstRunes(strings.TrimSpace(r.Question), QuestionKeyLength)
	case CollectionProjects:
		return strings.ToLower(strings.TrimSpace(r.Title))
	}
	return ""
}

// NormalizeRecord maps a loosely-shaped source document onto a Record.
// Field aliases (name/title, link/url, topic/topics) are folded together and
// non-list tag fields are coerced to empty lists.
func NormalizeRecord(raw map[string]any) Record {
	r := Record{
		ID:          stringField(raw, "id", "_id"),
		Title:       strings.TrimSpace(stringField(raw, "title", "name")),
		URL:         strings.TrimSpace(stringField(raw, "url")),
		Type:        stringField(raw, "type"),
		Tags:        stringList(raw["tags"]),
		Topics:      stringList(raw["topics"]),
		Difficulty:  strings.ToLower(strings.TrimSpace(stringField(raw, "difficulty"))),
		Description: stringField(raw, "description"),
		Content:     stringField(raw, "content"),
		Question:    strings.TrimSpace(stringField(raw, "question")),
		Options:     rawStringList(raw["options"]),
		Topic:       stringField(raw, "topic"),
		Link:        strings.TrimSpace(stringField(raw, "link")),
		Image:       stringField(raw, "image"),
	}

	if r.URL == "" && r.Question == "" {
		r.URL = r.Link
	}
	if len(r.Topics) == 0 && r.Topic != "" {
		r.Topics = []string{r.Topic}
	}
	if r.Type == "" && r.Question == "" {
		r.Type = "documentation"
	}
	if prereq, ok := raw["prerequisite"].(map[string]any); ok {
		r.Prerequisite = prereq
	}
	if cps, ok := raw["checkpoints"]; ok {
		r.Checkpoints = decodeCheckpoints(cps)
	}
	return r
}

// decodeCheckpoints re-encodes the nested value so loosely typed maps from
// either JSON or YAML land in the typed structure.
func decodeCheckpoints(v any) []ProjectCheckpoint {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var out []ProjectCheckpoint
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	return out
}

func stringField(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := raw[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case fmt.Stringer:
			if s := v.String(); s != "" {
				return s
			}
		}
	}
	return ""
}

// rawStringList keeps the string elements of a list in order; non-lists are empty.
func rawStringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}

// stringList is rawStringList with blanks and duplicates removed.
func stringList(v any) []string {
	items := rawStringList(v)
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
