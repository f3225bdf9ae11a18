package service

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/parser"
	"github.com/xeipuuv/gojsonschema"
)

// Structural schemas for model replies. Counts are checked separately so that
// failures name the offending checkpoint or question.
var (
	roadmapSchema = gojsonschema.NewGoLoader(map[string]any{
		"type":     "object",
		"required": []string{"mainTopic", "checkpoints"},
		"properties": map[string]any{
			"mainTopic":   map[string]any{"type": "string"},
			"description": map[string]any{"type": "string"},
			"checkpoints": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"title", "resources"},
					"properties": map[string]any{
						"title":            map[string]any{"type": "string"},
						"description":      map[string]any{"type": "string"},
						"totalHoursNeeded": map[string]any{"type": "number"},
						"whatYouWillLearn": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"whatNext":         map[string]any{"type": "string"},
						"resources": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type":     "object",
								"required": []string{"url"},
								"properties": map[string]any{
									"name": map[string]any{"type": "string"},
									"url":  map[string]any{"type": "string"},
									"type": map[string]any{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	})

	quizSchema = gojsonschema.NewGoLoader(map[string]any{
		"type":     "object",
		"required": []string{"title", "questions"},
		"properties": map[string]any{
			"title": map[string]any{"type": "string"},
			"questions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"question", "options", "correctOption"},
					"properties": map[string]any{
						"question":      map[string]any{"type": "string"},
						"options":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
						"correctOption": map[string]any{"type": []string{"string", "integer"}},
						"explanation":   map[string]any{"type": "string"},
					},
				},
			},
		},
	})
)

// decodeReply extracts the JSON payload from a reply, checks it against
// schema and decodes it into out.
func decodeReply(reply string, schema gojsonschema.JSONLoader, out any) error {
	raw, err := parser.ExtractJSON(reply)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	result, err := gojsonschema.Validate(schema, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("%w: schema validation: %w", ErrValidation, err)
	}
	if !result.Valid() {
		var errs []string
		for _, desc := range result.Errors() {
			errs = append(errs, desc.String())
		}
		return fmt.Errorf("%w: %s", ErrValidation, strings.Join(errs, ", "))
	}

	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("%w: decode: %w", ErrValidation, err)
	}
	return nil
}

func parseRoadmap(reply string) (*models.Roadmap, error) {
	var roadmap models.Roadmap
	if err := decodeReply(reply, roadmapSchema, &roadmap); err != nil {
		return nil, err
	}
	if err := ValidateRoadmap(&roadmap); err != nil {
		return nil, err
	}
	return &roadmap, nil
}

// quizReply mirrors models.Quiz but accepts a numeric correctOption.
type quizReply struct {
	Title     string `json:"title"`
	Questions []struct {
		Question      string          `json:"question"`
		Options       []string        `json:"options"`
		CorrectOption json.RawMessage `json:"correctOption"`
		Explanation   string          `json:"explanation"`
	} `json:"questions"`
}

func parseQuiz(reply string) (*models.Quiz, error) {
	var raw quizReply
	if err := decodeReply(reply, quizSchema, &raw); err != nil {
		return nil, err
	}

	quiz := &models.Quiz{Title: raw.Title, Questions: make([]models.QuizQuestion, len(raw.Questions))}
	for i, q := range raw.Questions {
		quiz.Questions[i] = models.QuizQuestion{
			Question:      q.Question,
			Options:       q.Options,
			CorrectOption: optionText(q.CorrectOption),
			Explanation:   q.Explanation,
		}
	}
	if err := ValidateQuiz(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func optionText(raw json.RawMessage) string {
	if s, err := strconv.Unquote(string(raw)); err == nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(string(raw))
}

// ValidateRoadmap enforces roadmap cardinality: a main topic, exactly five
// checkpoints, and at least three resources per checkpoint.
func ValidateRoadmap(r *models.Roadmap) error {
	if r == nil || strings.TrimSpace(r.MainTopic) == "" {
		return fmt.Errorf("%w: roadmap has no main topic", ErrValidation)
	}
	if n := len(r.Checkpoints); n != models.RoadmapCheckpoints {
		return fmt.Errorf("%w: roadmap has %d checkpoints, want %d", ErrValidation, n, models.RoadmapCheckpoints)
	}
	for i, cp := range r.Checkpoints {
		if n := len(cp.Resources); n < models.MinCheckpointResources {
			return fmt.Errorf("%w: checkpoint %d has %d resources, want at least %d", ErrValidation, i+1, n, models.MinCheckpointResources)
		}
	}
	return nil
}

// ValidateQuiz enforces quiz cardinality: a title and exactly ten complete
// questions with four options each.
func ValidateQuiz(q *models.Quiz) error {
	if q == nil || strings.TrimSpace(q.Title) == "" {
		return fmt.Errorf("%w: quiz has no title", ErrValidation)
	}
	if n := len(q.Questions); n != models.QuizQuestions {
		return fmt.Errorf("%w: quiz has %d questions, want %d", ErrValidation, n, models.QuizQuestions)
	}
	for i, question := range q.Questions {
		switch {
		case strings.TrimSpace(question.Question) == "":
			return fmt.Errorf("%w: question %d has no text", ErrValidation, i+1)
		case len(question.Options) != models.QuizOptions:
			return fmt.Errorf("%w: question %d has %d options, want %d", ErrValidation, i+1, len(question.Options), models.QuizOptions)
		case question.CorrectOption == "":
			return fmt.Errorf("%w: question %d has no correct option", ErrValidation, i+1)
		case strings.TrimSpace(question.Explanation) == "":
			return fmt.Errorf("%w: question %d has no explanation", ErrValidation, i+1)
		}
	}
	return nil
}
