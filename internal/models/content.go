package models

import "time"

// Cardinality rules every generated result must satisfy.
const (
	RoadmapCheckpoints     = 5
	MinCheckpointResources = 3
	QuizQuestions          = 10
	QuizOptions            = 4
)

// Document is the unit that gets embedded: a text blob plus the record it came from.
type Document struct {
	Collection Collection `json:"collection"`
	Text       string     `json:"text"`
	Chunk      int        `json:"chunk"`
	Record     Record     `json:"record"`
}

// RankedResource is a Record placed in a complexity ordering.
type RankedResource struct {
	Record
	Rank          int      `json:"rank"`
	Difficulty    string   `json:"difficulty"`
	Reasoning     string   `json:"reasoning,omitempty"`
	Score         float64  `json:"score"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

// RoadmapResource is a resource as it appears inside a generated checkpoint.
type RoadmapResource struct {
	Name        string   `json:"name"`
	URL         string   `json:"url"`
	Type        string   `json:"type"`
	Tags        []string `json:"tags,omitempty"`
	Topics      []string `json:"topics,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
	Description string   `json:"description,omitempty"`
	Rank        int      `json:"rank,omitempty"`
	Reasoning   string   `json:"reasoning,omitempty"`
}

// Checkpoint is one stage of a roadmap.
type Checkpoint struct {
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Resources        []RoadmapResource `json:"resources"`
	TotalHoursNeeded float64           `json:"totalHoursNeeded"`
	WhatYouWillLearn []string          `json:"whatYouWillLearn,omitempty"`
	WhatNext         string            `json:"whatNext,omitempty"`
	DeadlineDate     string            `json:"deadlineDate,omitempty"`
}

// Roadmap is a validated learning path.
type Roadmap struct {
	MainTopic   string              `json:"mainTopic"`
	Description string              `json:"description"`
	Checkpoints []Checkpoint        `json:"checkpoints"`
	Metadata    *GenerationMetadata `json:"metadata,omitempty"`
}

// QuizQuestion is a single multiple-choice question.
type QuizQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"correctOption"`
	Explanation   string   `json:"explanation"`
}

// Quiz is a validated question set.
type Quiz struct {
	Title      string              `json:"title"`
	Topic      string              `json:"topic,omitempty"`
	Difficulty string              `json:"difficulty,omitempty"`
	Tags       []string            `json:"tags,omitempty"`
	Questions  []QuizQuestion      `json:"questions"`
	Metadata   *GenerationMetadata `json:"metadata,omitempty"`
}

// ProjectElement is one renderable piece of a formatted project section.
type ProjectElement struct {
	Type    string `json:"type"` // text, code or image
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

// ProjectSection groups elements under a cleaned checkpoint title.
type ProjectSection struct {
	Title    string           `json:"title"`
	Elements []ProjectElement `json:"elements"`
}

// Project is the display form of a project record.
type Project struct {
	Title        string           `json:"title"`
	Link         string           `json:"link"`
	Tags         []string         `json:"tags"`
	Image        string           `json:"image"`
	Prerequisite map[string]any   `json:"prerequisite"`
	Content      []ProjectSection `json:"content"`
}

// ProjectOverview is the listing form of a project record.
type ProjectOverview struct {
	Title        string         `json:"title"`
	Link         string         `json:"link"`
	Tags         []string       `json:"tags"`
	Image        string         `json:"image"`
	Prerequisite map[string]any `json:"prerequisite"`
}

// GenerationMetadata is attached to every successful generation.
type GenerationMetadata struct {
	GeneratedAt      time.Time `json:"generatedAt"`
	RankingAlgorithm string    `json:"rankingAlgorithm"`
	ResourceCount    int       `json:"resourceCount"`
	RequestID        string    `json:"requestId,omitempty"`
	Attempts         int       `json:"attempts,omitempty"`
}

// ErrorKind classifies a failed generation.
type ErrorKind string

const (
	ErrorKindInput             ErrorKind = "input"
	ErrorKindValidation        ErrorKind = "validation"
	ErrorKindOracleUnavailable ErrorKind = "oracle_unavailable"
	ErrorKindIndexUnavailable  ErrorKind = "index_unavailable"
	ErrorKindNotFound          ErrorKind = "not_found"
	ErrorKindInternal          ErrorKind = "internal"
)

// ErrorResult is the tagged error value returned instead of a partial result.
type ErrorResult struct {
	Error string    `json:"error"`
	Kind  ErrorKind `json:"kind"`
}
