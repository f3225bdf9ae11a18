package tools

import (
	"context"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// GenerateRoadmapInput defines the input schema for the generate_roadmap tool.
type GenerateRoadmapInput struct {
	Topic         string  `json:"topic" jsonschema:"What the learner wants to study"`
	Summary       string  `json:"summary,omitempty" jsonschema:"Free-text summary of the learner's needs"`
	HoursPerDay   float64 `json:"hoursPerDay,omitempty" jsonschema:"Study hours per day; sets checkpoint deadlines when positive"`
	Difficulty    string  `json:"difficulty,omitempty" jsonschema:"Preferred difficulty"`
	LearningStyle string  `json:"learningStyle,omitempty" jsonschema:"Preferred learning style"`
	RankingMethod string  `json:"rankingMethod,omitempty" jsonschema:"Order resources first: model-scored or rule-based"`
}

// NewGenerateRoadmapHandler creates the generate_roadmap tool handler.
func NewGenerateRoadmapHandler(deps *Dependencies) mcp.ToolHandlerFor[GenerateRoadmapInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GenerateRoadmapInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Topic) == "" {
			return ErrorResult("Topic cannot be empty", "Provide a topic to study"), nil, nil
		}

		roadmap, failure := deps.Orchestrator.GenerateRoadmap(ctx, service.RoadmapRequest{
			Topic:         input.Topic,
			Summary:       input.Summary,
			HoursPerDay:   input.HoursPerDay,
			Difficulty:    input.Difficulty,
			LearningStyle: input.LearningStyle,
			RankingMethod: input.RankingMethod,
		})
		if failure != nil {
			return FailureResult(failure), nil, nil
		}

		deps.Logger.Info("roadmap generated", "topic", roadmap.MainTopic, "checkpoints", len(roadmap.Checkpoints))
		return JSONResult(roadmap), nil, nil
	}
}

// GenerateQuizInput defines the input schema for the generate_quiz tool.
type GenerateQuizInput struct {
	Topic      string   `json:"topic" jsonschema:"Quiz subject"`
	Domain     string   `json:"domain,omitempty" jsonschema:"Broader field, default Computer Science"`
	Difficulty string   `json:"difficulty,omitempty" jsonschema:"Question difficulty, default beginner"`
	Tags       []string `json:"tags,omitempty" jsonschema:"Tags that narrow the question pool"`
}

// NewGenerateQuizHandler creates the generate_quiz tool handler.
func NewGenerateQuizHandler(deps *Dependencies) mcp.ToolHandlerFor[GenerateQuizInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GenerateQuizInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Topic) == "" {
			return ErrorResult("Topic cannot be empty", "Provide a quiz topic"), nil, nil
		}

		quiz, failure := deps.Orchestrator.GenerateQuiz(ctx, service.QuizRequest{
			Topic:      input.Topic,
			Domain:     input.Domain,
			Difficulty: input.Difficulty,
			Tags:       input.Tags,
		})
		if failure != nil {
			return FailureResult(failure), nil, nil
		}

		deps.Logger.Info("quiz generated", "title", quiz.Title, "questions", len(quiz.Questions))
		return JSONResult(quiz), nil, nil
	}
}

// RecommendInput defines the input schema for the recommend_resources tool.
type RecommendInput struct {
	Summary string `json:"summary" jsonschema:"Learner summary with 'domain interests:' and 'visualLearning:' lines"`
}

// NewRecommendHandler creates the recommend_resources tool handler.
func NewRecommendHandler(deps *Dependencies) mcp.ToolHandlerFor[RecommendInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RecommendInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Summary) == "" {
			return ErrorResult("Summary cannot be empty", "Provide the learner summary"), nil, nil
		}

		records, err := deps.Orchestrator.Recommendations(ctx, input.Summary)
		if err != nil {
			return FailureResult(service.NewErrorResult("generate resources", err)), nil, nil
		}
		return JSONResult(records), nil, nil
	}
}
