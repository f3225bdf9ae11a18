package tools

import (
	"context"
	"errors"
	"strings"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/service"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RankInput defines the input schema for the rank_resources tool.
type RankInput struct {
	Topic         string `json:"topic" jsonschema:"Topic to retrieve resources for"`
	RankingMethod string `json:"rankingMethod,omitempty" jsonschema:"model-scored (default) or rule-based"`
}

// RankOutput is the rank_resources result.
type RankOutput struct {
	Topic            string                  `json:"topic"`
	RankingAlgorithm string                  `json:"rankingAlgorithm"`
	Resources        []models.RankedResource `json:"resources"`
}

// NewRankHandler creates the rank_resources tool handler.
func NewRankHandler(deps *Dependencies) mcp.ToolHandlerFor[RankInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RankInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Topic) == "" {
			return ErrorResult("Topic cannot be empty", "Provide a topic"), nil, nil
		}

		ranked, used, err := deps.Orchestrator.RankResources(ctx, input.Topic, input.RankingMethod)
		if err != nil {
			return FailureResult(service.NewErrorResult("rank resources", err)), nil, nil
		}
		return JSONResult(RankOutput{Topic: input.Topic, RankingAlgorithm: used.String(), Resources: ranked}), nil, nil
	}
}

// GetProjectInput defines the input schema for the get_project tool.
type GetProjectInput struct {
	Title string `json:"title" jsonschema:"Project title, case-insensitive"`
}

// NewGetProjectHandler creates the get_project tool handler.
func NewGetProjectHandler(deps *Dependencies) mcp.ToolHandlerFor[GetProjectInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input GetProjectInput) (*mcp.CallToolResult, any, error) {
		if strings.TrimSpace(input.Title) == "" {
			return ErrorResult("Title cannot be empty", "Provide a project title"), nil, nil
		}

		project, err := deps.Projects.GetProject(ctx, input.Title)
		if err != nil {
			return FailureResult(service.NewErrorResult("get project", err)), nil, nil
		}
		return JSONResult(project), nil, nil
	}
}

// ListProjectsInput defines the input schema for the list_projects tool.
type ListProjectsInput struct{}

// NewListProjectsHandler creates the list_projects tool handler.
func NewListProjectsHandler(deps *Dependencies) mcp.ToolHandlerFor[ListProjectsInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListProjectsInput) (*mcp.CallToolResult, any, error) {
		overview, err := deps.Projects.Overview(ctx)
		if err != nil {
			return FailureResult(service.NewErrorResult("get projects overview", err)), nil, nil
		}
		return JSONResult(overview), nil, nil
	}
}

// IndexStatusInput defines the input schema for the index_status tool.
type IndexStatusInput struct{}

// NewIndexStatusHandler creates the index_status tool handler.
func NewIndexStatusHandler(deps *Dependencies) mcp.ToolHandlerFor[IndexStatusInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IndexStatusInput) (*mcp.CallToolResult, any, error) {
		return JSONResult(deps.Index.Status()), nil, nil
	}
}

// RebuildIndexInput defines the input schema for the rebuild_index tool.
type RebuildIndexInput struct {
	Collection string `json:"collection,omitempty" jsonschema:"resources, questions or projects; all when empty"`
}

// NewRebuildIndexHandler creates the rebuild_index tool handler.
func NewRebuildIndexHandler(deps *Dependencies) mcp.ToolHandlerFor[RebuildIndexInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input RebuildIndexInput) (*mcp.CallToolResult, any, error) {
		collections := models.AllCollections()
		if input.Collection != "" {
			c, err := models.ParseCollection(input.Collection)
			if err != nil {
				return ErrorResult(err.Error(), "Use resources, questions or projects"), nil, nil
			}
			collections = []models.Collection{c}
		}

		var errs []error
		for _, c := range collections {
			if _, err := deps.Index.Rebuild(ctx, c); err != nil {
				deps.Logger.Error("rebuild failed", "collection", c, "error", err)
				errs = append(errs, err)
			}
		}
		if err := errors.Join(errs...); err != nil {
			return ErrorResult("Failed to rebuild index: "+err.Error(), "The previous index is still served"), nil, nil
		}
		return JSONResult(deps.Index.Status()), nil, nil
	}
}
