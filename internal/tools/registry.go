package tools

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all tools with the MCP server.
// This is called from main after server creation but before Run().
func RegisterAll(server *mcp.Server, deps *Dependencies) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "ping",
		Description: "Liveness check: echoes input, or reports how many indexes are loaded",
	}, NewPingHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_roadmap",
		Description: "Generate a five-checkpoint learning roadmap grounded in indexed resources",
	}, NewGenerateRoadmapHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "generate_quiz",
		Description: "Generate a ten-question multiple-choice quiz grounded in indexed questions",
	}, NewGenerateQuizHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "recommend_resources",
		Description: "Recommend up to three resources from a learner summary",
	}, NewRecommendHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rank_resources",
		Description: "Retrieve resources for a topic and order them from introductory to advanced",
	}, NewRankHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_project",
		Description: "Retrieve a project by title formatted into display sections",
	}, NewGetProjectHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_projects",
		Description: "List every project with its link, tags and image",
	}, NewListProjectsHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_status",
		Description: "Report per-collection index state",
	}, NewIndexStatusHandler(deps))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "rebuild_index",
		Description: "Rebuild one collection's index, or all of them",
	}, NewRebuildIndexHandler(deps))
}
