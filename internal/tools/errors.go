package tools

import (
	"encoding/json"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ErrorResult creates a tool error result with optional recovery hint.
// If hint is non-empty, formats as "{msg}. {hint}".
// Returns IsError=true so LLM can see the error and self-correct.
func ErrorResult(msg, hint string) *mcp.CallToolResult {
	text := msg
	if hint != "" {
		text = msg + ". " + hint
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
		IsError: true,
	}
}

// TextResult creates a success result with text content.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// JSONResult renders v as indented JSON text.
func JSONResult(v any) *mcp.CallToolResult {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult("Failed to encode result", err.Error())
	}
	return TextResult(string(b))
}

// FailureResult turns a pipeline failure into a tool error with a hint
// matched to its kind.
func FailureResult(failure *models.ErrorResult) *mcp.CallToolResult {
	return ErrorResult(failure.Error, hintFor(failure.Kind))
}

func hintFor(kind models.ErrorKind) string {
	switch kind {
	case models.ErrorKindInput:
		return "Check the arguments and try again"
	case models.ErrorKindValidation:
		return "The model reply did not pass validation; retrying may help"
	case models.ErrorKindOracleUnavailable:
		return "The completion model may be unavailable"
	case models.ErrorKindIndexUnavailable:
		return "Run rebuild_index or wait for the refresher"
	case models.ErrorKindNotFound:
		return "Use list_projects to see available titles"
	}
	return ""
}
