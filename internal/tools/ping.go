package tools

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// PingInput is the input of the ping tool.
type PingInput struct {
	Echo string `json:"echo,omitempty" jsonschema:"Text to echo back"`
}

// NewPingHandler answers a liveness check. Without echo text it reports how
// many collection indexes are loaded in memory.
func NewPingHandler(deps *Dependencies) mcp.ToolHandlerFor[PingInput, any] {
	return func(ctx context.Context, req *mcp.CallToolRequest, input PingInput) (*mcp.CallToolResult, any, error) {
		if input.Echo != "" {
			return TextResult(input.Echo), nil, nil
		}
		if deps == nil || deps.Index == nil {
			return TextResult("pong"), nil, nil
		}

		status := deps.Index.Status()
		loaded := 0
		for _, s := range status {
			if s.Loaded {
				loaded++
			}
		}
		if deps.Logger != nil {
			deps.Logger.Debug("ping", "indexes_loaded", loaded)
		}
		return TextResult(fmt.Sprintf("pong (%d/%d indexes loaded)", loaded, len(status))), nil, nil
	}
}
