package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/server"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/tools"
)

var servePort string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the HTTP API and keep indexes fresh in the background.

Examples:
  adapted serve
  adapted serve --port 9000`,
	RunE: runServe,
}

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the MCP tools over stdio",
	RunE:  runMCP,
}

func init() {
	serveCmd.Flags().StringVarP(&servePort, "port", "p", "", "listen port (default $ADAPTED_SERVER_PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	port := servePort
	if port == "" {
		port = cfg.ServerPort
	}

	pipeline.Start(ctx)

	api := server.NewAPI(pipeline.Orchestrator, pipeline.Projects, pipeline.Index, pipeline.Jobs, pipeline.Metrics, logger)
	httpServer := server.NewHTTPServer(net.JoinHostPort("", port), api.Handler())

	logger.Info("API available", "url", fmt.Sprintf("http://localhost:%s/api", port))
	return server.Serve(ctx, httpServer, logger)
}

func runMCP(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	pipeline.Start(ctx)

	srv := server.New(Version, logger)
	srv.Setup()
	tools.RegisterAll(srv.MCPServer(), &tools.Dependencies{
		Orchestrator: pipeline.Orchestrator,
		Projects:     pipeline.Projects,
		Index:        pipeline.Index,
		Logger:       logger,
	})
	logger.Info("server ready, awaiting connections")

	if err := srv.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
