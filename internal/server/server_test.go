package server_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/config"
	"github.com/Mehmood-Deshmukh/AdaptEd-Adaptive-Learning-Plaform/internal/server"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T, srv *server.Server) (context.Context, *mcp.ClientSession) {
	t.Helper()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	go func() {
		_ = srv.MCPServer().Run(ctx, serverTransport)
	}()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err, "client should connect successfully")
	t.Cleanup(func() { _ = session.Close() })
	return ctx, session
}

func TestServerWithInMemoryTransport(t *testing.T) {
	srv := server.New("0.1.0-test", config.DiscardLogger())
	srv.Setup()

	ctx, session := connect(t, srv)

	initResult := session.InitializeResult()
	require.NotNil(t, initResult)
	assert.Equal(t, server.Name, initResult.ServerInfo.Name)
	assert.Equal(t, "0.1.0-test", initResult.ServerInfo.Version)
	assert.Contains(t, initResult.Instructions, "generate_roadmap")

	for i := 0; i < 3; i++ {
		result, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "request %d should succeed", i)
		assert.Empty(t, result.Tools, "no tools registered yet")
	}
}

func TestLoggingMiddlewareLogsRequests(t *testing.T) {
	var stderr bytes.Buffer
	srv := server.New("test", config.SetupLoggerWithWriters(&stderr, &bytes.Buffer{}, -4))
	srv.Setup()

	ctx, session := connect(t, srv)
	_, err := session.ListTools(ctx, nil)
	require.NoError(t, err)

	assert.Contains(t, stderr.String(), "method=tools/list")
}
