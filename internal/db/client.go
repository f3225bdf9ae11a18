// Package db provides SurrealDB connectivity and a read-only record store over it.
package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	"github.com/surrealdb/surrealdb.go/surrealcbor"
)

func init() {
	// WebSocket upgrade fails under HTTP/2 ALPN, pin wss to HTTP/1.1.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Config holds SurrealDB connection configuration.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"
}

// Reconnect policy for the websocket connection.
const (
	connectTimeout    = 5 * time.Second
	reconnectFirst    = time.Second
	reconnectMax      = 30 * time.Second
	reconnectAttempts = 10
)

// Client is a read-mostly SurrealDB session that reconnects on its own.
type Client struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	cfg    Config
	logger *slog.Logger
}

// NewClient connects, signs in and selects cfg's namespace and database.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	conn := dial(cfg, logger.New(log.Handler()))

	log.Info("connecting to SurrealDB", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	c := &Client{conn: conn, cfg: cfg, logger: log}
	if err := c.open(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	log.Info("SurrealDB connection established", "namespace", cfg.Namespace, "database", cfg.Database)
	return c, nil
}

// dial builds a reconnecting websocket connection. Nothing is sent until
// Connect is called.
func dial(cfg Config, sdkLogger logger.Logger) *rews.Connection[*gorillaws.Connection] {
	codec := surrealcbor.New()
	// gorillaws adds the /rpc suffix on its own.
	base := strings.TrimSuffix(cfg.URL, "/rpc")

	conn := rews.New(func(context.Context) (*gorillaws.Connection, error) {
		return gorillaws.New(&connection.Config{
			BaseURL:     base,
			Marshaler:   codec,
			Unmarshaler: codec,
			Logger:      sdkLogger,
		}), nil
	}, connectTimeout, codec, sdkLogger)

	backoff := rews.NewExponentialBackoffRetryer()
	backoff.InitialDelay = reconnectFirst
	backoff.MaxDelay = reconnectMax
	backoff.Multiplier = 2
	backoff.MaxRetries = reconnectAttempts
	conn.Retryer = backoff
	return conn
}

// open wraps the connection, authenticates and selects the database.
// Database-level users sign in scoped to the configured namespace.
func (c *Client) open(ctx context.Context) error {
	db, err := surrealdb.FromConnection(ctx, c.conn)
	if err != nil {
		return fmt.Errorf("from connection: %w", err)
	}

	auth := surrealdb.Auth{Username: c.cfg.Username, Password: c.cfg.Password}
	if c.cfg.AuthLevel == "database" {
		auth.Namespace, auth.Database = c.cfg.Namespace, c.cfg.Database
	}
	if _, err := db.SignIn(ctx, auth); err != nil {
		return fmt.Errorf("signin: %w", err)
	}
	if err := db.Use(ctx, c.cfg.Namespace, c.cfg.Database); err != nil {
		return fmt.Errorf("use %s/%s: %w", c.cfg.Namespace, c.cfg.Database, err)
	}
	c.db = db
	return nil
}

// Close closes the SurrealDB connection.
func (c *Client) Close(ctx context.Context) error {
	c.logger.Info("closing SurrealDB connection")
	return c.conn.Close(ctx)
}

// DB returns the underlying SurrealDB handle.
func (c *Client) DB() *surrealdb.DB {
	return c.db
}

// InitSchema defines the record tables. Safe to run repeatedly.
func (c *Client) InitSchema(ctx context.Context) error {
	if _, err := surrealdb.Query[any](ctx, c.db, SchemaSQL, nil); err != nil {
		return fmt.Errorf("init schema: %w", wrapQueryError(err))
	}
	c.logger.Debug("schema initialization complete")
	return nil
}
