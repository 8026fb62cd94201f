package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Option configures the Postgres client.
type Option func(*config)

type config struct {
	host     string
	port     int
	database string
	user     string
	password string
	sslMode  string
	minConns int32
	maxConns int32
	timeout  time.Duration
}

// Client wraps a pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
}

// NewClient creates a connection pool and verifies connectivity.
func NewClient(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &config{
		host:     "localhost",
		port:     5432,
		database: "whalewatch",
		user:     "postgres",
		sslMode:  "disable",
		minConns: 2,
		maxConns: 10,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	connStr := fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		cfg.host, cfg.port, cfg.database, cfg.user, cfg.password, cfg.sslMode)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}
	poolCfg.MinConns = cfg.minConns
	poolCfg.MaxConns = cfg.maxConns

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Client{pool: pool}, nil
}

// InitSchema executes schema bootstrap statements in order.
func (c *Client) InitSchema(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if _, err := c.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

// Pool returns the underlying pgx pool.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Ping verifies the connection is healthy.
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Close closes the pool.
func (c *Client) Close() {
	c.pool.Close()
}

// WithHost sets the server host.
func WithHost(host string) Option {
	return func(c *config) { c.host = host }
}

// WithPort sets the server port.
func WithPort(port int) Option {
	return func(c *config) { c.port = port }
}

// WithDatabase sets the database name.
func WithDatabase(database string) Option {
	return func(c *config) { c.database = database }
}

// WithCredentials sets user and password.
func WithCredentials(user, password string) Option {
	return func(c *config) {
		c.user = user
		c.password = password
	}
}

// WithSSLMode sets the sslmode parameter.
func WithSSLMode(mode string) Option {
	return func(c *config) { c.sslMode = mode }
}

// WithConns sets pool bounds.
func WithConns(minConns, maxConns int) Option {
	return func(c *config) {
		c.minConns = int32(minConns)
		c.maxConns = int32(maxConns)
	}
}

// WithConnectTimeout sets the dial/ping timeout.
func WithConnectTimeout(d time.Duration) Option {
	return func(c *config) { c.timeout = d }
}
