package knowledge

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j/config"
)

// Neo4jClient manages a pooled connection to the optional Neo4j mirror,
// adapted from the teacher's internal/knowledge/neo4j_client.go connection
// wrapper. Nothing in the reasoning pipeline requires this client: the
// Synthesis Engine works entirely off the in-process SynthesisState, and
// only mirrors confirmed insights here when a client is configured.
type Neo4jClient struct {
	driver   neo4j.DriverWithContext
	database string
	timeout  time.Duration
}

// Neo4jConfig holds connection settings, defaulted from environment
// variables the same way the teacher's DefaultConfig does.
type Neo4jConfig struct {
	URI      string
	Username string
	Password string
	Database string
	Timeout  time.Duration
}

// DefaultNeo4jConfig reads RO_NEO4J_* environment variables, falling back
// to the teacher's NEO4J_* names and localhost defaults.
func DefaultNeo4jConfig() Neo4jConfig {
	cfg := Neo4jConfig{
		URI:      firstEnv("RO_NEO4J_URI", "NEO4J_URI", "bolt://localhost:7687"),
		Username: firstEnv("RO_NEO4J_USERNAME", "NEO4J_USERNAME", "neo4j"),
		Password: firstEnv("RO_NEO4J_PASSWORD", "NEO4J_PASSWORD", "password"),
		Database: firstEnv("RO_NEO4J_DATABASE", "NEO4J_DATABASE", "neo4j"),
		Timeout:  5 * time.Second,
	}
	if ms, err := strconv.Atoi(os.Getenv("RO_NEO4J_TIMEOUT_MS")); err == nil && ms > 0 {
		cfg.Timeout = time.Duration(ms) * time.Millisecond
	}
	return cfg
}

func firstEnv(primary, fallback, def string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	if v := os.Getenv(fallback); v != "" {
		return v
	}
	return def
}

// NewNeo4jClient dials uri and verifies connectivity. Callers treat a
// non-nil error as "mirror unavailable" and continue without one (spec
// §6's "absence degrades silently"), never as a reason to fail a session.
func NewNeo4jClient(cfg Neo4jConfig) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(
		cfg.URI,
		neo4j.BasicAuth(cfg.Username, cfg.Password, ""),
		func(c *config.Config) {
			c.MaxConnectionPoolSize = 20
			c.ConnectionAcquisitionTimeout = cfg.Timeout
			c.SocketConnectTimeout = cfg.Timeout
		},
	)
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("verify neo4j connectivity: %w", err)
	}

	return &Neo4jClient{driver: driver, database: cfg.Database, timeout: cfg.Timeout}, nil
}

// Close releases the driver's connection pool.
func (c *Neo4jClient) Close(ctx context.Context) error {
	if c.driver == nil {
		return nil
	}
	return c.driver.Close(ctx)
}

func (c *Neo4jClient) write(ctx context.Context, work neo4j.ManagedTransactionWork) (any, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: c.database, AccessMode: neo4j.AccessModeWrite})
	defer func() { _ = session.Close(ctx) }()
	return session.ExecuteWrite(ctx, work)
}
