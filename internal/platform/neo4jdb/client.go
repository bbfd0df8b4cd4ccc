// Package neo4jdb owns the optional Neo4j driver used to mirror imported frameworks
// into a graph. Every method is safe on a nil *Client.
package neo4jdb

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/neurobridge-frameworks/internal/platform/envutil"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

type Client struct {
	Driver   neo4j.DriverWithContext
	Database string
	log      *logger.Logger

	schemaMu   sync.Mutex
	schemaDone map[string]bool
}

type Config struct {
	URI         string
	User        string
	Password    string
	Database    string
	Timeout     time.Duration
	MaxPoolSize int
}

func ConfigFromEnv(log *logger.Logger) Config {
	return Config{
		URI:         envutil.String("NEO4J_URI", "", log),
		User:        envutil.String("NEO4J_USER", "neo4j", log),
		Password:    envutil.String("NEO4J_PASSWORD", "", log),
		Database:    envutil.String("NEO4J_DATABASE", "", log),
		Timeout:     time.Duration(envutil.Int("NEO4J_TIMEOUT_SECONDS", 10)) * time.Second,
		MaxPoolSize: envutil.Int("NEO4J_MAX_POOL_SIZE", 20),
	}
}

// NewFromEnv returns nil, nil when NEO4J_URI is unset.
func NewFromEnv(log *logger.Logger) (*Client, error) {
	return New(ConfigFromEnv(log), log)
}

func New(cfg Config, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.Nop()
	}
	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		return nil, nil
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxPoolSize <= 0 {
		cfg.MaxPoolSize = 20
	}

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(cfg.User, cfg.Password, ""), func(c *neo4j.Config) {
		c.MaxConnectionPoolSize = cfg.MaxPoolSize
		c.SocketConnectTimeout = cfg.Timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4jdb: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4jdb: verify connectivity %s: %w", uri, err)
	}

	log.Info("neo4j connected", "uri", uri, "database", cfg.Database)
	return &Client{
		Driver:     driver,
		Database:   strings.TrimSpace(cfg.Database),
		log:        log.With("client", "neo4j"),
		schemaDone: map[string]bool{},
	}, nil
}

func (c *Client) Enabled() bool {
	return c != nil && c.Driver != nil
}

// WriteSession opens a write session on the configured database. Callers close it.
func (c *Client) WriteSession(ctx context.Context) neo4j.SessionWithContext {
	return c.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: c.Database,
	})
}

// EnsureSchema runs each statement once per process. Failures are logged and retried
// on the next call.
func (c *Client) EnsureSchema(ctx context.Context, stmts ...string) {
	if !c.Enabled() {
		return
	}
	c.schemaMu.Lock()
	defer c.schemaMu.Unlock()

	var pending []string
	for _, q := range stmts {
		if !c.schemaDone[q] {
			pending = append(pending, q)
		}
	}
	if len(pending) == 0 {
		return
	}
	session := c.WriteSession(ctx)
	defer session.Close(ctx)
	for _, q := range pending {
		res, err := session.Run(ctx, q, nil)
		if err == nil {
			_, err = res.Consume(ctx)
		}
		if err != nil {
			c.log.Warn("neo4j schema statement failed (continuing)", "error", err)
			continue
		}
		c.schemaDone[q] = true
	}
}

func (c *Client) Close(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	err := c.Driver.Close(ctx)
	c.Driver = nil
	return err
}
