package app

import (
	"context"
	"fmt"

	"github.com/yungbote/neurobridge-frameworks/internal/clients/redis"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/neo4jdb"
)

type Clients struct {
	ImportLock redis.ImportLock
	// Nil when NEO4J_URI is unset.
	Graph *neo4jdb.Client
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	lock, err := redis.NewImportLock(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init redis import lock: %w", err)
	}

	graph, err := neo4jdb.NewFromEnv(log)
	if err != nil {
		// The graph mirror is optional; imports still succeed without it.
		log.Warn("neo4j unavailable; graph sync disabled", "error", err)
		graph = nil
	}

	return Clients{ImportLock: lock, Graph: graph}, nil
}

func (c *Clients) Close(ctx context.Context) {
	if c == nil {
		return
	}
	if c.ImportLock != nil {
		_ = c.ImportLock.Close()
	}
	if c.Graph != nil {
		_ = c.Graph.Close(ctx)
	}
}
