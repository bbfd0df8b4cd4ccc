package graph

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	types "github.com/yungbote/neurobridge-frameworks/internal/domain"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/neo4jdb"
)

type competencyGraphPayload struct {
	Framework   map[string]any
	Nodes       []map[string]any
	ChildRels   []map[string]any
	RelatedRels []map[string]any
}

func buildCompetencyGraphPayload(
	fw *types.CompetencyFramework,
	competencies []*types.Competency,
	related []*types.RelatedCompetency,
	now string,
) competencyGraphPayload {
	out := competencyGraphPayload{
		Framework: map[string]any{
			"id":          fw.ID.String(),
			"idnumber":    fw.IDNumber,
			"shortname":   fw.ShortName,
			"description": fw.Description,
			"profile":     fw.Profile,
			"visible":     fw.Visible,
			"created_at":  fw.CreatedAt.UTC().Format(time.RFC3339Nano),
			"synced_at":   now,
		},
	}

	known := make(map[uuid.UUID]bool, len(competencies))
	for _, c := range competencies {
		if c == nil || c.ID == uuid.Nil || c.FrameworkID != fw.ID {
			continue
		}
		known[c.ID] = true
		out.Nodes = append(out.Nodes, map[string]any{
			"id":           c.ID.String(),
			"framework_id": c.FrameworkID.String(),
			"idnumber":     c.IDNumber,
			"shortname":    c.ShortName,
			"description":  c.Description,
			"rule_type":    c.RuleType,
			"rule_outcome": c.RuleOutcome,
			"sort_order":   int64(c.SortOrder),
			"depth":        int64(c.Depth),
			"path":         c.Path,
			"created_at":   c.CreatedAt.UTC().Format(time.RFC3339Nano),
			"synced_at":    now,
		})
	}
	for _, c := range competencies {
		if c == nil || !known[c.ID] {
			continue
		}
		if c.ParentID == nil {
			out.ChildRels = append(out.ChildRels, map[string]any{
				"from_id":    fw.ID.String(),
				"from_label": "framework",
				"to_id":      c.ID.String(),
				"sort_order": int64(c.SortOrder),
			})
			continue
		}
		if !known[*c.ParentID] {
			continue
		}
		out.ChildRels = append(out.ChildRels, map[string]any{
			"from_id":    c.ParentID.String(),
			"from_label": "competency",
			"to_id":      c.ID.String(),
			"sort_order": int64(c.SortOrder),
		})
	}
	for _, r := range related {
		if r == nil || !known[r.CompetencyID] || !known[r.RelatedCompetencyID] {
			continue
		}
		out.RelatedRels = append(out.RelatedRels, map[string]any{
			"id":        r.ID.String(),
			"from_id":   r.CompetencyID.String(),
			"to_id":     r.RelatedCompetencyID.String(),
			"synced_at": now,
		})
	}
	return out
}

var competencySchema = []string{
	`CREATE CONSTRAINT competency_framework_id_unique IF NOT EXISTS FOR (f:CompetencyFramework) REQUIRE f.id IS UNIQUE`,
	`CREATE CONSTRAINT competency_id_unique IF NOT EXISTS FOR (c:Competency) REQUIRE c.id IS UNIQUE`,
}

// UpsertCompetencyFrameworkGraph mirrors one framework into Neo4j:
// (:CompetencyFramework)-[:HAS_CHILD]->(:Competency)-[:HAS_CHILD]->(:Competency) plus
// symmetric RELATED_TO links. A nil client is a no-op.
func UpsertCompetencyFrameworkGraph(
	ctx context.Context,
	client *neo4jdb.Client,
	log *logger.Logger,
	fw *types.CompetencyFramework,
	competencies []*types.Competency,
	related []*types.RelatedCompetency,
) error {
	if !client.Enabled() {
		return nil
	}
	if fw == nil || fw.ID == uuid.Nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	p := buildCompetencyGraphPayload(fw, competencies, related, time.Now().UTC().Format(time.RFC3339Nano))

	rootRels := make([]map[string]any, 0, len(p.ChildRels))
	nestedRels := make([]map[string]any, 0, len(p.ChildRels))
	for _, r := range p.ChildRels {
		if strings.TrimSpace(r["from_label"].(string)) == "framework" {
			rootRels = append(rootRels, r)
		} else {
			nestedRels = append(nestedRels, r)
		}
	}

	client.EnsureSchema(ctx, competencySchema...)

	session := client.WriteSession(ctx)
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		run := func(q string, params map[string]any) error {
			res, err := tx.Run(ctx, q, params)
			if err != nil {
				return err
			}
			_, err = res.Consume(ctx)
			return err
		}

		if err := run(`
MERGE (f:CompetencyFramework {id: $framework.id})
SET f += $framework
`, map[string]any{"framework": p.Framework}); err != nil {
			return nil, err
		}

		if len(p.Nodes) > 0 {
			if err := run(`
UNWIND $nodes AS n
MERGE (c:Competency {id: n.id})
SET c += n
`, map[string]any{"nodes": p.Nodes}); err != nil {
				return nil, err
			}
		}

		if len(rootRels) > 0 {
			if err := run(`
UNWIND $rels AS r
MATCH (f:CompetencyFramework {id: r.from_id})
MATCH (c:Competency {id: r.to_id})
MERGE (f)-[e:HAS_CHILD]->(c)
SET e.sort_order = r.sort_order
`, map[string]any{"rels": rootRels}); err != nil {
				return nil, err
			}
		}

		if len(nestedRels) > 0 {
			if err := run(`
UNWIND $rels AS r
MATCH (a:Competency {id: r.from_id})
MATCH (b:Competency {id: r.to_id})
MERGE (a)-[e:HAS_CHILD]->(b)
SET e.sort_order = r.sort_order
`, map[string]any{"rels": nestedRels}); err != nil {
				return nil, err
			}
		}

		if len(p.RelatedRels) > 0 {
			if err := run(`
UNWIND $rels AS r
MATCH (a:Competency {id: r.from_id})
MATCH (b:Competency {id: r.to_id})
MERGE (a)-[e:RELATED_TO]-(b)
SET e.id = r.id,
    e.synced_at = r.synced_at
`, map[string]any{"rels": p.RelatedRels}); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return err
	}

	if log != nil {
		log.Debug("competency framework graph synced",
			"framework_id", fw.ID,
			"competencies", len(p.Nodes),
			"child_rels", len(p.ChildRels),
			"related_rels", len(p.RelatedRels),
		)
	}
	return nil
}
