// Package materialize writes a sanitised forest into a taxonomy store, parent before
// child, then replays related links once every node has a handle.
package materialize

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/forest"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
	"github.com/yungbote/neurobridge-frameworks/internal/platform/logger"
)

const (
	RuleTypeAll         = "all"
	RuleOutcomeEvidence = "evidence"

	DefaultMaxDepth = 512
)

// ContainerConfig describes the framework that owns one imported hierarchy. The core
// forwards it untouched.
type ContainerConfig struct {
	ShortName          string   `json:"shortname"`
	IDNumber           string   `json:"idnumber"`
	Description        string   `json:"description"`
	ScaleID            string   `json:"scale_id"`
	ScaleConfiguration string   `json:"scale_configuration"`
	Visible            bool     `json:"visible"`
	Taxonomies         []string `json:"taxonomies"`
	ContextID          string   `json:"context_id"`
	Profile            string   `json:"profile"`
}

// NodeFields are the sanitised attributes of one competency.
type NodeFields struct {
	IDNumber    string
	ShortName   string
	Description string
	RuleType    string
	RuleOutcome string
	SortOrder   int
	Depth       int
}

type NodeInput struct {
	Container uuid.UUID
	// Parent is nil for nodes created directly under the container.
	Parent *uuid.UUID
	Fields NodeFields
}

// Store is the persistence boundary.
type Store interface {
	CreateContainer(ctx context.Context, cfg ContainerConfig) (uuid.UUID, error)
	CreateNode(ctx context.Context, in NodeInput) (uuid.UUID, error)
	LinkRelated(ctx context.Context, a, b uuid.UUID) error
}

type Options struct {
	// MaxDepth bounds the hierarchy depth accepted before any write happens.
	MaxDepth int
	Log      *logger.Logger
}

type Created struct {
	Handle uuid.UUID
	Parent *uuid.UUID
	Source *forest.Node
}

type Result struct {
	Container    uuid.UUID
	Created      []Created
	Skipped      int
	RelatedLinks int
}

type Materializer struct {
	store    Store
	maxDepth int
	log      *logger.Logger
}

func New(store Store, opts Options) *Materializer {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	return &Materializer{store: store, maxDepth: opts.MaxDepth, log: log.With("service", "Materializer")}
}

// Materialize creates the container and every node of f in sorted pre-order. The
// first failing store call stops the run with a *errors.PersistenceError; nothing
// already written is undone.
func (m *Materializer) Materialize(ctx context.Context, f *forest.Forest, cfg ContainerConfig) (*Result, error) {
	if m == nil || m.store == nil {
		return nil, fmt.Errorf("materializer: store required")
	}
	if err := CheckForest(f, m.maxDepth); err != nil {
		return nil, err
	}

	containerID, err := m.store.CreateContainer(ctx, cfg)
	if err != nil {
		return nil, wrapStoreErr("create_container", cfg.IDNumber, err)
	}
	res := &Result{Container: containerID}

	handles := make(map[*forest.Node]uuid.UUID, f.Len())
	stack := pushChildren(nil, f.Roots, nil, 0, &res.Skipped)
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		n := top.n
		fields := NodeFields{
			IDNumber:    n.Identifier,
			ShortName:   n.DisplayName,
			Description: n.Description,
			SortOrder:   top.sortOrder,
			Depth:       top.depth,
		}
		if n.IsLeafMarker && hasCreatableChild(n) {
			fields.RuleType = RuleTypeAll
			fields.RuleOutcome = RuleOutcomeEvidence
		}
		id, err := m.store.CreateNode(ctx, NodeInput{Container: containerID, Parent: top.parent, Fields: fields})
		if err != nil {
			return res, wrapStoreErr("create_node", n.Identifier, err)
		}
		handles[n] = id
		res.Created = append(res.Created, Created{Handle: id, Parent: top.parent, Source: n})

		parentID := id
		stack = pushChildren(stack, n.Children, &parentID, top.depth+1, &res.Skipped)
	}

	seen := map[[2]uuid.UUID]struct{}{}
	for _, c := range res.Created {
		for _, rel := range c.Source.Related {
			other, ok := handles[rel]
			if !ok || other == c.Handle {
				continue
			}
			key := pairKey(c.Handle, other)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			if err := m.store.LinkRelated(ctx, c.Handle, other); err != nil {
				return res, wrapStoreErr("link_related", c.Source.Identifier, err)
			}
			res.RelatedLinks++
		}
	}

	m.log.Info("framework materialized",
		"framework_id", containerID,
		"created", len(res.Created),
		"skipped", res.Skipped,
		"related_links", res.RelatedLinks,
	)
	return res, nil
}

type pending struct {
	n         *forest.Node
	parent    *uuid.UUID
	depth     int
	sortOrder int
}

// pushChildren queues the creatable children so that they pop in sibling order and
// counts skipped subtrees.
func pushChildren(stack []pending, children []*forest.Node, parent *uuid.UUID, depth int, skipped *int) []pending {
	queued := make([]pending, 0, len(children))
	for _, c := range children {
		if !Creatable(c) {
			*skipped += subtreeSize(c)
			continue
		}
		queued = append(queued, pending{n: c, parent: parent, depth: depth, sortOrder: len(queued)})
	}
	for i := len(queued) - 1; i >= 0; i-- {
		stack = append(stack, queued[i])
	}
	return stack
}

// Creatable reports whether a sanitised node has the fields a store needs. Nodes that
// fail this are skipped together with their subtree.
func Creatable(n *forest.Node) bool {
	return n != nil && n.Identifier != "" && n.DisplayName != ""
}

func hasCreatableChild(n *forest.Node) bool {
	for _, c := range n.Children {
		if Creatable(c) {
			return true
		}
	}
	return false
}

func subtreeSize(n *forest.Node) int {
	size := 0
	sub := &forest.Forest{Roots: []*forest.Node{n}}
	sub.Walk(func(*forest.Node, int) bool {
		size++
		return true
	})
	return size
}

func pairKey(a, b uuid.UUID) [2]uuid.UUID {
	if a.String() > b.String() {
		a, b = b, a
	}
	return [2]uuid.UUID{a, b}
}

// CheckForest rejects forests that reach a node twice or nest deeper than maxDepth.
func CheckForest(f *forest.Forest, maxDepth int) error {
	if f == nil {
		return pkgerrors.Malformed("empty forest", -1, nil)
	}
	type frame struct {
		n     *forest.Node
		depth int
	}
	seen := make(map[*forest.Node]struct{}, f.Len())
	stack := make([]frame, 0, len(f.Roots))
	for _, r := range f.Roots {
		stack = append(stack, frame{n: r})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.n == nil {
			continue
		}
		if _, ok := seen[top.n]; ok {
			return pkgerrors.Malformed(fmt.Sprintf("node %q reached twice", top.n.Identifier), top.n.Seq, nil)
		}
		seen[top.n] = struct{}{}
		if maxDepth > 0 && top.depth >= maxDepth {
			return pkgerrors.Malformed(fmt.Sprintf("hierarchy deeper than %d levels", maxDepth), top.n.Seq, nil)
		}
		for _, c := range top.n.Children {
			stack = append(stack, frame{n: c, depth: top.depth + 1})
		}
	}
	// Every node has at most one parent, so a node the roots never reach sits on a cycle.
	for _, n := range f.Nodes {
		if _, ok := seen[n]; !ok && n != nil {
			return pkgerrors.Malformed(fmt.Sprintf("node %q is part of a parent cycle", n.Identifier), n.Seq, nil)
		}
	}
	return nil
}

func wrapStoreErr(op, identifier string, err error) error {
	var pe *pkgerrors.PersistenceError
	if errors.As(err, &pe) {
		out := *pe
		if out.Op == "" {
			out.Op = op
		}
		if out.Identifier == "" {
			out.Identifier = identifier
		}
		if out.Kind == "" {
			out.Kind = pkgerrors.PersistenceStorage
		}
		return &out
	}
	kind := pkgerrors.PersistenceStorage
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		kind = pkgerrors.PersistenceRetryable
	}
	return &pkgerrors.PersistenceError{Op: op, Identifier: identifier, Kind: kind, Err: err}
}
