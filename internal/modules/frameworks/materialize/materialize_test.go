package materialize

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/forest"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/source"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
)

type createdNode struct {
	id    uuid.UUID
	input NodeInput
}

type fakeStore struct {
	containerErr error
	failOnNode   int // 1-based; 0 never fails
	nodeErr      error
	linkErr      error

	containers []ContainerConfig
	nodes      []createdNode
	links      [][2]uuid.UUID
	attempts   int
}

func (s *fakeStore) CreateContainer(_ context.Context, cfg ContainerConfig) (uuid.UUID, error) {
	if s.containerErr != nil {
		return uuid.Nil, s.containerErr
	}
	s.containers = append(s.containers, cfg)
	return uuid.New(), nil
}

func (s *fakeStore) CreateNode(_ context.Context, in NodeInput) (uuid.UUID, error) {
	s.attempts++
	if s.failOnNode > 0 && s.attempts == s.failOnNode {
		return uuid.Nil, s.nodeErr
	}
	id := uuid.New()
	s.nodes = append(s.nodes, createdNode{id: id, input: in})
	return id, nil
}

func (s *fakeStore) LinkRelated(_ context.Context, a, b uuid.UUID) error {
	if s.linkErr != nil {
		return s.linkErr
	}
	s.links = append(s.links, [2]uuid.UUID{a, b})
	return nil
}

func (s *fakeStore) shortNames() []string {
	out := make([]string, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n.input.Fields.ShortName)
	}
	return out
}

func buildForest(t *testing.T, raw ...source.RawNode) *forest.Forest {
	t.Helper()
	f, err := forest.Build(raw)
	require.NoError(t, err)
	forest.Sanitise(f, forest.DefaultRules())
	return f
}

func rec(id string, parents ...string) source.RawNode {
	return source.RawNode{Identifier: id, ParentRefs: parents}
}

func TestMaterializeCreatesParentsBeforeChildren(t *testing.T) {
	f := buildForest(t, rec("B", "A"), rec("A"), rec("D", "B"), rec("C", "A"), rec("Z"))
	store := &fakeStore{}

	res, err := New(store, Options{}).Materialize(context.Background(), f, ContainerConfig{ShortName: "Maths", IDNumber: "AC-MATHS"})
	require.NoError(t, err)

	require.Len(t, store.containers, 1)
	assert.Equal(t, "AC-MATHS", store.containers[0].IDNumber)
	assert.Equal(t, []string{"A", "B", "D", "C", "Z"}, store.shortNames())
	assert.Len(t, res.Created, 5)

	handles := map[string]uuid.UUID{}
	for _, n := range store.nodes {
		assert.Equal(t, res.Container, n.input.Container)
		handles[n.input.Fields.ShortName] = n.id
	}
	byName := map[string]NodeInput{}
	for _, n := range store.nodes {
		byName[n.input.Fields.ShortName] = n.input
	}
	assert.Nil(t, byName["A"].Parent)
	assert.Nil(t, byName["Z"].Parent)
	assert.Equal(t, handles["A"], *byName["B"].Parent)
	assert.Equal(t, handles["B"], *byName["D"].Parent)
	assert.Equal(t, handles["A"], *byName["C"].Parent)

	assert.Equal(t, 0, byName["A"].Fields.SortOrder)
	assert.Equal(t, 1, byName["Z"].Fields.SortOrder)
	assert.Equal(t, 1, byName["C"].Fields.SortOrder)
	assert.Equal(t, 2, byName["D"].Fields.Depth)
}

func TestMaterializeStopsAtFirstFailureWithoutRollback(t *testing.T) {
	f := buildForest(t, rec("N1"), rec("N2"), rec("N3"), rec("N4"), rec("N5"))
	boom := errors.New("disk full")
	store := &fakeStore{failOnNode: 3, nodeErr: boom}

	res, err := New(store, Options{}).Materialize(context.Background(), f, ContainerConfig{ShortName: "F"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrPersistence))
	assert.True(t, errors.Is(err, boom))

	var pe *pkgerrors.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "create_node", pe.Op)
	assert.Equal(t, "N3", pe.Identifier)
	assert.Equal(t, pkgerrors.PersistenceStorage, pe.Kind)

	assert.Equal(t, []string{"N1", "N2"}, store.shortNames())
	assert.Equal(t, 3, store.attempts, "nodes after the failure are never attempted")
	require.NotNil(t, res)
	assert.Len(t, res.Created, 2)
}

func TestMaterializeContainerFailureCreatesNothing(t *testing.T) {
	f := buildForest(t, rec("A"))
	store := &fakeStore{containerErr: context.DeadlineExceeded}

	_, err := New(store, Options{}).Materialize(context.Background(), f, ContainerConfig{IDNumber: "X"})

	var pe *pkgerrors.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "create_container", pe.Op)
	assert.Equal(t, pkgerrors.PersistenceRetryable, pe.Kind)
	assert.Zero(t, store.attempts)
}

func TestMaterializeKeepsStoreClassification(t *testing.T) {
	f := buildForest(t, rec("A"))
	store := &fakeStore{failOnNode: 1, nodeErr: &pkgerrors.PersistenceError{Kind: pkgerrors.PersistenceConflict, Err: errors.New("duplicate")}}

	_, err := New(store, Options{}).Materialize(context.Background(), f, ContainerConfig{})

	var pe *pkgerrors.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, pkgerrors.PersistenceConflict, pe.Kind)
	assert.Equal(t, "create_node", pe.Op)
	assert.Equal(t, "A", pe.Identifier)
}

func TestMaterializeSkipsUncreatableSubtrees(t *testing.T) {
	f := buildForest(t, rec("A"), rec("B", "A"), rec("C", "B"), rec("D", "A"))
	// Identifier cleared after sanitising, the way a rule set with no fallbacks would leave it.
	for _, n := range f.Nodes {
		if n.Identifier == "B" {
			n.Identifier = ""
		}
	}
	store := &fakeStore{}

	res, err := New(store, Options{}).Materialize(context.Background(), f, ContainerConfig{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "D"}, store.shortNames())
	assert.Equal(t, 2, res.Skipped)
	assert.Equal(t, 0, store.nodes[1].input.Fields.SortOrder)
}

func TestMaterializeReplaysRelatedLinksOncePerPair(t *testing.T) {
	f := buildForest(t,
		rec("A"),
		rec("B"),
		rec("C", "A", "B"),
		rec("D", "B", "A"),
		rec("X", "Y"),
		rec("Y", "X"),
	)
	store := &fakeStore{}

	res, err := New(store, Options{}).Materialize(context.Background(), f, ContainerConfig{})
	require.NoError(t, err)

	handles := map[string]uuid.UUID{}
	for _, n := range store.nodes {
		handles[n.input.Fields.ShortName] = n.id
	}
	pairs := map[[2]uuid.UUID]bool{}
	for _, l := range store.links {
		key := pairKey(l[0], l[1])
		assert.False(t, pairs[key], "duplicate link")
		pairs[key] = true
	}
	assert.Equal(t, 3, res.RelatedLinks)
	assert.True(t, pairs[pairKey(handles["C"], handles["B"])])
	assert.True(t, pairs[pairKey(handles["D"], handles["A"])])
	assert.True(t, pairs[pairKey(handles["X"], handles["Y"])])
}

func TestMaterializeLinkFailure(t *testing.T) {
	f := buildForest(t, rec("A"), rec("B"), rec("C", "A", "B"))
	store := &fakeStore{linkErr: errors.New("fk violation")}

	res, err := New(store, Options{}).Materialize(context.Background(), f, ContainerConfig{})
	var pe *pkgerrors.PersistenceError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "link_related", pe.Op)
	assert.Len(t, res.Created, 3)
}

func TestMaterializeMarksLeafParents(t *testing.T) {
	f := buildForest(t,
		source.RawNode{Identifier: "CD", IsLeafMarker: true},
		source.RawNode{Identifier: "EL", ParentRefs: []string{"CD"}, IsLeafMarker: true},
	)
	store := &fakeStore{}

	_, err := New(store, Options{}).Materialize(context.Background(), f, ContainerConfig{})
	require.NoError(t, err)
	require.Len(t, store.nodes, 2)
	assert.Equal(t, RuleTypeAll, store.nodes[0].input.Fields.RuleType)
	assert.Equal(t, RuleOutcomeEvidence, store.nodes[0].input.Fields.RuleOutcome)
	assert.Empty(t, store.nodes[1].input.Fields.RuleType)
}

func TestMaterializeRejectsDeepForestsBeforeWriting(t *testing.T) {
	raw := []source.RawNode{rec("n0")}
	for i := 1; i < 10; i++ {
		raw = append(raw, rec("n"+strings.Repeat("x", i), raw[i-1].Identifier))
	}
	f := buildForest(t, raw...)
	store := &fakeStore{}

	_, err := New(store, Options{MaxDepth: 5}).Materialize(context.Background(), f, ContainerConfig{})
	assert.True(t, errors.Is(err, pkgerrors.ErrMalformedInput))
	assert.Empty(t, store.containers)
}

func TestCheckForestDetectsSharedAndCyclicNodes(t *testing.T) {
	a := &forest.Node{RawNode: source.RawNode{Identifier: "a"}}
	b := &forest.Node{RawNode: source.RawNode{Identifier: "b"}}
	a.Children = []*forest.Node{b}
	shared := &forest.Forest{Roots: []*forest.Node{a, b}, Nodes: []*forest.Node{a, b}}
	assert.True(t, errors.Is(CheckForest(shared, 0), pkgerrors.ErrMalformedInput))

	x := &forest.Node{RawNode: source.RawNode{Identifier: "x"}}
	y := &forest.Node{RawNode: source.RawNode{Identifier: "y"}}
	x.Children = []*forest.Node{y}
	y.Children = []*forest.Node{x}
	cyclic := &forest.Forest{Nodes: []*forest.Node{x, y}}
	assert.True(t, errors.Is(CheckForest(cyclic, 0), pkgerrors.ErrMalformedInput))

	ok := &forest.Forest{Roots: []*forest.Node{a}, Nodes: []*forest.Node{a, b}}
	assert.NoError(t, CheckForest(ok, 0))
}
