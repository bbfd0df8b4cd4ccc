package forest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/source"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
)

func rec(id string, parents ...string) source.RawNode {
	return source.RawNode{Identifier: id, ParentRefs: parents}
}

func ids(list []*Node) []string {
	out := make([]string, 0, len(list))
	for _, n := range list {
		out = append(out, n.Identifier)
	}
	return out
}

func TestBuildWithoutParentsKeepsEveryRecordAsRoot(t *testing.T) {
	f, err := Build([]source.RawNode{rec("A"), rec("B"), rec("C")})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "C"}, ids(f.Roots))
	for _, n := range f.Roots {
		assert.Empty(t, n.Children)
		assert.Empty(t, n.Related)
		assert.True(t, n.IsRoot())
	}
}

func TestBuildSingleParentKeepsDiscoveryOrder(t *testing.T) {
	f, err := Build([]source.RawNode{rec("C", "A"), rec("A"), rec("B", "A"), rec("0", "A")})
	require.NoError(t, err)

	require.Len(t, f.Roots, 1)
	assert.Equal(t, []string{"C", "B", "0"}, ids(f.Roots[0].Children))
	assert.Equal(t, 3, f.Roots[0].ChildCount)
}

func TestBuildSimpleHierarchy(t *testing.T) {
	f, err := Build([]source.RawNode{rec("A"), rec("B", "A"), rec("C", "A")})
	require.NoError(t, err)
	Sanitise(f, DefaultRules())

	require.Equal(t, []string{"A"}, ids(f.Roots))
	a := f.Roots[0]
	assert.Equal(t, []string{"B", "C"}, ids(a.Children))
	f.Walk(func(n *Node, _ int) bool {
		assert.Empty(t, n.Related, n.Identifier)
		return true
	})
	assert.Equal(t, 1, a.Children[0].Depth())
}

func TestBuildPrefersLeastClaimedCandidate(t *testing.T) {
	f, err := Build([]source.RawNode{
		rec("A"),
		rec("B"),
		rec("C", "A", "B"),
		rec("D", "A"),
		rec("E", "B"),
		rec("F", "B"),
	})
	require.NoError(t, err)

	c := f.Nodes[2]
	require.NotNil(t, c.Parent)
	assert.Equal(t, "A", c.Parent.Identifier)
	assert.Equal(t, []string{"B"}, ids(c.Related))
	assert.Empty(t, f.Nodes[1].Related, "related links live on the child only")
}

func TestBuildTieGoesToFirstListedCandidate(t *testing.T) {
	f, err := Build([]source.RawNode{rec("A"), rec("B"), rec("C", "B", "A")})
	require.NoError(t, err)

	c := f.Nodes[2]
	assert.Equal(t, "B", c.Parent.Identifier)
	assert.Equal(t, []string{"A"}, ids(c.Related))
}

func TestBuildMutualParentsDoNotLoop(t *testing.T) {
	f, err := Build([]source.RawNode{rec("X", "Y"), rec("Y", "X")})
	require.NoError(t, err)

	require.Len(t, f.Roots, 1)
	root := f.Roots[0]
	require.Len(t, root.Children, 1)
	child := root.Children[0]
	assert.Same(t, root, child.Parent)
	require.Len(t, root.Related, 1)
	assert.Same(t, child, root.Related[0])
	assert.Empty(t, child.Related, "a node never lists its own parent as related")

	visited := 0
	f.Walk(func(*Node, int) bool {
		visited++
		return true
	})
	assert.Equal(t, 2, visited)
}

func TestBuildLongerCycleBreaksIntoTree(t *testing.T) {
	f, err := Build([]source.RawNode{rec("A", "C"), rec("B", "A"), rec("C", "B")})
	require.NoError(t, err)

	require.Len(t, f.Roots, 1)
	visited := 0
	f.Walk(func(*Node, int) bool {
		visited++
		return true
	})
	assert.Equal(t, 3, visited)
}

func TestBuildDropsUnresolvedSelfAndRepeatedRefs(t *testing.T) {
	f, err := Build([]source.RawNode{
		rec("A"),
		rec("B", "missing", "B", "A", "A"),
	})
	require.NoError(t, err)

	b := f.Nodes[1]
	assert.Equal(t, "A", b.Parent.Identifier)
	assert.Empty(t, b.Related)
	assert.Equal(t, 1, f.Nodes[0].ChildCount)
}

func TestBuildFirstDuplicateOwnsIdentifier(t *testing.T) {
	f, err := Build([]source.RawNode{
		{Identifier: "A", DisplayName: "first"},
		{Identifier: "A", DisplayName: "second"},
		rec("B", "A"),
	})
	require.NoError(t, err)

	assert.Equal(t, "first", f.Nodes[2].Parent.DisplayName)
	assert.Len(t, f.Roots, 2)
}

func TestBuildRejectsRecordWithoutIdentifier(t *testing.T) {
	_, err := Build([]source.RawNode{rec("A"), rec("  ")})
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrMalformedInput))

	var me *pkgerrors.MalformedInputError
	require.ErrorAs(t, err, &me)
	assert.Equal(t, 1, me.Index)
}

func TestBuildDoesNotMutateInput(t *testing.T) {
	raw := []source.RawNode{rec("A"), {Identifier: "B", ParentRefs: []string{"A"}, Tags: []source.Tag{{Key: "subject", Value: "Maths"}}}}
	f, err := Build(raw)
	require.NoError(t, err)
	Sanitise(f, DefaultRules())

	assert.Equal(t, "", raw[1].Description)
	f.Nodes[1].ParentRefs[0] = "changed"
	assert.Equal(t, "A", raw[1].ParentRefs[0])
}

func TestWalkCanSkipSubtrees(t *testing.T) {
	f, err := Build([]source.RawNode{rec("A"), rec("B", "A"), rec("C", "B"), rec("D")})
	require.NoError(t, err)

	var seen []string
	f.Walk(func(n *Node, _ int) bool {
		seen = append(seen, n.Identifier)
		return n.Identifier != "B"
	})
	assert.Equal(t, []string{"A", "B", "D"}, seen)
}
