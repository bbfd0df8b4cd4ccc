// Package forest rebuilds a rooted hierarchy out of flat records that may name several
// candidate parents, and normalises the display fields of every node.
package forest

import (
	"sort"
	"strings"

	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/source"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
)

// Node is one record placed in the forest. Children is the owning edge; Parent and
// Related only point at nodes owned elsewhere in the same forest.
type Node struct {
	source.RawNode

	// Seq is the position of the record in the input sequence.
	Seq        int
	ChildCount int

	Parent   *Node
	Children []*Node
	Related  []*Node
}

func (n *Node) IsRoot() bool      { return n.Parent == nil }
func (n *Node) HasChildren() bool { return len(n.Children) > 0 }

// Depth is 0 for roots.
func (n *Node) Depth() int {
	d := 0
	for p := n.Parent; p != nil; p = p.Parent {
		d++
	}
	return d
}

func (n *Node) descendsFrom(ancestor *Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

func (n *Node) addRelated(other *Node) {
	if other == nil || other == n || other == n.Parent {
		return
	}
	for _, r := range n.Related {
		if r == other {
			return
		}
	}
	n.Related = append(n.Related, other)
}

// Forest holds the roots plus every node in input order.
type Forest struct {
	Roots []*Node
	Nodes []*Node
}

func (f *Forest) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Nodes)
}

// Walk visits nodes pre-order following the current child order. Returning false from
// fn skips the node's subtree. A node reached twice is not visited again.
func (f *Forest) Walk(fn func(n *Node, depth int) bool) {
	if f == nil {
		return
	}
	type frame struct {
		n     *Node
		depth int
	}
	seen := make(map[*Node]struct{}, len(f.Nodes))
	stack := make([]frame, 0, len(f.Roots))
	for i := len(f.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{n: f.Roots[i]})
	}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if top.n == nil {
			continue
		}
		if _, ok := seen[top.n]; ok {
			continue
		}
		seen[top.n] = struct{}{}
		if !fn(top.n, top.depth) {
			continue
		}
		for i := len(top.n.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{n: top.n.Children[i], depth: top.depth + 1})
		}
	}
}

// Build resolves every record's structural parent.
//
// Candidates are the records named in ParentRefs that exist in the input. With several
// candidates the one claimed by the fewest records wins (first listed on ties) and the
// rest become related links. A candidate that already sits below the record cannot be
// its parent; the next one is tried, and a record left without an eligible candidate
// becomes a root.
func Build(raw []source.RawNode) (*Forest, error) {
	nodes := make([]*Node, len(raw))
	index := make(map[string]*Node, len(raw))
	for i, r := range raw {
		id := strings.TrimSpace(r.Identifier)
		if id == "" {
			return nil, pkgerrors.Malformed("record has no identifier", i, nil)
		}
		n := &Node{RawNode: r, Seq: i}
		n.Identifier = id
		n.ParentRefs = append([]string(nil), r.ParentRefs...)
		n.Tags = append([]source.Tag(nil), r.Tags...)
		nodes[i] = n
		// First occurrence owns a duplicated identifier.
		if _, dup := index[id]; !dup {
			index[id] = n
		}
	}

	candidates := make([][]*Node, len(nodes))
	for i, n := range nodes {
		for _, ref := range n.ParentRefs {
			p, ok := index[strings.TrimSpace(ref)]
			if !ok || p == n || containsNode(candidates[i], p) {
				continue
			}
			candidates[i] = append(candidates[i], p)
			p.ChildCount++
		}
	}

	for i, n := range nodes {
		attach(n, candidates[i])
	}

	f := &Forest{Nodes: nodes}
	for _, n := range nodes {
		if n.Parent == nil {
			f.Roots = append(f.Roots, n)
		}
	}
	return f, nil
}

func attach(n *Node, cands []*Node) {
	if len(cands) == 0 {
		return
	}
	ranked := append([]*Node(nil), cands...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ChildCount < ranked[j].ChildCount
	})

	var chosen *Node
	for _, c := range ranked {
		if !c.descendsFrom(n) {
			chosen = c
			break
		}
	}
	if chosen != nil {
		n.Parent = chosen
		chosen.Children = append(chosen.Children, n)
	}
	for _, c := range cands {
		if c != chosen {
			n.addRelated(c)
		}
	}
}

func containsNode(list []*Node, n *Node) bool {
	for _, x := range list {
		if x == n {
			return true
		}
	}
	return false
}
