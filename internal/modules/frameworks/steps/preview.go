package steps

import (
	"context"
	"fmt"
	"io"

	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/forest"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/materialize"
	"github.com/yungbote/neurobridge-frameworks/internal/modules/frameworks/profiles"
	pkgerrors "github.com/yungbote/neurobridge-frameworks/internal/pkg/errors"
)

type FrameworkPreviewDeps struct {
	Profiles *profiles.Registry
	MaxDepth int
}

type FrameworkPreviewInput struct {
	Document io.Reader `json:"-"`
	Profile  string    `json:"profile,omitempty"`
}

// TreeNode is the sanitised form of one competency as it would be created.
type TreeNode struct {
	Identifier  string     `json:"identifier"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	RuleType    string     `json:"rule_type,omitempty"`
	Related     []string   `json:"related,omitempty"`
	Children    []TreeNode `json:"children,omitempty"`
}

type FrameworkPreviewOutput struct {
	Profile  string     `json:"profile"`
	Records  int        `json:"records"`
	Nodes    int        `json:"nodes"`
	Skipped  int        `json:"skipped"`
	MaxDepth int        `json:"max_depth"`
	Roots    []TreeNode `json:"roots"`
}

// FrameworkPreview runs the import pipeline up to the point of persistence.
func FrameworkPreview(ctx context.Context, deps FrameworkPreviewDeps, in FrameworkPreviewInput) (FrameworkPreviewOutput, error) {
	out := FrameworkPreviewOutput{Roots: []TreeNode{}}
	if deps.Profiles == nil {
		return out, fmt.Errorf("framework_preview: missing deps")
	}
	if in.Document == nil {
		return out, fmt.Errorf("%w: import document is required", pkgerrors.ErrInvalidArgument)
	}
	prof, err := deps.Profiles.Get(in.Profile)
	if err != nil {
		return out, err
	}
	out.Profile = prof.Name

	f, records, err := buildSanitisedForest(ctx, prof, in.Document, deps.MaxDepth)
	out.Records = records
	if err != nil {
		return out, err
	}
	for _, r := range f.Roots {
		if !materialize.Creatable(r) {
			out.Skipped += countSubtree(r)
			continue
		}
		out.Roots = append(out.Roots, toTreeNode(r, 0, &out))
	}
	return out, nil
}

func toTreeNode(n *forest.Node, depth int, out *FrameworkPreviewOutput) TreeNode {
	out.Nodes++
	if depth > out.MaxDepth {
		out.MaxDepth = depth
	}
	t := TreeNode{
		Identifier:  n.Identifier,
		Name:        n.DisplayName,
		Description: n.Description,
	}
	if n.IsLeafMarker {
		for _, c := range n.Children {
			if materialize.Creatable(c) {
				t.RuleType = materialize.RuleTypeAll
				break
			}
		}
	}
	for _, r := range n.Related {
		if materialize.Creatable(r) {
			t.Related = append(t.Related, r.Identifier)
		}
	}
	for _, c := range n.Children {
		if !materialize.Creatable(c) {
			out.Skipped += countSubtree(c)
			continue
		}
		t.Children = append(t.Children, toTreeNode(c, depth+1, out))
	}
	return t
}

func countSubtree(n *forest.Node) int {
	size := 0
	(&forest.Forest{Roots: []*forest.Node{n}}).Walk(func(*forest.Node, int) bool {
		size++
		return true
	})
	return size
}
