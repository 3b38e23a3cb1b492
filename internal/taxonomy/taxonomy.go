// Package taxonomy materializes a clustering result into the exported tree.
//
// Node is the serializable contract consumed by visualization clients. Build
// walks the (possibly pruned) cluster forest depth-first, numbers every node
// from a sequence owned by that call, labels internal nodes and resolves leaf
// indices to their unit text. Structural problems become inline malformed
// markers instead of failing the run.
package taxonomy

import (
	"fmt"
	"log/slog"

	"github.com/chriscorrea/dendro/internal/cluster"
	"github.com/chriscorrea/dendro/internal/counter"
	"github.com/chriscorrea/dendro/internal/label"
	"github.com/chriscorrea/dendro/internal/runerr"
)

const (
	TypeCluster = "cluster"
	TypeLeaf    = "leaf"

	// NameLimit is the display-name length in characters before truncation.
	NameLimit = 40
	// MaxSampleLeaves bounds SampleLeaves on internal nodes.
	MaxSampleLeaves = 5
)

// Node is one node of the exported tree.
type Node struct {
	ID              int      `json:"id"`
	Name            string   `json:"name"`
	Value           *int     `json:"value,omitempty"`
	Children        []*Node  `json:"children,omitempty"`
	Height          *float64 `json:"height,omitempty"`
	SampleLeaves    []string `json:"sampleLeaves,omitempty"`
	ClusterKeywords []string `json:"clusterKeywords,omitempty"`
	ClusterLabel    string   `json:"clusterLabel,omitempty"`
	FullText        string   `json:"fullText,omitempty"`
	Type            string   `json:"type"`
	Malformed       string   `json:"malformed,omitempty"`
}

// IsLeaf reports whether n is a leaf.
func (n *Node) IsLeaf() bool { return n.Type == TypeLeaf }

// Leaves returns the leaves under n in depth-first order, malformed markers included.
func (n *Node) Leaves() []*Node {
	if n.IsLeaf() {
		return []*Node{n}
	}
	var out []*Node
	for _, c := range n.Children {
		out = append(out, c.Leaves()...)
	}
	return out
}

// Walk visits n and its descendants in pre-order.
func (n *Node) Walk(fn func(*Node)) {
	fn(n)
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Labeler names an internal node from the units under it.
type Labeler interface {
	Label(members []int) label.Label
}

// Builder holds what Build needs besides the tree itself.
type Builder struct {
	Texts   []string        // display text per unit index
	Labeler Labeler         // nil leaves internal nodes unlabeled
	Counter counter.Counter // leaf Value; nil means words
}

// sequence hands out run-local ids starting at 1.
type sequence struct{ next int }

func (s *sequence) id() int {
	s.next++
	return s.next
}

// Build materializes roots. More than one root produces a pseudo-root with no
// merge height whose children are the forest's subtrees.
func (b *Builder) Build(roots []cluster.Node, cutoffHeight float64) *Node {
	if b.Counter == nil {
		b.Counter = counter.NewWordCounter()
	}
	seq := &sequence{}

	if len(roots) == 1 {
		return b.node(roots[0], seq)
	}

	forest := &Node{
		ID:   seq.id(),
		Name: fmt.Sprintf("%d clusters (cutoff %.3f)", len(roots), cutoffHeight),
		Type: TypeCluster,
	}
	forest.ClusterLabel = forest.Name
	for _, r := range roots {
		forest.Children = append(forest.Children, b.node(r, seq))
	}
	forest.SampleLeaves = samples(forest)
	slog.Debug("Forest materialized", "roots", len(roots))
	return forest
}

func (b *Builder) node(n cluster.Node, seq *sequence) *Node {
	switch v := n.(type) {
	case *cluster.Leaf:
		if v == nil {
			return b.malformed(seq, "leaf without a unit index")
		}
		return b.leaf(v.Unit, seq)
	case *cluster.Internal:
		if v == nil || v.Left == nil || v.Right == nil {
			return b.malformed(seq, "internal node without two children")
		}
		return b.internal(v, seq)
	default:
		return b.malformed(seq, "node has neither children nor a unit index")
	}
}

func (b *Builder) leaf(unit int, seq *sequence) *Node {
	if unit < 0 || unit >= len(b.Texts) {
		return b.malformed(seq, fmt.Sprintf("leaf index %d out of range [0,%d)", unit, len(b.Texts)))
	}
	text := b.Texts[unit]
	value := b.Counter.Count(text)
	return &Node{
		ID:       seq.id(),
		Name:     counter.Truncate(text, NameLimit),
		Value:    &value,
		FullText: text,
		Type:     TypeLeaf,
	}
}

func (b *Builder) internal(in *cluster.Internal, seq *sequence) *Node {
	height := in.Height
	out := &Node{
		ID:     seq.id(),
		Height: &height,
		Type:   TypeCluster,
	}
	out.Children = []*Node{b.node(in.Left, seq), b.node(in.Right, seq)}

	members := b.units(in)
	if b.Labeler != nil {
		lbl := b.Labeler.Label(members)
		out.ClusterKeywords = lbl.Keywords
		out.ClusterLabel = lbl.Text
	}
	out.Name = out.ClusterLabel
	if out.Name == "" {
		out.Name = fmt.Sprintf("Cluster (%d items)", len(members))
	}
	out.SampleLeaves = samples(out)
	return out
}

// units collects the valid unit indices under n.
func (b *Builder) units(n cluster.Node) []int {
	var out []int
	var walk func(cluster.Node)
	walk = func(n cluster.Node) {
		switch v := n.(type) {
		case *cluster.Leaf:
			if v != nil && v.Unit >= 0 && v.Unit < len(b.Texts) {
				out = append(out, v.Unit)
			}
		case *cluster.Internal:
			if v != nil {
				walk(v.Left)
				walk(v.Right)
			}
		}
	}
	walk(n)
	return out
}

func (b *Builder) malformed(seq *sequence, reason string) *Node {
	slog.Warn("Malformed cluster node", "error", runerr.ErrMalformedClusterNode, "reason", reason)
	return &Node{
		ID:        seq.id(),
		Name:      "Malformed node",
		Type:      TypeLeaf,
		Malformed: reason,
	}
}

// samples returns up to MaxSampleLeaves leaf texts, depth-first.
func samples(n *Node) []string {
	var out []string
	var walk func(*Node) bool
	walk = func(n *Node) bool {
		if n.IsLeaf() {
			if n.Malformed == "" {
				out = append(out, n.FullText)
			}
			return len(out) < MaxSampleLeaves
		}
		for _, c := range n.Children {
			if !walk(c) {
				return false
			}
		}
		return true
	}
	walk(n)
	return out
}
