// Package cluster implements agglomerative hierarchical clustering (AGNES)
// over a distance matrix.
//
// The result is a binary tree of Node values: a Leaf wraps one unit index and
// an Internal node joins two children at a merge height. Average linkage is
// the default; complete linkage is available as an alternative.
//
// Ties between equally distant pairs are broken by the smallest unit index each
// cluster contains, compared lexicographically as (lower, higher), so identical
// input always produces the identical tree.
package cluster

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/chriscorrea/dendro/internal/runerr"
)

// Linkage is the rule for the distance between two merged clusters.
type Linkage string

const (
	Average  Linkage = "average"
	Complete Linkage = "complete"
)

// ParseLinkage validates a linkage name. The empty string selects Average.
func ParseLinkage(s string) (Linkage, error) {
	switch l := Linkage(strings.ToLower(strings.TrimSpace(s))); l {
	case "":
		return Average, nil
	case Average, Complete:
		return l, nil
	default:
		return "", fmt.Errorf("unknown linkage %q (want average or complete)", s)
	}
}

// tieEpsilon treats distances this close as equal.
const tieEpsilon = 1e-12

// Node is a cluster tree node: either *Leaf or *Internal.
type Node interface {
	// Size is the number of units under the node.
	Size() int
	node()
}

// Leaf wraps exactly one unit.
type Leaf struct {
	Unit int
}

// Internal joins two clusters at Height. Members lists every unit under it in ascending order.
type Internal struct {
	Height      float64
	Left, Right Node
	Members     []int
}

func (l *Leaf) Size() int     { return 1 }
func (n *Internal) Size() int { return len(n.Members) }
func (*Leaf) node()           {}
func (*Internal) node()       {}

// Height returns the merge height of n, 0 for leaves.
func Height(n Node) float64 {
	if in, ok := n.(*Internal); ok {
		return in.Height
	}
	return 0
}

// Members returns the unit indices under n.
func Members(n Node) []int {
	switch v := n.(type) {
	case *Leaf:
		return []int{v.Unit}
	case *Internal:
		return v.Members
	}
	return nil
}

// Heights returns the merge height of every internal node, in pre-order.
func Heights(root Node) []float64 {
	var out []float64
	var walk func(Node)
	walk = func(n Node) {
		in, ok := n.(*Internal)
		if !ok {
			return
		}
		out = append(out, in.Height)
		walk(in.Left)
		walk(in.Right)
	}
	walk(root)
	return out
}

// cluster is one active cluster during agglomeration.
type cluster struct {
	node    Node
	key     int // smallest member index, used for tie-breaks and child order
	members []int
}

// Agglomerate clusters the n units described by the symmetric distance matrix d
// and returns the root of the merge tree.
func Agglomerate(d mat.Symmetric, linkage Linkage) (Node, error) {
	n, _ := d.Dims()
	if n == 0 {
		return nil, errors.New("agglomerate: empty distance matrix")
	}
	if linkage == "" {
		linkage = Average
	}
	if linkage != Average && linkage != Complete {
		return nil, fmt.Errorf("agglomerate: unknown linkage %q", linkage)
	}

	// working copy; row/column i belongs to active[i]
	dist := make([][]float64, n)
	active := make([]*cluster, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			dist[i][j] = d.At(i, j)
		}
		active[i] = &cluster{node: &Leaf{Unit: i}, key: i, members: []int{i}}
	}

	slog.Debug("Agglomerating", "units", n, "linkage", linkage)

	for merges := 0; merges < n-1; merges++ {
		a, b := closestPair(dist, active)
		ca, cb := active[a], active[b]
		height := dist[a][b]

		// monotonicity holds for average and complete linkage; clamp floating noise
		if floor := math.Max(Height(ca.node), Height(cb.node)); height < floor {
			slog.Warn("Non-monotone merge height clamped", "height", height, "floor", floor)
			height = floor
		}

		left, right := ca, cb
		if cb.key < ca.key {
			left, right = cb, ca
		}
		merged := &cluster{
			node: &Internal{
				Height:  height,
				Left:    left.node,
				Right:   right.node,
				Members: mergeSorted(left.members, right.members),
			},
			key: left.key,
		}
		merged.members = merged.node.(*Internal).Members

		// Lance-Williams update into slot a; slot b retires
		na, nb := float64(len(ca.members)), float64(len(cb.members))
		for k := range active {
			if active[k] == nil || k == a || k == b {
				continue
			}
			var dk float64
			switch linkage {
			case Complete:
				dk = math.Max(dist[a][k], dist[b][k])
			default:
				dk = (na*dist[a][k] + nb*dist[b][k]) / (na + nb)
			}
			dist[a][k], dist[k][a] = dk, dk
		}
		active[a] = merged
		active[b] = nil
	}

	for _, c := range active {
		if c != nil {
			return c.node, nil
		}
	}
	return nil, errors.New("agglomerate: no cluster left")
}

// closestPair finds the active pair with the smallest distance, breaking ties
// by the (lower, higher) pair of cluster keys.
func closestPair(dist [][]float64, active []*cluster) (int, int) {
	bestA, bestB := -1, -1
	best := math.Inf(1)
	var bestLo, bestHi int

	for i := range active {
		if active[i] == nil {
			continue
		}
		for j := i + 1; j < len(active); j++ {
			if active[j] == nil {
				continue
			}
			d := dist[i][j]
			lo, hi := active[i].key, active[j].key
			if lo > hi {
				lo, hi = hi, lo
			}
			switch {
			case bestA < 0, d < best-tieEpsilon:
			case d <= best+tieEpsilon && (lo < bestLo || (lo == bestLo && hi < bestHi)):
			default:
				continue
			}
			bestA, bestB, best, bestLo, bestHi = i, j, d, lo, hi
		}
	}
	return bestA, bestB
}

func mergeSorted(a, b []int) []int {
	out := make([]int, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] < b[j] {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	return append(out, b[j:]...)
}

// Validate checks that root is a well-formed tree over units 0..n-1: every
// internal node has two children and does not sit below either of them, and
// every unit appears in exactly one leaf. Problems wrap runerr.ErrMalformedClusterNode.
func Validate(root Node, n int) error {
	seen := make([]int, n)
	var errs []error

	var walk func(Node, string)
	walk = func(node Node, path string) {
		switch v := node.(type) {
		case *Leaf:
			if v == nil {
				errs = append(errs, fmt.Errorf("%w: nil leaf at %s", runerr.ErrMalformedClusterNode, path))
				return
			}
			if v.Unit < 0 || v.Unit >= n {
				errs = append(errs, fmt.Errorf("%w: leaf index %d out of range at %s", runerr.ErrMalformedClusterNode, v.Unit, path))
				return
			}
			seen[v.Unit]++
		case *Internal:
			if v == nil || v.Left == nil || v.Right == nil {
				errs = append(errs, fmt.Errorf("%w: internal node without two children at %s", runerr.ErrMalformedClusterNode, path))
				return
			}
			if v.Height < 0 || v.Height < Height(v.Left) || v.Height < Height(v.Right) {
				errs = append(errs, fmt.Errorf("%w: height %.6f below a child at %s", runerr.ErrMalformedClusterNode, v.Height, path))
			}
			walk(v.Left, path+"L")
			walk(v.Right, path+"R")
		default:
			errs = append(errs, fmt.Errorf("%w: missing node at %s", runerr.ErrMalformedClusterNode, path))
		}
	}
	walk(root, "root/")

	for unit, c := range seen {
		if c != 1 {
			errs = append(errs, fmt.Errorf("%w: unit %d appears %d times", runerr.ErrMalformedClusterNode, unit, c))
		}
	}
	return errors.Join(errs...)
}
