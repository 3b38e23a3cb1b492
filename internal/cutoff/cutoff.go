// Package cutoff prunes a dendrogram into a forest of natural clusters.
//
// The cutoff height is the lower of a percentile of all merge heights and the
// first large jump ("gap") between consecutive sorted heights. Every node at or
// below the cutoff becomes the root of one subtree of the forest.
package cutoff

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/chriscorrea/dendro/internal/cluster"
)

const (
	DefaultPercentile = 0.85
	DefaultGapRatio   = 1.5
)

// Selection records how the cutoff was chosen.
type Selection struct {
	Cutoff     float64
	Percentile float64 // height at the requested percentile
	Gap        float64 // lower height of the smallest gap, valid when HasGap
	HasGap     bool
}

// Choose picks the cutoff for a set of merge heights.
//
// A gap is a transition where heights[k] / heights[k-1] >= ratio in sorted order;
// its height is the lower side heights[k-1], so the clusters below the jump
// survive as separate roots.
func Choose(heights []float64, percentile, ratio float64) Selection {
	if len(heights) == 0 {
		return Selection{}
	}
	sorted := append([]float64(nil), heights...)
	sort.Float64s(sorted)

	p := math.Min(1, math.Max(0, percentile))
	sel := Selection{Percentile: stat.Quantile(p, stat.LinInterp, sorted, nil)}
	sel.Cutoff = sel.Percentile

	for k := 1; k < len(sorted); k++ {
		prev := sorted[k-1]
		if prev <= 0 {
			continue
		}
		if sorted[k]/prev >= ratio {
			sel.Gap, sel.HasGap = prev, true
			break
		}
	}
	if sel.HasGap && sel.Gap < sel.Cutoff {
		sel.Cutoff = sel.Gap
	}

	slog.Debug("Cutoff selected", "heights", len(sorted), "percentile", sel.Percentile,
		"gap", sel.Gap, "hasGap", sel.HasGap, "cutoff", sel.Cutoff)
	return sel
}

// Prune descends from root and returns, left to right, every node whose height
// is at or below cutoff and whose parent is above it.
func Prune(root cluster.Node, cutoff float64) []cluster.Node {
	var roots []cluster.Node
	var walk func(cluster.Node)
	walk = func(n cluster.Node) {
		in, ok := n.(*cluster.Internal)
		if !ok || in.Height <= cutoff {
			roots = append(roots, n)
			return
		}
		walk(in.Left)
		walk(in.Right)
	}
	if root != nil {
		walk(root)
	}
	return roots
}

// Forest is the pruned result. A single root means the tree was left whole.
type Forest struct {
	Roots     []cluster.Node
	Selection Selection
}

// Apply chooses a cutoff for the tree under root and prunes it.
func Apply(root cluster.Node, percentile, ratio float64) Forest {
	sel := Choose(cluster.Heights(root), percentile, ratio)
	roots := Prune(root, sel.Cutoff)
	if len(roots) <= 1 {
		roots = []cluster.Node{root}
	}
	slog.Debug("Forest extracted", "roots", len(roots), "cutoff", sel.Cutoff)
	return Forest{Roots: roots, Selection: sel}
}
