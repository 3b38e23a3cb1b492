// Package distance computes the pairwise cosine distance matrix between unit vectors.
package distance

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Cosine returns the symmetric N x N matrix of cosine distances between the rows of m.
//
// Distances are 1 - similarity clamped to [0, 1]; a row with zero magnitude has
// similarity 0 to everything. Only the upper triangle is computed and the
// lower triangle mirrors it, so the result is exactly symmetric with a zero diagonal.
func Cosine(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	rows := make([][]float64, n)
	norms := make([]float64, n)
	for i := 0; i < n; i++ {
		rows[i] = mat.Row(nil, i, m)
		norms[i] = floats.Norm(rows[i], 2)
	}

	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d.SetSym(i, j, clamp(1-similarity(rows[i], rows[j], norms[i], norms[j])))
		}
	}

	slog.Debug("Distance matrix computed", "units", n)
	return d
}

// Similarity returns the cosine similarity of a and b, 0 when either has zero magnitude.
func Similarity(a, b []float64) float64 {
	return similarity(a, b, floats.Norm(a, 2), floats.Norm(b, 2))
}

func similarity(a, b []float64, na, nb float64) float64 {
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

func clamp(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}

// Matrix copies d into a plain [][]float64, which is handy for logging and tests.
func Matrix(d mat.Symmetric) [][]float64 {
	n, _ := d.Dims()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
		for j := range out[i] {
			out[i][j] = d.At(i, j)
		}
	}
	return out
}
