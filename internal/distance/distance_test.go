package distance

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestCosine(t *testing.T) {
	m := mat.NewDense(4, 3, []float64{
		1, 0, 0,
		1, 0, 0,
		0, 1, 0,
		0, 0, 0,
	})
	d := Cosine(m)

	tests := []struct {
		name string
		i, j int
		want float64
	}{
		{"identical rows", 0, 1, 0},
		{"orthogonal rows", 0, 2, 1},
		{"zero row is maximally distant", 0, 3, 1},
		{"zero row against itself on the diagonal", 3, 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.At(tt.i, tt.j); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("d(%d,%d) = %v, want %v", tt.i, tt.j, got, tt.want)
			}
		})
	}
}

func TestCosineSymmetryAndRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n, dim = 25, 12
	data := make([]float64, n*dim)
	for i := range data {
		// sparse non-negative vectors, like TF-IDF rows
		if rng.Float64() < 0.4 {
			data[i] = rng.Float64()
		}
	}
	d := Matrix(Cosine(mat.NewDense(n, dim, data)))

	for i := 0; i < n; i++ {
		if d[i][i] != 0 {
			t.Errorf("d[%d][%d] = %v, want 0", i, i, d[i][i])
		}
		for j := 0; j < n; j++ {
			if d[i][j] != d[j][i] {
				t.Errorf("d[%d][%d] = %v != d[%d][%d] = %v", i, j, d[i][j], j, i, d[j][i])
			}
			if d[i][j] < 0 || d[i][j] > 1 {
				t.Errorf("d[%d][%d] = %v out of [0,1]", i, j, d[i][j])
			}
		}
	}
}

func TestCosineClampsNegativeSimilarity(t *testing.T) {
	d := Cosine(mat.NewDense(2, 2, []float64{1, 0, -1, 0}))
	if got := d.At(0, 1); got != 1 {
		t.Errorf("opposite vectors distance = %v, want clamped 1", got)
	}
}

func TestSimilarity(t *testing.T) {
	if got := Similarity([]float64{1, 1}, []float64{2, 2}); math.Abs(got-1) > 1e-12 {
		t.Errorf("Similarity() = %v, want 1", got)
	}
	if got := Similarity([]float64{0, 0}, []float64{1, 2}); got != 0 {
		t.Errorf("Similarity() with zero vector = %v, want 0", got)
	}
}
