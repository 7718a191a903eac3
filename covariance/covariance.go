// Package covariance implements a symmetric matrix stored by its lower triangle, used for noise
// and propagated uncertainty.
package covariance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Dimensions used by the preintegration code.
const (
	Dim3 = 3
	Dim6 = 6
	Dim9 = 9
)

// Cov is a symmetric N x N matrix. It is symmetric by construction: every constructor either
// fills both triangles from a single lower-triangle value or copies the lower triangle of its input.
// A Cov is not modified after construction.
type Cov struct {
	sym *mat.SymDense
}

// StorageDim returns N(N+1)/2, the number of scalars stored for an N x N covariance.
func StorageDim(n int) int {
	return n * (n + 1) / 2
}

// Zero returns the N x N zero covariance.
func Zero(n int) Cov {
	return Cov{sym: mat.NewSymDense(n, nil)}
}

// FromStorage builds an N x N covariance from its lower triangle in row-major order:
// (0,0), (1,0), (1,1), (2,0), ... It panics if len(storage) != StorageDim(n).
func FromStorage(n int, storage []float64) Cov {
	if len(storage) != StorageDim(n) {
		panic(fmt.Sprintf("covariance %dx%d storage must have %d elements, got %d", n, n, StorageDim(n), len(storage)))
	}
	sym := mat.NewSymDense(n, nil)
	k := 0
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sym.SetSym(i, j, storage[k])
			k++
		}
	}
	return Cov{sym: sym}
}

// Symmetrize copies the lower triangle of m into a new covariance, so mat[i][j] == mat[j][i].
// The upper triangle of m is ignored. It panics if m is not square.
func Symmetrize(m mat.Matrix) Cov {
	r, c := m.Dims()
	if r != c {
		panic(fmt.Sprintf("cannot symmetrize a %dx%d matrix", r, c))
	}
	sym := mat.NewSymDense(r, nil)
	for i := 0; i < r; i++ {
		for j := 0; j <= i; j++ {
			sym.SetSym(i, j, m.At(i, j))
		}
	}
	return Cov{sym: sym}
}

// Diag returns the diagonal covariance with the given variances.
func Diag(variances ...float64) Cov {
	n := len(variances)
	sym := mat.NewSymDense(n, nil)
	for i, v := range variances {
		sym.SetSym(i, i, v)
	}
	return Cov{sym: sym}
}

// Cov33 builds a 3x3 covariance from its 6 storage scalars.
func Cov33(storage []float64) Cov { return FromStorage(Dim3, storage) }

// Cov66 builds a 6x6 covariance from its 21 storage scalars.
func Cov66(storage []float64) Cov { return FromStorage(Dim6, storage) }

// Cov99 builds a 9x9 covariance from its 45 storage scalars.
func Cov99(storage []float64) Cov { return FromStorage(Dim9, storage) }

// Dim returns N.
func (c Cov) Dim() int {
	if c.sym == nil {
		return 0
	}
	return c.sym.SymmetricDim()
}

// At returns element (i, j).
func (c Cov) At(i, j int) float64 {
	return c.sym.At(i, j)
}

// Storage returns the lower triangle in row-major order, including the diagonal.
func (c Cov) Storage() []float64 {
	n := c.Dim()
	out := make([]float64, 0, StorageDim(n))
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			out = append(out, c.sym.At(i, j))
		}
	}
	return out
}

// Mat returns the covariance as a read-only symmetric matrix.
func (c Cov) Mat() mat.Symmetric {
	return c.sym
}

// Dense returns a copy of the full matrix.
func (c Cov) Dense() *mat.Dense {
	return mat.DenseCopyOf(c.sym)
}

// Trace returns the sum of the variances.
func (c Cov) Trace() float64 {
	return c.sym.Trace()
}

// Variances returns the diagonal.
func (c Cov) Variances() []float64 {
	n := c.Dim()
	out := make([]float64, n)
	for i := range out {
		out[i] = c.sym.At(i, i)
	}
	return out
}

// Add returns c + other. It panics on a dimension mismatch.
func (c Cov) Add(other Cov) Cov {
	if c.Dim() != other.Dim() {
		panic(fmt.Sprintf("cannot add %dx%d and %dx%d covariances", c.Dim(), c.Dim(), other.Dim(), other.Dim()))
	}
	sym := mat.NewSymDense(c.Dim(), nil)
	sym.AddSym(c.sym, other.sym)
	return Cov{sym: sym}
}

// Scale returns f * c.
func (c Cov) Scale(f float64) Cov {
	sym := mat.NewSymDense(c.Dim(), nil)
	sym.ScaleSym(f, c.sym)
	return Cov{sym: sym}
}

// Transform returns a c a^T for an M x N matrix a, symmetrized from its lower triangle.
func (c Cov) Transform(a mat.Matrix) Cov {
	r, cols := a.Dims()
	if cols != c.Dim() {
		panic(fmt.Sprintf("cannot transform a %dx%d covariance by a %dx%d matrix", c.Dim(), c.Dim(), r, cols))
	}
	var tmp, out mat.Dense
	tmp.Mul(a, c.sym)
	out.Mul(&tmp, a.T())
	return Symmetrize(&out)
}

// AlmostEqual reports whether both covariances have the same size and every element differs by at most tol.
func (c Cov) AlmostEqual(other Cov, tol float64) bool {
	if c.Dim() != other.Dim() {
		return false
	}
	n := c.Dim()
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			if math.Abs(c.At(i, j)-other.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}

func (c Cov) String() string {
	return fmt.Sprintf("Cov%d%d\n%v", c.Dim(), c.Dim(), mat.Formatted(c.sym, mat.Prefix(""), mat.Squeeze()))
}
