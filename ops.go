package densim

import (
	"fmt"
	"math"
	"math/bits"
	"strings"
)

/*
Operator is a square complex matrix stored row-major. For qubit operators the
side is 2^k and, when the operator is addressed to an ordered list of targets,
the first target is the most significant bit of the row and column index.
*/
type Operator struct {
	dim  int
	data []complex128
}

// NewOperator copies rows into a new operator. The rows must form a square matrix.
func NewOperator(rows [][]complex128) (Operator, error) {
	if len(rows) == 0 {
		return Operator{}, constructionError("operator", "empty matrix")
	}

	dim := len(rows)
	data := make([]complex128, 0, dim*dim)

	for i, row := range rows {
		if len(row) != dim {
			return Operator{}, constructionError(
				"operator", "matrix is not square: row %d has %d columns, want %d", i, len(row), dim,
			)
		}
		data = append(data, row...)
	}

	return Operator{dim: dim, data: data}, nil
}

func mustOperator(rows [][]complex128) Operator {
	op, err := NewOperator(rows)
	if err != nil {
		panic(err)
	}
	return op
}

func identityOperator(dim int) Operator {
	data := make([]complex128, dim*dim)
	for i := 0; i < dim; i++ {
		data[i*dim+i] = 1
	}
	return Operator{dim: dim, data: data}
}

// Dim returns the side of the matrix.
func (op Operator) Dim() int { return op.dim }

// At returns the entry at row i, column j.
func (op Operator) At(i, j int) complex128 { return op.data[i*op.dim+j] }

// Nqubit returns the arity k of a 2^k x 2^k operator, and false when the
// side is not a power of two.
func (op Operator) Nqubit() (int, bool) {
	if op.dim == 0 || op.dim&(op.dim-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros(uint(op.dim)), true
}

// Rows returns a copy of the matrix as nested rows.
func (op Operator) Rows() [][]complex128 {
	rows := make([][]complex128, op.dim)
	for i := range rows {
		rows[i] = append([]complex128(nil), op.data[i*op.dim:(i+1)*op.dim]...)
	}
	return rows
}

// Dagger returns the conjugate transpose.
func (op Operator) Dagger() Operator {
	out := Operator{dim: op.dim, data: make([]complex128, len(op.data))}
	for i := 0; i < op.dim; i++ {
		for j := 0; j < op.dim; j++ {
			v := op.data[j*op.dim+i]
			out.data[i*op.dim+j] = complex(real(v), -imag(v))
		}
	}
	return out
}

// Mul returns op * other. Both operators must share a dimension.
func (op Operator) Mul(other Operator) Operator {
	if op.dim != other.dim {
		panic(fmt.Sprintf("densim: operator dimension mismatch %d != %d", op.dim, other.dim))
	}

	n := op.dim
	out := Operator{dim: n, data: make([]complex128, n*n)}

	for i := 0; i < n; i++ {
		for k := 0; k < n; k++ {
			a := op.data[i*n+k]
			if a == 0 {
				continue
			}
			for j := 0; j < n; j++ {
				out.data[i*n+j] += a * other.data[k*n+j]
			}
		}
	}
	return out
}

// Scale returns c * op.
func (op Operator) Scale(c complex128) Operator {
	out := Operator{dim: op.dim, data: make([]complex128, len(op.data))}
	for i, v := range op.data {
		out.data[i] = c * v
	}
	return out
}

// Kron returns the Kronecker product op ⊗ other.
func (op Operator) Kron(other Operator) Operator {
	return Operator{dim: op.dim * other.dim, data: kron(op.data, op.dim, other.data, other.dim)}
}

func (op Operator) String() string {
	var sb strings.Builder
	for i := 0; i < op.dim; i++ {
		sb.WriteString(fmt.Sprint(op.data[i*op.dim : (i+1)*op.dim]))
		if i < op.dim-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func kron(a []complex128, da int, b []complex128, db int) []complex128 {
	d := da * db
	out := make([]complex128, d*d)

	for i := 0; i < da; i++ {
		for j := 0; j < da; j++ {
			v := a[i*da+j]
			if v == 0 {
				continue
			}
			for k := 0; k < db; k++ {
				row := (i*db + k) * d
				for l := 0; l < db; l++ {
					out[row+j*db+l] = v * b[k*db+l]
				}
			}
		}
	}
	return out
}

var sqrt1_2 = complex(1/math.Sqrt2, 0)

var (
	IdentityOp = identityOperator(2)
	PauliX     = mustOperator([][]complex128{{0, 1}, {1, 0}})
	PauliY     = mustOperator([][]complex128{{0, -1i}, {1i, 0}})
	PauliZ     = mustOperator([][]complex128{{1, 0}, {0, -1}})
	Hadamard   = mustOperator([][]complex128{{sqrt1_2, sqrt1_2}, {sqrt1_2, -sqrt1_2}})
	PhaseS     = mustOperator([][]complex128{{1, 0}, {0, 1i}})
	PhaseSdg   = mustOperator([][]complex128{{1, 0}, {0, -1i}})

	CZOp = mustOperator([][]complex128{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, -1},
	})
	CNOTOp = mustOperator([][]complex128{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
		{0, 0, 1, 0},
	})
	SWAPOp = mustOperator([][]complex128{
		{1, 0, 0, 0},
		{0, 0, 1, 0},
		{0, 1, 0, 0},
		{0, 0, 0, 1},
	})
)

// RzOp returns diag(e^{-iθ/2}, e^{iθ/2}).
func RzOp(theta float64) Operator {
	return mustOperator([][]complex128{
		{complex(math.Cos(theta/2), -math.Sin(theta/2)), 0},
		{0, complex(math.Cos(theta/2), math.Sin(theta/2))},
	})
}

// paulis is ordered I, X, Y, Z.
var paulis = [4]Operator{IdentityOp, PauliX, PauliY, PauliZ}
