package densim

import (
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Tolerances used for every numeric comparison, with allclose semantics:
// |a-b| <= absTol + relTol*|b|.
const (
	absTol = 1e-8
	relTol = 1e-5
)

func isClose(a, b complex128) bool {
	return cmplx.Abs(a-b) <= absTol+relTol*cmplx.Abs(b)
}

func allClose(a, b []complex128) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !isClose(a[i], b[i]) {
			return false
		}
	}
	return true
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

func isHermitian(data []complex128, dim int) bool {
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			if !isClose(data[i*dim+j], cmplx.Conj(data[j*dim+i])) {
				return false
			}
		}
	}
	return true
}

func trace(data []complex128, dim int) complex128 {
	var tr complex128
	for i := 0; i < dim; i++ {
		tr += data[i*dim+i]
	}
	return tr
}

func isUnitTrace(data []complex128, dim int) bool {
	return isClose(trace(data, dim), 1)
}

/*
isPSD reports whether a Hermitian matrix has no eigenvalue below -absTol.
The spectrum is read off the real symmetric embedding

	[ A  -B ]
	[ B   A ]

of H = A + iB, which carries every eigenvalue of H twice.
*/
func isPSD(data []complex128, dim int) bool {
	if !isHermitian(data, dim) {
		return false
	}

	n := 2 * dim
	embed := make([]float64, n*n)

	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			re, im := real(data[i*dim+j]), imag(data[i*dim+j])
			embed[i*n+j] = re
			embed[(i+dim)*n+j+dim] = re
			embed[i*n+j+dim] = -im
			embed[(i+dim)*n+j] = im
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(n, embed), false); !ok {
		return false
	}

	for _, v := range eig.Values(nil) {
		if v < -absTol {
			return false
		}
	}
	return true
}

func isUnitary(op Operator) bool {
	return allClose(op.Dagger().Mul(op).data, identityOperator(op.dim).data)
}
