package densim

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/cmplxs"
)

/*
DensityMatrix is the reference Engine. The 2^n x 2^n matrix is treated as a
rank-2n tensor with one ket axis and one bra axis per qubit; operators are
contracted against the axes of their targets and the result is written back
on the same axes, so qubit ordering never changes as a side effect.
*/
type DensityMatrix struct {
	n   int
	rho []complex128
}

// NewDensityMatrix prepares a density matrix from data. Pass InferQubits to
// derive the qubit count, or a count that must agree with the data.
func NewDensityMatrix(data Data, nqubit int) (*DensityMatrix, error) {
	rho, n, err := data.densityData(nqubit)
	if err != nil {
		return nil, err
	}
	return &DensityMatrix{n: n, rho: rho}, nil
}

func (dm *DensityMatrix) densityData(nqubit int) ([]complex128, int, error) {
	return engineData(dm, nqubit)
}

func (dm *DensityMatrix) dim() int { return 1 << dm.n }

// Nqubit returns the number of live qubits.
func (dm *DensityMatrix) Nqubit() int { return dm.n }

// Dims returns the matrix shape.
func (dm *DensityMatrix) Dims() (int, int) { return dm.dim(), dm.dim() }

// At returns ρ[row][col].
func (dm *DensityMatrix) At(row, col int) complex128 { return dm.rho[row*dm.dim()+col] }

// Matrix returns a row-major copy of ρ.
func (dm *DensityMatrix) Matrix() []complex128 {
	return append([]complex128(nil), dm.rho...)
}

// Trace returns Tr ρ.
func (dm *DensityMatrix) Trace() complex128 { return trace(dm.rho, dm.dim()) }

// Clone returns an independent copy.
func (dm *DensityMatrix) Clone() Engine {
	return &DensityMatrix{n: dm.n, rho: dm.Matrix()}
}

func (dm *DensityMatrix) String() string {
	return fmt.Sprintf("DensityMatrix(nqubit=%d, rho=%v)", dm.n, dm.rho)
}

/*
axisIndex reads the axes listed in targets out of a flat index over n qubits
and packs them into an operator index, first target most significant.
*/
func axisIndex(idx, n int, targets []int) int {
	k := len(targets)
	out := 0
	for j, t := range targets {
		out |= ((idx >> (n - 1 - t)) & 1) << (k - 1 - j)
	}
	return out
}

// withAxisIndex overwrites the target axes of idx with the bits of sub.
func withAxisIndex(idx, n int, targets []int, sub int) int {
	k := len(targets)
	for j, t := range targets {
		shift := n - 1 - t
		idx &^= 1 << shift
		idx |= ((sub >> (k - 1 - j)) & 1) << shift
	}
	return idx
}

// EvolveSingle applies a 2x2 operator to qubit i on both sides of ρ.
func (dm *DensityMatrix) EvolveSingle(op Operator, i int) error {
	if err := checkSingle("evolve single", op, i, dm.n); err != nil {
		return err
	}
	dm.rho = dm.contract(op, []int{i})
	return nil
}

// Evolve applies a 2^k x 2^k operator to the ordered targets: ρ -> U ρ U†.
func (dm *DensityMatrix) Evolve(op Operator, targets []int) error {
	if err := checkOperator("evolve", op, targets, dm.n); err != nil {
		return err
	}
	dm.rho = dm.contract(op, targets)
	return nil
}

func (dm *DensityMatrix) contract(op Operator, targets []int) []complex128 {
	d := dm.dim()
	kd := op.dim
	ket := make([]complex128, d*d)

	// ket axes: (U ρ)[r][c] = Σ_a U[r_t][a] ρ[r|t=a][c]
	for r := 0; r < d; r++ {
		rt := axisIndex(r, dm.n, targets)
		for a := 0; a < kd; a++ {
			u := op.data[rt*kd+a]
			if u == 0 {
				continue
			}
			src := withAxisIndex(r, dm.n, targets, a) * d
			row := ket[r*d : (r+1)*d]
			cmplxs.AddScaled(row, u, dm.rho[src:src+d])
		}
	}

	out := make([]complex128, d*d)

	// bra axes: (X U†)[r][c] = Σ_b X[r][c|t=b] conj(U[c_t][b])
	for c := 0; c < d; c++ {
		ct := axisIndex(c, dm.n, targets)
		for b := 0; b < kd; b++ {
			u := cmplx.Conj(op.data[ct*kd+b])
			if u == 0 {
				continue
			}
			src := withAxisIndex(c, dm.n, targets, b)
			for r := 0; r < d; r++ {
				out[r*d+c] += ket[r*d+src] * u
			}
		}
	}
	return out
}

// Tensor replaces ρ with ρ ⊗ σ; the other engine's qubits are appended.
func (dm *DensityMatrix) Tensor(other Engine) error {
	if other == nil {
		return applicationError("tensor", "nil state")
	}
	od, _ := other.Dims()
	dm.rho = kron(dm.rho, dm.dim(), other.Matrix(), od)
	dm.n += other.Nqubit()
	return nil
}

// Ptrace traces out targets. The remaining qubits keep their relative order.
// The result is not renormalized.
func (dm *DensityMatrix) Ptrace(targets []int) error {
	if dm.n == 0 {
		return applicationError("ptrace", "no qubits to trace out")
	}
	if err := validateTargets("ptrace", dm.n, targets); err != nil {
		return err
	}

	traced := make(map[int]bool, len(targets))
	for _, t := range targets {
		traced[t] = true
	}

	keep := make([]int, 0, dm.n-len(targets))
	for q := 0; q < dm.n; q++ {
		if !traced[q] {
			keep = append(keep, q)
		}
	}

	d := dm.dim()
	outDim := 1 << len(keep)
	span := 1 << len(targets)
	out := make([]complex128, outDim*outDim)

	for r := 0; r < outDim; r++ {
		rBase := withAxisIndex(0, dm.n, keep, r)
		for c := 0; c < outDim; c++ {
			cBase := withAxisIndex(0, dm.n, keep, c)
			var acc complex128
			for t := 0; t < span; t++ {
				acc += dm.rho[withAxisIndex(rBase, dm.n, targets, t)*d+withAxisIndex(cBase, dm.n, targets, t)]
			}
			out[r*outDim+c] = acc
		}
	}

	dm.rho = out
	dm.n = len(keep)
	return nil
}

// Normalize divides ρ by its trace.
func (dm *DensityMatrix) Normalize() error {
	tr := dm.Trace()
	if cmplx.Abs(tr) < absTol {
		return applicationError("normalize", "trace %v too close to zero", tr)
	}
	cmplxs.Scale(1/tr, dm.rho)
	return nil
}

// RemoveQubit traces out loc and renormalizes.
func (dm *DensityMatrix) RemoveQubit(loc int) error {
	if err := dm.Ptrace([]int{loc}); err != nil {
		return err
	}
	return dm.Normalize()
}

// ExpectationSingle returns Tr(op ρ)/Tr(ρ) for a single-qubit observable on i.
// ρ is left untouched.
func (dm *DensityMatrix) ExpectationSingle(op Operator, i int) (complex128, error) {
	if err := checkSingle("expectation single", op, i, dm.n); err != nil {
		return 0, err
	}

	scratch := &DensityMatrix{n: dm.n, rho: dm.Matrix()}
	if err := scratch.Normalize(); err != nil {
		return 0, err
	}

	d := dm.dim()
	target := []int{i}
	var acc complex128

	for r := 0; r < d; r++ {
		rt := axisIndex(r, dm.n, target)
		for a := 0; a < 2; a++ {
			acc += op.data[rt*2+a] * scratch.rho[withAxisIndex(r, dm.n, target, a)*d+r]
		}
	}
	return acc, nil
}

// ApplyChannel replaces ρ with Σ_k |c_k|² K_k ρ K_k†, each term evaluated on
// an independent copy of ρ.
func (dm *DensityMatrix) ApplyChannel(ch *KrausChannel, targets []int) error {
	if err := checkChannel("apply channel", ch, targets, dm.n); err != nil {
		return err
	}

	acc := make([]complex128, len(dm.rho))

	for _, k := range ch.ops {
		term := dm.contract(k.Operator, targets)
		cmplxs.AddScaled(acc, k.Coef*cmplx.Conj(k.Coef), term)
	}

	if tr := trace(acc, dm.dim()); !isClose(tr, 1) {
		return applicationError("apply channel", "output trace %v is not 1, check the channel definition", tr)
	}

	dm.rho = acc
	return nil
}

// Entangle applies CZ to (u, v).
func (dm *DensityMatrix) Entangle(u, v int) error { return dm.Evolve(CZOp, []int{u, v}) }

// Swap exchanges qubits u and v.
func (dm *DensityMatrix) Swap(u, v int) error { return dm.Evolve(SWAPOp, []int{u, v}) }

// CNOT applies a controlled-X.
func (dm *DensityMatrix) CNOT(control, target int) error {
	return dm.Evolve(CNOTOp, []int{control, target})
}
