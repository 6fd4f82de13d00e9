package densim

import (
	"math"
	"math/cmplx"
)

/*
Engine is the density-matrix evolution contract shared by the reference
tensor engine (DensityMatrix) and the strided kernel engine
(KernelDensityMatrix). Both keep the same qubit ordering: qubit 0 is the most
significant bit of a row or column index, and a qubit keeps its relative
position when others are traced out. Every mutating call either succeeds or
leaves the matrix untouched and returns a *ValidationError.
*/
type Engine interface {
	Data

	Nqubit() int
	Dims() (int, int)
	At(row, col int) complex128
	Matrix() []complex128
	Trace() complex128
	Clone() Engine

	EvolveSingle(op Operator, i int) error
	Evolve(op Operator, targets []int) error
	Tensor(other Engine) error
	Ptrace(targets []int) error
	Normalize() error
	RemoveQubit(loc int) error
	ExpectationSingle(op Operator, i int) (complex128, error)
	ApplyChannel(ch *KrausChannel, targets []int) error

	Entangle(u, v int) error
	Swap(u, v int) error
	CNOT(control, target int) error
}

// InferQubits lets a constructor derive the qubit count from its data.
const InferQubits = -1

/*
Data is anything a density matrix can be prepared from: a single BasicState
broadcast to every qubit, a list of States, a pure Statevector, explicit Rows,
or another Engine (copied).
*/
type Data interface {
	densityData(nqubit int) ([]complex128, int, error)
}

// BasicState is a single-qubit classical state description.
type BasicState int

const (
	StateZero BasicState = iota
	StateOne
	StatePlus
	StateMinus
	StatePlusI
	StateMinusI
)

// Vector returns the two amplitudes of the state.
func (s BasicState) Vector() [2]complex128 {
	h := complex(1/math.Sqrt2, 0)

	switch s {
	case StateZero:
		return [2]complex128{1, 0}
	case StateOne:
		return [2]complex128{0, 1}
	case StatePlus:
		return [2]complex128{h, h}
	case StateMinus:
		return [2]complex128{h, -h}
	case StatePlusI:
		return [2]complex128{h, h * 1i}
	case StateMinusI:
		return [2]complex128{h, -h * 1i}
	}
	panic("densim: unknown basic state")
}

func (s BasicState) String() string {
	switch s {
	case StateZero:
		return "|0>"
	case StateOne:
		return "|1>"
	case StatePlus:
		return "|+>"
	case StateMinus:
		return "|->"
	case StatePlusI:
		return "|+i>"
	case StateMinusI:
		return "|-i>"
	}
	return "unknown"
}

func (s BasicState) densityData(nqubit int) ([]complex128, int, error) {
	if nqubit == InferQubits {
		nqubit = 1
	}
	if nqubit < 0 {
		return nil, 0, constructionError("density matrix", "nqubit must be non-negative, got %d", nqubit)
	}

	states := make(States, nqubit)
	for i := range states {
		states[i] = s
	}
	return states.densityData(nqubit)
}

// States is a product of single-qubit states, qubit 0 first.
type States []BasicState

func (s States) densityData(nqubit int) ([]complex128, int, error) {
	if nqubit != InferQubits && nqubit != len(s) {
		return nil, 0, constructionError(
			"density matrix", "nqubit = %d inconsistent with %d states", nqubit, len(s),
		)
	}

	psi := []complex128{1}
	for _, st := range s {
		v := st.Vector()
		psi = kronVector(psi, v[:])
	}
	return outer(psi), len(s), nil
}

// Statevector is a pure state given by 2^n amplitudes.
type Statevector []complex128

func (sv Statevector) densityData(nqubit int) ([]complex128, int, error) {
	if !isPowerOfTwo(len(sv)) {
		return nil, 0, constructionError("density matrix", "statevector length %d is not a power of two", len(sv))
	}

	n := log2(len(sv))
	if nqubit != InferQubits && nqubit != n {
		return nil, 0, constructionError(
			"density matrix", "nqubit = %d inconsistent with statevector of length %d", nqubit, len(sv),
		)
	}

	var norm float64
	for _, a := range sv {
		norm += real(a * cmplx.Conj(a))
	}
	if math.Abs(norm-1) > absTol+relTol {
		return nil, 0, constructionError("density matrix", "statevector norm² is %v, want 1", norm)
	}

	return outer(sv), n, nil
}

// Rows is an explicit 2^n x 2^n density matrix.
type Rows [][]complex128

func (r Rows) densityData(nqubit int) ([]complex128, int, error) {
	op, err := NewOperator(r)
	if err != nil {
		return nil, 0, err
	}

	k, ok := op.Nqubit()
	if !ok {
		return nil, 0, constructionError("density matrix", "side %d is not a power of two", op.dim)
	}
	if nqubit != InferQubits && nqubit != k {
		return nil, 0, constructionError(
			"density matrix", "nqubit = %d inconsistent with matrix shape %dx%d", nqubit, op.dim, op.dim,
		)
	}
	if !isUnitTrace(op.data, op.dim) {
		return nil, 0, constructionError("density matrix", "matrix must have unit trace")
	}
	if !isPSD(op.data, op.dim) {
		return nil, 0, constructionError("density matrix", "matrix must be Hermitian positive semi-definite")
	}

	return op.data, k, nil
}

func kronVector(a, b []complex128) []complex128 {
	out := make([]complex128, 0, len(a)*len(b))
	for _, x := range a {
		for _, y := range b {
			out = append(out, x*y)
		}
	}
	return out
}

func outer(psi []complex128) []complex128 {
	d := len(psi)
	out := make([]complex128, d*d)
	for i, a := range psi {
		for j, b := range psi {
			out[i*d+j] = a * cmplx.Conj(b)
		}
	}
	return out
}

func log2(d int) int {
	n := 0
	for d > 1 {
		d >>= 1
		n++
	}
	return n
}

func engineData(e Engine, nqubit int) ([]complex128, int, error) {
	if nqubit != InferQubits && nqubit != e.Nqubit() {
		return nil, 0, constructionError(
			"density matrix", "nqubit = %d inconsistent with a %d-qubit state", nqubit, e.Nqubit(),
		)
	}
	return e.Matrix(), e.Nqubit(), nil
}

func validateTargets(op string, n int, targets []int) error {
	seen := make(map[int]struct{}, len(targets))

	for _, t := range targets {
		if t < 0 || t >= n {
			return applicationError(op, "target %d out of range for %d qubits", t, n)
		}
		if _, dup := seen[t]; dup {
			return applicationError(op, "repeated target qubit %d", t)
		}
		seen[t] = struct{}{}
	}
	return nil
}

func checkOperator(name string, op Operator, targets []int, n int) error {
	k, ok := op.Nqubit()
	if !ok {
		return applicationError(name, "operator side %d is not consistent with qubits", op.Dim())
	}
	if k != len(targets) {
		return applicationError(name, "operator acts on %d qubits but %d targets given", k, len(targets))
	}
	return validateTargets(name, n, targets)
}

func checkChannel(name string, ch *KrausChannel, targets []int, n int) error {
	if ch == nil {
		return applicationError(name, "nil channel")
	}
	if ch.Nqubit() != len(targets) {
		return applicationError(
			name, "channel arity %d does not match %d targets", ch.Nqubit(), len(targets),
		)
	}
	return validateTargets(name, n, targets)
}

func checkSingle(name string, op Operator, i, n int) error {
	if op.Dim() != 2 {
		return applicationError(name, "operator must be 2x2, got %dx%d", op.Dim(), op.Dim())
	}
	if i < 0 || i >= n {
		return applicationError(name, "qubit %d out of range for %d qubits", i, n)
	}
	return nil
}

// NewEngine builds an engine of the requested kind from data.
func NewEngine(kind EngineKind, data Data, nqubit int) (Engine, error) {
	switch kind {
	case KernelEngine:
		return NewKernelDensityMatrix(data, nqubit)
	default:
		return NewDensityMatrix(data, nqubit)
	}
}

// EngineKind selects an Engine implementation.
type EngineKind string

const (
	ReferenceEngine EngineKind = "reference"
	KernelEngine    EngineKind = "kernel"
)

// Fidelity returns |<ψ|ρ|ψ>| for a pure reference state.
func Fidelity(e Engine, psi Statevector) (float64, error) {
	d, _ := e.Dims()
	if len(psi) != d {
		return 0, applicationError("fidelity", "statevector length %d does not match dimension %d", len(psi), d)
	}

	rho := e.Matrix()
	var acc complex128

	for i := 0; i < d; i++ {
		var row complex128
		for j := 0; j < d; j++ {
			row += rho[i*d+j] * psi[j]
		}
		acc += cmplx.Conj(psi[i]) * row
	}
	return cmplx.Abs(acc), nil
}
