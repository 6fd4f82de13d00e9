package densim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/davecgh/go-spew/spew"
	. "github.com/smartystreets/goconvey/convey"
)

var engineKinds = []EngineKind{ReferenceEngine, KernelEngine}

// randomState returns a random mixed n-qubit state built from a few pure ones.
func randomState(kind EngineKind, n int, rng *rand.Rand) Engine {
	d := 1 << n
	acc := make([]complex128, d*d)

	weights := []float64{0.5, 0.3, 0.2}
	for _, w := range weights {
		psi := make([]complex128, d)
		var norm float64
		for i := range psi {
			psi[i] = complex(rng.NormFloat64(), rng.NormFloat64())
			norm += real(psi[i])*real(psi[i]) + imag(psi[i])*imag(psi[i])
		}
		for i := range psi {
			psi[i] /= complex(math.Sqrt(norm), 0)
		}
		for i, v := range outer(psi) {
			acc[i] += complex(w, 0) * v
		}
	}

	rows := make(Rows, d)
	for i := range rows {
		rows[i] = acc[i*d : (i+1)*d]
	}

	e, err := NewEngine(kind, rows, n)
	if err != nil {
		panic(err)
	}
	return e
}

func randomUnitary(rng *rand.Rand) Operator {
	theta, phi, lambda := rng.Float64()*math.Pi, rng.Float64()*2*math.Pi, rng.Float64()*2*math.Pi
	c, s := math.Cos(theta/2), math.Sin(theta/2)

	return mustOperator([][]complex128{
		{complex(c, 0), -cmplxExp(lambda) * complex(s, 0)},
		{cmplxExp(phi) * complex(s, 0), cmplxExp(phi+lambda) * complex(c, 0)},
	})
}

func cmplxExp(a float64) complex128 { return complex(math.Cos(a), math.Sin(a)) }

func TestEngineConstruction(t *testing.T) {
	for _, kind := range engineKinds {
		Convey(fmt.Sprintf("Given the %s engine", kind), t, func() {
			Convey("When built from a basic state", func() {
				e, err := NewEngine(kind, StateOne, 2)

				Convey("Then every qubit is in that state", func() {
					So(err, ShouldBeNil)
					So(e.Nqubit(), ShouldEqual, 2)
					r, c := e.Dims()
					So(r, ShouldEqual, 4)
					So(c, ShouldEqual, 4)
					So(e.At(3, 3), ShouldEqual, complex(1, 0))
					So(isClose(e.Trace(), 1), ShouldBeTrue)
				})
			})

			Convey("When built from a list of states", func() {
				e, err := NewEngine(kind, States{StateZero, StatePlus}, InferQubits)
				So(err, ShouldBeNil)
				So(e.Nqubit(), ShouldEqual, 2)
				So(isClose(e.At(0, 1), 0.5), ShouldBeTrue)
				So(isClose(e.At(2, 2), 0), ShouldBeTrue)
			})

			Convey("When the qubit count disagrees with the data", func() {
				_, err := NewEngine(kind, States{StateZero, StatePlus}, 3)
				So(errors.Is(err, ErrConstruction), ShouldBeTrue)
			})

			Convey("When built from a statevector", func() {
				e, err := NewEngine(kind, Statevector{complex(1/math.Sqrt2, 0), 0, 0, complex(1/math.Sqrt2, 0)}, InferQubits)
				So(err, ShouldBeNil)
				So(e.Nqubit(), ShouldEqual, 2)
				So(isClose(e.At(0, 3), 0.5), ShouldBeTrue)

				_, err = NewEngine(kind, Statevector{1, 1}, InferQubits)
				So(errors.Is(err, ErrConstruction), ShouldBeTrue)

				_, err = NewEngine(kind, Statevector{1, 0, 0}, InferQubits)
				So(errors.Is(err, ErrConstruction), ShouldBeTrue)
			})

			Convey("When built from raw rows", func() {
				_, err := NewEngine(kind, Rows{{0.5, 0}, {0, 0.5}}, 1)
				So(err, ShouldBeNil)

				_, err = NewEngine(kind, Rows{{1, 0}, {0, 1}}, InferQubits)
				So(errors.Is(err, ErrConstruction), ShouldBeTrue)

				_, err = NewEngine(kind, Rows{{1.5, 0}, {0, -0.5}}, InferQubits)
				So(errors.Is(err, ErrConstruction), ShouldBeTrue)

				_, err = NewEngine(kind, Rows{{1, 0, 0}, {0, 0, 0}, {0, 0, 0}}, InferQubits)
				So(errors.Is(err, ErrConstruction), ShouldBeTrue)
			})

			Convey("When copied from another engine", func() {
				src, err := NewEngine(kind, StatePlus, 1)
				So(err, ShouldBeNil)

				cp, err := NewEngine(kind, src, InferQubits)
				So(err, ShouldBeNil)
				So(allClose(cp.Matrix(), src.Matrix()), ShouldBeTrue)

				So(cp.EvolveSingle(PauliZ, 0), ShouldBeNil)
				So(isClose(src.At(0, 1), 0.5), ShouldBeTrue)
			})
		})
	}
}

func TestEngineEvolution(t *testing.T) {
	for _, kind := range engineKinds {
		Convey(fmt.Sprintf("Given a random 3-qubit state on the %s engine", kind), t, func() {
			rng := rand.New(rand.NewPCG(7, 11))
			e := randomState(kind, 3, rng)
			orig := e.Matrix()

			Convey("A unitary followed by its dagger should restore the state", func() {
				for i := 0; i < 3; i++ {
					u := randomUnitary(rng)
					So(e.EvolveSingle(u, i), ShouldBeNil)
					So(e.EvolveSingle(u.Dagger(), i), ShouldBeNil)
				}
				if !allClose(e.Matrix(), orig) {
					spew.Dump(e.Matrix(), orig)
				}
				So(allClose(e.Matrix(), orig), ShouldBeTrue)
			})

			Convey("A two-qubit unitary on reversed targets should round trip", func() {
				So(e.Evolve(CNOTOp, []int{2, 0}), ShouldBeNil)
				So(e.Evolve(CNOTOp, []int{2, 0}), ShouldBeNil)
				So(allClose(e.Matrix(), orig), ShouldBeTrue)
			})

			Convey("A single-term unit channel should match evolve", func() {
				u := randomUnitary(rng).Kron(randomUnitary(rng))
				ch, err := NewKrausChannel(2, []KrausOp{{Coef: 1, Operator: u}})
				So(err, ShouldBeNil)

				other := e.Clone()
				So(e.ApplyChannel(ch, []int{2, 1}), ShouldBeNil)
				So(other.Evolve(u, []int{2, 1}), ShouldBeNil)
				So(allClose(e.Matrix(), other.Matrix()), ShouldBeTrue)
			})

			Convey("Evolution should keep the state Hermitian with unit trace", func() {
				So(e.Evolve(CZOp, []int{0, 2}), ShouldBeNil)
				So(e.EvolveSingle(Hadamard, 1), ShouldBeNil)
				m := e.Matrix()
				So(isHermitian(m, 8), ShouldBeTrue)
				So(isUnitTrace(m, 8), ShouldBeTrue)
				So(isPSD(m, 8), ShouldBeTrue)
			})

			Convey("Bad targets should fail without touching the state", func() {
				err := e.EvolveSingle(PauliX, 3)
				So(errors.Is(err, ErrApplication), ShouldBeTrue)

				err = e.EvolveSingle(CZOp, 0)
				So(errors.Is(err, ErrApplication), ShouldBeTrue)

				err = e.Evolve(CZOp, []int{1, 1})
				So(errors.Is(err, ErrApplication), ShouldBeTrue)

				err = e.Evolve(CZOp, []int{0})
				So(errors.Is(err, ErrApplication), ShouldBeTrue)

				err = e.Evolve(CZOp, []int{0, -1})
				So(errors.Is(err, ErrApplication), ShouldBeTrue)

				So(allClose(e.Matrix(), orig), ShouldBeTrue)
			})
		})
	}
}

func TestEngineTensorPtrace(t *testing.T) {
	for _, kind := range engineKinds {
		Convey(fmt.Sprintf("Given two random states on the %s engine", kind), t, func() {
			rng := rand.New(rand.NewPCG(3, 5))
			a := randomState(kind, 2, rng)
			b := randomState(kind, 1, rng)
			orig := a.Matrix()

			Convey("Tensor then tracing out the appended qubits should give back the first", func() {
				So(a.Tensor(b), ShouldBeNil)
				So(a.Nqubit(), ShouldEqual, 3)
				So(a.Ptrace([]int{2}), ShouldBeNil)
				So(a.Normalize(), ShouldBeNil)
				So(allClose(a.Matrix(), orig), ShouldBeTrue)
			})

			Convey("Tracing out a middle qubit should keep the others in order", func() {
				prod, err := NewEngine(kind, States{StateZero, StatePlus, StateOne}, InferQubits)
				So(err, ShouldBeNil)
				So(prod.Ptrace([]int{1}), ShouldBeNil)

				want, err := NewEngine(kind, States{StateZero, StateOne}, InferQubits)
				So(err, ShouldBeNil)
				So(allClose(prod.Matrix(), want.Matrix()), ShouldBeTrue)
			})

			Convey("RemoveQubit should renormalize", func() {
				So(a.EvolveSingle(mustOperator([][]complex128{{1, 0}, {0, 0}}), 0), ShouldBeNil)
				So(a.RemoveQubit(0), ShouldBeNil)
				So(a.Nqubit(), ShouldEqual, 1)
				So(isClose(a.Trace(), 1), ShouldBeTrue)
			})

			Convey("Normalize should refuse a zero trace", func() {
				zero, err := NewEngine(kind, StateZero, 1)
				So(err, ShouldBeNil)
				So(zero.EvolveSingle(mustOperator([][]complex128{{0, 0}, {0, 1}}), 0), ShouldBeNil)
				So(errors.Is(zero.Normalize(), ErrApplication), ShouldBeTrue)
			})
		})
	}
}

func TestEngineExpectation(t *testing.T) {
	for _, kind := range engineKinds {
		Convey(fmt.Sprintf("Given a product state on the %s engine", kind), t, func() {
			e, err := NewEngine(kind, States{StateZero, StatePlus, StatePlusI}, InferQubits)
			So(err, ShouldBeNil)
			orig := e.Matrix()

			Convey("Expectations should follow the single-qubit Bloch vectors", func() {
				z, err := e.ExpectationSingle(PauliZ, 0)
				So(err, ShouldBeNil)
				So(isClose(z, 1), ShouldBeTrue)

				x, err := e.ExpectationSingle(PauliX, 1)
				So(err, ShouldBeNil)
				So(isClose(x, 1), ShouldBeTrue)

				y, err := e.ExpectationSingle(PauliY, 2)
				So(err, ShouldBeNil)
				So(isClose(y, 1), ShouldBeTrue)

				So(allClose(e.Matrix(), orig), ShouldBeTrue)
			})

			Convey("Expectations should be taken on a normalized copy", func() {
				So(e.EvolveSingle(mustOperator([][]complex128{{1, 0}, {0, 0}}), 1), ShouldBeNil)
				unnormalized := e.Matrix()

				z, err := e.ExpectationSingle(PauliZ, 1)
				So(err, ShouldBeNil)
				So(isClose(z, 1), ShouldBeTrue)
				So(allClose(e.Matrix(), unnormalized), ShouldBeTrue)
			})
		})
	}
}

func TestEngineChannels(t *testing.T) {
	for _, kind := range engineKinds {
		Convey(fmt.Sprintf("Given a |0> qubit on the %s engine", kind), t, func() {
			e, err := NewEngine(kind, StateZero, 1)
			So(err, ShouldBeNil)

			Convey("Full dephasing should leave a computational state alone", func() {
				ch, err := DephasingChannel(1)
				So(err, ShouldBeNil)
				So(e.ApplyChannel(ch, []int{0}), ShouldBeNil)
				So(isClose(e.At(0, 0), 1), ShouldBeTrue)
			})

			Convey("Depolarising p should move 2p/3 of the population", func() {
				ch, err := DepolarisingChannel(0.3)
				So(err, ShouldBeNil)
				So(e.ApplyChannel(ch, []int{0}), ShouldBeNil)
				So(isClose(e.At(0, 0), complex(1-0.2, 0)), ShouldBeTrue)
				So(isClose(e.At(1, 1), complex(0.2, 0)), ShouldBeTrue)
			})

			Convey("An arity mismatch should be an application error", func() {
				ch, err := TwoQubitDepolarisingChannel(0.1)
				So(err, ShouldBeNil)
				So(errors.Is(e.ApplyChannel(ch, []int{0}), ErrApplication), ShouldBeTrue)
			})

			Convey("A trace-drifting state should be reported", func() {
				ch, err := DepolarisingChannel(0.1)
				So(err, ShouldBeNil)
				So(e.EvolveSingle(mustOperator([][]complex128{{0.5, 0}, {0, 0}}), 0), ShouldBeNil)
				So(errors.Is(e.ApplyChannel(ch, []int{0}), ErrApplication), ShouldBeTrue)
			})
		})
	}
}

func TestEngineEquivalence(t *testing.T) {
	Convey("Given the same random state on both engines", t, func() {
		ref := randomState(ReferenceEngine, 3, rand.New(rand.NewPCG(1, 2)))
		ker := randomState(KernelEngine, 3, rand.New(rand.NewPCG(1, 2)))
		So(allClose(ref.Matrix(), ker.Matrix()), ShouldBeTrue)

		Convey("The same operation sequence should give the same matrix", func() {
			two, err := TwoQubitDepolarisingChannel(0.2)
			So(err, ShouldBeNil)
			dep, err := DepolarisingChannel(0.4)
			So(err, ShouldBeNil)

			for _, e := range []Engine{ref, ker} {
				So(e.EvolveSingle(Hadamard, 1), ShouldBeNil)
				So(e.Entangle(0, 2), ShouldBeNil)
				So(e.CNOT(2, 1), ShouldBeNil)
				So(e.ApplyChannel(two, []int{1, 0}), ShouldBeNil)
				So(e.Swap(0, 2), ShouldBeNil)
				So(e.ApplyChannel(dep, []int{2}), ShouldBeNil)
				So(e.Tensor(randomState(ReferenceEngine, 1, rand.New(rand.NewPCG(9, 9)))), ShouldBeNil)
				So(e.Ptrace([]int{1, 3}), ShouldBeNil)
				So(e.Normalize(), ShouldBeNil)
			}

			So(ref.Nqubit(), ShouldEqual, 2)
			So(ker.Nqubit(), ShouldEqual, 2)
			So(allClose(ref.Matrix(), ker.Matrix()), ShouldBeTrue)

			pr, err := ref.ExpectationSingle(PauliZ, 1)
			So(err, ShouldBeNil)
			pk, err := ker.ExpectationSingle(PauliZ, 1)
			So(err, ShouldBeNil)
			So(isClose(pr, pk), ShouldBeTrue)
		})
	})
}

func TestFidelity(t *testing.T) {
	Convey("Given a Bell state", t, func() {
		bell := Statevector{complex(1/math.Sqrt2, 0), 0, 0, complex(1/math.Sqrt2, 0)}
		e, err := NewEngine(ReferenceEngine, bell, InferQubits)
		So(err, ShouldBeNil)

		f, err := Fidelity(e, bell)
		So(err, ShouldBeNil)
		So(f, ShouldAlmostEqual, 1)

		_, err = Fidelity(e, Statevector{1, 0})
		So(errors.Is(err, ErrApplication), ShouldBeTrue)
	})
}
