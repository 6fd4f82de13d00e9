package densim

import (
	"fmt"
	"math/cmplx"
)

/*
kernel is the opaque handle behind KernelDensityMatrix. It owns a flat
row-major buffer and is only ever touched through the kernel* functions,
which work in place on strided sub-blocks selected by bit masks instead of
rebuilding the matrix per operation.
*/
type kernel struct {
	n   int
	buf []complex128
}

func newKernel(n int, buf []complex128) *kernel {
	return &kernel{n: n, buf: buf}
}

func (h *kernel) dim() int { return 1 << h.n }

func kernelClone(h *kernel) *kernel {
	return &kernel{n: h.n, buf: append([]complex128(nil), h.buf...)}
}

func kernelBit(n, q int) int { return 1 << (n - 1 - q) }

// kernelOffsets returns, for every operator index a, the flat index offset of
// the target bits, plus the combined target mask.
func kernelOffsets(n int, targets []int) ([]int, int) {
	k := len(targets)
	offsets := make([]int, 1<<k)
	mask := 0

	for _, t := range targets {
		mask |= kernelBit(n, t)
	}

	for a := range offsets {
		off := 0
		for j, t := range targets {
			if a&(1<<(k-1-j)) != 0 {
				off |= kernelBit(n, t)
			}
		}
		offsets[a] = off
	}
	return offsets, mask
}

func kernelEvolve(h *kernel, op Operator, targets []int) {
	d := h.dim()
	kd := op.dim
	offsets, mask := kernelOffsets(h.n, targets)
	in := make([]complex128, kd)

	// ket side, column by column
	for base := 0; base < d; base++ {
		if base&mask != 0 {
			continue
		}
		for c := 0; c < d; c++ {
			for a, off := range offsets {
				in[a] = h.buf[(base|off)*d+c]
			}
			for i, off := range offsets {
				var acc complex128
				for a := 0; a < kd; a++ {
					acc += op.data[i*kd+a] * in[a]
				}
				h.buf[(base|off)*d+c] = acc
			}
		}
	}

	// bra side, row by row
	for r := 0; r < d; r++ {
		row := h.buf[r*d : (r+1)*d]
		for base := 0; base < d; base++ {
			if base&mask != 0 {
				continue
			}
			for b, off := range offsets {
				in[b] = row[base|off]
			}
			for j, off := range offsets {
				var acc complex128
				for b := 0; b < kd; b++ {
					acc += in[b] * cmplx.Conj(op.data[j*kd+b])
				}
				row[base|off] = acc
			}
		}
	}
}

func kernelTensor(h *kernel, buf []complex128, n int) {
	h.buf = kron(h.buf, h.dim(), buf, 1<<n)
	h.n += n
}

func kernelPtrace(h *kernel, targets []int) {
	d := h.dim()
	_, mask := kernelOffsets(h.n, targets)
	outN := h.n - len(targets)
	outDim := 1 << outN

	// packed[idx] is idx with the traced bits squeezed out
	packed := make([]int, d)
	for idx := 0; idx < d; idx++ {
		p, j := 0, outN-1
		for q := 0; q < h.n; q++ {
			bit := kernelBit(h.n, q)
			if mask&bit != 0 {
				continue
			}
			if idx&bit != 0 {
				p |= 1 << j
			}
			j--
		}
		packed[idx] = p
	}

	out := make([]complex128, outDim*outDim)
	for r := 0; r < d; r++ {
		for c := 0; c < d; c++ {
			if (r^c)&mask != 0 {
				continue
			}
			out[packed[r]*outDim+packed[c]] += h.buf[r*d+c]
		}
	}

	h.buf = out
	h.n = outN
}

func kernelTrace(h *kernel) complex128 { return trace(h.buf, h.dim()) }

func kernelScale(h *kernel, c complex128) {
	for i := range h.buf {
		h.buf[i] *= c
	}
}

func kernelExpectation(h *kernel, op Operator, i int) complex128 {
	d := h.dim()
	offsets, mask := kernelOffsets(h.n, []int{i})
	var acc complex128

	for base := 0; base < d; base++ {
		if base&mask != 0 {
			continue
		}
		for a, ra := range offsets {
			for b, rb := range offsets {
				acc += op.data[a*2+b] * h.buf[(base|rb)*d+(base|ra)]
			}
		}
	}
	return acc / kernelTrace(h)
}

/*
KernelDensityMatrix is the accelerated Engine. It satisfies exactly the same
contract as DensityMatrix and is interchangeable with it; only the internal
representation differs.
*/
type KernelDensityMatrix struct {
	h *kernel
}

// NewKernelDensityMatrix prepares a kernel-backed density matrix from data.
func NewKernelDensityMatrix(data Data, nqubit int) (*KernelDensityMatrix, error) {
	rho, n, err := data.densityData(nqubit)
	if err != nil {
		return nil, err
	}
	return &KernelDensityMatrix{h: newKernel(n, rho)}, nil
}

func (km *KernelDensityMatrix) densityData(nqubit int) ([]complex128, int, error) {
	return engineData(km, nqubit)
}

func (km *KernelDensityMatrix) Nqubit() int { return km.h.n }

func (km *KernelDensityMatrix) Dims() (int, int) { return km.h.dim(), km.h.dim() }

func (km *KernelDensityMatrix) At(row, col int) complex128 { return km.h.buf[row*km.h.dim()+col] }

func (km *KernelDensityMatrix) Matrix() []complex128 {
	return append([]complex128(nil), km.h.buf...)
}

func (km *KernelDensityMatrix) Trace() complex128 { return kernelTrace(km.h) }

func (km *KernelDensityMatrix) Clone() Engine {
	return &KernelDensityMatrix{h: kernelClone(km.h)}
}

func (km *KernelDensityMatrix) String() string {
	return fmt.Sprintf("KernelDensityMatrix(nqubit=%d, dims=%dx%d)", km.h.n, km.h.dim(), km.h.dim())
}

func (km *KernelDensityMatrix) EvolveSingle(op Operator, i int) error {
	if err := checkSingle("evolve single", op, i, km.h.n); err != nil {
		return err
	}
	kernelEvolve(km.h, op, []int{i})
	return nil
}

func (km *KernelDensityMatrix) Evolve(op Operator, targets []int) error {
	if err := checkOperator("evolve", op, targets, km.h.n); err != nil {
		return err
	}
	kernelEvolve(km.h, op, targets)
	return nil
}

func (km *KernelDensityMatrix) Tensor(other Engine) error {
	if other == nil {
		return applicationError("tensor", "nil state")
	}
	kernelTensor(km.h, other.Matrix(), other.Nqubit())
	return nil
}

func (km *KernelDensityMatrix) Ptrace(targets []int) error {
	if km.h.n == 0 {
		return applicationError("ptrace", "no qubits to trace out")
	}
	if err := validateTargets("ptrace", km.h.n, targets); err != nil {
		return err
	}
	kernelPtrace(km.h, targets)
	return nil
}

func (km *KernelDensityMatrix) Normalize() error {
	tr := kernelTrace(km.h)
	if cmplx.Abs(tr) < absTol {
		return applicationError("normalize", "trace %v too close to zero", tr)
	}
	kernelScale(km.h, 1/tr)
	return nil
}

func (km *KernelDensityMatrix) RemoveQubit(loc int) error {
	if err := km.Ptrace([]int{loc}); err != nil {
		return err
	}
	return km.Normalize()
}

func (km *KernelDensityMatrix) ExpectationSingle(op Operator, i int) (complex128, error) {
	if err := checkSingle("expectation single", op, i, km.h.n); err != nil {
		return 0, err
	}
	if cmplx.Abs(kernelTrace(km.h)) < absTol {
		return 0, applicationError("expectation single", "trace too close to zero")
	}
	return kernelExpectation(km.h, op, i), nil
}

func (km *KernelDensityMatrix) ApplyChannel(ch *KrausChannel, targets []int) error {
	if err := checkChannel("apply channel", ch, targets, km.h.n); err != nil {
		return err
	}

	acc := make([]complex128, len(km.h.buf))

	for _, k := range ch.ops {
		scratch := kernelClone(km.h)
		kernelEvolve(scratch, k.Operator, targets)

		w := k.Coef * cmplx.Conj(k.Coef)
		for i, v := range scratch.buf {
			acc[i] += w * v
		}
	}

	if tr := trace(acc, km.h.dim()); !isClose(tr, 1) {
		return applicationError("apply channel", "output trace %v is not 1, check the channel definition", tr)
	}

	km.h.buf = acc
	return nil
}

func (km *KernelDensityMatrix) Entangle(u, v int) error { return km.Evolve(CZOp, []int{u, v}) }

func (km *KernelDensityMatrix) Swap(u, v int) error { return km.Evolve(SWAPOp, []int{u, v}) }

func (km *KernelDensityMatrix) CNOT(control, target int) error {
	return km.Evolve(CNOTOp, []int{control, target})
}
