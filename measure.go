package densim

import "math"

// projector returns (I + v·σ)/2, the projector onto the +1 eigenstate along
// Bloch vector v.
func projector(v [3]float64) Operator {
	out := identityOperator(2)
	for axis, p := range []Operator{PauliX, PauliY, PauliZ} {
		for i := range out.data {
			out.data[i] += complex(v[axis], 0) * p.data[i]
		}
	}
	return out.Scale(0.5)
}

// complement returns I - p.
func complement(p Operator) Operator {
	out := identityOperator(p.dim)
	for i := range out.data {
		out.data[i] -= p.data[i]
	}
	return out
}

/*
measureMethod records outcomes and adapts measurement bases to them. An odd
s-domain parity conjugates the basis by X, an odd t-domain parity by Z; for
the XY plane this is angle -> -angle and angle -> angle + π respectively.
*/
type measureMethod struct {
	results map[int]bool
}

func newMeasureMethod() *measureMethod {
	return &measureMethod{results: make(map[int]bool)}
}

func (mm *measureMethod) parity(domain []int) bool {
	odd := false
	for _, n := range domain {
		if mm.results[n] {
			odd = !odd
		}
	}
	return odd
}

func (mm *measureMethod) basis(cmd Command) [3]float64 {
	v := cmd.Plane.Polar(cmd.Angle * math.Pi)

	if mm.parity(cmd.SDomain) {
		v = [3]float64{v[0], -v[1], -v[2]}
	}
	if mm.parity(cmd.TDomain) {
		v = [3]float64{-v[0], -v[1], v[2]}
	}
	return v
}

func (mm *measureMethod) set(node int, outcome bool) { mm.results[node] = outcome }

func (mm *measureMethod) outcomes() map[int]bool {
	out := make(map[int]bool, len(mm.results))
	for k, v := range mm.results {
		out[k] = v
	}
	return out
}
