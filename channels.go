package densim

import "math"

func checkProbability(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return constructionError(name, "probability %v outside [0, 1]", p)
	}
	return nil
}

func real2c(v float64) complex128 { return complex(v, 0) }

// DepolarisingChannel returns the single-qubit depolarising channel
// {√(1-p) I, √(p/3) X, √(p/3) Y, √(p/3) Z}.
func DepolarisingChannel(p float64) (*KrausChannel, error) {
	if err := checkProbability("depolarising channel", p); err != nil {
		return nil, err
	}

	side := real2c(math.Sqrt(p / 3))

	return NewKrausChannel(1, []KrausOp{
		{Coef: real2c(math.Sqrt(1 - p)), Operator: IdentityOp},
		{Coef: side, Operator: PauliX},
		{Coef: side, Operator: PauliY},
		{Coef: side, Operator: PauliZ},
	})
}

// DephasingChannel returns {√(1-p) I, √p Z}.
func DephasingChannel(p float64) (*KrausChannel, error) {
	if err := checkProbability("dephasing channel", p); err != nil {
		return nil, err
	}

	return NewKrausChannel(1, []KrausOp{
		{Coef: real2c(math.Sqrt(1 - p)), Operator: IdentityOp},
		{Coef: real2c(math.Sqrt(p)), Operator: PauliZ},
	})
}

// TwoQubitDepolarisingChannel returns the true two-qubit depolarising
// channel: √(1-p) I⊗I and √(p/15) on each of the other 15 Pauli products.
func TwoQubitDepolarisingChannel(p float64) (*KrausChannel, error) {
	if err := checkProbability("two-qubit depolarising channel", p); err != nil {
		return nil, err
	}

	ops := make([]KrausOp, 0, 16)
	side := real2c(math.Sqrt(p / 15))

	for i, a := range paulis {
		for j, b := range paulis {
			coef := side
			if i == 0 && j == 0 {
				coef = real2c(math.Sqrt(1 - p))
			}
			ops = append(ops, KrausOp{Coef: coef, Operator: a.Kron(b)})
		}
	}

	return NewKrausChannel(2, ops)
}

// TwoQubitDepolarisingTensorChannel returns the product of two independent
// single-qubit depolarising channels with the same probability.
func TwoQubitDepolarisingTensorChannel(p float64) (*KrausChannel, error) {
	single, err := DepolarisingChannel(p)
	if err != nil {
		return nil, err
	}

	ops := make([]KrausOp, 0, 16)

	for _, a := range single.ops {
		for _, b := range single.ops {
			ops = append(ops, KrausOp{Coef: a.Coef * b.Coef, Operator: a.Operator.Kron(b.Operator)})
		}
	}

	return NewKrausChannel(2, ops)
}
