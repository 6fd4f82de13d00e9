package densim

import (
	"fmt"
	"math/cmplx"
)

// KrausOp is one weighted term of a Kraus channel.
type KrausOp struct {
	Coef     complex128
	Operator Operator
}

/*
KrausChannel is an immutable probabilistic operation on nqubit qubits,
given as weighted operators that satisfy the completeness relation

	Σ_k |c_k|² K_k† K_k = I.

Channels are validated once at construction and can then be shared between
any number of applications, noise models and concurrent runs.
*/
type KrausChannel struct {
	nqubit int
	ops    []KrausOp
}

// NewKrausChannel validates and copies ops into a new channel on nqubit qubits.
func NewKrausChannel(nqubit int, ops []KrausOp) (*KrausChannel, error) {
	if nqubit < 1 {
		return nil, constructionError("kraus channel", "nqubit must be positive, got %d", nqubit)
	}

	if len(ops) == 0 {
		return nil, constructionError("kraus channel", "no Kraus operators given")
	}

	dim := 1 << nqubit

	if len(ops) > dim*dim {
		return nil, constructionError(
			"kraus channel", "%d operators exceed the 4^%d limit", len(ops), nqubit,
		)
	}

	sum := Operator{dim: dim, data: make([]complex128, dim*dim)}
	owned := make([]KrausOp, len(ops))

	for i, op := range ops {
		if op.Operator.Dim() != dim {
			return nil, constructionError(
				"kraus channel", "operator %d has side %d, want %d for %d qubits",
				i, op.Operator.Dim(), dim, nqubit,
			)
		}

		weight := op.Coef * cmplx.Conj(op.Coef)
		term := op.Operator.Dagger().Mul(op.Operator)

		for j, v := range term.data {
			sum.data[j] += weight * v
		}

		owned[i] = KrausOp{
			Coef:     op.Coef,
			Operator: Operator{dim: dim, data: append([]complex128(nil), op.Operator.data...)},
		}
	}

	if !allClose(sum.data, identityOperator(dim).data) {
		return nil, constructionError("kraus channel", "operators do not satisfy the completeness relation")
	}

	return &KrausChannel{nqubit: nqubit, ops: owned}, nil
}

// Nqubit returns the channel arity.
func (ch *KrausChannel) Nqubit() int { return ch.nqubit }

// Len returns the number of Kraus terms.
func (ch *KrausChannel) Len() int { return len(ch.ops) }

// Ops returns a copy of the Kraus terms.
func (ch *KrausChannel) Ops() []KrausOp {
	return append([]KrausOp(nil), ch.ops...)
}

func (ch *KrausChannel) String() string {
	return fmt.Sprintf("KrausChannel(nqubit=%d, terms=%d)", ch.nqubit, len(ch.ops))
}
