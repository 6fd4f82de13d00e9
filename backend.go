package densim

import (
	"fmt"
	"math/rand/v2"
	"slices"
)

/*
Backend owns one Engine for one run and the mapping from pattern node ids to
engine qubit indices. Node ids go in and out of the public methods; engine
indices never leak.
*/
type Backend struct {
	state         Engine
	nodeIndex     []int
	rng           *rand.Rand
	probabilistic bool
	metrics       *Metrics
}

// NewBackend starts an empty (zero-qubit) state on the requested engine.
func NewBackend(kind EngineKind, rng *rand.Rand, cfg *Config, metrics *Metrics) (*Backend, error) {
	if cfg == nil {
		cfg = NewConfig()
	}
	if metrics == nil {
		metrics = NewMetrics()
	}

	state, err := NewEngine(kind, StatePlus, 0)
	if err != nil {
		return nil, err
	}

	return &Backend{
		state:         state,
		rng:           ensureRNG(rng),
		probabilistic: cfg.ProbabilisticMeasure,
		metrics:       metrics,
	}, nil
}

// State returns the engine.
func (b *Backend) State() Engine { return b.state }

// NodeIndex returns the node id held by each engine qubit, in order.
func (b *Backend) NodeIndex() []int { return slices.Clone(b.nodeIndex) }

func (b *Backend) indexOf(node int) (int, error) {
	i := slices.Index(b.nodeIndex, node)
	if i < 0 {
		return 0, &ValidationError{Op: "backend", Reason: fmt.Sprintf("node %d is not live", node), kind: ErrUnknownNode}
	}
	return i, nil
}

// AddNodes appends one |+> qubit per node.
func (b *Backend) AddNodes(nodes []int) error {
	for _, n := range nodes {
		if slices.Contains(b.nodeIndex, n) {
			return &ValidationError{Op: "add nodes", Reason: fmt.Sprintf("node %d already live", n), kind: ErrNodeReused}
		}

		plus, err := NewDensityMatrix(StatePlus, 1)
		if err != nil {
			return err
		}
		if err := b.state.Tensor(plus); err != nil {
			return err
		}
		b.nodeIndex = append(b.nodeIndex, n)
	}
	return nil
}

// EntangleNodes applies CZ between two nodes.
func (b *Backend) EntangleNodes(u, v int) error {
	i, err := b.indexOf(u)
	if err != nil {
		return err
	}
	j, err := b.indexOf(v)
	if err != nil {
		return err
	}
	return b.state.Entangle(i, j)
}

// Measure projects node onto the +1 (outcome false) or -1 (outcome true)
// eigenstate along basis and removes it from the state. With probabilistic
// measurement the branch follows the Born rule, otherwise it is a fair coin.
func (b *Backend) Measure(node int, basis [3]float64) (bool, error) {
	loc, err := b.indexOf(node)
	if err != nil {
		return false, err
	}

	p0 := projector(basis)

	var outcome bool
	if b.probabilistic {
		prob, err := b.state.ExpectationSingle(p0, loc)
		if err != nil {
			return false, err
		}
		switch p := real(prob); {
		case p >= 1-absTol:
			outcome = false
		case p <= absTol:
			outcome = true
		default:
			outcome = b.rng.Float64() > p
		}
	} else {
		outcome = b.rng.IntN(2) == 1
	}

	op := p0
	if outcome {
		op = complement(p0)
	}

	if err := b.state.EvolveSingle(op, loc); err != nil {
		return false, err
	}
	if err := b.state.RemoveQubit(loc); err != nil {
		return false, err
	}

	b.nodeIndex = slices.Delete(b.nodeIndex, loc, loc+1)
	return outcome, nil
}

// ApplySingle applies a single-qubit operator to node.
func (b *Backend) ApplySingle(node int, op Operator) error {
	loc, err := b.indexOf(node)
	if err != nil {
		return err
	}
	return b.state.EvolveSingle(op, loc)
}

// ApplyNoise applies the plan entry by entry.
func (b *Backend) ApplyNoise(plan NoisePlan) error {
	for _, entry := range plan {
		indices := make([]int, len(entry.Targets))
		for i, node := range entry.Targets {
			loc, err := b.indexOf(node)
			if err != nil {
				return err
			}
			indices[i] = loc
		}

		if err := b.state.ApplyChannel(entry.Channel, indices); err != nil {
			return err
		}
		b.metrics.recordChannel(entry.Channel)
	}
	return nil
}

// SortQubits reorders the engine so qubit i holds output[i].
func (b *Backend) SortQubits(output []int) error {
	for i, node := range output {
		from, err := b.indexOf(node)
		if err != nil {
			return err
		}
		if from == i {
			continue
		}
		if err := b.state.Swap(i, from); err != nil {
			return err
		}
		b.nodeIndex[i], b.nodeIndex[from] = b.nodeIndex[from], b.nodeIndex[i]
	}
	return nil
}
