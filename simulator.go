package densim

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/theapemachine/errnie"
)

// Result is the outcome of one run: the output state in output-node order,
// the (possibly confused) measurement outcomes by node, and the run metrics.
type Result struct {
	State    Engine
	Outcomes map[int]bool
	Metrics  *Metrics
}

/*
Simulator drives one pattern through a Backend, consulting the noise model
exactly once for the inputs and once per command, in stream order. A noise
model with a state graph is only valid for one run, so a Simulator is too.
*/
type Simulator struct {
	model NoiseModel
	rng   *rand.Rand
	cfg   *Config
}

// NewSimulator wires a noise model, a generator and a configuration. Nil
// arguments fall back to the noiseless model, a fixed-seed generator and
// NewConfig respectively.
func NewSimulator(model NoiseModel, rng *rand.Rand, cfg *Config) *Simulator {
	if model == nil {
		errnie.Warn("NewSimulator - simulating a density matrix without a noise model")
		model = NoiselessNoiseModel{}
	}
	if cfg == nil {
		cfg = NewConfig()
	}

	return &Simulator{
		model: model,
		rng:   ensureRNG(rng),
		cfg:   cfg,
	}
}

// Model returns the noise model the simulator consults.
func (sim *Simulator) Model() NoiseModel { return sim.model }

// Run executes pattern and returns its final state. The context is checked
// between commands.
func (sim *Simulator) Run(ctx context.Context, pattern Pattern) (*Result, error) {
	startTime := time.Now()
	metrics := NewMetrics()

	backend, err := NewBackend(sim.cfg.Engine, sim.rng, sim.cfg, metrics)
	if err != nil {
		errnie.Error(err)
		return nil, fmt.Errorf("run: %w", err)
	}

	mm := newMeasureMethod()

	if err := sim.prepareInputs(backend, pattern.InputNodes); err != nil {
		errnie.Error(err)
		return nil, fmt.Errorf("run: inputs: %w", err)
	}

	for i, cmd := range pattern.Commands {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := sim.step(backend, mm, cmd, metrics); err != nil {
			errnie.Error(err)
			return nil, fmt.Errorf("run: command %d %s: %w", i, cmd, err)
		}
		metrics.recordCommand(cmd.Kind)
	}

	if err := backend.SortQubits(pattern.OutputNodes); err != nil {
		errnie.Error(err)
		return nil, fmt.Errorf("run: outputs: %w", err)
	}

	if counter, ok := sim.model.(interface{ Shortfalls() int }); ok {
		metrics.recordShortfalls(counter.Shortfalls())
	}
	metrics.recordRun(startTime)

	return &Result{
		State:    backend.State(),
		Outcomes: mm.outcomes(),
		Metrics:  metrics,
	}, nil
}

func (sim *Simulator) prepareInputs(backend *Backend, inputs []int) error {
	if err := backend.AddNodes(inputs); err != nil {
		return err
	}

	plan, err := sim.model.InputNodes(inputs)
	if err != nil {
		return err
	}
	return backend.ApplyNoise(plan)
}

func (sim *Simulator) step(backend *Backend, mm *measureMethod, cmd Command, metrics *Metrics) error {
	// the model must see every command, even one whose intrinsic operation
	// does not fire, to keep its state graph in step
	plan, err := sim.model.Command(cmd)
	if err != nil {
		return err
	}

	switch cmd.Kind {
	case KindN:
		if err := backend.AddNodes([]int{cmd.Node}); err != nil {
			return err
		}
		return backend.ApplyNoise(plan)

	case KindE:
		if err := backend.EntangleNodes(cmd.Nodes[0], cmd.Nodes[1]); err != nil {
			return err
		}
		return backend.ApplyNoise(plan)

	case KindM:
		if err := backend.ApplyNoise(plan); err != nil {
			return err
		}

		outcome, err := backend.Measure(cmd.Node, mm.basis(cmd))
		if err != nil {
			return err
		}

		confused := sim.model.ConfuseResult(outcome)
		if confused != outcome {
			metrics.recordConfused()
		}
		mm.set(cmd.Node, confused)
		return nil

	case KindX, KindZ:
		if !mm.parity(cmd.Domain) {
			return nil
		}

		op := PauliX
		if cmd.Kind == KindZ {
			op = PauliZ
		}
		if err := backend.ApplySingle(cmd.Node, op); err != nil {
			return err
		}
		return backend.ApplyNoise(plan)

	case KindC:
		if err := backend.ApplySingle(cmd.Node, cmd.Clifford); err != nil {
			return err
		}
		return backend.ApplyNoise(plan)

	case KindT:
		return backend.ApplyNoise(plan)
	}

	return applicationError("run", "unknown command kind %v", cmd.Kind)
}
