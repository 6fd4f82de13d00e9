package densim

import (
	"math/rand/v2"

	"github.com/theapemachine/errnie"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/stat/combin"
)

/*
NeighborPolicy turns a configured channel and a neighbor set into a plan.
The second result is false when the policy declined to emit anything because
the neighborhood could not satisfy the channel arity.
*/
type NeighborPolicy interface {
	Name() string
	Plan(ch *KrausChannel, neighbors []int) (NoisePlan, bool)
}

// BroadcastPolicy hits every neighbor independently with the channel. It is
// meant for single-qubit channels.
type BroadcastPolicy struct{}

func (BroadcastPolicy) Name() string { return "broadcast" }

func (BroadcastPolicy) Plan(ch *KrausChannel, neighbors []int) (NoisePlan, bool) {
	plan := make(NoisePlan, 0, len(neighbors))
	for _, n := range neighbors {
		plan = append(plan, NoiseEntry{Channel: ch, Targets: []int{n}})
	}
	return plan, true
}

// CombinationPolicy applies a k-qubit channel once per size-k combination of
// the neighbors, in lexicographic order of the sorted neighbor ids.
type CombinationPolicy struct{}

func (CombinationPolicy) Name() string { return "combinations" }

func (CombinationPolicy) Plan(ch *KrausChannel, neighbors []int) (NoisePlan, bool) {
	k := ch.Nqubit()
	if len(neighbors) < k {
		errnie.Warn(
			"CombinationPolicy - %d-qubit channel can not be applied to %d neighbors %v",
			k, len(neighbors), neighbors,
		)
		return nil, false
	}

	combos := combin.Combinations(len(neighbors), k)
	plan := make(NoisePlan, 0, len(combos))

	for _, combo := range combos {
		targets := make([]int, k)
		for i, idx := range combo {
			targets[i] = neighbors[idx]
		}
		plan = append(plan, NoiseEntry{Channel: ch, Targets: targets})
	}
	return plan, true
}

// GraphModelOption configures a graph-driven noise model.
type GraphModelOption func(*graphNoiseModel)

// WithSeedGraph starts the state graph from a copy of seed, e.g. the physical
// qubit layout.
func WithSeedGraph(seed graph.Undirected) GraphModelOption {
	return func(m *graphNoiseModel) {
		m.graph = NewStateGraphFrom(seed)
	}
}

// WithPolicy overrides the neighbor-selection policy.
func WithPolicy(policy NeighborPolicy) GraphModelOption {
	return func(m *graphNoiseModel) {
		m.policy = policy
	}
}

/*
graphNoiseModel is the shared machinery of the neighbor-driven models. It
keeps the entanglement state graph in step with the command stream and feeds
the neighborhood of each command into a NeighborPolicy.
*/
type graphNoiseModel struct {
	name         string
	graph        *StateGraph
	spec         ChannelSpec
	policy       NeighborPolicy
	localPrepare bool
	rng          *rand.Rand
	shortfalls   int
}

func newGraphNoiseModel(
	name string, spec ChannelSpec, rng *rand.Rand, policy NeighborPolicy, opts ...GraphModelOption,
) *graphNoiseModel {
	m := &graphNoiseModel{
		name:   name,
		graph:  NewStateGraph(),
		spec:   spec.sanitize(name),
		policy: policy,
		rng:    ensureRNG(rng),
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

func (m *graphNoiseModel) plan(ch *KrausChannel, neighbors []int) NoisePlan {
	if len(neighbors) == 0 {
		return nil
	}
	plan, ok := m.policy.Plan(ch, neighbors)
	if !ok {
		m.shortfalls++
	}
	return plan
}

// InputNodes adds the inputs as isolated nodes, then applies the input channel
// around each of them. Only a seed graph can give inputs neighbors.
func (m *graphNoiseModel) InputNodes(nodes []int) (NoisePlan, error) {
	for _, n := range nodes {
		if err := m.graph.AddNode(n); err != nil {
			return nil, err
		}
	}

	ch, ok := m.spec[InputKey]
	if !ok {
		return nil, nil
	}

	var plan NoisePlan
	for _, n := range nodes {
		neighbors, _ := m.graph.Neighbors(n)
		plan = append(plan, m.plan(ch, sortedMembers(neighbors))...)
	}
	return plan, nil
}

// Command updates the state graph for cmd and returns the noise it triggers.
func (m *graphNoiseModel) Command(cmd Command) (NoisePlan, error) {
	ch, configured := m.spec[KeyOf(cmd.Kind)]

	switch cmd.Kind {
	case KindN:
		if err := m.graph.AddNode(cmd.Node); err != nil {
			return nil, err
		}
		if !configured || !m.localPrepare {
			return nil, nil
		}
		if ch.Nqubit() != 1 {
			errnie.Warn("%s - %d-qubit channel can not be applied to prepared node %d", m.name, ch.Nqubit(), cmd.Node)
			return nil, nil
		}
		return NoisePlan{{Channel: ch, Targets: []int{cmd.Node}}}, nil

	case KindE:
		u, v := cmd.Nodes[0], cmd.Nodes[1]
		if err := m.graph.AddEdge(u, v); err != nil {
			return nil, err
		}
		if !configured {
			return nil, nil
		}
		first, _ := m.graph.Neighbors(u)
		second, _ := m.graph.Neighbors(v)
		return m.plan(ch, sortedMembers(first.Union(second))), nil

	case KindM, KindX, KindZ, KindC, KindT:
		// neighbors must be read before a measured node leaves the graph
		neighbors, ok := m.graph.Neighbors(cmd.Node)
		if !ok {
			return nil, &ValidationError{Op: cmd.Kind.String() + " command", Reason: cmd.String(), kind: ErrUnknownNode}
		}
		if cmd.Kind == KindM {
			if err := m.graph.RemoveNode(cmd.Node); err != nil {
				return nil, err
			}
		}
		if !configured {
			return nil, nil
		}
		return m.plan(ch, sortedMembers(neighbors)), nil
	}

	return nil, applicationError(m.name, "unknown command kind %v", cmd.Kind)
}

// ConfuseResult is the identity: graph-driven models have no readout error.
func (m *graphNoiseModel) ConfuseResult(outcome bool) bool { return outcome }

// NeighborsOf returns the sorted neighbors of node, or false if node is not live.
func (m *graphNoiseModel) NeighborsOf(node int) ([]int, bool) {
	neighbors, ok := m.graph.Neighbors(node)
	if !ok {
		return nil, false
	}
	return sortedMembers(neighbors), true
}

// LiveNodes returns the nodes currently tracked by the state graph.
func (m *graphNoiseModel) LiveNodes() []int { return m.graph.Nodes() }

// Shortfalls counts plans skipped because a neighborhood was smaller than the
// channel arity.
func (m *graphNoiseModel) Shortfalls() int { return m.shortfalls }

// Policy returns the active neighbor-selection policy.
func (m *graphNoiseModel) Policy() NeighborPolicy { return m.policy }
