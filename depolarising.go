package densim

import "math/rand/v2"

// DepolarisingProbabilities configures DepolarisingNoiseModel. Zero values
// mean no noise for that trigger.
type DepolarisingProbabilities struct {
	PrepareError      float64 `yaml:"prepare_error_prob"`
	XError            float64 `yaml:"x_error_prob"`
	ZError            float64 `yaml:"z_error_prob"`
	EntanglementError float64 `yaml:"entanglement_error_prob"`
	MeasureChannel    float64 `yaml:"measure_channel_prob"`
	MeasureError      float64 `yaml:"measure_error_prob"`
}

/*
DepolarisingNoiseModel applies command-local depolarising noise with fixed
probabilities: preparation (inputs and N) and X/Z corrections get a
single-qubit depolarising channel on their node, E gets the two-qubit
depolarising channel on its pair, M gets a depolarising channel on the
measured node before readout, and readout flips with MeasureError.
*/
type DepolarisingNoiseModel struct {
	probs DepolarisingProbabilities
	rng   *rand.Rand

	prepare      *KrausChannel
	x            *KrausChannel
	z            *KrausChannel
	entanglement *KrausChannel
	measure      *KrausChannel
}

// NewDepolarisingNoiseModel builds the channels once; they are shared by
// every plan the model returns.
func NewDepolarisingNoiseModel(probs DepolarisingProbabilities, rng *rand.Rand) (*DepolarisingNoiseModel, error) {
	if err := checkProbability("measure error", probs.MeasureError); err != nil {
		return nil, err
	}

	m := &DepolarisingNoiseModel{probs: probs, rng: ensureRNG(rng)}

	var err error
	if m.prepare, err = DepolarisingChannel(probs.PrepareError); err != nil {
		return nil, err
	}
	if m.x, err = DepolarisingChannel(probs.XError); err != nil {
		return nil, err
	}
	if m.z, err = DepolarisingChannel(probs.ZError); err != nil {
		return nil, err
	}
	if m.entanglement, err = TwoQubitDepolarisingChannel(probs.EntanglementError); err != nil {
		return nil, err
	}
	if m.measure, err = DepolarisingChannel(probs.MeasureChannel); err != nil {
		return nil, err
	}

	return m, nil
}

// Probabilities returns the configured probabilities.
func (m *DepolarisingNoiseModel) Probabilities() DepolarisingProbabilities { return m.probs }

func (m *DepolarisingNoiseModel) InputNodes(nodes []int) (NoisePlan, error) {
	plan := make(NoisePlan, 0, len(nodes))
	for _, n := range nodes {
		plan = append(plan, NoiseEntry{Channel: m.prepare, Targets: []int{n}})
	}
	return plan, nil
}

func (m *DepolarisingNoiseModel) Command(cmd Command) (NoisePlan, error) {
	switch cmd.Kind {
	case KindN:
		return NoisePlan{{Channel: m.prepare, Targets: []int{cmd.Node}}}, nil
	case KindE:
		return NoisePlan{{Channel: m.entanglement, Targets: []int{cmd.Nodes[0], cmd.Nodes[1]}}}, nil
	case KindM:
		return NoisePlan{{Channel: m.measure, Targets: []int{cmd.Node}}}, nil
	case KindX:
		return NoisePlan{{Channel: m.x, Targets: []int{cmd.Node}}}, nil
	case KindZ:
		return NoisePlan{{Channel: m.z, Targets: []int{cmd.Node}}}, nil
	case KindC, KindT:
		return nil, nil
	}
	return nil, applicationError("DepolarisingNoiseModel", "unknown command kind %v", cmd.Kind)
}

// ConfuseResult flips outcome with probability MeasureError, drawing from
// the injected generator.
func (m *DepolarisingNoiseModel) ConfuseResult(outcome bool) bool {
	if m.rng.Float64() < m.probs.MeasureError {
		return !outcome
	}
	return outcome
}
