package densim

import (
	"math/rand/v2"

	"github.com/theapemachine/errnie"
)

// NoiseEntry schedules one channel on a list of node ids.
type NoiseEntry struct {
	Channel *KrausChannel
	Targets []int
}

// NoisePlan is applied entry by entry, in order. Channels generally do not
// commute, so the order is part of the plan.
type NoisePlan []NoiseEntry

/*
NoiseModel decides, per command, which channels hit which qubits. A model is
bound to one run: graph-driven variants mutate their state graph inside
InputNodes and Command, so the execution loop must call them exactly once per
declaration or command, in stream order.
*/
type NoiseModel interface {
	InputNodes(nodes []int) (NoisePlan, error)
	Command(cmd Command) (NoisePlan, error)
	ConfuseResult(outcome bool) bool
}

// ChannelKey addresses a ChannelSpec entry: a command kind or InputKey.
type ChannelKey string

// InputKey is the sentinel key for freshly declared input qubits.
const InputKey ChannelKey = "input"

// KeyOf returns the ChannelSpec key of a command kind.
func KeyOf(kind CommandKind) ChannelKey { return ChannelKey(kind.String()) }

func (k ChannelKey) valid() bool {
	if k == InputKey {
		return true
	}
	for _, kind := range CommandKinds {
		if k == KeyOf(kind) {
			return true
		}
	}
	return false
}

// ChannelSpec maps triggers to channels. A missing entry means no noise for
// that trigger.
type ChannelSpec map[ChannelKey]*KrausChannel

// sanitize copies the recognized, non-nil entries.
func (spec ChannelSpec) sanitize(model string) ChannelSpec {
	out := make(ChannelSpec, len(spec))
	for key, ch := range spec {
		if !key.valid() {
			errnie.Warn("%s - ignoring channel for unrecognized key %q", model, key)
			continue
		}
		if ch != nil {
			out[key] = ch
		}
	}
	return out
}

// ensureRNG returns r, or a generator with a fixed seed when r is nil, so an
// unseeded run is still reproducible.
func ensureRNG(r *rand.Rand) *rand.Rand {
	if r != nil {
		return r
	}
	return rand.New(rand.NewPCG(0, 0))
}

// NoiselessNoiseModel never adds noise and never confuses outcomes.
type NoiselessNoiseModel struct{}

func (NoiselessNoiseModel) InputNodes([]int) (NoisePlan, error) { return nil, nil }

func (NoiselessNoiseModel) Command(Command) (NoisePlan, error) { return nil, nil }

func (NoiselessNoiseModel) ConfuseResult(outcome bool) bool { return outcome }
