package densim

import "math/rand/v2"

/*
EntanglementCrossTalkNoiseModel hits every neighbor touched by a command
with the configured single-qubit channel, independently per neighbor.
*/
type EntanglementCrossTalkNoiseModel struct {
	*graphNoiseModel
}

// NewEntanglementCrossTalkNoiseModel builds a cross-talk model. Every channel
// in spec must act on exactly one qubit.
func NewEntanglementCrossTalkNoiseModel(
	spec ChannelSpec, rng *rand.Rand, opts ...GraphModelOption,
) (*EntanglementCrossTalkNoiseModel, error) {
	for key, ch := range spec {
		if ch != nil && ch.Nqubit() != 1 {
			return nil, constructionError(
				"entanglement cross talk", "channel for %q acts on %d qubits, want 1", key, ch.Nqubit(),
			)
		}
	}

	m := newGraphNoiseModel("EntanglementCrossTalkNoiseModel", spec, rng, BroadcastPolicy{}, opts...)
	return &EntanglementCrossTalkNoiseModel{graphNoiseModel: m}, nil
}
