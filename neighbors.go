package densim

import "math/rand/v2"

/*
NeighborsNoiseModel applies each configured channel to every arity-sized
combination of the neighbors touched by a command. An N-keyed channel of
arity 1 additionally hits the freshly prepared node itself. A neighborhood
smaller than the channel arity yields no noise and a warning.
*/
type NeighborsNoiseModel struct {
	*graphNoiseModel
}

// NewNeighborsNoiseModel builds a neighbors model over spec.
func NewNeighborsNoiseModel(spec ChannelSpec, rng *rand.Rand, opts ...GraphModelOption) *NeighborsNoiseModel {
	m := newGraphNoiseModel("NeighborsNoiseModel", spec, rng, CombinationPolicy{}, opts...)
	m.localPrepare = true
	return &NeighborsNoiseModel{graphNoiseModel: m}
}
