package densim

import (
	"fmt"
	"math/rand/v2"
	"os"
	"runtime"

	"github.com/theapemachine/errnie"
	"gopkg.in/yaml.v3"
)

// Config holds run-level settings shared by Simulator and Sampler.
type Config struct {
	// ProbabilisticMeasure selects branches by the Born rule; when false every
	// outcome is a fair coin regardless of the state.
	ProbabilisticMeasure bool
	// Seed feeds the per-shot generators of the Sampler.
	Seed    uint64
	Workers int
	Engine  EngineKind
}

func NewConfig() *Config {
	return &Config{
		ProbabilisticMeasure: true,
		Seed:                 0,
		Workers:              runtime.GOMAXPROCS(0),
		Engine:               ReferenceEngine,
	}
}

// ChannelConfig describes one catalogue channel in a noise configuration file.
type ChannelConfig struct {
	Type string  `yaml:"type"`
	Prob float64 `yaml:"prob"`
}

// Build constructs the described channel.
func (cc ChannelConfig) Build() (*KrausChannel, error) {
	switch cc.Type {
	case "depolarising", "depolarizing":
		return DepolarisingChannel(cc.Prob)
	case "dephasing":
		return DephasingChannel(cc.Prob)
	case "two_qubit_depolarising":
		return TwoQubitDepolarisingChannel(cc.Prob)
	case "two_qubit_depolarising_tensor":
		return TwoQubitDepolarisingTensorChannel(cc.Prob)
	}
	return nil, constructionError("channel config", "unknown channel type %q", cc.Type)
}

/*
NoiseConfig is the YAML form of a noise model:

	model: neighbors
	channels:
	  input: {type: depolarising, prob: 1.0}
	  E: {type: depolarising, prob: 0.01}
	seed_edges: [[0, 1]]

Depolarising probabilities are read from the top level for the depolarising
model.
*/
type NoiseConfig struct {
	Model                     string                   `yaml:"model"`
	DepolarisingProbabilities `yaml:",inline"`
	Channels                  map[string]ChannelConfig `yaml:"channels"`
	SeedNodes                 []int                    `yaml:"seed_nodes"`
	SeedEdges                 [][2]int                 `yaml:"seed_edges"`
}

// ParseNoiseConfig decodes a YAML noise configuration.
func ParseNoiseConfig(data []byte) (*NoiseConfig, error) {
	var cfg NoiseConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse noise config: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = "noiseless"
	}
	return &cfg, nil
}

// LoadNoiseConfig reads and decodes a YAML noise configuration file.
func LoadNoiseConfig(path string) (*NoiseConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read noise config: %w", err)
	}
	return ParseNoiseConfig(data)
}

// ChannelSpec builds the channel specification, skipping unrecognized keys.
func (nc *NoiseConfig) ChannelSpec() (ChannelSpec, error) {
	spec := make(ChannelSpec, len(nc.Channels))

	for key, cc := range nc.Channels {
		k := ChannelKey(key)
		if !k.valid() {
			errnie.Warn("NoiseConfig - ignoring channel for unrecognized key %q", key)
			continue
		}

		ch, err := cc.Build()
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", key, err)
		}
		spec[k] = ch
	}
	return spec, nil
}

// BuildNoiseModel turns the configuration into a fresh model for one run.
func (nc *NoiseConfig) BuildNoiseModel(rng *rand.Rand) (NoiseModel, error) {
	switch nc.Model {
	case "", "noiseless":
		return NoiselessNoiseModel{}, nil
	case "depolarising", "depolarizing":
		m, err := NewDepolarisingNoiseModel(nc.DepolarisingProbabilities, rng)
		if err != nil {
			return nil, err
		}
		return m, nil
	}

	spec, err := nc.ChannelSpec()
	if err != nil {
		return nil, err
	}

	var opts []GraphModelOption
	if len(nc.SeedNodes) > 0 || len(nc.SeedEdges) > 0 {
		opts = append(opts, WithSeedGraph(SeedGraph(nc.SeedNodes, nc.SeedEdges)))
	}

	switch nc.Model {
	case "neighbors":
		return NewNeighborsNoiseModel(spec, rng, opts...), nil
	case "crosstalk":
		m, err := NewEntanglementCrossTalkNoiseModel(spec, rng, opts...)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, constructionError("noise config", "unknown model %q", nc.Model)
}
