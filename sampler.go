package densim

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/theapemachine/errnie"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/cmplxs"
)

// ModelFactory returns a fresh noise model for one shot. Graph-driven models
// carry per-run state, so shots must never share one.
type ModelFactory func(rng *rand.Rand) (NoiseModel, error)

// SamplerOption configures a Sampler.
type SamplerOption func(*Sampler)

// WithModelFactory sets the per-shot noise model factory.
func WithModelFactory(factory ModelFactory) SamplerOption {
	return func(s *Sampler) {
		s.factory = factory
	}
}

// WithNoiseConfig builds every shot's model from a parsed noise configuration.
func WithNoiseConfig(nc *NoiseConfig) SamplerOption {
	return func(s *Sampler) {
		s.factory = nc.BuildNoiseModel
	}
}

/*
Sampler runs independent shots of one pattern concurrently. Shot i draws from
rand.NewPCG(Config.Seed, i) and owns its engine and noise model, so results
depend only on the seed and the shot number, never on scheduling.
*/
type Sampler struct {
	cfg     *Config
	factory ModelFactory
	metrics *Metrics
}

func NewSampler(cfg *Config, opts ...SamplerOption) *Sampler {
	if cfg == nil {
		cfg = NewConfig()
	}

	s := &Sampler{
		cfg: cfg,
		factory: func(*rand.Rand) (NoiseModel, error) {
			return NoiselessNoiseModel{}, nil
		},
		metrics: NewMetrics(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Metrics returns the totals over every shot run so far.
func (s *Sampler) Metrics() *Metrics { return s.metrics }

// Run executes shots runs of pattern and returns them in shot order. The
// first failing shot cancels the rest.
func (s *Sampler) Run(ctx context.Context, pattern Pattern, shots int) ([]*Result, error) {
	if shots < 0 {
		return nil, applicationError("sampler", "negative shot count %d", shots)
	}

	results := make([]*Result, shots)

	g, ctx := errgroup.WithContext(ctx)
	if s.cfg.Workers > 0 {
		g.SetLimit(s.cfg.Workers)
	}

	for shot := 0; shot < shots; shot++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewPCG(s.cfg.Seed, uint64(shot)))

			model, err := s.factory(rng)
			if err != nil {
				return fmt.Errorf("shot %d: %w", shot, err)
			}

			res, err := NewSimulator(model, rng, s.cfg).Run(ctx, pattern)
			if err != nil {
				return fmt.Errorf("shot %d: %w", shot, err)
			}

			results[shot] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		errnie.Error(err)
		return nil, err
	}

	for _, res := range results {
		s.metrics.Merge(res.Metrics)
	}

	errnie.Debug("Sampler - %d shots of %d commands", shots, len(pattern.Commands))

	return results, nil
}

// Average returns the mean output density matrix over results.
func Average(results []*Result) ([]complex128, error) {
	if len(results) == 0 {
		return nil, applicationError("average", "no results")
	}

	var acc []complex128
	for i, res := range results {
		m := res.State.Matrix()
		if i == 0 {
			acc = make([]complex128, len(m))
		} else if len(m) != len(acc) {
			return nil, applicationError("average", "result %d has dimension %d, want %d", i, len(m), len(acc))
		}
		cmplxs.Add(acc, m)
	}

	cmplxs.Scale(complex(1/float64(len(results)), 0), acc)
	return acc, nil
}
