package densim

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSampler(t *testing.T) {
	Convey("Given a sampler over the Hadamard pattern", t, func() {
		cfg := NewConfig()
		cfg.Seed = 42
		cfg.Workers = 3

		Convey("When every shot is noiseless", func() {
			results, err := NewSampler(cfg).Run(context.Background(), hadamardPattern(), 10)
			So(err, ShouldBeNil)
			So(results, ShouldHaveLength, 10)

			Convey("Then the average is the ideal state", func() {
				avg, err := Average(results)
				So(err, ShouldBeNil)
				So(allClose(avg, []complex128{1, 0, 0, 0}), ShouldBeTrue)
			})
		})

		Convey("When shots use a fresh graph-driven model each", func() {
			dep := mustChannel(DepolarisingChannel(0.3))
			s := NewSampler(cfg, WithModelFactory(func(rng *rand.Rand) (NoiseModel, error) {
				return NewNeighborsNoiseModel(ChannelSpec{"M": dep}, rng), nil
			}))

			results, err := s.Run(context.Background(), hadamardPattern(), 6)
			So(err, ShouldBeNil)

			Convey("Then every shot sees the same neighborhood", func() {
				for _, res := range results {
					So(allClose(res.State.Matrix(), []complex128{0.8, 0, 0, 0.2}), ShouldBeTrue)
				}
			})

			Convey("Then the sampler merges the shot metrics", func() {
				So(s.Metrics().Runs, ShouldEqual, int64(6))
				So(s.Metrics().ChannelsApplied, ShouldEqual, int64(6))
				So(s.Metrics().KrausTerms, ShouldEqual, int64(24))
				So(s.Metrics().CommandCount(KindE), ShouldEqual, int64(6))
			})
		})

		Convey("When built from a noise configuration", func() {
			nc, err := ParseNoiseConfig([]byte("model: depolarising\nmeasure_error_prob: 1.0\n"))
			So(err, ShouldBeNil)

			results, err := NewSampler(cfg, WithNoiseConfig(nc)).Run(context.Background(), hadamardPattern(), 4)
			So(err, ShouldBeNil)

			avg, err := Average(results)
			So(err, ShouldBeNil)
			So(allClose(avg, []complex128{0, 0, 0, 1}), ShouldBeTrue)
		})

		Convey("When the seed is fixed", func() {
			a, err := NewSampler(cfg).Run(context.Background(), rzPattern(0.4), 5)
			So(err, ShouldBeNil)
			b, err := NewSampler(cfg).Run(context.Background(), rzPattern(0.4), 5)
			So(err, ShouldBeNil)

			Convey("Then outcomes repeat shot by shot", func() {
				for i := range a {
					So(a[i].Outcomes, ShouldResemble, b[i].Outcomes)
				}
			})
		})

		Convey("When a shot fails", func() {
			boom := errors.New("boom")
			_, err := NewSampler(cfg, WithModelFactory(func(*rand.Rand) (NoiseModel, error) {
				return nil, boom
			})).Run(context.Background(), hadamardPattern(), 4)

			So(errors.Is(err, boom), ShouldBeTrue)
		})

		Convey("When the shot count is negative", func() {
			_, err := NewSampler(cfg).Run(context.Background(), hadamardPattern(), -1)
			So(errors.Is(err, ErrApplication), ShouldBeTrue)
		})
	})

	Convey("Given no results", t, func() {
		_, err := Average(nil)
		So(errors.Is(err, ErrApplication), ShouldBeTrue)
	})
}

func TestMetrics(t *testing.T) {
	Convey("Given two metrics instances", t, func() {
		a, b := NewMetrics(), NewMetrics()
		ch := mustChannel(TwoQubitDepolarisingChannel(0.1))

		a.recordCommand(KindN)
		a.recordChannel(ch)
		b.recordCommand(KindN)
		b.recordCommand(KindM)
		b.recordConfused()
		b.recordShortfalls(2)

		Convey("Merge should sum the counters", func() {
			a.Merge(b)
			So(a.CommandCount(KindN), ShouldEqual, int64(2))
			So(a.CommandCount(KindM), ShouldEqual, int64(1))
			So(a.KrausTerms, ShouldEqual, int64(16))
			So(a.ConfusedOutcomes, ShouldEqual, int64(1))
			So(a.ArityShortfalls, ShouldEqual, int64(2))
		})

		Convey("Merging with itself or nil should be a no-op", func() {
			a.Merge(a)
			a.Merge(nil)
			So(a.CommandCount(KindN), ShouldEqual, int64(1))
		})

		Convey("ExportMetrics should key commands by kind", func() {
			exported := b.ExportMetrics()
			So(exported["commands"], ShouldResemble, map[string]int64{"N": 1, "M": 1})
			So(exported["arity_shortfalls"], ShouldEqual, int64(2))
		})
	})
}
