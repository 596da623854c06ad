package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-sequential-optics/pkg/core"
	"github.com/df07/go-sequential-optics/pkg/sequential"
	"github.com/df07/go-sequential-optics/pkg/trace"
)

// RaySample is one ray of a batch: where it starts in field and pupil, the
// wavelength it is traced at, and once traced, its result.
type RaySample struct {
	Field      int
	Wavelength float64
	Pupil      [2]float64
	Result     *trace.Result
}

// runBatch calls fn for every index in [0, n) on a bounded worker group. The
// first error cancels the remaining work and is returned.
func runBatch(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return fn(gctx, i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// TraceRays traces every sample against m and stores the results in place.
// One path snapshot per wavelength is shared by all workers. A failing ray
// stops the batch with a *SampleError naming it.
func TraceRays(ctx context.Context, m *sequential.Model, spec OpticalSpec, cfg Config, samples []RaySample) error {
	return traceRays(ctx, "trace_rays", m, spec, cfg, samples)
}

func traceRays(ctx context.Context, operation string, m *sequential.Model, spec OpticalSpec, cfg Config, samples []RaySample) (err error) {
	ctx, span := startBatchSpan(ctx, operation, len(samples))
	start := time.Now()
	defer func() {
		recordBatchMetrics(ctx, operation, len(samples), time.Since(start), err)
		endBatchSpan(span, err)
	}()

	paths := make(map[float64]*sequential.Path)
	for _, s := range samples {
		if _, ok := paths[s.Wavelength]; ok {
			continue
		}
		path, err := m.Path(s.Wavelength)
		if err != nil {
			return err
		}
		paths[s.Wavelength] = path
	}

	log := cfg.logger()
	log.Debug("tracing batch",
		slog.String("operation", operation),
		slog.Int("rays", len(samples)),
		slog.Int("wavelengths", len(paths)))

	err = runBatch(ctx, cfg.Workers, len(samples), func(ctx context.Context, i int) error {
		s := &samples[i]
		pt0, dir0, err := spec.RayStart(s.Field, s.Pupil)
		if err != nil {
			return fmt.Errorf("analysis: ray start for field %d: %w", s.Field, err)
		}
		res, err := trace.Trace(paths[s.Wavelength], pt0, dir0, cfg.Tolerance)
		recordRay(err)
		if err != nil {
			log.Warn("ray failed",
				slog.String("operation", operation),
				slog.Int("field", s.Field),
				slog.Float64("wavelength", s.Wavelength),
				slog.Float64("px", s.Pupil[0]),
				slog.Float64("py", s.Pupil[1]),
				slog.String("outcome", trace.Outcome(err)))
			return &SampleError{Field: s.Field, Wavelength: s.Wavelength, Pupil: s.Pupil, Err: err}
		}
		s.Result = res
		return nil
	})
	return err
}

// TraceRay traces a single ray of field fi through pupil at wavelength wvl
func TraceRay(m *sequential.Model, spec OpticalSpec, fi int, pupil [2]float64, wvl float64, cfg Config) (*trace.Result, error) {
	pt0, dir0, err := spec.RayStart(fi, pupil)
	if err != nil {
		return nil, err
	}
	res, err := trace.TraceModel(m, pt0, dir0, wvl, cfg.Tolerance)
	recordRay(err)
	if err != nil {
		return nil, &SampleError{Field: fi, Wavelength: wvl, Pupil: pupil, Err: err}
	}
	return res, nil
}

// imagePoint returns the image-plane intersection of a traced ray
func imagePoint(res *trace.Result) core.Vec3 {
	return res.Last().Point
}
