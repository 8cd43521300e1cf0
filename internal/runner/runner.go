// Package runner computes a batch of configured indicator requests over one
// candle table.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-ta/internal/config"
	"github.com/rxtech-lab/argo-ta/internal/datasource"
	"github.com/rxtech-lab/argo-ta/internal/logger"
	"github.com/rxtech-lab/argo-ta/internal/types"
	"github.com/rxtech-lab/argo-ta/pkg/errors"
	"github.com/rxtech-lab/argo-ta/pkg/indicator"
	"github.com/rxtech-lab/argo-ta/pkg/ta"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// OnProgressCallback is called after each finished request with the number
// of finished requests and the total.
type OnProgressCallback func(done int, total int)

// Result is the output of one request.
type Result struct {
	Name      string
	Indicator types.IndicatorType
	Output    indicator.Output
}

// Report collects the results of a run in request order. Times holds the
// candle timestamps the result rows belong to: every candle in Sequential
// mode, only the last one in Latest mode.
type Report struct {
	RunID    string
	Mode     ta.Mode
	Times    []int64
	Results  []Result
	Duration time.Duration
}

// Runner configures indicators from the registry and computes them in
// parallel. Each request runs on its own indicator copy.
type Runner struct {
	registry indicator.IndicatorRegistry
	logger   *logger.Logger
	workers  int
}

// NewRunner creates a runner computing at most workers requests at once.
// workers <= 0 means one. A nil logger discards log output.
func NewRunner(registry indicator.IndicatorRegistry, log *logger.Logger, workers int) *Runner {
	if workers <= 0 {
		workers = 1
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Runner{
		registry: registry,
		logger:   log,
		workers:  workers,
	}
}

type job struct {
	request   config.Request
	indicator indicator.Indicator
}

// prepare resolves and configures every request before anything is
// computed, so a bad request fails the run without partial work.
func (r *Runner) prepare(requests []config.Request) ([]job, error) {
	jobs := make([]job, 0, len(requests))

	for _, req := range requests {
		ind, err := r.registry.GetIndicator(req.Indicator)
		if err != nil {
			return nil, fmt.Errorf("request %s: %w", req.Name, err)
		}

		if err := indicator.ConfigFromMap(ind, req.Params); err != nil {
			return nil, fmt.Errorf("request %s: %w", req.Name, err)
		}

		jobs = append(jobs, job{request: req, indicator: ind})
	}

	return jobs, nil
}

// Run computes requests over candles. The first failing request cancels
// the remaining ones and its error is returned.
func (r *Runner) Run(
	ctx context.Context,
	candles ta.Candles,
	requests []config.Request,
	mode ta.Mode,
	onProgress optional.Option[OnProgressCallback],
) (*Report, error) {
	if len(requests) == 0 {
		return nil, errors.New(errors.ErrCodeMissingParameter, "no requests to run")
	}

	jobs, err := r.prepare(requests)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RunID:   uuid.New().String(),
		Mode:    mode,
		Times:   times(candles, mode),
		Results: make([]Result, len(jobs)),
	}

	log := r.logger.With(zap.String("run_id", report.RunID))
	log.Info("Starting run",
		zap.Int("requests", len(jobs)),
		zap.Int("candles", len(candles)),
		zap.String("mode", mode.String()),
		zap.Int("workers", r.workers),
	)

	started := time.Now()

	var (
		mu   sync.Mutex
		done int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, j := range jobs {
		i, j := i, j // per-iteration copies; go directive is 1.21
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			out, err := j.indicator.Compute(candles, mode)
			if err != nil {
				log.Error("Request failed",
					zap.String("request", j.request.Name),
					zap.String("indicator", string(j.request.Indicator)),
					zap.Error(err),
				)

				return fmt.Errorf("request %s: %w", j.request.Name, err)
			}

			report.Results[i] = Result{
				Name:      j.request.Name,
				Indicator: j.request.Indicator,
				Output:    out,
			}

			log.Debug("Request finished",
				zap.String("request", j.request.Name),
				zap.Strings("lines", out.Names()),
			)

			mu.Lock()
			done++
			n := done
			mu.Unlock()

			if onProgress.IsSome() {
				onProgress.Unwrap()(n, len(jobs))
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Duration = time.Since(started)
	log.Info("Run finished", zap.Duration("duration", report.Duration))

	return report, nil
}

// RunConfig loads the candles cfg selects from ds and runs its requests.
func (r *Runner) RunConfig(
	ctx context.Context,
	cfg *config.Config,
	ds datasource.DataSource,
	onProgress optional.Option[OnProgressCallback],
) (*Report, error) {
	candles, err := ds.ReadCandles(datasource.Query{
		Symbol: cfg.Symbol,
		Start:  cfg.Start,
		End:    cfg.End,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read candles: %w", err)
	}

	return r.Run(ctx, candles, cfg.Requests, cfg.Mode(), onProgress)
}

func times(candles ta.Candles, mode ta.Mode) []int64 {
	if len(candles) == 0 {
		return []int64{}
	}

	if mode == ta.Latest {
		return []int64{candles[len(candles)-1].Timestamp()}
	}

	out := make([]int64, len(candles))
	for i, c := range candles {
		out[i] = c.Timestamp()
	}

	return out
}
