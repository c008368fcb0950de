// Package pipeline wires the six pipeline stages (spec §2, §4, §5) into a
// single job runner: a constructor taking shared dependencies, a Run method
// that logs with a request-scoped *zap.Logger and eris-wraps every stage
// boundary, and an errgroup.WithContext fan-out chaining sequential stages
// through one-shot channels per spec §5's "no fork/join" ordering rule.
package pipeline

import (
	"context"
	"os/exec"
	"strconv"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/hertta/internal/arrowbatch"
	"github.com/sells-group/hertta/internal/config"
	"github.com/sells-group/hertta/internal/elecprice"
	"github.com/sells-group/hertta/internal/expand"
	"github.com/sells-group/hertta/internal/fetcher"
	"github.com/sells-group/hertta/internal/model"
	"github.com/sells-group/hertta/internal/resilience"
	"github.com/sells-group/hertta/internal/resultextract"
	"github.com/sells-group/hertta/internal/store"
	"github.com/sells-group/hertta/internal/timeline"
	"github.com/sells-group/hertta/internal/weather"
	"github.com/sells-group/hertta/internal/zmqtransport"
)

// Request is one job's input, snapshotted at job start per spec §3.2
// ("The base model is created/edited by the front end and snapshotted at
// job start").
type Request struct {
	Base         model.BaseInputData
	Start        time.Time
	TimeSettings model.TimeLineSettings
	Scenarios    []model.Scenario
	// Country and Place override the configured default location; either
	// may be left empty to fall back to Settings.Location.
	Country string
	Place   string
}

// Pipeline runs jobs against one set of settings and job store.
type Pipeline struct {
	settings    *config.Settings
	store       *store.Store
	httpFetcher *fetcher.HTTPFetcher
	breakers    *resilience.ServiceBreakers
}

// New builds a Pipeline. The HTTP fetcher is configured with MaxRetries: 1,
// matching spec §7's "no retries" rule for external-fetch errors -- see
// DESIGN.md. breakers isolates the weather and electricity-price providers
// from each other: once one trips, jobs fail fast against it instead of
// waiting out a fetch that is known to be down.
func New(settings *config.Settings, st *store.Store) *Pipeline {
	return &Pipeline{
		settings: settings,
		store:    st,
		httpFetcher: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			MaxRetries:   1,
			RateLimiters: fetcher.DefaultRateLimiters(),
		}),
		breakers: resilience.NewServiceBreakers(resilience.DefaultCircuitBreakerConfig()),
	}
}

// Run executes one job end to end, writing the Queued -> InProgress ->
// (Failed | Finished) transitions to the store as it proceeds. It never
// returns an error itself: job outcome is observed through the store,
// matching spec §7 "User visibility".
func (p *Pipeline) Run(ctx context.Context, jobID int64, req Request) {
	log := zap.L().With(zap.Int64("job_id", jobID))

	if err := p.store.MarkInProgress(jobID); err != nil {
		log.Error("pipeline: failed to mark job in progress", zap.Error(err))
		return
	}

	outcome, err := p.run(ctx, log, req)
	if err != nil {
		log.Error("pipeline: job failed", zap.Error(err))
		if markErr := p.store.MarkFailed(jobID, err.Error()); markErr != nil {
			log.Error("pipeline: failed to mark job failed", zap.Error(markErr))
		}
		return
	}

	if err := p.store.MarkFinished(jobID, *outcome); err != nil {
		log.Error("pipeline: failed to mark job finished", zap.Error(err))
	}
}

// run chains the stages as goroutines connected by single-shot (capacity 1)
// channels, joined by an errgroup so the first error cancels the rest --
// spec §5's "one-shot channels" stage-wiring model.
func (p *Pipeline) run(ctx context.Context, log *zap.Logger, req Request) (*resultextract.Outcome, error) {
	g, gCtx := errgroup.WithContext(ctx)

	timeLineCh := make(chan []time.Time, 1)
	g.Go(func() error {
		defer close(timeLineCh)
		t := timeline.Materialize(req.Start, req.TimeSettings)
		return send(gCtx, timeLineCh, t)
	})

	expandedCh := make(chan *model.InputData, 1)
	g.Go(func() error {
		defer close(expandedCh)
		t, err := recv(gCtx, timeLineCh, "time line")
		if err != nil {
			return err
		}
		d, err := expand.Expand(req.Base, t, req.Scenarios)
		if err != nil {
			return eris.Wrap(err, "pipeline: expand model")
		}
		return send(gCtx, expandedCh, d)
	})

	fusedCh := make(chan *model.InputData, 1)
	g.Go(func() error {
		defer close(fusedCh)
		d, err := recv(gCtx, expandedCh, "expanded model")
		if err != nil {
			return err
		}
		if err := p.fuseWeather(gCtx, d, req); err != nil {
			return err
		}
		if err := p.fuseElecPrice(gCtx, d, req); err != nil {
			return err
		}
		if err := expand.FinishAndValidate(d); err != nil {
			return eris.Wrap(err, "pipeline: validate expanded model")
		}
		return send(gCtx, fusedCh, d)
	})

	batchesCh := make(chan []arrowbatch.Batch, 1)
	g.Go(func() error {
		defer close(batchesCh)
		d, err := recv(gCtx, fusedCh, "fused model")
		if err != nil {
			return err
		}
		batches, err := arrowbatch.BuildBatches(d)
		if err != nil {
			return eris.Wrap(err, "pipeline: build arrow batches")
		}
		return send(gCtx, batchesCh, batches)
	})

	resultCh := make(chan map[string]arrow.Record, 1)
	g.Go(func() error {
		defer close(resultCh)
		batches, err := recv(gCtx, batchesCh, "arrow batches")
		if err != nil {
			return err
		}
		table, err := p.runSolver(gCtx, log, batches)
		if err != nil {
			return err
		}
		return send(gCtx, resultCh, table)
	})

	var outcome resultextract.Outcome
	g.Go(func() error {
		table, err := recv(gCtx, resultCh, "result table")
		if err != nil {
			return err
		}
		rec, ok := table["v_flow"]
		if !ok {
			return eris.New("pipeline: solver result is missing the v_flow batch")
		}
		decoded, err := resultextract.FromVFlow(rec)
		if err != nil {
			return eris.Wrap(err, "pipeline: decode v_flow result")
		}
		outcome = decoded
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &outcome, nil
}

// send writes v to a single-shot channel, honoring cancellation.
func send[T any](ctx context.Context, ch chan<- T, v T) error {
	select {
	case ch <- v:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// recv reads from a single-shot channel, translating closure-without-value
// into the descriptive error spec §5 "Cancellation and timeouts" mandates.
func recv[T any](ctx context.Context, ch <-chan T, stage string) (T, error) {
	var zero T
	select {
	case v, ok := <-ch:
		if !ok {
			return zero, eris.Errorf("pipeline: downstream channel closed before %s was ready", stage)
		}
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// fuseWeather performs the Weather-forecast fetcher stage (spec §4.2),
// a no-op when no node requests an FMI forecast.
func (p *Pipeline) fuseWeather(ctx context.Context, d *model.InputData, req Request) error {
	if !weather.Applicable(d.Nodes) {
		return nil
	}

	place := req.Place
	if place == "" && p.settings.Location != nil {
		place = p.settings.Location.Place
	}
	if place == "" {
		return eris.Wrap(weather.ErrLocationNotSet, "pipeline: weather fetch")
	}

	start := d.Temporals.T[0]
	end := d.Temporals.T[len(d.Temporals.T)-1]
	step := time.Duration(d.Temporals.Dtf * float64(time.Hour))

	var points []weather.Point
	breaker := p.breakers.Get("weather")
	err := breaker.Execute(ctx, func(ctx context.Context) error {
		return resilience.Do(ctx, resilience.RetryConfig{MaxAttempts: 1}, func(ctx context.Context) error {
			var fetchErr error
			points, fetchErr = weather.Fetch(ctx, p.settings.PythonExec, p.settings.WeatherFetcherScript, start, end, step, place)
			return fetchErr
		})
	})
	if err != nil {
		return eris.Wrap(err, "pipeline: weather fetch")
	}

	if err := weather.Fuse(d.Nodes, points, model.Names(req.Scenarios)); err != nil {
		return eris.Wrap(err, "pipeline: weather fuse")
	}
	return nil
}

// fuseElecPrice performs the Electricity-price fetcher stage (spec §4.3),
// a no-op when no market requests an electricity forecast.
func (p *Pipeline) fuseElecPrice(ctx context.Context, d *model.InputData, req Request) error {
	names, invalid := elecprice.ApplicableMarkets(d.Markets)
	if len(invalid) > 0 {
		return elecprice.UnsupportedForecastNameError(invalid)
	}
	if len(names) == 0 {
		return nil
	}

	country := req.Country
	if country == "" && p.settings.Location != nil {
		country = p.settings.Location.Country
	}

	start := d.Temporals.T[0]
	end := d.Temporals.T[len(d.Temporals.T)-1]

	// The original assumes every applicable market shares one forecast
	// provider per job; take the first one's requested name.
	providerName := d.Markets[names[0]].Price.Forecast.Name

	var points []elecprice.Point
	var err error
	breaker := p.breakers.Get(providerName)
	switch providerName {
	case elecprice.ForecastNameElering:
		err = breaker.Execute(ctx, func(ctx context.Context) error {
			return resilience.Do(ctx, resilience.RetryConfig{MaxAttempts: 1}, func(ctx context.Context) error {
				var fetchErr error
				points, fetchErr = elecprice.FetchElering(ctx, p.httpFetcher, country, start, end)
				return fetchErr
			})
		})
	case elecprice.ForecastNameEntsoe:
		if p.settings.EntsoeAPIToken == nil {
			return eris.New("pipeline: entsoe forecast requested but no api token is configured")
		}
		code, codeErr := elecprice.CountryCode(country)
		if codeErr != nil {
			return eris.Wrap(codeErr, "pipeline: resolve entsoe country code")
		}
		err = breaker.Execute(ctx, func(ctx context.Context) error {
			return resilience.Do(ctx, resilience.RetryConfig{MaxAttempts: 1}, func(ctx context.Context) error {
				var fetchErr error
				points, fetchErr = elecprice.FetchEntsoe(ctx, p.settings.PriceFetcherScript, start, end, code, *p.settings.EntsoeAPIToken)
				return fetchErr
			})
		})
	default:
		return elecprice.UnsupportedForecastNameError([]string{providerName})
	}
	if err != nil {
		return eris.Wrap(err, "pipeline: electricity price fetch")
	}

	fitted, err := elecprice.FitToTimeLine(points, d.Temporals.T)
	if err != nil {
		return eris.Wrap(err, "pipeline: fit electricity prices to time line")
	}
	elecprice.Fuse(d.Markets, fitted, model.Names(req.Scenarios))
	return nil
}

// runSolver performs the Solver transport stage (spec §4.6): bind an
// ephemeral (or configured) REP port, spawn the Predicer runner with that
// port, and conduct the request/reply protocol until results are ready or
// the context is cancelled.
func (p *Pipeline) runSolver(ctx context.Context, log *zap.Logger, batches []arrowbatch.Batch) (map[string]arrow.Record, error) {
	transport, err := zmqtransport.Bind(p.settings.PredicerPort)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: bind solver transport")
	}
	defer func() {
		if closeErr := transport.Close(); closeErr != nil {
			log.Warn("pipeline: failed to close solver transport", zap.Error(closeErr))
		}
	}()

	cmd := exec.CommandContext(ctx, p.settings.SolverExec,
		p.settings.SolverRunnerScript,
		p.settings.SolverProject,
		strconv.Itoa(int(transport.Port())),
	)
	cmd.Dir = p.settings.SolverRunnerProject
	if err := cmd.Start(); err != nil {
		return nil, eris.Wrap(err, "pipeline: start solver process")
	}
	defer func() {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}()

	table, err := zmqtransport.RunCancellable(ctx, transport, batches)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: solver transport")
	}

	if waitErr := cmd.Wait(); waitErr != nil {
		log.Warn("pipeline: solver process exited with a non-zero status after producing results", zap.Error(waitErr))
	}
	return table, nil
}
