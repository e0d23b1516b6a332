// Package gsec runs G-Sec yield forecasts against the bond forecast backend and turns the
// results into reports: recomputed accuracy metrics, comparisons with the published
// figures and ECharts pages.
package gsec

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/aouyang1/go-gsec/reference"
	"github.com/aouyang1/go-gsec/score"
	"github.com/aouyang1/go-gsec/timedataset"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	ErrNoModels = errors.New("no models to compare")
	ErrNoRuns   = errors.New("no runs to report")
)

// Predictor computes a model's test split forecast for a bond. *bondapi.Client satisfies
// it.
type Predictor interface {
	Compute(ctx context.Context, bondType, modelName string) (*bondapi.ComputeResult, error)
}

type Dashboard struct {
	client Predictor
	opt    *Options
	logger *zap.Logger

	now func() time.Time
}

// New creates a Dashboard backed by client. If no options are provided a default is used.
func New(client Predictor, opt *Options) *Dashboard {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.OutlierOptions == nil {
		opt.OutlierOptions = NewOutlierOptions()
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}
	return &Dashboard{
		client: client,
		opt:    opt,
		logger: opt.Logger.Named("dashboard"),
		now:    time.Now,
	}
}

// Run computes modelName on bondType and scores the returned chart data. Names are
// dashboard names, e.g. "10-year" and "XGBoost".
func (d *Dashboard) Run(ctx context.Context, bondType, modelName string) (*Run, error) {
	start := d.now()
	res, err := d.client.Compute(ctx, bondType, modelName)
	if err != nil {
		return nil, err
	}
	elapsed := d.now().Sub(start)

	if err := res.Validate(); err != nil {
		return nil, err
	}
	td, err := timedataset.FromChartData(res.ChartData.Dates, res.ChartData.Actual, res.ChartData.Predicted)
	if err != nil {
		return nil, fmt.Errorf("unable to build dataset from chart data, %w", err)
	}
	scores, err := score.NewScores(td.Predicted, td.Actual)
	if err != nil {
		return nil, fmt.Errorf("unable to score chart data, %w", err)
	}

	run := &Run{
		Bond:    bondapi.MapBond(bondType),
		Model:   bondapi.MapModel(modelName),
		Result:  res,
		Dataset: td,
		Scores:  scores,
		Elapsed: elapsed,
	}
	if ref, err := reference.ModelMetrics(run.Model, run.Bond); err == nil {
		run.Reference = &ref
	}

	m := res.Metrics
	run.Consistent = scores.Diff(m.MAPE, m.MAE, m.MSE, m.R2).Within(d.opt.MetricTolerance)

	oo := d.opt.OutlierOptions
	run.Outliers = score.DetectOutliers(td.Residuals(), oo.LowerPercentile, oo.UpperPercentile, oo.TukeyFactor)

	d.logger.Debug("completed run",
		zap.String("bond", string(run.Bond)),
		zap.String("model", string(run.Model)),
		zap.Int("observations", td.Len()),
		zap.Duration("elapsed", elapsed),
		zap.Bool("consistent", run.Consistent),
	)
	return run, nil
}

// Compare runs every model on bondType concurrently. Each compute keeps its own latency
// floor, so the call takes about as long as the slowest model. Runs are returned in the
// order of modelNames. The first failure cancels the remaining computes.
func (d *Dashboard) Compare(ctx context.Context, bondType string, modelNames []string) ([]*Run, error) {
	if len(modelNames) == 0 {
		return nil, ErrNoModels
	}

	runs := make([]*Run, len(modelNames))
	g, gctx := errgroup.WithContext(ctx)
	if d.opt.MaxConcurrency > 0 {
		g.SetLimit(d.opt.MaxConcurrency)
	}
	for i, name := range modelNames {
		g.Go(func() error {
			run, err := d.Run(gctx, bondType, name)
			if err != nil {
				return fmt.Errorf("model %s, %w", name, err)
			}
			runs[i] = run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return runs, nil
}
