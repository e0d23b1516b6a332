package gsec

import (
	"time"

	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/aouyang1/go-gsec/reference"
	"github.com/aouyang1/go-gsec/score"
	"github.com/aouyang1/go-gsec/timedataset"
)

// Run is one compute call against the backend and everything derived from its payload.
type Run struct {
	Bond  bondapi.Bond
	Model bondapi.Model

	// Result is the payload exactly as the backend returned it.
	Result  *bondapi.ComputeResult
	Dataset *timedataset.TimeDataset

	// Scores are recomputed locally from the chart data.
	Scores *score.Scores

	// Reference is nil when no published metrics exist for the model and bond.
	Reference *reference.Metrics

	// Consistent is set when Scores agree with the backend metrics within the dashboard's
	// MetricTolerance.
	Consistent bool

	// Outliers are indexes into Dataset whose residual falls outside the Tukey fences.
	Outliers []int

	Elapsed time.Duration
}

// Residuals returns predicted minus actual for every observation.
func (r *Run) Residuals() []float64 {
	return r.Dataset.Residuals()
}
