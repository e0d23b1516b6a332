package bondapi

import (
	"errors"
	"fmt"

	"cloud.google.com/go/civil"
)

var ErrChartDataMismatch = errors.New("chart data series have different lengths")

// ComputeRequest is the body sent to the compute endpoint.
type ComputeRequest struct {
	Model    Model `json:"model"`
	BondType Bond  `json:"bond_type"`
}

// ComputeResult is the backend's response to a compute call. Each index of Dates, Actual
// and Predicted refers to the same observation.
type ComputeResult struct {
	ChartData ChartData `json:"chart_data"`
	Metrics   Metrics   `json:"metrics"`
}

type ChartData struct {
	Dates     []string  `json:"dates"`
	Actual    []float64 `json:"actual"`
	Predicted []float64 `json:"predicted"`
}

// Metrics are the accuracy scores reported by the backend. R2 is nil for models that do
// not report one, e.g. arima.
type Metrics struct {
	MAPE float64  `json:"mape"`
	MAE  float64  `json:"mae"`
	MSE  float64  `json:"mse"`
	R2   *float64 `json:"r2"`
}

// Validate checks that the chart data series are index aligned. The client never calls
// this itself; the payload is returned as the backend sent it.
func (r *ComputeResult) Validate() error {
	cd := r.ChartData
	if len(cd.Dates) != len(cd.Actual) || len(cd.Dates) != len(cd.Predicted) {
		return fmt.Errorf(
			"dates=%d actual=%d predicted=%d, %w",
			len(cd.Dates), len(cd.Actual), len(cd.Predicted), ErrChartDataMismatch,
		)
	}
	return nil
}

// DateRange holds the bounds of the backend's test split for a bond type.
type DateRange struct {
	BondType Bond       `json:"bond_type"`
	MinDate  civil.Date `json:"min_date"`
	MaxDate  civil.Date `json:"max_date"`
}

// Contains reports whether d falls within the range, inclusive of both ends.
func (dr *DateRange) Contains(d civil.Date) bool {
	return !d.Before(dr.MinDate) && !d.After(dr.MaxDate)
}

// FeatureSnapshot is the set of model input features for one date along with the
// observed yield on that date.
type FeatureSnapshot struct {
	Date        civil.Date         `json:"date"`
	BondType    Bond               `json:"bond_type"`
	Features    map[string]float64 `json:"features"`
	ActualYield *float64           `json:"actual_yield"`
}

type predictSingleRequest struct {
	Date     civil.Date `json:"date"`
	BondType Bond       `json:"bond_type"`
	Model    Model      `json:"model"`
}

// SinglePrediction is a model's yield estimate for one date.
type SinglePrediction struct {
	Date           civil.Date `json:"date"`
	BondType       Bond       `json:"bond_type"`
	Model          Model      `json:"model"`
	PredictedYield float64    `json:"predicted_yield"`
	ActualYield    *float64   `json:"actual_yield,omitempty"`
}

// Residual returns predicted minus actual, or false when the backend did not report the
// actual yield for the date.
func (p *SinglePrediction) Residual() (float64, bool) {
	if p.ActualYield == nil {
		return 0, false
	}
	return p.PredictedYield - *p.ActualYield, true
}
