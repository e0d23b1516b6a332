package score

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

var (
	ErrResLenMismatch = errors.New("predicted and actual have different lengths")
	ErrNoObservations = errors.New("no observations to score")
)

// Scores tracks the accuracy of a predicted series against the actual series
type Scores struct {
	MAPE float64 `json:"mape"`
	MAE  float64 `json:"mae"`
	MSE  float64 `json:"mse"`
	R2   float64 `json:"r2"`
}

// NewScores calculates the scores given the predicted and actual input slice values
func NewScores(predicted, actual []float64) (*Scores, error) {
	if len(actual) == 0 {
		return nil, ErrNoObservations
	}
	mse, err := MSE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean squared error, %w", err)
	}
	mae, err := MAE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute error, %w", err)
	}
	mape, err := MAPE(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute mean absolute percent error, %w", err)
	}
	rs, err := RSquared(predicted, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to compute r-squared, %w", err)
	}

	return &Scores{
		MAPE: mape,
		MAE:  mae,
		MSE:  mse,
		R2:   rs,
	}, nil
}

func checkLen(predicted, actual []float64) error {
	if len(predicted) != len(actual) {
		return fmt.Errorf("expected %d, but got %d, %w", len(actual), len(predicted), ErrResLenMismatch)
	}
	return nil
}

// MSE computes the mean squared error. This is the same as sum((y-yhat)^2)/n.
// A score of 0 means a perfect match with no errors.
func MSE(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	var mse float64
	var n int
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mse += math.Pow(actual[i]-predicted[i], 2.0)
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return mse / float64(n), nil
}

// MAE computes the mean absolute error, sum(abs(y-yhat))/n, in the units of the series.
// For yields this is percentage points.
func MAE(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	var mae float64
	var n int
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		mae += math.Abs(actual[i] - predicted[i])
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return mae / float64(n), nil
}

// MAPE calculates the mean absolute percent error as a fraction, sum(abs((y-yhat)/y))/n.
// Points where the actual value is zero are skipped.
func MAPE(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	var mape float64
	var n int
	for i := 0; i < len(actual); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) || actual[i] == 0 {
			continue
		}
		mape += math.Abs((actual[i] - predicted[i]) / actual[i])
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return mape / float64(n), nil
}

// RSquared computes the coefficient of determination of predicted against actual where
// 1.0 means a perfect fit. It can be negative when the prediction is worse than the mean.
func RSquared(predicted, actual []float64) (float64, error) {
	if err := checkLen(predicted, actual); err != nil {
		return 0, err
	}

	predictCopy := make([]float64, 0, len(predicted))
	actualCopy := make([]float64, 0, len(actual))
	for i := 0; i < len(predicted); i++ {
		if math.IsNaN(actual[i]) || math.IsNaN(predicted[i]) {
			continue
		}
		predictCopy = append(predictCopy, predicted[i])
		actualCopy = append(actualCopy, actual[i])
	}
	r2 := stat.RSquaredFrom(predictCopy, actualCopy, nil)
	if math.IsNaN(r2) {
		return 1.0, nil
	}
	return r2, nil
}

// Diff holds the absolute difference between two sets of scores. R2 is NaN when either
// side has no r-squared.
type Diff struct {
	MAPE float64
	MAE  float64
	MSE  float64
	R2   float64
}

// Diff compares s against scores reported elsewhere, e.g. by the backend.
func (s *Scores) Diff(mape, mae, mse float64, r2 *float64) Diff {
	d := Diff{
		MAPE: math.Abs(s.MAPE - mape),
		MAE:  math.Abs(s.MAE - mae),
		MSE:  math.Abs(s.MSE - mse),
		R2:   math.NaN(),
	}
	if r2 != nil {
		d.R2 = math.Abs(s.R2 - *r2)
	}
	return d
}

// Within reports whether every comparable difference is at most tol.
func (d Diff) Within(tol float64) bool {
	if d.MAPE > tol || d.MAE > tol || d.MSE > tol {
		return false
	}
	return math.IsNaN(d.R2) || d.R2 <= tol
}

// TablePrint writes the scores on a single line.
func (s *Scores) TablePrint(w io.Writer) error {
	_, err := fmt.Fprintf(w, "MAPE: %.4f    MAE: %.4f    MSE: %.4f    R2: %.4f\n", s.MAPE, s.MAE, s.MSE, s.R2)
	return err
}

// DetectOutliers returns the indexes of values outside the Tukey fences built from the
// lower and upper percentiles of y.
func DetectOutliers(y []float64, lowerPerc, upperPerc, tukeyFactor float64) []int {
	if len(y) == 0 {
		return nil
	}
	lowerPerc = math.Max(lowerPerc, 0.0)
	upperPerc = math.Min(upperPerc, 1.0)
	tukeyFactor = math.Max(tukeyFactor, 0.0)

	yCopy := make([]float64, 0, len(y))
	for _, v := range y {
		if !math.IsNaN(v) {
			yCopy = append(yCopy, v)
		}
	}
	if len(yCopy) == 0 {
		return nil
	}
	sort.Float64s(yCopy)
	lowerIdx := int(math.Floor(float64(len(yCopy)-1) * lowerPerc))
	upperIdx := int(math.Ceil(float64(len(yCopy)-1) * upperPerc))

	lower := yCopy[lowerIdx]
	upper := yCopy[upperIdx]
	innerRange := upper - lower
	lower -= innerRange * tukeyFactor
	upper += innerRange * tukeyFactor

	var outlierIdx []int
	for i := 0; i < len(y); i++ {
		if y[i] > upper || y[i] < lower {
			outlierIdx = append(outlierIdx, i)
		}
	}
	return outlierIdx
}
