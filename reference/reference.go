// Package reference holds the precomputed figures the dashboard displays before any model
// is run against the backend: published accuracy metrics, dataset splits, the indicator
// catalog and a description of every model.
package reference

import (
	"errors"
	"fmt"
	"sort"

	"github.com/aouyang1/go-gsec/bondapi"
)

var ErrNoReference = errors.New("no reference data")

// Metrics are published accuracy figures for one model and bond. R2 is nil where the model
// does not report one.
type Metrics struct {
	MAPE float64
	MAE  float64
	MSE  float64
	R2   *float64
}

func r2(v float64) *float64 {
	return &v
}

var metrics = map[bondapi.Model]map[bondapi.Bond]Metrics{
	bondapi.ModelLinearRegression: {
		bondapi.Bond3yr:  {MAPE: 0.0108, MAE: 0.0762, MSE: 0.0092, R2: r2(0.7008)},
		bondapi.Bond10yr: {MAPE: 0.0114, MAE: 0.0817, MSE: 0.0077, R2: r2(0.7743)},
	},
	bondapi.ModelARIMA: {
		bondapi.Bond3yr:  {MAPE: 0.0199, MAE: 0.1391, MSE: 0.0321},
		bondapi.Bond10yr: {MAPE: 0.0362, MAE: 0.2551, MSE: 0.0968},
	},
	bondapi.ModelLSTM: {
		bondapi.Bond3yr:  {MAPE: 0.0090, MAE: 0.0633, MSE: 0.0078, R2: r2(0.7556)},
		bondapi.Bond10yr: {MAPE: 0.0062, MAE: 0.0450, MSE: 0.0035, R2: r2(0.8894)},
	},
	bondapi.ModelXGBoost: {
		bondapi.Bond3yr:  {MAPE: 0.0018, MAE: 0.0753, MSE: 0.0101, R2: r2(0.9890)},
		bondapi.Bond10yr: {MAPE: 0.0013, MAE: 0.0398, MSE: 0.0026, R2: r2(0.9938)},
	},
}

// ModelMetrics returns the published metrics of model on bond.
func ModelMetrics(model bondapi.Model, bond bondapi.Bond) (Metrics, error) {
	byBond, exists := metrics[model]
	if !exists {
		return Metrics{}, fmt.Errorf("model %s, %w", model, ErrNoReference)
	}
	m, exists := byBond[bond]
	if !exists {
		return Metrics{}, fmt.Errorf("model %s bond %s, %w", model, bond, ErrNoReference)
	}
	return m, nil
}

// Ranked returns the models with published metrics for bond ordered by ascending MAPE.
func Ranked(bond bondapi.Bond) []bondapi.Model {
	var out []bondapi.Model
	for _, m := range bondapi.Models() {
		if _, exists := metrics[m][bond]; exists {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return metrics[out[i]][bond].MAPE < metrics[out[j]][bond].MAPE
	})
	return out
}

// BestModel returns the model with the lowest published MAPE on bond.
func BestModel(bond bondapi.Bond) (bondapi.Model, error) {
	ranked := Ranked(bond)
	if len(ranked) == 0 {
		return "", fmt.Errorf("bond %s, %w", bond, ErrNoReference)
	}
	return ranked[0], nil
}

// DatasetSplit is the number of observations in the dataset of a bond and how they were
// divided for training and testing.
type DatasetSplit struct {
	Total    int
	Training int
	Testing  int
}

// TrainingFraction is the share of observations used for training.
func (d DatasetSplit) TrainingFraction() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Training) / float64(d.Total)
}

var splits = map[bondapi.Bond]DatasetSplit{
	bondapi.Bond3yr:  {Total: 2943, Training: 2354, Testing: 589},
	bondapi.Bond10yr: {Total: 2945, Training: 2356, Testing: 589},
}

func Split(bond bondapi.Bond) (DatasetSplit, error) {
	s, exists := splits[bond]
	if !exists {
		return DatasetSplit{}, fmt.Errorf("bond %s, %w", bond, ErrNoReference)
	}
	return s, nil
}

// Trend is the direction of an indicator's latest change.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
)

// MacroReading is a headline macroeconomic figure with its latest change.
type MacroReading struct {
	Name   string
	Value  float64
	Change float64
	Trend  Trend
}

var macroSnapshot = []MacroReading{
	{Name: "GDP Growth", Value: 6.8, Change: 2.3, Trend: TrendUp},
	{Name: "Inflation Rate", Value: 5.2, Change: -0.8, Trend: TrendDown},
	{Name: "Interest Rate", Value: 6.5, Change: 0.25, Trend: TrendUp},
	{Name: "Exchange Rate", Value: 82.5, Change: -1.2, Trend: TrendDown},
}

func MacroSnapshot() []MacroReading {
	out := make([]MacroReading, len(macroSnapshot))
	copy(out, macroSnapshot)
	return out
}

// ModelInfo describes a model family as shown on the model cards.
type ModelInfo struct {
	Model   bondapi.Model
	Type    string
	Tagline string
	Params  [][2]string
	Color   string
}

var modelInfo = map[bondapi.Model]ModelInfo{
	bondapi.ModelLinearRegression: {
		Model:   bondapi.ModelLinearRegression,
		Type:    "Classical Statistical",
		Tagline: "Baseline benchmark, fast and interpretable",
		Params: [][2]string{
			{"Features", "50 macro indicators"},
			{"Method", "Ordinary Least Squares"},
			{"Scaling", "Z-score normalisation"},
			{"Train split", "80% (2,354 points)"},
		},
		Color: "#38bdf8",
	},
	bondapi.ModelARIMA: {
		Model:   bondapi.ModelARIMA,
		Type:    "Time-Series Statistical",
		Tagline: "Captures autocorrelation in yield movements",
		Params: [][2]string{
			{"Order (3Y)", "ARIMA(2,1,2)"},
			{"Order (10Y)", "ARIMA(1,1,1)"},
			{"Stationarity", "ADF-tested, d=1"},
			{"Scope", "Univariate (yield only)"},
		},
		Color: "#fb923c",
	},
	bondapi.ModelLSTM: {
		Model:   bondapi.ModelLSTM,
		Type:    "Deep Learning (Recurrent)",
		Tagline: "Stacked LSTM over long-range yield dependencies",
		Params: [][2]string{
			{"Seq length", "60 trading days"},
			{"Architecture", "LSTM(128) -> LSTM(64) -> Dense(1)"},
			{"Optimiser", "Adam (lr=0.001)"},
			{"Epochs", "200, batch=32, dropout=0.2"},
		},
		Color: "#c084fc",
	},
	bondapi.ModelXGBoost: {
		Model:   bondapi.ModelXGBoost,
		Type:    "Gradient Boosted Trees (Ensemble)",
		Tagline: "Best performer, top feature by SHAP is crude oil",
		Params: [][2]string{
			{"Trees", "200 estimators"},
			{"Max depth", "6"},
			{"Learning rate", "0.1"},
			{"Subsample", "0.8, colsample=0.8"},
		},
		Color: "#34d399",
	},
}

// ActualColor is the line color of observed yields on every chart.
const ActualColor = "#e2e8f0"

func Model(m bondapi.Model) (ModelInfo, error) {
	info, exists := modelInfo[m]
	if !exists {
		return ModelInfo{}, fmt.Errorf("model %s, %w", m, ErrNoReference)
	}
	return info, nil
}

// Color returns the accent color of the model, falling back to the linear regression blue.
func Color(m bondapi.Model) string {
	if info, exists := modelInfo[m]; exists {
		return info.Color
	}
	return modelInfo[bondapi.ModelLinearRegression].Color
}
