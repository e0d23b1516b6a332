package gsec

import "go.uber.org/zap"

// OutlierOptions sets the Tukey fences used to flag residual outliers on a run.
type OutlierOptions struct {
	LowerPercentile float64
	UpperPercentile float64
	TukeyFactor     float64
}

func NewOutlierOptions() *OutlierOptions {
	return &OutlierOptions{
		LowerPercentile: 0.25,
		UpperPercentile: 0.75,
		TukeyFactor:     1.5,
	}
}

type Options struct {
	// MetricTolerance is the largest absolute difference between backend and recomputed
	// metrics for a run to be considered consistent.
	MetricTolerance float64

	// MaxConcurrency caps the computes in flight during Compare. Zero or less means one per
	// model.
	MaxConcurrency int

	PageTitle      string
	OutlierOptions *OutlierOptions
	Logger         *zap.Logger
}

func NewDefaultOptions() *Options {
	return &Options{
		MetricTolerance: 1e-3,
		PageTitle:       "G-Sec Yield Forecast",
		OutlierOptions:  NewOutlierOptions(),
		Logger:          zap.NewNop(),
	}
}
