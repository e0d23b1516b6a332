package timedataset

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoObservations     = errors.New("no observations")
	ErrNonMontonic        = errors.New("dates are not strictly increasing")
	ErrDatasetLenMismatch = errors.New("dates have a different length than observations")
	ErrInvalidDate        = errors.New("invalid date")
)

// TimeDataset is a daily yield series with the actual and predicted value of every date.
// All slices are of the same length and sorted by date.
type TimeDataset struct {
	Dates     []civil.Date
	T         []time.Time
	Actual    []float64
	Predicted []float64
}

// FromChartData parses the ISO dates returned by the backend and pairs them with the actual
// and predicted series.
func FromChartData(dates []string, actual, predicted []float64) (*TimeDataset, error) {
	parsed := make([]civil.Date, 0, len(dates))
	for i, d := range dates {
		cd, err := civil.ParseDate(d)
		if err != nil {
			return nil, fmt.Errorf("date %q at %d, %w", d, i, ErrInvalidDate)
		}
		parsed = append(parsed, cd)
	}
	return New(parsed, actual, predicted)
}

// New returns an instance of a TimeDataset given dates and both value series.
func New(dates []civil.Date, actual, predicted []float64) (*TimeDataset, error) {
	if len(dates) == 0 {
		return nil, ErrNoObservations
	}
	if len(dates) != len(actual) || len(dates) != len(predicted) {
		return nil, fmt.Errorf(
			"dates has length of %d, actual %d and predicted %d, %w",
			len(dates), len(actual), len(predicted), ErrDatasetLenMismatch,
		)
	}

	for i := 1; i < len(dates); i++ {
		if !dates[i-1].Before(dates[i]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
	}

	td := &TimeDataset{
		Dates:     make([]civil.Date, len(dates)),
		T:         make([]time.Time, len(dates)),
		Actual:    make([]float64, len(dates)),
		Predicted: make([]float64, len(dates)),
	}
	copy(td.Dates, dates)
	copy(td.Actual, actual)
	copy(td.Predicted, predicted)
	for i, d := range dates {
		td.T[i] = d.In(time.UTC)
	}
	return td, nil
}

func (td *TimeDataset) Len() int {
	return len(td.Dates)
}

func (td *TimeDataset) Copy() *TimeDataset {
	out, _ := New(td.Dates, td.Actual, td.Predicted)
	return out
}

// Residuals returns predicted minus actual per date.
func (td *TimeDataset) Residuals() []float64 {
	res := make([]float64, len(td.Predicted))
	floats.SubTo(res, td.Predicted, td.Actual)
	return res
}

// Years returns the distinct calendar years covered, in order.
func (td *TimeDataset) Years() []int {
	seen := make(map[int]struct{})
	for _, d := range td.Dates {
		seen[d.Year] = struct{}{}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Slice returns the observations between start and end inclusive. A nil dataset is
// returned when no dates fall in the range.
func (td *TimeDataset) Slice(start, end civil.Date) *TimeDataset {
	lo := sort.Search(len(td.Dates), func(i int) bool {
		return !td.Dates[i].Before(start)
	})
	hi := sort.Search(len(td.Dates), func(i int) bool {
		return td.Dates[i].After(end)
	})
	if lo >= hi {
		return nil
	}
	out, _ := New(td.Dates[lo:hi], td.Actual[lo:hi], td.Predicted[lo:hi])
	return out
}

// DateStrings returns the dates in ISO format, e.g. for chart axes.
func (td *TimeDataset) DateStrings() []string {
	out := make([]string, len(td.Dates))
	for i, d := range td.Dates {
		out[i] = d.String()
	}
	return out
}
