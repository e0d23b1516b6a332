package timedataset

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromChartData(t *testing.T) {
	testData := map[string]struct {
		dates     []string
		actual    []float64
		predicted []float64
		expected  *TimeDataset
		err       error
	}{
		"no observations": {
			err: ErrNoObservations,
		},
		"length mismatch": {
			dates:     []string{"2020-01-01", "2020-01-02"},
			actual:    []float64{7.1},
			predicted: []float64{7.0, 7.3},
			err:       ErrDatasetLenMismatch,
		},
		"invalid date": {
			dates:     []string{"2020-13-01"},
			actual:    []float64{7.1},
			predicted: []float64{7.0},
			err:       ErrInvalidDate,
		},
		"non increasing dates": {
			dates:     []string{"2020-01-02", "2020-01-02"},
			actual:    []float64{7.1, 7.2},
			predicted: []float64{7.0, 7.3},
			err:       ErrNonMontonic,
		},
		"valid": {
			dates:     []string{"2020-01-01", "2020-01-02"},
			actual:    []float64{7.1, 7.2},
			predicted: []float64{7.0, 7.3},
			expected: &TimeDataset{
				Dates: []civil.Date{
					{Year: 2020, Month: time.January, Day: 1},
					{Year: 2020, Month: time.January, Day: 2},
				},
				T: []time.Time{
					time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
					time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				},
				Actual:    []float64{7.1, 7.2},
				Predicted: []float64{7.0, 7.3},
			},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := FromChartData(td.dates, td.actual, td.predicted)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expected, ds)
		})
	}
}

func sampleDataset(t *testing.T) *TimeDataset {
	t.Helper()
	ds, err := FromChartData(
		[]string{"2022-12-29", "2022-12-30", "2023-01-02", "2023-01-03", "2024-01-01"},
		[]float64{7.30, 7.33, 7.31, 7.28, 7.18},
		[]float64{7.28, 7.35, 7.30, 7.30, 7.15},
	)
	require.NoError(t, err)
	return ds
}

func TestResiduals(t *testing.T) {
	ds := sampleDataset(t)
	assert.InDeltaSlice(t, []float64{-0.02, 0.02, -0.01, 0.02, -0.03}, ds.Residuals(), 1e-9)
}

func TestYears(t *testing.T) {
	assert.Equal(t, []int{2022, 2023, 2024}, sampleDataset(t).Years())
}

func TestSlice(t *testing.T) {
	ds := sampleDataset(t)

	sub := ds.Slice(
		civil.Date{Year: 2022, Month: time.December, Day: 30},
		civil.Date{Year: 2023, Month: time.January, Day: 3},
	)
	require.NotNil(t, sub)
	assert.Equal(t, []string{"2022-12-30", "2023-01-02", "2023-01-03"}, sub.DateStrings())
	assert.Equal(t, []float64{7.33, 7.31, 7.28}, sub.Actual)

	assert.Nil(t, ds.Slice(
		civil.Date{Year: 2023, Month: time.February, Day: 1},
		civil.Date{Year: 2023, Month: time.March, Day: 1},
	))

	cp := ds.Copy()
	cp.Actual[0] = 0
	assert.Equal(t, 7.30, ds.Actual[0])
}
