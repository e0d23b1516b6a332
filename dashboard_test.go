package gsec

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/aouyang1/go-gsec/internal/mockbackend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func r2(v float64) *float64 {
	return &v
}

// fakePredictor returns a fixed payload per model name, or err when set.
type fakePredictor struct {
	mu       sync.Mutex
	payloads map[string]*bondapi.ComputeResult
	delays   map[string]time.Duration
	err      error
	calls    []string
}

func (f *fakePredictor) Compute(ctx context.Context, bondType, modelName string) (*bondapi.ComputeResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, bondType+"/"+modelName)
	f.mu.Unlock()

	if d := f.delays[modelName]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	res, exists := f.payloads[modelName]
	if !exists {
		return nil, &bondapi.RequestError{StatusCode: 400, Message: "unknown model"}
	}
	return res, nil
}

func samplePayload(offset float64) *bondapi.ComputeResult {
	return &bondapi.ComputeResult{
		ChartData: bondapi.ChartData{
			Dates:     []string{"2020-01-01", "2020-01-02", "2020-01-03", "2020-01-06"},
			Actual:    []float64{7.0, 7.2, 7.1, 7.3},
			Predicted: []float64{7.0 + offset, 7.2 - offset, 7.1 + offset, 7.3 - offset},
		},
		Metrics: bondapi.Metrics{
			MAPE: offset / 7.15,
			MAE:  offset,
			MSE:  offset * offset,
			R2:   r2(0.9),
		},
	}
}

func TestRun(t *testing.T) {
	fp := &fakePredictor{
		payloads: map[string]*bondapi.ComputeResult{
			"XGBoost": samplePayload(0.1),
		},
	}
	d := New(fp, nil)

	run, err := d.Run(context.Background(), "10-year", "XGBoost")
	require.NoError(t, err)

	assert.Equal(t, bondapi.Bond10yr, run.Bond)
	assert.Equal(t, bondapi.ModelXGBoost, run.Model)
	assert.Equal(t, 4, run.Dataset.Len())
	assert.Equal(t, civil.Date{Year: 2020, Month: time.January, Day: 6}, run.Dataset.Dates[3])
	assert.InDelta(t, 0.1, run.Scores.MAE, 1e-9)
	assert.InDelta(t, 0.01, run.Scores.MSE, 1e-9)
	assert.InDeltaSlice(t, []float64{0.1, -0.1, 0.1, -0.1}, run.Residuals(), 1e-9)

	require.NotNil(t, run.Reference)
	assert.Equal(t, 0.0013, run.Reference.MAPE)
	assert.Empty(t, run.Outliers)
}

func TestRunConsistency(t *testing.T) {
	testData := map[string]struct {
		metrics       bondapi.Metrics
		expConsistent bool
	}{
		"matching": {
			metrics:       bondapi.Metrics{MAPE: 0.0, MAE: 0.0, MSE: 0.0},
			expConsistent: true,
		},
		"mae off": {
			metrics:       bondapi.Metrics{MAPE: 0.0, MAE: 0.5, MSE: 0.0},
			expConsistent: false,
		},
		"r2 off": {
			metrics:       bondapi.Metrics{R2: r2(0.2)},
			expConsistent: false,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			payload := samplePayload(0.0)
			payload.ChartData.Predicted = payload.ChartData.Actual
			payload.Metrics = td.metrics

			fp := &fakePredictor{payloads: map[string]*bondapi.ComputeResult{"ARIMA": payload}}
			run, err := New(fp, nil).Run(context.Background(), "3-year", "ARIMA")
			require.NoError(t, err)
			assert.Equal(t, td.expConsistent, run.Consistent)
		})
	}
}

func TestRunErrors(t *testing.T) {
	mismatched := samplePayload(0.1)
	mismatched.ChartData.Predicted = mismatched.ChartData.Predicted[:2]

	badDate := samplePayload(0.1)
	badDate.ChartData.Dates[1] = "01/02/2020"

	empty := &bondapi.ComputeResult{}

	testData := map[string]struct {
		payload *bondapi.ComputeResult
		err     error
		expErr  error
	}{
		"mismatched lengths": {payload: mismatched, expErr: bondapi.ErrChartDataMismatch},
		"bad date":           {payload: badDate, expErr: nil},
		"empty chart data":   {payload: empty, expErr: nil},
		"client error":       {err: &bondapi.RequestError{StatusCode: 500, Message: "boom"}},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			fp := &fakePredictor{
				payloads: map[string]*bondapi.ComputeResult{"LSTM": td.payload},
				err:      td.err,
			}
			run, err := New(fp, nil).Run(context.Background(), "3-year", "LSTM")
			require.Error(t, err)
			assert.Nil(t, run)
			if td.expErr != nil {
				assert.ErrorIs(t, err, td.expErr)
			}
			if td.err != nil {
				var reqErr *bondapi.RequestError
				require.ErrorAs(t, err, &reqErr)
				assert.Equal(t, "500: boom", reqErr.Error())
			}
		})
	}
}

func TestCompare(t *testing.T) {
	fp := &fakePredictor{
		payloads: map[string]*bondapi.ComputeResult{
			"Linear Regression": samplePayload(0.3),
			"ARIMA":             samplePayload(0.2),
			"XGBoost":           samplePayload(0.1),
		},
		delays: map[string]time.Duration{
			"Linear Regression": 30 * time.Millisecond,
		},
	}
	d := New(fp, nil)

	names := []string{"Linear Regression", "ARIMA", "XGBoost"}
	runs, err := d.Compare(context.Background(), "3-year", names)
	require.NoError(t, err)
	require.Len(t, runs, 3)

	expected := []bondapi.Model{bondapi.ModelLinearRegression, bondapi.ModelARIMA, bondapi.ModelXGBoost}
	for i, run := range runs {
		assert.Equal(t, expected[i], run.Model)
		assert.Equal(t, bondapi.Bond3yr, run.Bond)
	}
	assert.InDelta(t, 0.3, runs[0].Scores.MAE, 1e-9)
	assert.InDelta(t, 0.1, runs[2].Scores.MAE, 1e-9)
	assert.Len(t, fp.calls, 3)

	_, err = d.Compare(context.Background(), "3-year", nil)
	assert.ErrorIs(t, err, ErrNoModels)
}

func TestCompareError(t *testing.T) {
	fp := &fakePredictor{
		payloads: map[string]*bondapi.ComputeResult{
			"ARIMA": samplePayload(0.2),
		},
		delays: map[string]time.Duration{
			"ARIMA": time.Second,
		},
	}
	opt := NewDefaultOptions()
	opt.MaxConcurrency = 1
	d := New(fp, opt)

	start := time.Now()
	runs, err := d.Compare(context.Background(), "3-year", []string{"Ridge", "ARIMA"})
	require.Error(t, err)
	assert.Nil(t, runs)
	assert.Contains(t, err.Error(), "model Ridge")
	assert.Less(t, time.Since(start), time.Second)
}

func TestPlotRuns(t *testing.T) {
	fp := &fakePredictor{
		payloads: map[string]*bondapi.ComputeResult{
			"DLSTM": samplePayload(0.1),
			"ARIMA": samplePayload(0.2),
		},
	}
	fp.payloads["ARIMA"].Metrics.R2 = nil

	opt := NewDefaultOptions()
	opt.PageTitle = "3-year comparison"
	d := New(fp, opt)

	runs, err := d.Compare(context.Background(), "3-year", []string{"DLSTM", "ARIMA"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, d.PlotRuns(&buf, runs))
	html := buf.String()
	assert.Contains(t, html, "3-year comparison")
	assert.Contains(t, html, "DLSTM 3-year")
	assert.Contains(t, html, "Model Metrics")
	assert.Contains(t, html, "#c084fc")

	assert.ErrorIs(t, d.PlotRuns(&buf, nil), ErrNoRuns)
}

func TestTablePrint(t *testing.T) {
	fp := &fakePredictor{
		payloads: map[string]*bondapi.ComputeResult{
			"XGBoost": samplePayload(0.1),
		},
	}
	run, err := New(fp, nil).Run(context.Background(), "3-year", "XGBoost")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, TablePrint(&buf, []*Run{run}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "backend")
	assert.Contains(t, lines[2], "recomputed")
	assert.Contains(t, lines[3], "published")

	buf.Reset()
	require.NoError(t, TablePrintReference(&buf, bondapi.Bond3yr))
	lines = strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[1], "XGBoost")
	assert.Contains(t, lines[4], "ARIMA")
}

func TestDashboardWithMockBackend(t *testing.T) {
	mopt := mockbackend.NewDefaultOptions()
	mopt.Start = civil.Date{Year: 2024, Month: time.January, Day: 1}
	mopt.End = civil.Date{Year: 2024, Month: time.June, Day: 30}
	backend, err := mockbackend.New(mopt)
	require.NoError(t, err)

	server := httptest.NewServer(backend.Handler())
	t.Cleanup(server.Close)

	copt := bondapi.NewDefaultOptions()
	copt.BaseURL = server.URL + "/api"
	copt.MinLatency = map[bondapi.Model]time.Duration{bondapi.ModelLSTM: 50 * time.Millisecond}
	copt.DefaultFloor = 10 * time.Millisecond
	d := New(bondapi.New(copt), nil)

	start := time.Now()
	runs, err := d.Compare(context.Background(), "10-year", []string{"Linear Regression", "ARIMA", "DLSTM", "XGBoost"})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)

	for _, run := range runs {
		assert.True(t, run.Consistent, run.Model)
		assert.Equal(t, bondapi.Bond10yr, run.Bond)
	}
	assert.GreaterOrEqual(t, runs[2].Elapsed, 50*time.Millisecond)

	var buf bytes.Buffer
	assert.NoError(t, d.PlotRuns(&buf, runs))
	assert.NoError(t, TablePrint(&buf, runs))
}

func TestRunCanceled(t *testing.T) {
	fp := &fakePredictor{
		payloads: map[string]*bondapi.ComputeResult{"ARIMA": samplePayload(0.1)},
		delays:   map[string]time.Duration{"ARIMA": time.Second},
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := New(fp, nil).Run(ctx, "3-year", "ARIMA")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
