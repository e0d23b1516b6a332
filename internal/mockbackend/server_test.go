package mockbackend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *bondapi.Client) {
	t.Helper()
	opt := NewDefaultOptions()
	opt.Start = civil.Date{Year: 2023, Month: time.January, Day: 1}
	opt.End = civil.Date{Year: 2023, Month: time.December, Day: 31}

	s, err := New(opt)
	require.NoError(t, err)

	server := httptest.NewServer(s.Handler())
	t.Cleanup(server.Close)

	copt := bondapi.NewDefaultOptions()
	copt.BaseURL = server.URL + "/api"
	copt.MinLatency = map[bondapi.Model]time.Duration{}
	copt.DefaultFloor = bondapi.NoFloor
	return s, bondapi.New(copt)
}

func TestCompute(t *testing.T) {
	s, c := newTestServer(t)
	ctx := context.Background()

	testData := map[string]struct {
		model  string
		bond   string
		hasR2  bool
		expLen int
	}{
		"linear regression": {model: "Linear Regression", bond: "3-year", hasR2: true},
		"arima":             {model: "ARIMA", bond: "10-year", hasR2: false},
		"lstm":              {model: "DLSTM", bond: "10-year", hasR2: true},
		"xgboost":           {model: "XGBoost", bond: "3-year", hasR2: true},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			res, err := c.Compute(ctx, td.bond, td.model)
			require.NoError(t, err)
			require.NoError(t, res.Validate())

			bs := s.series[bondapi.MapBond(td.bond)]
			assert.Len(t, res.ChartData.Dates, len(bs.dates)-bs.testStart)
			assert.Equal(t, bs.dates[bs.testStart].String(), res.ChartData.Dates[0])

			assert.Greater(t, res.Metrics.MAPE, 0.0)
			assert.Greater(t, res.Metrics.MAE, 0.0)
			assert.Greater(t, res.Metrics.MSE, 0.0)
			if td.hasR2 {
				assert.NotNil(t, res.Metrics.R2)
			} else {
				assert.Nil(t, res.Metrics.R2)
			}
		})
	}
}

func TestComputeDeterministic(t *testing.T) {
	_, c := newTestServer(t)
	ctx := context.Background()

	first, err := c.Compute(ctx, "3-year", "XGBoost")
	require.NoError(t, err)
	second, err := c.Compute(ctx, "3-year", "XGBoost")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := c.Compute(ctx, "3-year", "ARIMA")
	require.NoError(t, err)
	assert.NotEqual(t, first.ChartData.Predicted, other.ChartData.Predicted)
	assert.Equal(t, first.ChartData.Actual, other.ChartData.Actual)
	assert.Greater(t, other.Metrics.MAE, first.Metrics.MAE)
}

func TestDateRange(t *testing.T) {
	s, c := newTestServer(t)

	dr, err := c.GetDateRange(context.Background(), "10-year")
	require.NoError(t, err)

	bs := s.series[bondapi.Bond10yr]
	assert.Equal(t, bondapi.Bond10yr, dr.BondType)
	assert.Equal(t, bs.dates[bs.testStart], dr.MinDate)
	assert.Equal(t, bs.dates[len(bs.dates)-1], dr.MaxDate)
	assert.True(t, dr.Contains(dr.MaxDate))
}

func TestFeaturesAndPredictSingle(t *testing.T) {
	s, c := newTestServer(t)
	ctx := context.Background()

	bs := s.series[bondapi.Bond3yr]
	d := bs.dates[bs.testStart+3]

	fs, err := c.GetFeatures(ctx, d, "3-year")
	require.NoError(t, err)
	assert.Equal(t, d, fs.Date)
	assert.Len(t, fs.Features, 4)
	assert.Contains(t, fs.Features, "repo_rate")
	require.NotNil(t, fs.ActualYield)
	assert.Equal(t, bs.actual[bs.testStart+3], *fs.ActualYield)

	sp, err := c.PredictSingle(ctx, d, "3-year", "XGBoost")
	require.NoError(t, err)
	assert.Equal(t, bondapi.ModelXGBoost, sp.Model)
	assert.Equal(t, *fs.ActualYield, *sp.ActualYield)

	res, err := c.Compute(ctx, "3-year", "XGBoost")
	require.NoError(t, err)
	assert.Equal(t, res.ChartData.Predicted[3], sp.PredictedYield)
}

func TestErrors(t *testing.T) {
	s, c := newTestServer(t)
	ctx := context.Background()

	// Sunday, never a trading day
	_, err := c.GetFeatures(ctx, civil.Date{Year: 2023, Month: time.June, Day: 4}, "3-year")
	var reqErr *bondapi.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
	assert.Contains(t, reqErr.Message, "no data")

	testData := map[string]struct {
		method  string
		path    string
		body    string
		expCode int
	}{
		"unknown bond": {
			method: http.MethodGet, path: "/api/dates/30yr", expCode: http.StatusNotFound,
		},
		"unknown model": {
			method: http.MethodPost, path: "/api/compute",
			body:    `{"model":"ridge","bond_type":"3yr"}`,
			expCode: http.StatusBadRequest,
		},
		"bad date": {
			method: http.MethodGet, path: "/api/features?bond_type=3yr&date=yesterday",
			expCode: http.StatusBadRequest,
		},
		"missing date": {
			method: http.MethodPost, path: "/api/predict-single",
			body:    `{"model":"lstm","bond_type":"3yr"}`,
			expCode: http.StatusBadRequest,
		},
		"unknown route": {
			method: http.MethodGet, path: "/api/train", expCode: http.StatusNotFound,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(td.method, td.path, strings.NewReader(td.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			assert.Equal(t, td.expCode, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestEmptyHistory(t *testing.T) {
	opt := NewDefaultOptions()
	opt.Start = civil.Date{Year: 2023, Month: time.June, Day: 3}
	opt.End = civil.Date{Year: 2023, Month: time.June, Day: 4}
	_, err := New(opt)
	assert.ErrorIs(t, err, ErrEmptyHistory)
}
