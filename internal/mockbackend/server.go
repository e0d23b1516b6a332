// Package mockbackend serves deterministic synthetic data over the bond forecast HTTP
// contract. It is used by tests and by `gsec serve-mock` for local development; it does
// not train or run any model.
package mockbackend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/aouyang1/go-gsec/calendar"
	"github.com/aouyang1/go-gsec/score"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var ErrEmptyHistory = errors.New("no trading days in history range")

type Options struct {
	// Start and End bound the synthetic history of every bond.
	Start civil.Date
	End   civil.Date

	// TestFraction is the trailing share of the history returned by compute.
	TestFraction float64

	// Delay is added to every response.
	Delay time.Duration

	Seed   uint64
	Logger *zap.Logger
}

func NewDefaultOptions() *Options {
	return &Options{
		Start:        civil.Date{Year: 2013, Month: time.January, Day: 1},
		End:          civil.Date{Year: 2024, Month: time.December, Day: 31},
		TestFraction: 0.2,
		Seed:         42,
		Logger:       zap.NewNop(),
	}
}

type Server struct {
	opt    *Options
	e      *echo.Echo
	series map[bondapi.Bond]*bondSeries
	logger *zap.Logger
}

// New builds the synthetic history of every bond and registers the API routes.
func New(opt *Options) (*Server, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if opt.Logger == nil {
		opt.Logger = zap.NewNop()
	}

	dates, err := calendar.New().TradingDays(opt.Start, opt.End)
	if err != nil {
		return nil, fmt.Errorf("unable to build trading days, %w", err)
	}
	if len(dates) == 0 {
		return nil, ErrEmptyHistory
	}

	s := &Server{
		opt:    opt,
		e:      echo.New(),
		series: make(map[bondapi.Bond]*bondSeries),
		logger: opt.Logger,
	}
	for _, b := range bondapi.Bonds() {
		s.series[b] = generateSeries(b, dates, opt.TestFraction, opt.Seed)
	}

	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.HTTPErrorHandler = s.handleError
	s.e.Use(s.logRequests, s.delay)

	api := s.e.Group("/api")
	api.POST("/compute", s.compute)
	api.GET("/dates/:bond_type", s.dateRange)
	api.GET("/features", s.features)
	api.POST("/predict-single", s.predictSingle)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.e
}

func (s *Server) Start(addr string) error {
	s.logger.Info("starting mock backend", zap.String("addr", addr))
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	if err := c.JSON(code, errorBody{Error: msg}); err != nil {
		s.logger.Error("unable to write error response", zap.Error(err))
	}
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Debug("served request",
			zap.String("method", c.Request().Method),
			zap.String("path", c.Request().URL.Path),
			zap.Int("status", c.Response().Status),
			zap.Duration("latency", time.Since(start)),
		)
		return nil
	}
}

func (s *Server) delay(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.opt.Delay > 0 {
			timer := time.NewTimer(s.opt.Delay)
			defer timer.Stop()
			select {
			case <-timer.C:
			case <-c.Request().Context().Done():
				return c.Request().Context().Err()
			}
		}
		return next(c)
	}
}

func badRequest(format string, args ...any) error {
	return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf(format, args...))
}

func (s *Server) lookupBond(raw string) (bondapi.Bond, *bondSeries, error) {
	b := bondapi.Bond(raw)
	bs, exists := s.series[b]
	if !exists {
		return "", nil, notFound("unknown bond type %q", raw)
	}
	return b, bs, nil
}

func lookupModel(raw string) (bondapi.Model, error) {
	m := bondapi.Model(raw)
	if _, exists := perturbations[m]; !exists {
		return "", badRequest("unknown model %q", raw)
	}
	return m, nil
}

func parseDate(raw string) (civil.Date, error) {
	if raw == "" {
		return civil.Date{}, badRequest("date is required")
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, badRequest("invalid date %q", raw)
	}
	return d, nil
}

type computeRequest struct {
	Model    string `json:"model"`
	BondType string `json:"bond_type"`
}

func (s *Server) compute(c echo.Context) error {
	var req computeRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	model, err := lookupModel(req.Model)
	if err != nil {
		return err
	}
	bond, bs, err := s.lookupBond(req.BondType)
	if err != nil {
		return err
	}

	predicted := bs.predict(model, bond, s.opt.Seed)[bs.testStart:]
	actual := bs.actual[bs.testStart:]

	dates := make([]string, 0, len(actual))
	for _, d := range bs.dates[bs.testStart:] {
		dates = append(dates, d.String())
	}

	scores, err := score.NewScores(predicted, actual)
	if err != nil {
		return fmt.Errorf("unable to score synthetic prediction, %w", err)
	}
	metrics := bondapi.Metrics{
		MAPE: scores.MAPE,
		MAE:  scores.MAE,
		MSE:  scores.MSE,
	}
	if perturbations[model].r2 {
		r2 := scores.R2
		metrics.R2 = &r2
	}

	return c.JSON(http.StatusOK, bondapi.ComputeResult{
		ChartData: bondapi.ChartData{
			Dates:     dates,
			Actual:    append([]float64(nil), actual...),
			Predicted: append([]float64(nil), predicted...),
		},
		Metrics: metrics,
	})
}

func (s *Server) dateRange(c echo.Context) error {
	bond, bs, err := s.lookupBond(c.Param("bond_type"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, bondapi.DateRange{
		BondType: bond,
		MinDate:  bs.dates[bs.testStart],
		MaxDate:  bs.dates[len(bs.dates)-1],
	})
}

func (s *Server) features(c echo.Context) error {
	d, err := parseDate(c.QueryParam("date"))
	if err != nil {
		return err
	}
	bond, bs, err := s.lookupBond(c.QueryParam("bond_type"))
	if err != nil {
		return err
	}
	i, exists := bs.index(d)
	if !exists {
		return notFound("no data for %s", d)
	}

	features := make(map[string]float64, len(bs.features))
	for name, series := range bs.features {
		features[name] = series[i]
	}
	actual := bs.actual[i]
	return c.JSON(http.StatusOK, bondapi.FeatureSnapshot{
		Date:        d,
		BondType:    bond,
		Features:    features,
		ActualYield: &actual,
	})
}

type predictSingleRequest struct {
	Date     string `json:"date"`
	BondType string `json:"bond_type"`
	Model    string `json:"model"`
}

func (s *Server) predictSingle(c echo.Context) error {
	var req predictSingleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	d, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	model, err := lookupModel(req.Model)
	if err != nil {
		return err
	}
	bond, bs, err := s.lookupBond(req.BondType)
	if err != nil {
		return err
	}
	i, exists := bs.index(d)
	if !exists {
		return notFound("no data for %s", d)
	}

	actual := bs.actual[i]
	return c.JSON(http.StatusOK, bondapi.SinglePrediction{
		Date:           d,
		BondType:       bond,
		Model:          model,
		PredictedYield: bs.predict(model, bond, s.opt.Seed)[i],
		ActualYield:    &actual,
	})
}
