package bondapi

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

// Client calls the bond forecast backend. It holds no per-request state and is safe for
// concurrent use; each call owns its request, response and latency floor.
type Client struct {
	opt        *Options
	httpclient *http.Client
	api        string
	logger     *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Client using the provided options. If no options are provided a default
// is used. Unset fields take their defaults; opt itself is not modified.
func New(opt *Options) *Client {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	opt = opt.copyWithDefaults()

	return &Client{
		opt:        opt,
		httpclient: opt.HTTPClient,
		api:        strings.TrimSuffix(opt.BaseURL, "/"),
		logger:     opt.Logger,
		now:        time.Now,
		sleep:      sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// apipath joins the API root with the path segments.
func (c *Client) apipath(path ...string) string {
	segs := make([]string, 0, len(path)+1)
	segs = append(segs, c.api)
	for _, p := range path {
		segs = append(segs, strings.Trim(p, "/"))
	}
	return strings.Join(segs, "/")
}

func (c *Client) resolve(bondType, modelName string) (Bond, Model, error) {
	if c.opt.StrictMapping {
		b, err := ParseBond(bondType)
		if err != nil {
			return "", "", err
		}
		m, err := ParseModel(modelName)
		if err != nil {
			return "", "", err
		}
		return b, m, nil
	}
	return MapBond(bondType), MapModel(modelName), nil
}

func (c *Client) resolveBond(bondType string) (Bond, error) {
	if c.opt.StrictMapping {
		return ParseBond(bondType)
	}
	return MapBond(bondType), nil
}

// do sends the request and decodes the response into v. Transport errors are returned
// unwrapped.
func do[T any](c *Client, req *http.Request, v *T) error {
	resp, err := c.httpclient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("received response",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
	)
	return decodeResponse(resp, v)
}

func (c *Client) newJSONRequest(ctx context.Context, method, target string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, fmt.Errorf("unable to encode request body, %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, target, &buf)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// Compute asks the backend to train and evaluate modelName on bondType, returning the
// test split chart data and metrics. Names are dashboard names, e.g. "3-year" and
// "DLSTM". The call never returns a result sooner than the model's latency floor after it
// was invoked, however fast the backend answers.
func (c *Client) Compute(ctx context.Context, bondType, modelName string) (*ComputeResult, error) {
	start := c.now()

	bond, model, err := c.resolve(bondType, modelName)
	if err != nil {
		return nil, err
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, c.apipath("compute"), ComputeRequest{
		Model:    model,
		BondType: bond,
	})
	if err != nil {
		return nil, err
	}

	var res ComputeResult
	if err := do(c, req, &res); err != nil {
		return nil, err
	}

	elapsed := c.now().Sub(start)
	floor := c.opt.floor(model)
	if wait := floor - elapsed; wait > 0 {
		c.logger.Debug("holding compute result for latency floor",
			zap.String("model", string(model)),
			zap.Duration("elapsed", elapsed),
			zap.Duration("wait", wait),
		)
		if err := c.sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	return &res, nil
}

// GetDateRange returns the bounds of the backend's test split for bondType.
func (c *Client) GetDateRange(ctx context.Context, bondType string) (*DateRange, error) {
	bond, err := c.resolveBond(bondType)
	if err != nil {
		return nil, err
	}

	req, err := c.newJSONRequest(ctx, http.MethodGet, c.apipath("dates", url.PathEscape(string(bond))), nil)
	if err != nil {
		return nil, err
	}

	var dr DateRange
	if err := do(c, req, &dr); err != nil {
		return nil, err
	}
	return &dr, nil
}

// GetFeatures returns the feature values and actual yield the backend holds for date.
func (c *Client) GetFeatures(ctx context.Context, date civil.Date, bondType string) (*FeatureSnapshot, error) {
	bond, err := c.resolveBond(bondType)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("date", date.String())
	q.Set("bond_type", string(bond))
	req, err := c.newJSONRequest(ctx, http.MethodGet, c.apipath("features")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var fs FeatureSnapshot
	if err := do(c, req, &fs); err != nil {
		return nil, err
	}
	return &fs, nil
}

// PredictSingle asks modelName for its yield estimate on date.
func (c *Client) PredictSingle(ctx context.Context, date civil.Date, bondType, modelName string) (*SinglePrediction, error) {
	bond, model, err := c.resolve(bondType, modelName)
	if err != nil {
		return nil, err
	}

	req, err := c.newJSONRequest(ctx, http.MethodPost, c.apipath("predict-single"), predictSingleRequest{
		Date:     date,
		BondType: bond,
		Model:    model,
	})
	if err != nil {
		return nil, err
	}

	var sp SinglePrediction
	if err := do(c, req, &sp); err != nil {
		return nil, err
	}
	return &sp, nil
}
