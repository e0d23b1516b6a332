package bondapi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "http://localhost:8000/api"

	// DefaultMinLatency is the compute floor for models without an entry in MinLatency.
	DefaultMinLatency = 3 * time.Second

	// NoFloor disables the compute floor when set as DefaultFloor or as a MinLatency entry.
	NoFloor time.Duration = -1
)

// NewDefaultMinLatency returns the compute floors used by the dashboard. Deep models are
// held longer so the loading state reads as training.
func NewDefaultMinLatency() map[Model]time.Duration {
	return map[Model]time.Duration{
		ModelLSTM: 10 * time.Second,
	}
}

// Options configures a Client.
type Options struct {
	// BaseURL is the API root that endpoint paths are appended to, e.g. http://host/api
	BaseURL string

	// HTTPClient issues every request. Its Timeout is the only timeout applied to calls.
	HTTPClient *http.Client

	// MinLatency maps a backend model to the minimum time Compute takes to return a
	// result. Models not present use DefaultFloor. A nil map uses NewDefaultMinLatency.
	MinLatency map[Model]time.Duration

	// DefaultFloor of zero means DefaultMinLatency; use NoFloor to disable it.
	DefaultFloor time.Duration

	// StrictMapping rejects unrecognized model and bond names with ErrUnknownModel and
	// ErrUnknownBond instead of substituting DefaultModel and DefaultBond.
	StrictMapping bool

	Logger *zap.Logger
}

func NewDefaultOptions() *Options {
	return &Options{
		BaseURL:      DefaultBaseURL,
		HTTPClient:   http.DefaultClient,
		MinLatency:   NewDefaultMinLatency(),
		DefaultFloor: DefaultMinLatency,
		Logger:       zap.NewNop(),
	}
}

// floor returns the minimum compute latency for the model.
func (o *Options) floor(m Model) time.Duration {
	d, exists := o.MinLatency[m]
	if !exists {
		d = o.DefaultFloor
	}
	if d < 0 {
		return 0
	}
	return d
}

// copyWithDefaults returns a copy of opt with every unset field filled in, leaving the
// caller's value untouched.
func (o *Options) copyWithDefaults() *Options {
	out := *o
	if out.BaseURL == "" {
		out.BaseURL = DefaultBaseURL
	}
	if out.HTTPClient == nil {
		out.HTTPClient = http.DefaultClient
	}
	if out.MinLatency == nil {
		out.MinLatency = NewDefaultMinLatency()
	} else {
		out.MinLatency = make(map[Model]time.Duration, len(o.MinLatency))
		for m, d := range o.MinLatency {
			out.MinLatency[m] = d
		}
	}
	if out.DefaultFloor == 0 {
		out.DefaultFloor = DefaultMinLatency
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return &out
}
