package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/aouyang1/go-gsec/bondapi"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	EnvAPIURL  = "GSEC_API_URL"
	EnvStrict  = "GSEC_STRICT"
	EnvTimeout = "GSEC_TIMEOUT"
)

var ErrInvalidConfig = errors.New("invalid config")

// Config is the file form of the client settings.
//
//	api_url: http://localhost:8000/api
//	strict: false
//	timeout: 0s
//	default_min_latency: 3s
//	min_latency:
//	  lstm: 10s
type Config struct {
	APIURL            string              `yaml:"api_url"`
	Strict            bool                `yaml:"strict"`
	Timeout           Duration            `yaml:"timeout"`
	DefaultMinLatency *Duration           `yaml:"default_min_latency"`
	MinLatency        map[string]Duration `yaml:"min_latency"`
}

// Duration reads YAML values such as "10s" or "1m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("duration %q, %w", s, ErrInvalidConfig)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default matches bondapi.NewDefaultOptions.
func Default() *Config {
	dflt := Duration(bondapi.DefaultMinLatency)
	cfg := &Config{
		APIURL:            bondapi.DefaultBaseURL,
		DefaultMinLatency: &dflt,
		MinLatency:        make(map[string]Duration),
	}
	for m, d := range bondapi.NewDefaultMinLatency() {
		cfg.MinLatency[string(m)] = Duration(d)
	}
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies environment overrides.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config file, %w", err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("unable to parse config file %s, %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvAPIURL); ok && v != "" {
		c.APIURL = v
	}
	if v, ok := lookup(EnvStrict); ok && v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s=%q, %w", EnvStrict, v, ErrInvalidConfig)
		}
		c.Strict = strict
	}
	if v, ok := lookup(EnvTimeout); ok && v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s=%q, %w", EnvTimeout, v, ErrInvalidConfig)
		}
		c.Timeout = Duration(timeout)
	}
	return nil
}

func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is empty, %w", ErrInvalidConfig)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout, %w", ErrInvalidConfig)
	}
	if c.DefaultMinLatency != nil && *c.DefaultMinLatency < 0 {
		return fmt.Errorf("negative default_min_latency, %w", ErrInvalidConfig)
	}
	for m, d := range c.MinLatency {
		if !slices.Contains(bondapi.Models(), bondapi.Model(m)) {
			return fmt.Errorf("min_latency key %q is not a backend model identifier, %w", m, ErrInvalidConfig)
		}
		if d < 0 {
			return fmt.Errorf("negative min_latency for %s, %w", m, ErrInvalidConfig)
		}
	}
	return nil
}

// ClientOptions converts the config into options for bondapi.New.
func (c *Config) ClientOptions(logger *zap.Logger) *bondapi.Options {
	opt := bondapi.NewDefaultOptions()
	opt.BaseURL = c.APIURL
	opt.StrictMapping = c.Strict
	opt.HTTPClient = &http.Client{Timeout: time.Duration(c.Timeout)}
	if c.DefaultMinLatency != nil {
		opt.DefaultFloor = time.Duration(*c.DefaultMinLatency)
		if opt.DefaultFloor == 0 {
			opt.DefaultFloor = bondapi.NoFloor
		}
	}
	opt.MinLatency = make(map[bondapi.Model]time.Duration, len(c.MinLatency))
	for m, d := range c.MinLatency {
		opt.MinLatency[bondapi.Model(m)] = time.Duration(d)
	}
	if logger != nil {
		opt.Logger = logger
	}
	return opt
}
