package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/aouyang1/go-gsec"
	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/aouyang1/go-gsec/config"
	"github.com/google/subcommands"
	"github.com/pkg/profile"
	"go.uber.org/zap"
)

// app carries the global flags and the values built from them to every subcommand.
type app struct {
	configPath string
	apiURL     string
	strict     bool
	verbose    bool
	profileDir string

	out    io.Writer
	errOut io.Writer
	logger *zap.Logger
}

func (a *app) setFlags(f *flag.FlagSet) {
	f.StringVar(&a.configPath, "config", "", "path to a YAML config file")
	f.StringVar(&a.apiURL, "api", "", "backend API root, overrides the config file and "+config.EnvAPIURL)
	f.BoolVar(&a.strict, "strict", false, "reject unknown model and bond names")
	f.BoolVar(&a.verbose, "v", false, "debug logging")
	f.StringVar(&a.profileDir, "profile", "", "write a CPU profile of the run into this directory")
}

func (a *app) initLogger() error {
	var (
		logger *zap.Logger
		err    error
	)
	if a.verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

// loadConfig reads the config file and environment, then applies the global flags.
func (a *app) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return nil, err
	}
	if a.apiURL != "" {
		cfg.APIURL = a.apiURL
	}
	if a.strict {
		cfg.Strict = true
	}
	return cfg, nil
}

func (a *app) client() (*bondapi.Client, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}
	return bondapi.New(cfg.ClientOptions(a.logger.Named("bondapi"))), nil
}

func (a *app) dashboard() (*gsec.Dashboard, error) {
	client, err := a.client()
	if err != nil {
		return nil, err
	}
	opt := gsec.NewDefaultOptions()
	opt.Logger = a.logger
	return gsec.New(client, opt), nil
}

func newCommander(a *app, fs *flag.FlagSet, stdout, stderr io.Writer) *subcommands.Commander {
	cdr := subcommands.NewCommander(fs, fs.Name())
	cdr.Output = stdout
	cdr.Error = stderr

	cdr.Register(cdr.HelpCommand(), "")
	cdr.Register(cdr.FlagsCommand(), "")
	cdr.Register(cdr.CommandsCommand(), "")

	cdr.Register(&computeCmd{app: a}, "forecast")
	cdr.Register(&compareCmd{app: a}, "forecast")
	cdr.Register(&reportCmd{compareCmd: compareCmd{app: a}}, "forecast")
	cdr.Register(&datesCmd{app: a}, "data")
	cdr.Register(&featuresCmd{app: a}, "data")
	cdr.Register(&predictCmd{app: a}, "data")
	cdr.Register(&referenceCmd{app: a}, "data")
	cdr.Register(&serveMockCmd{app: a}, "development")
	return cdr
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{out: stdout, errOut: stderr}
	fs := flag.NewFlagSet(filepath.Base(args[0]), flag.ContinueOnError)
	fs.SetOutput(stderr)
	a.setFlags(fs)
	cdr := newCommander(a, fs, stdout, stderr)

	if err := fs.Parse(args[1:]); err != nil {
		return int(subcommands.ExitUsageError)
	}
	if err := a.initLogger(); err != nil {
		fmt.Fprintf(stderr, "unable to create logger, %v\n", err)
		return int(subcommands.ExitFailure)
	}
	defer func() { _ = a.logger.Sync() }()

	if a.profileDir != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(a.profileDir), profile.Quiet).Stop()
	}

	return int(cdr.Execute(ctx))
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
