package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"cloud.google.com/go/civil"
	"github.com/aouyang1/go-gsec"
	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/aouyang1/go-gsec/calendar"
	"github.com/aouyang1/go-gsec/internal/mockbackend"
	"github.com/aouyang1/go-gsec/reference"
	"github.com/google/subcommands"
	"go.uber.org/zap"
)

const (
	defaultBond  = "3-year"
	defaultModel = "XGBoost"
)

func displayModels() []string {
	out := make([]string, 0, len(bondapi.Models()))
	for _, m := range bondapi.Models() {
		out = append(out, m.DisplayName())
	}
	return out
}

var (
	errDateRequired   = errors.New("-date is required")
	errDateInvalid    = errors.New("-date must be YYYY-MM-DD")
	errDateOutOfRange = errors.New("date outside the test split")
)

// fail reports err on the error output and maps it to an exit status.
func (a *app) fail(name string, err error) subcommands.ExitStatus {
	var reqErr *bondapi.RequestError
	switch {
	case errors.As(err, &reqErr):
		fmt.Fprintf(a.errOut, "%s: backend returned %s\n", name, reqErr)
	case errors.Is(err, bondapi.ErrUnknownModel), errors.Is(err, bondapi.ErrUnknownBond),
		errors.Is(err, errDateRequired), errors.Is(err, errDateInvalid), errors.Is(err, errDateOutOfRange):
		fmt.Fprintf(a.errOut, "%s: %v\n", name, err)
		return subcommands.ExitUsageError
	default:
		fmt.Fprintf(a.errOut, "%s: %v\n", name, err)
	}
	return subcommands.ExitFailure
}

func parseDateFlag(raw string) (civil.Date, error) {
	if raw == "" {
		return civil.Date{}, errDateRequired
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, fmt.Errorf("%q, %w", raw, errDateInvalid)
	}
	return d, nil
}

// tradingDate parses raw, moves it back to the closest trading day and checks the result
// lies within the bond's test split.
func (a *app) tradingDate(ctx context.Context, client *bondapi.Client, bond, raw string) (civil.Date, error) {
	d, err := parseDateFlag(raw)
	if err != nil {
		return civil.Date{}, err
	}
	snapped := calendar.New().OnOrBefore(d)
	if snapped != d {
		fmt.Fprintf(a.errOut, "%s is not a trading day, using %s\n", d, snapped)
	}

	dr, err := client.GetDateRange(ctx, bond)
	if err != nil {
		return civil.Date{}, err
	}
	if !dr.Contains(snapped) {
		return civil.Date{}, fmt.Errorf("%s not in %s to %s, %w", snapped, dr.MinDate, dr.MaxDate, errDateOutOfRange)
	}
	return snapped, nil
}

type computeCmd struct {
	app   *app
	bond  string
	model string
}

func (*computeCmd) Name() string     { return "compute" }
func (*computeCmd) Synopsis() string { return "run a model on the test split and score it" }
func (*computeCmd) Usage() string {
	return "compute [-bond 3-year] [-model XGBoost]\n"
}

func (c *computeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bond, "bond", defaultBond, "bond type, 3-year or 10-year")
	f.StringVar(&c.model, "model", defaultModel, "model, one of "+strings.Join(displayModels(), ", "))
}

func (c *computeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	d, err := c.app.dashboard()
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	run, err := d.Run(ctx, c.bond, c.model)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	if err := gsec.TablePrint(c.app.out, []*gsec.Run{run}); err != nil {
		return c.app.fail(c.Name(), err)
	}
	fmt.Fprintf(c.app.out, "observations: %d  %s to %s  elapsed: %s\n",
		run.Dataset.Len(), run.Dataset.Dates[0], run.Dataset.Dates[run.Dataset.Len()-1],
		run.Elapsed.Round(time.Millisecond),
	)
	return subcommands.ExitSuccess
}

type compareCmd struct {
	app    *app
	bond   string
	models string
}

func (*compareCmd) Name() string     { return "compare" }
func (*compareCmd) Synopsis() string { return "run several models concurrently and compare metrics" }
func (*compareCmd) Usage() string {
	return "compare [-bond 3-year] [-models \"ARIMA,XGBoost\"]\n"
}

func (c *compareCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bond, "bond", defaultBond, "bond type, 3-year or 10-year")
	f.StringVar(&c.models, "models", strings.Join(displayModels(), ","), "comma separated models")
}

func splitModels(raw string) []string {
	var out []string
	for _, m := range strings.Split(raw, ",") {
		if m = strings.TrimSpace(m); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func (c *compareCmd) compare(ctx context.Context) (*gsec.Dashboard, []*gsec.Run, error) {
	d, err := c.app.dashboard()
	if err != nil {
		return nil, nil, err
	}
	runs, err := d.Compare(ctx, c.bond, splitModels(c.models))
	if err != nil {
		return nil, nil, err
	}
	return d, runs, nil
}

func (c *compareCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	_, runs, err := c.compare(ctx)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	if err := gsec.TablePrint(c.app.out, runs); err != nil {
		return c.app.fail(c.Name(), err)
	}
	return subcommands.ExitSuccess
}

type reportCmd struct {
	compareCmd
	out string
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "compare models and render an html report" }
func (*reportCmd) Usage() string {
	return "report [-bond 3-year] [-models \"ARIMA,XGBoost\"] [-out report.html]\n"
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	c.compareCmd.SetFlags(f)
	f.StringVar(&c.out, "out", "report.html", "html file to write")
}

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	d, runs, err := c.compare(ctx)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	file, err := os.Create(c.out)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	if err := d.PlotRuns(file, runs); err != nil {
		file.Close()
		return c.app.fail(c.Name(), err)
	}
	if err := file.Close(); err != nil {
		return c.app.fail(c.Name(), err)
	}
	if err := gsec.TablePrint(c.app.out, runs); err != nil {
		return c.app.fail(c.Name(), err)
	}
	fmt.Fprintf(c.app.out, "wrote %s\n", c.out)
	return subcommands.ExitSuccess
}

type datesCmd struct {
	app  *app
	bond string
}

func (*datesCmd) Name() string     { return "dates" }
func (*datesCmd) Synopsis() string { return "print the test split date range of a bond and its closures" }
func (*datesCmd) Usage() string {
	return "dates [-bond 3-year]\n"
}

func (c *datesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bond, "bond", defaultBond, "bond type, 3-year or 10-year")
}

func (c *datesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	client, err := c.app.client()
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	dr, err := client.GetDateRange(ctx, c.bond)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	fmt.Fprintf(c.app.out, "%s: %s to %s\n", dr.BondType, dr.MinDate, dr.MaxDate)
	for _, ev := range calendar.New().Events(dr.MinDate, dr.MaxDate) {
		fmt.Fprintf(c.app.out, "  closed %s %s\n", ev.Date, ev.Name)
	}
	return subcommands.ExitSuccess
}

type featuresCmd struct {
	app  *app
	bond string
	date string
}

func (*featuresCmd) Name() string     { return "features" }
func (*featuresCmd) Synopsis() string { return "print the model inputs held for a date" }
func (*featuresCmd) Usage() string {
	return "features [-bond 3-year] -date 2024-01-15\n"
}

func (c *featuresCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bond, "bond", defaultBond, "bond type, 3-year or 10-year")
	f.StringVar(&c.date, "date", "", "date as YYYY-MM-DD")
}

func (c *featuresCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if _, err := parseDateFlag(c.date); err != nil {
		return c.app.fail(c.Name(), err)
	}
	client, err := c.app.client()
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	d, err := c.app.tradingDate(ctx, client, c.bond, c.date)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	fs, err := client.GetFeatures(ctx, d, c.bond)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}

	names := make([]string, 0, len(fs.Features))
	for name := range fs.Features {
		names = append(names, name)
	}
	sort.Strings(names)

	tbl := tabwriter.NewWriter(c.app.out, 0, 0, 1, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tbl, "feature\tvalue\t")
	for _, name := range names {
		fmt.Fprintf(tbl, "%s\t%.4f\t\n", name, fs.Features[name])
	}
	if fs.ActualYield != nil {
		fmt.Fprintf(tbl, "actual_yield\t%.4f\t\n", *fs.ActualYield)
	}
	if err := tbl.Flush(); err != nil {
		return c.app.fail(c.Name(), err)
	}
	return subcommands.ExitSuccess
}

type predictCmd struct {
	app   *app
	bond  string
	model string
	date  string
}

func (*predictCmd) Name() string     { return "predict" }
func (*predictCmd) Synopsis() string { return "print a model's yield estimate for one date" }
func (*predictCmd) Usage() string {
	return "predict [-bond 3-year] [-model XGBoost] -date 2024-01-15\n"
}

func (c *predictCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bond, "bond", defaultBond, "bond type, 3-year or 10-year")
	f.StringVar(&c.model, "model", defaultModel, "model, one of "+strings.Join(displayModels(), ", "))
	f.StringVar(&c.date, "date", "", "date as YYYY-MM-DD")
}

func (c *predictCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if _, err := parseDateFlag(c.date); err != nil {
		return c.app.fail(c.Name(), err)
	}
	client, err := c.app.client()
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	d, err := c.app.tradingDate(ctx, client, c.bond, c.date)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	sp, err := client.PredictSingle(ctx, d, c.bond, c.model)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}

	fmt.Fprintf(c.app.out, "%s %s %s predicted: %.4f", sp.Date, sp.BondType, sp.Model, sp.PredictedYield)
	if res, ok := sp.Residual(); ok {
		fmt.Fprintf(c.app.out, "  actual: %.4f  residual: %+.4f", *sp.ActualYield, res)
	}
	fmt.Fprintln(c.app.out)
	return subcommands.ExitSuccess
}

type referenceCmd struct {
	app  *app
	bond string
}

func (*referenceCmd) Name() string     { return "reference" }
func (*referenceCmd) Synopsis() string { return "print published metrics and the indicator catalog" }
func (*referenceCmd) Usage() string {
	return "reference [-bond 3-year]\n"
}

func (c *referenceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.bond, "bond", defaultBond, "bond type, 3-year or 10-year")
}

func (c *referenceCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	bond, err := bondapi.ParseBond(c.bond)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}
	split, err := reference.Split(bond)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}

	out := c.app.out
	fmt.Fprintf(out, "%s dataset: %d observations, %d training (%.0f%%), %d testing\n\n",
		bond.DisplayName(), split.Total, split.Training, split.TrainingFraction()*100, split.Testing)
	if err := gsec.TablePrintReference(out, bond); err != nil {
		return c.app.fail(c.Name(), err)
	}

	fmt.Fprintln(out)
	for _, m := range reference.MacroSnapshot() {
		fmt.Fprintf(out, "%s: %.2f (%+.2f %s)\n", m.Name, m.Value, m.Change, m.Trend)
	}

	groups := reference.IndicatorsByCategory()
	for _, cat := range reference.Categories {
		fmt.Fprintf(out, "\n%s indicators\n", cat)
		tbl := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
		for _, ind := range groups[cat] {
			fmt.Fprintf(tbl, "  %s\t%s\t%s\t%s\n", ind.Impact.Symbol(), ind.Short, ind.Name, ind.Summary)
		}
		if err := tbl.Flush(); err != nil {
			return c.app.fail(c.Name(), err)
		}
	}
	return subcommands.ExitSuccess
}

type serveMockCmd struct {
	app   *app
	addr  string
	delay time.Duration
	seed  uint64
}

func (*serveMockCmd) Name() string     { return "serve-mock" }
func (*serveMockCmd) Synopsis() string { return "serve synthetic data on the backend API for local use" }
func (*serveMockCmd) Usage() string {
	return "serve-mock [-addr :8000] [-delay 0s] [-seed 42]\n"
}

func (c *serveMockCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":8000", "listen address")
	f.DurationVar(&c.delay, "delay", 0, "added latency on every response")
	f.Uint64Var(&c.seed, "seed", 42, "seed of the synthetic series")
}

func (c *serveMockCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	opt := mockbackend.NewDefaultOptions()
	opt.Delay = c.delay
	opt.Seed = c.seed
	opt.Logger = c.app.logger.Named("mockbackend")

	s, err := mockbackend.New(opt)
	if err != nil {
		return c.app.fail(c.Name(), err)
	}

	errc := make(chan error, 1)
	go func() {
		errc <- s.Start(c.addr)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return c.app.fail(c.Name(), err)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			c.app.logger.Warn("unclean shutdown", zap.Error(err))
			return subcommands.ExitFailure
		}
	}
	return subcommands.ExitSuccess
}
