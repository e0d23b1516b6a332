package gsec

import (
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/aouyang1/go-gsec/bondapi"
	"github.com/aouyang1/go-gsec/reference"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// LineTSeries generates an echart multi-line chart for dates and values. Each series in y
// must have the same length as dates and is drawn in the color of the same index. NaN
// values are left as gaps.
func LineTSeries(title string, seriesName []string, colors []string, dates []string, y [][]float64) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Trigger: "axis",
			},
		),
	)

	line.SetXAxis(dates)
	for i, name := range seriesName {
		lineData := make([]opts.LineData, 0, len(y[i]))
		for _, v := range y[i] {
			if math.IsNaN(v) {
				lineData = append(lineData, opts.LineData{Value: "-"})
				continue
			}
			lineData = append(lineData, opts.LineData{Value: v})
		}
		var seriesOpts []charts.SeriesOpts
		if i < len(colors) {
			seriesOpts = append(seriesOpts,
				charts.WithLineStyleOpts(opts.LineStyle{Color: colors[i]}),
				charts.WithItemStyleOpts(opts.ItemStyle{Color: colors[i]}),
			)
		}
		line.AddSeries(name, lineData, seriesOpts...)
	}
	return line
}

// yAxisMin floors the y axis just under the smallest value so yield lines are not
// flattened against zero.
func yAxisMin(y [][]float64) any {
	lo := math.Inf(1)
	for _, series := range y {
		for _, v := range series {
			if !math.IsNaN(v) && v < lo {
				lo = v
			}
		}
	}
	if math.IsInf(lo, 1) {
		return nil
	}
	return math.Floor(lo*10) / 10
}

// LineRun plots the actual and predicted yields of a run in the model's colors.
func LineRun(run *Run) *charts.Line {
	title := fmt.Sprintf("%s %s", run.Model.DisplayName(), run.Bond.DisplayName())
	y := [][]float64{run.Dataset.Actual, run.Dataset.Predicted}
	line := LineTSeries(
		title,
		[]string{"Actual", "Predicted"},
		[]string{reference.ActualColor, reference.Color(run.Model)},
		run.Dataset.DateStrings(),
		y,
	)
	line.SetGlobalOptions(
		charts.WithYAxisOpts(
			opts.YAxis{
				Name: "Yield (%)",
				Min:  yAxisMin(y),
			},
		),
	)
	return line
}

// LineResiduals plots the residual of every run on a shared date axis. Runs are expected
// to cover the same dates; dates missing from a run are gaps.
func LineResiduals(runs []*Run) *charts.Line {
	var dates []string
	index := make(map[string]int)
	for _, run := range runs {
		for _, d := range run.Dataset.DateStrings() {
			if _, exists := index[d]; !exists {
				index[d] = len(dates)
				dates = append(dates, d)
			}
		}
	}

	names := make([]string, 0, len(runs))
	colors := make([]string, 0, len(runs))
	y := make([][]float64, 0, len(runs))
	for _, run := range runs {
		res := make([]float64, len(dates))
		for i := range res {
			res[i] = math.NaN()
		}
		for i, r := range run.Residuals() {
			res[index[run.Dataset.Dates[i].String()]] = r
		}
		names = append(names, run.Model.DisplayName())
		colors = append(colors, reference.Color(run.Model))
		y = append(y, res)
	}

	return LineTSeries("Residual (predicted - actual)", names, colors, dates, y)
}

// BarMetrics compares the backend metrics of every run side by side.
func BarMetrics(runs []*Run) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: "Model Metrics",
			},
		),
		charts.WithTooltipOpts(
			opts.Tooltip{
				Trigger: "axis",
			},
		),
	)

	bar.SetXAxis([]string{"MAPE", "MAE", "MSE", "R2"})
	for _, run := range runs {
		m := run.Result.Metrics
		data := []opts.BarData{
			{Value: m.MAPE},
			{Value: m.MAE},
			{Value: m.MSE},
			{Value: "-"},
		}
		if m.R2 != nil {
			data[3] = opts.BarData{Value: *m.R2}
		}
		bar.AddSeries(
			run.Model.DisplayName(),
			data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: reference.Color(run.Model)}),
		)
	}
	return bar
}

// PlotRuns uses the Apache Echarts library to render an html page with a forecast chart per
// run followed by a metrics comparison and the residuals of every run.
func (d *Dashboard) PlotRuns(w io.Writer, runs []*Run) error {
	if len(runs) == 0 {
		return ErrNoRuns
	}

	page := components.NewPage()
	page.PageTitle = d.opt.PageTitle
	for _, run := range runs {
		page.AddCharts(LineRun(run))
	}
	page.AddCharts(
		BarMetrics(runs),
		LineResiduals(runs),
	)
	return page.Render(w)
}

func formatR2(r2 *float64) string {
	if r2 == nil {
		return "-"
	}
	return fmt.Sprintf("%.4f", *r2)
}

// TablePrint writes a table of the backend, recomputed and published metrics of every run.
func TablePrint(w io.Writer, runs []*Run) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tbl, "bond\tmodel\tsource\tmape\tmae\tmse\tr2\tobs\toutliers\t"); err != nil {
		return err
	}

	for _, run := range runs {
		m := run.Result.Metrics
		rows := [][]any{
			{"backend", m.MAPE, m.MAE, m.MSE, formatR2(m.R2)},
			{"recomputed", run.Scores.MAPE, run.Scores.MAE, run.Scores.MSE, formatR2(&run.Scores.R2)},
		}
		if ref := run.Reference; ref != nil {
			rows = append(rows, []any{"published", ref.MAPE, ref.MAE, ref.MSE, formatR2(ref.R2)})
		}
		for _, row := range rows {
			if _, err := fmt.Fprintf(tbl,
				"%s\t%s\t%s\t%.4f\t%.4f\t%.4f\t%s\t%d\t%d\t\n",
				run.Bond, run.Model, row[0], row[1], row[2], row[3], row[4],
				run.Dataset.Len(), len(run.Outliers),
			); err != nil {
				return err
			}
		}
	}
	return tbl.Flush()
}

// TablePrintReference writes the published metrics of every model on bond, best first.
func TablePrintReference(w io.Writer, bond bondapi.Bond) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tbl, "rank\tmodel\ttype\tmape\tmae\tmse\tr2\t"); err != nil {
		return err
	}
	for i, m := range reference.Ranked(bond) {
		ref, err := reference.ModelMetrics(m, bond)
		if err != nil {
			return err
		}
		info, err := reference.Model(m)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(tbl,
			"%d\t%s\t%s\t%.4f\t%.4f\t%.4f\t%s\t\n",
			i+1, m.DisplayName(), info.Type, ref.MAPE, ref.MAE, ref.MSE, formatR2(ref.R2),
		); err != nil {
			return err
		}
	}
	return tbl.Flush()
}
