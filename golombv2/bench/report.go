package bench

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
)

// Render turns a benchmark CSV into an HTML page with one line chart
// for run time and one for throughput.
func Render(csvPath, htmlPath string) error {
	rows, err := Load(csvPath)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.Errorf("benchmark file %s has no rows", csvPath)
	}

	labels := make([]string, len(rows))
	times := make([]opts.LineData, len(rows))
	rates := make([]opts.LineData, len(rows))
	for i, row := range rows {
		labels[i] = fmt.Sprintf("n=%d P=%d T=%d", row.N, row.Procs, row.Threads)
		times[i] = opts.LineData{Value: row.TimeS}
		rates[i] = opts.LineData{Value: row.StatesPerSecond()}
	}

	timeChart := charts.NewLine()
	timeChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Golomb search run time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "seconds"}),
	)
	timeChart.SetXAxis(labels).AddSeries("time_s", times)

	rateChart := charts.NewLine()
	rateChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Golomb search throughput"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "states/s"}),
	)
	rateChart.SetXAxis(labels).AddSeries("states_per_s", rates)

	page := components.NewPage()
	page.AddCharts(timeChart, rateChart)

	file, err := os.Create(htmlPath)
	if err != nil {
		return errors.Wrap(err, "create report file")
	}
	defer file.Close()

	return errors.Wrap(page.Render(file), "render report")
}
