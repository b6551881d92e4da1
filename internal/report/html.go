package report

import (
	"fmt"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/vapodymov/1D-CNN-Improvement/internal/cnn"
)

// Summary carries the values shown in the report header.
type Summary struct {
	RunID string
	RMSE  float64
	MAE   float64
	R2    float64
}

// WriteHTML renders the loss curves and held-out predictions into a single
// self-contained HTML page.
func WriteHTML(sum Summary, stats []cnn.EpochStats, yTrue, yPred []float64, path string) error {
	if len(stats) == 0 {
		return fmt.Errorf("no epoch stats to report")
	}
	if len(yTrue) != len(yPred) {
		return fmt.Errorf("predictions (%d) and targets (%d) differ", len(yPred), len(yTrue))
	}

	page := components.NewPage()
	page.AddCharts(lossChart(sum, stats), predictionChart(yTrue, yPred))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer f.Close()

	if err := page.Render(f); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return nil
}

func lossChart(sum Summary, stats []cnn.EpochStats) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Training Loss",
			Subtitle: fmt.Sprintf("run=%s rmse=%.4f mae=%.4f r2=%.4f",
				sum.RunID, sum.RMSE, sum.MAE, sum.R2),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Epoch"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "MSE"}),
	)

	epochs := make([]int, len(stats))
	train := make([]opts.LineData, len(stats))
	val := make([]opts.LineData, len(stats))
	for i, es := range stats {
		epochs[i] = es.Epoch
		train[i] = opts.LineData{Value: es.TrainLoss}
		val[i] = opts.LineData{Value: es.ValLoss}
	}

	line.SetXAxis(epochs).
		AddSeries("train", train).
		AddSeries("validation", val)
	return line
}

func predictionChart(yTrue, yPred []float64) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Predicted vs Actual"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Actual"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Predicted"}),
	)

	data := make([]opts.ScatterData, len(yTrue))
	for i := range yTrue {
		data[i] = opts.ScatterData{Value: []interface{}{yTrue[i], yPred[i]}}
	}

	scatter.AddSeries("held-out", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))
	return scatter
}
