package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/partexpand/pkg/partition"
)

const (
	chartWidth  = "100%"
	chartHeight = "500px"
)

// WriteChart renders an HTML bar chart of indices per partition.
func WriteChart(w io.Writer, s partition.Summary) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "partexpand",
			Width:     chartWidth,
			Height:    chartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Indices per partition",
			Subtitle: "max imbalance " + formatPercent(s.MaxImbalance),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Indices"}),
	)

	labels := make([]string, len(s.Partitions))
	data := make([]opts.BarData, len(s.Partitions))

	for i, ps := range s.Partitions {
		labels[i] = strconv.Itoa(int(ps.ID))
		data[i] = opts.BarData{Value: ps.Indices}
	}

	bar.SetXAxis(labels)
	bar.AddSeries("Indices", data)

	err := bar.Render(w)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	return nil
}
