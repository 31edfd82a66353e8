package heatmap

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/stabil-sim/stabil/internal/skill"
)

// AssetsHost serves the echarts javascript.
var AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// Chart builds the replay scatter chart for cells over the ideal path.
func Chart(cells []Cell, ideal []r2.Vec, title, subtitle string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Theme: "dark", Width: "960px", Height: "720px", AssetsHost: AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: skill.FrameWidth, Name: "x (px)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: skill.FrameHeight, Name: "y (px, flipped)", NameLocation: "middle", NameGap: 30}),
	)

	if len(ideal) > 0 {
		guide := make([]opts.ScatterData, 0, len(ideal))
		for _, v := range ideal {
			guide = append(guide, opts.ScatterData{Value: []interface{}{v.X, flipY(v.Y)}})
		}
		scatter.AddSeries("ideal path", guide,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	}

	groups := byClass(cells)
	for _, class := range classOrder {
		data := make([]opts.ScatterData, 0, len(groups[class]))
		for _, c := range groups[class] {
			data = append(data, opts.ScatterData{
				Name:  string(c.State),
				Value: []interface{}{c.X, flipY(c.Y), fmt.Sprintf("%.1f", c.Distance)},
			})
		}
		scatter.AddSeries(string(class), data,
			charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 7}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: classHex[class]}))
	}
	return scatter
}

// RenderHTML writes a standalone replay page.
func RenderHTML(w io.Writer, cells []Cell, ideal []r2.Vec, title string) error {
	s := Summarize(cells)
	subtitle := fmt.Sprintf("good=%d caution=%d poor=%d", s.Good, s.Caution, s.Poor)
	if err := Chart(cells, ideal, title, subtitle).Render(w); err != nil {
		return fmt.Errorf("failed to render replay chart: %w", err)
	}
	return nil
}
