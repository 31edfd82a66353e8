package heatmap

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/stabil-sim/stabil/internal/skill"
)

var classColors = map[Class]color.RGBA{
	ClassGood:    {R: 0x2e, G: 0xb8, B: 0x4b, A: 255},
	ClassCaution: {R: 0xf2, G: 0xc1, B: 0x1d, A: 255},
	ClassPoor:    {R: 0xe0, G: 0x3e, B: 0x2d, A: 255},
}

var classHex = map[Class]string{
	ClassGood:    "#2eb84b",
	ClassCaution: "#f2c11d",
	ClassPoor:    "#e03e2d",
}

// RenderPNG draws the classified cells over the ideal path.
func RenderPNG(w io.Writer, cells []Cell, ideal []r2.Vec, title string) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px, flipped)"
	p.X.Min, p.X.Max = 0, skill.FrameWidth
	p.Y.Min, p.Y.Max = 0, skill.FrameHeight

	if len(ideal) > 0 {
		pts := make(plotter.XYs, 0, len(ideal))
		for _, v := range ideal {
			pts = append(pts, plotter.XY{X: v.X, Y: flipY(v.Y)})
		}
		guide, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("ideal path: %w", err)
		}
		guide.GlyphStyle.Color = color.Gray{Y: 0x90}
		guide.GlyphStyle.Radius = vg.Points(1)
		guide.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(guide)
		p.Legend.Add("ideal path", guide)
	}

	groups := byClass(cells)
	for _, class := range classOrder {
		group := groups[class]
		if len(group) == 0 {
			continue
		}
		pts := make(plotter.XYs, 0, len(group))
		for _, c := range group {
			pts = append(pts, plotter.XY{X: c.X, Y: flipY(c.Y)})
		}
		s, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("%s points: %w", class, err)
		}
		s.GlyphStyle.Color = classColors[class]
		s.GlyphStyle.Radius = vg.Points(3)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(string(class), s)
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	wt, err := p.WriterTo(8*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("failed to create png writer: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write png: %w", err)
	}
	return nil
}
