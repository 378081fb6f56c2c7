package cli

import (
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/onlinelearn/pkg/errors"
)

// series is one line of a trace plot; x runs over 1..len(ys).
type series struct {
	name string
	ys   []float64
}

var palette = []color.Color{
	color.RGBA{R: 31, G: 119, B: 180, A: 255},
	color.RGBA{R: 255, G: 127, B: 14, A: 255},
	color.RGBA{R: 44, G: 160, B: 44, A: 255},
}

// savePlot writes the series as lines to a PNG (or any format plot.Save supports by extension).
func savePlot(path, title, xLabel, yLabel string, lines []series) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel

	for i, s := range lines {
		pts := make(plotter.XYs, len(s.ys))
		for j, y := range s.ys {
			pts[j].X = float64(j + 1)
			pts[j].Y = y
		}

		line, err := plotter.NewLine(pts)
		if err != nil {
			return errors.Wrapf(err, "failed to create line %q", s.name)
		}
		line.Width = vg.Points(1.5)
		line.Color = palette[i%len(palette)]
		p.Add(line)
		p.Legend.Add(s.name, line)
	}

	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return errors.Wrap(err, "failed to save plot")
	}
	return nil
}
