package loggers

import (
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// PlotRewards writes the episode return curve to a png
func PlotRewards(history []float64, title, savePath string) error {
	if err := os.MkdirAll(filepath.Dir(savePath), os.ModePerm); err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = "Return"

	points := make(plotter.XYs, len(history))
	for i, v := range history {
		points[i] = plotter.XY{
			X: float64(i),
			Y: v,
		}
	}
	line, err := plotter.NewLine(points)
	if err != nil {
		return err
	}
	line.Color = plotutil.Color(0)
	p.Add(line)
	p.Legend.Add("mean return", line)

	return p.Save(8*vg.Inch, 8*vg.Inch, savePath)
}
